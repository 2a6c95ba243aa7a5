package thumbgen

import (
	"errors"
	"fmt"
	"strings"
)

// Validation errors
var (
	ErrEmptyImageData  = errors.New("image data cannot be empty")
	ErrInvalidMIMEType = errors.New("invalid or unsupported MIME type")
	ErrImageTooLarge   = errors.New("image data exceeds maximum size")
	ErrTooManyImages   = errors.New("too many input images")
)

// Image size limits
const (
	// MaxImageSize is the maximum allowed image size in bytes (20MB)
	MaxImageSize = 20 * 1024 * 1024

	// MaxInputImages is the maximum number of attachments per request
	// (main + template + references)
	MaxInputImages = 14
)

// ValidMIMETypes contains the supported image MIME types
var ValidMIMETypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// NormalizeMIMEType lowercases a media type, strips parameters and maps
// common aliases.
func NormalizeMIMEType(mime string) string {
	mime = strings.ToLower(strings.TrimSpace(mime))
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	switch mime {
	case "image/jpg", "image/pjpeg":
		return "image/jpeg"
	case "image/x-png":
		return "image/png"
	}
	return mime
}

// ValidateCredential fails with a ValidationError when no credential is set.
func ValidateCredential(credential Credential, provider Provider) error {
	if strings.TrimSpace(string(credential)) == "" {
		return &ValidationError{
			Field:   "credential",
			Message: fmt.Sprintf("please add your %s API key first", provider),
		}
	}
	return nil
}

// ValidateDescription fails with a ValidationError when the description is
// empty after trimming.
func ValidateDescription(description string) error {
	if strings.TrimSpace(description) == "" {
		return &ValidationError{
			Field:   "description",
			Message: "please enter a description for the thumbnail",
		}
	}
	return nil
}

// ValidateInputImage validates an input image.
func ValidateInputImage(img InputImage) error {
	if len(img.Data) == 0 {
		return ErrEmptyImageData
	}

	if len(img.Data) > MaxImageSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrImageTooLarge, len(img.Data), MaxImageSize)
	}

	if img.MIMEType == "" {
		return fmt.Errorf("%w: MIME type is required", ErrInvalidMIMEType)
	}

	if !ValidMIMETypes[NormalizeMIMEType(img.MIMEType)] {
		return fmt.Errorf("%w: %s", ErrInvalidMIMEType, img.MIMEType)
	}

	return nil
}

// ValidateAttachmentCount checks the total number of images a request
// would carry.
func ValidateAttachmentCount(n int) error {
	if n > MaxInputImages {
		return fmt.Errorf("%w: %d (max %d)", ErrTooManyImages, n, MaxInputImages)
	}
	return nil
}
