package thumbgen

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"io"
	"net/http"
	"path"
	"regexp"
	"strings"
)

var dataURLRe = regexp.MustCompile(`^data:([^;,]+);base64,(.+)$`)

// EncodeToTransport checks that img holds bytes of its declared media type
// and returns the base64 transport form. The media type is preserved.
func EncodeToTransport(img InputImage) (EncodedImage, error) {
	if err := ValidateInputImage(img); err != nil {
		return EncodedImage{}, &DecodeError{MIMEType: img.MIMEType, Reason: "invalid input image", Err: err}
	}

	declared := NormalizeMIMEType(img.MIMEType)
	sniffed := NormalizeMIMEType(http.DetectContentType(img.Data))
	if sniffed != declared {
		return EncodedImage{}, &DecodeError{
			MIMEType: declared,
			Reason:   fmt.Sprintf("content looks like %s", sniffed),
		}
	}

	// webp has no decoder in the standard library; the signature check above is all we get.
	if declared != "image/webp" {
		if _, _, err := image.DecodeConfig(bytes.NewReader(img.Data)); err != nil {
			return EncodedImage{}, &DecodeError{MIMEType: declared, Reason: "corrupt image header", Err: err}
		}
	}

	return EncodeBytes(img.Data, declared), nil
}

// EncodeBytes base64-encodes data without inspecting it. Providers use it to
// normalize raw response bytes.
func EncodeBytes(data []byte, mimeType string) EncodedImage {
	return EncodedImage{
		Data:     base64.StdEncoding.EncodeToString(data),
		MIMEType: mimeType,
	}
}

// DecodeBytes returns the raw bytes of an encoded image.
func DecodeBytes(enc EncodedImage) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(enc.Data)
	if err != nil {
		return nil, &DecodeError{MIMEType: enc.MIMEType, Reason: "invalid base64", Err: err}
	}
	return data, nil
}

// DecodeForDisplay returns a self-contained data URL for enc.
func DecodeForDisplay(enc EncodedImage) (string, error) {
	if enc.MIMEType == "" {
		return "", &DecodeError{Reason: "missing media type"}
	}
	if _, err := DecodeBytes(enc); err != nil {
		return "", err
	}
	return "data:" + enc.MIMEType + ";base64," + enc.Data, nil
}

// ParseDataURL is the inverse of DecodeForDisplay.
func ParseDataURL(locator string) (EncodedImage, error) {
	m := dataURLRe.FindStringSubmatch(locator)
	if m == nil {
		return EncodedImage{}, &DecodeError{Reason: "not a base64 data URL"}
	}
	enc := EncodedImage{Data: m[2], MIMEType: m[1]}
	if _, err := DecodeBytes(enc); err != nil {
		return EncodedImage{}, err
	}
	return enc, nil
}

// FetchRemoteAsBinary downloads url. A transport failure or a non-2xx status
// is reported as a *FetchError.
func FetchRemoteAsBinary(ctx context.Context, client *http.Client, url string) (InputImage, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return InputImage{}, &FetchError{URL: url, Err: err}
	}

	resp, err := client.Do(req)
	if err != nil {
		return InputImage{}, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return InputImage{}, &FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxImageSize+1))
	if err != nil {
		return InputImage{}, &FetchError{URL: url, Err: err}
	}
	if len(data) > MaxImageSize {
		return InputImage{}, &FetchError{URL: url, Err: ErrImageTooLarge}
	}

	mimeType := NormalizeMIMEType(resp.Header.Get("Content-Type"))
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = NormalizeMIMEType(http.DetectContentType(data))
	}

	return InputImage{
		Data:     data,
		MIMEType: mimeType,
		Name:     path.Base(req.URL.Path),
	}, nil
}
