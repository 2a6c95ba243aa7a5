package thumbgen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Storage persists downloaded thumbnails.
// This is a minimal interface designed for easy integration - implementations
// can wrap existing storage clients (GCS, S3, etc.) with this interface.
type Storage interface {
	// SaveFile saves image data under name and returns where it can be found.
	SaveFile(ctx context.Context, data []byte, name string, contentType string) (string, error)
}

// StorageResult contains information about a saved image.
type StorageResult struct {
	// Location is where the image was written (URL or file path)
	Location string

	// Name is the download file name
	Name string

	// Size is the number of bytes saved
	Size int
}

// DownloadName returns the file name offered for the image at index.
func DownloadName(index int) string {
	return fmt.Sprintf("thumbnail-%d.png", index+1)
}

// SaveToStorage decodes and saves each image as thumbnail-{i+1}.png.
// It stops at the first failure and returns what was saved so far.
func SaveToStorage(ctx context.Context, storage Storage, images []GeneratedImage) ([]StorageResult, error) {
	if storage == nil {
		return nil, ErrStorageNotConfigured
	}

	results := make([]StorageResult, 0, len(images))
	for i, img := range images {
		data, err := DecodeBytes(img.Encoded())
		if err != nil {
			return results, fmt.Errorf("image %s: %w", img.ID, err)
		}

		name := DownloadName(i)
		location, err := storage.SaveFile(ctx, data, name, img.MIMEType)
		if err != nil {
			return results, err
		}

		results = append(results, StorageResult{
			Location: location,
			Name:     name,
			Size:     len(data),
		})
	}

	return results, nil
}

// FileStorage writes files into a local directory.
type FileStorage struct {
	Dir string
}

// SaveFile writes data to Dir/name, creating Dir if needed.
func (s *FileStorage) SaveFile(ctx context.Context, data []byte, name string, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(s.Dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return path, nil
}

// GetMIMEType guesses an image media type from a file name.
func GetMIMEType(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	default:
		return "image/png"
	}
}

// LoadInputImage reads an image file from disk.
func LoadInputImage(path string) (InputImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return InputImage{}, fmt.Errorf("read image: %w", err)
	}
	return InputImage{
		Data:     data,
		MIMEType: GetMIMEType(path),
		Name:     filepath.Base(path),
	}, nil
}
