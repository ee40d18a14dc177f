package imageprocessor

import (
	"errors"
	"fmt"
	"image"
	"os"
)

// ErrDecode marks a file that could not be read or decoded as an image
var ErrDecode = errors.New("cannot decode image")

// ImageLoader interface defines methods for image loading
type ImageLoader interface {
	// CanLoad determines if this loader can handle the given file
	CanLoad(path string) bool

	// LoadImage decodes the file into a pixel-addressable image
	LoadImage(path string) (image.Image, error)
}

// BaseImageLoader provides common functionality for all image loaders
type BaseImageLoader struct {
	// Formats this loader can handle
	SupportedFormats []FormatType
}

// CanLoad checks if this loader supports the file's format
func (l *BaseImageLoader) CanLoad(path string) bool {
	format := GetFileFormat(path)

	for _, supported := range l.SupportedFormats {
		if format == supported {
			return fileExists(path)
		}
	}

	return false
}

// fileExists checks if a file exists and is accessible
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// newImageLoadError wraps a loader failure so callers can match ErrDecode
func newImageLoadError(path string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%w: %s", ErrDecode, path)
	}
	return fmt.Errorf("%w: %s: %w", ErrDecode, path, cause)
}
