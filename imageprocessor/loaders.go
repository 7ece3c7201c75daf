package imageprocessor

import (
	"fmt"
	"image"
	"os"

	// Register decoders beyond the standard library set
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

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

// StandardImageLoader decodes every supported format with the Go decoders
type StandardImageLoader struct {
	BaseImageLoader
}

// NewStandardImageLoader creates a new loader for standard image formats
func NewStandardImageLoader() *StandardImageLoader {
	return &StandardImageLoader{
		BaseImageLoader: BaseImageLoader{
			SupportedFormats: []FormatType{
				FormatJPEG,
				FormatPNG,
				FormatGIF,
				FormatBMP,
				FormatTIFF,
				FormatWEBP,
			},
		},
	}
}

// LoadImage decodes the file as stored. EXIF orientation is not applied.
func (l *StandardImageLoader) LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, newImageLoadError("failed to open image", path, err)
	}
	defer f.Close()

	img, err := imaging.Decode(f)
	if err != nil {
		return nil, newImageLoadError("failed to decode image", path, err)
	}
	return img, nil
}

// fileExists checks if a file exists and is accessible
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// newImageLoadError creates a standardized error for image loading failures
func newImageLoadError(message, path string, err error) error {
	if err == nil {
		return fmt.Errorf("%s: %s", message, path)
	}
	return fmt.Errorf("%s: %s: %w", message, path, err)
}
