// Package opencv provides an image loader backed by OpenCV. It is only used
// as a fallback when the Go decoders reject a file, and requires the OpenCV
// shared libraries at runtime.
package opencv

import (
	"fmt"
	"image"
	"os"

	"imagesync/imageprocessor"

	"gocv.io/x/gocv"
)

// Loader decodes images through gocv
type Loader struct{}

// NewLoader creates an OpenCV-backed loader
func NewLoader() *Loader {
	return &Loader{}
}

// CanLoad checks the extension and that the file is readable
func (l *Loader) CanLoad(path string) bool {
	if !imageprocessor.IsImageFile(path) {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// LoadImage reads the file with OpenCV and converts it to an image.Image
func (l *Loader) LoadImage(path string) (image.Image, error) {
	mat := gocv.IMRead(path, gocv.IMReadColor)
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("failed to load image with OpenCV: %s", path)
	}

	img, err := mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert OpenCV image %s: %w", path, err)
	}
	return img, nil
}

// Register installs the OpenCV loader as the registry's fallback
func Register(registry *imageprocessor.ImageLoaderRegistry) {
	registry.SetFallbackLoader(NewLoader())
}
