// Package imageprocessor loads images and computes the exact and perceptual
// fingerprints used to decide whether two files show the same picture.
package imageprocessor

import "image"

// ImageLoader is the interface that all image loaders must implement
type ImageLoader interface {
	// CanLoad checks if the loader can handle the given file
	CanLoad(path string) bool

	// LoadImage decodes and returns the image
	LoadImage(path string) (image.Image, error)
}
