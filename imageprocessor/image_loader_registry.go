package imageprocessor

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"sync"

	"imagesync/logging"
)

// ImageLoaderRegistry maintains a registry of image loaders
type ImageLoaderRegistry struct {
	loaders        map[string]ImageLoader
	defaultLoader  ImageLoader
	fallbackLoader ImageLoader
	mutex          sync.RWMutex
}

// NewImageLoaderRegistry creates a new image loader registry
func NewImageLoaderRegistry() *ImageLoaderRegistry {
	registry := &ImageLoaderRegistry{
		loaders: make(map[string]ImageLoader),
	}

	registry.registerStandardLoaders()

	return registry
}

// registerStandardLoaders registers the Go decoders for every supported extension
func (r *ImageLoaderRegistry) registerStandardLoaders() {
	standardLoader := NewStandardImageLoader()

	for _, ext := range GetSupportedExtensions() {
		r.RegisterLoader(ext, standardLoader)
	}

	r.defaultLoader = standardLoader
}

// RegisterLoader registers a new loader for a specific file extension
func (r *ImageLoaderRegistry) RegisterLoader(ext string, loader ImageLoader) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ext = strings.ToLower(ext)
	r.loaders[ext] = loader
}

// SetFallbackLoader installs a loader that is tried when the primary one fails
func (r *ImageLoaderRegistry) SetFallbackLoader(loader ImageLoader) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.fallbackLoader = loader
}

// GetLoader returns the appropriate loader for the given path
func (r *ImageLoaderRegistry) GetLoader(path string) ImageLoader {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	ext := strings.ToLower(filepath.Ext(path))
	if loader, ok := r.loaders[ext]; ok {
		return loader
	}

	return r.defaultLoader
}

// CanLoadFile checks if any registered loader can handle the given file
func (r *ImageLoaderRegistry) CanLoadFile(path string) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	ext := strings.ToLower(filepath.Ext(path))
	_, ok := r.loaders[ext]
	return ok
}

// LoadImage loads an image using the appropriate registered loader, retrying
// with the fallback loader when one is configured
func (r *ImageLoaderRegistry) LoadImage(path string) (image.Image, error) {
	loader := r.GetLoader(path)
	if loader == nil {
		return nil, fmt.Errorf("no suitable loader found for: %s", path)
	}

	img, err := loader.LoadImage(path)
	if err == nil {
		return img, nil
	}

	r.mutex.RLock()
	fallback := r.fallbackLoader
	r.mutex.RUnlock()

	if fallback == nil || !fallback.CanLoad(path) {
		return nil, err
	}

	logging.DebugLog("Primary decoder failed for %s, trying fallback: %v", path, err)
	img, fbErr := fallback.LoadImage(path)
	if fbErr != nil {
		return nil, errors.Join(err, fbErr)
	}
	return img, nil
}
