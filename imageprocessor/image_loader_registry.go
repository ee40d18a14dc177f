package imageprocessor

import (
	"errors"
	"image"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
)

// ImageLoaderRegistry maintains a registry of image loaders
type ImageLoaderRegistry struct {
	loaders       map[string]ImageLoader
	defaultLoader ImageLoader
	mutex         sync.RWMutex
}

// NewImageLoaderRegistry creates a registry with every loader available on this system
func NewImageLoaderRegistry() *ImageLoaderRegistry {
	registry := &ImageLoaderRegistry{
		loaders: make(map[string]ImageLoader),
	}

	registry.registerStandardLoaders()
	registry.registerRawLoaders()
	registerPlatformLoaders(registry)

	return registry
}

// registerStandardLoaders registers the pure Go decoders
func (r *ImageLoaderRegistry) registerStandardLoaders() {
	standardLoader := NewStandardImageLoader()
	for _, ext := range extensionsFor(standardLoader.SupportedFormats...) {
		r.RegisterLoader(ext, standardLoader)
	}

	// Files with unknown extensions are still attempted; the decoder sniffs the content
	r.defaultLoader = standardLoader
}

// registerRawLoaders registers the embedded preview loader when exiftool is installed
func (r *ImageLoaderRegistry) registerRawLoaders() {
	if !hasExiftool() {
		slog.Debug("exiftool not found, RAW files will not be decoded")
		return
	}

	rawLoader := NewExiftoolPreviewLoader()
	for _, ext := range extensionsFor(rawLoader.SupportedFormats...) {
		r.RegisterLoader(ext, rawLoader)
	}
	slog.Debug("registered exiftool preview loader for RAW formats")
}

// RegisterLoader registers a new loader for a specific file extension
func (r *ImageLoaderRegistry) RegisterLoader(ext string, loader ImageLoader) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ext = strings.ToLower(ext)
	r.loaders[ext] = loader
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

// CanLoadFile checks that path has a known image extension and that the
// loader registered for it accepts the file
func (r *ImageLoaderRegistry) CanLoadFile(path string) bool {
	if !IsImageFile(path) {
		return false
	}

	r.mutex.RLock()
	loader, ok := r.loaders[strings.ToLower(filepath.Ext(path))]
	r.mutex.RUnlock()

	return ok && loader.CanLoad(path)
}

// LoadImage loads an image using the appropriate registered loader
func (r *ImageLoaderRegistry) LoadImage(path string) (image.Image, error) {
	loader := r.GetLoader(path)
	if loader == nil {
		return nil, newImageLoadError(path, errors.New("no suitable loader"))
	}
	if loader == r.defaultLoader && IsRawFormat(path) {
		return nil, newImageLoadError(path, errors.New("RAW files need exiftool installed"))
	}

	return loader.LoadImage(path)
}

// Close releases loaders that hold external resources
func (r *ImageLoaderRegistry) Close() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	seen := make(map[ImageLoader]bool)
	var errs []error
	for _, loader := range r.loaders {
		if seen[loader] {
			continue
		}
		seen[loader] = true
		if c, ok := loader.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}
