//go:build gocv

package imageprocessor

import (
	"errors"
	"image"

	"gocv.io/x/gocv"
)

// OpenCVImageLoader reads the formats only OpenCV can decode
type OpenCVImageLoader struct {
	BaseImageLoader
}

// NewOpenCVImageLoader creates a loader backed by gocv
func NewOpenCVImageLoader() *OpenCVImageLoader {
	return &OpenCVImageLoader{
		BaseImageLoader: BaseImageLoader{
			SupportedFormats: []FormatType{FormatJP2, FormatPNM, FormatEXR, FormatHDR},
		},
	}
}

// LoadImage reads the file as 8-bit BGR and converts it to an image.Image
func (l *OpenCVImageLoader) LoadImage(path string) (image.Image, error) {
	mat := gocv.IMRead(path, gocv.IMReadColor)
	defer mat.Close()

	if mat.Empty() {
		return nil, newImageLoadError(path, errors.New("opencv returned an empty matrix"))
	}

	img, err := mat.ToImage()
	if err != nil {
		return nil, newImageLoadError(path, err)
	}
	return img, nil
}

func registerPlatformLoaders(r *ImageLoaderRegistry) {
	loader := NewOpenCVImageLoader()
	for _, ext := range extensionsFor(loader.SupportedFormats...) {
		r.RegisterLoader(ext, loader)
	}
}
