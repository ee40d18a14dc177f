package imageprocessor

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"log/slog"
	"strings"
	"sync"

	"github.com/barasher/go-exiftool"
	"github.com/disintegration/imaging"
)

// Preview tags in order of preference, largest first
var previewTags = []string{
	"JpgFromRaw",
	"LargestImagePreview",
	"PreviewImage",
	"OtherImage",
	"ThumbnailImage",
}

// ExiftoolPreviewLoader reads camera RAW files through the JPEG preview embedded in them
type ExiftoolPreviewLoader struct {
	BaseImageLoader

	once    sync.Once
	mu      sync.Mutex
	et      *exiftool.Exiftool
	initErr error
	closed  bool
}

var errLoaderClosed = errors.New("loader closed")

// NewExiftoolPreviewLoader creates a RAW loader; the exiftool process starts on first use
func NewExiftoolPreviewLoader() *ExiftoolPreviewLoader {
	return &ExiftoolPreviewLoader{
		BaseImageLoader: BaseImageLoader{
			SupportedFormats: []FormatType{
				FormatRAW,
				FormatCR2,
				FormatCR3,
				FormatNEF,
				FormatARW,
				FormatDNG,
			},
		},
	}
}

func (l *ExiftoolPreviewLoader) tool() (*exiftool.Exiftool, error) {
	l.once.Do(func() {
		l.et, l.initErr = exiftool.NewExiftool(
			exiftool.ExtractAllBinaryMetadata(),
			exiftool.Buffer(make([]byte, 128*1024), 64*1024*1024),
		)
		if l.initErr != nil {
			slog.Error("failed to start exiftool", "error", l.initErr)
		}
	})
	return l.et, l.initErr
}

// LoadImage decodes the largest embedded preview of a RAW file
func (l *ExiftoolPreviewLoader) LoadImage(path string) (image.Image, error) {
	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if closed {
		return nil, newImageLoadError(path, errLoaderClosed)
	}

	et, err := l.tool()
	if err != nil {
		return nil, newImageLoadError(path, err)
	}

	// A single exiftool process serves one request at a time
	l.mu.Lock()
	if l.closed || l.et == nil {
		l.mu.Unlock()
		return nil, newImageLoadError(path, errLoaderClosed)
	}
	infos := et.ExtractMetadata(path)
	l.mu.Unlock()

	if len(infos) == 0 {
		return nil, newImageLoadError(path, errors.New("no metadata extracted"))
	}
	if infos[0].Err != nil {
		return nil, newImageLoadError(path, infos[0].Err)
	}

	for _, tag := range previewTags {
		value, err := infos[0].GetString(tag)
		if err != nil {
			continue
		}
		img, err := decodeBinaryField(value)
		if err != nil {
			slog.Debug("embedded preview not decodable", "path", path, "tag", tag, "error", err)
			continue
		}
		slog.Debug("decoded embedded preview", "path", path, "tag", tag)
		return img, nil
	}

	return nil, newImageLoadError(path, errors.New("no embedded preview"))
}

// Close stops the exiftool process if it was started
func (l *ExiftoolPreviewLoader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.closed = true
	if l.et == nil {
		return nil
	}
	err := l.et.Close()
	l.et = nil
	return err
}

// decodeBinaryField decodes an exiftool "base64:" value into an image
func decodeBinaryField(value string) (image.Image, error) {
	payload, ok := strings.CutPrefix(value, "base64:")
	if !ok {
		return nil, errors.New("field is not binary")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, err
	}
	return imaging.Decode(bytes.NewReader(data))
}
