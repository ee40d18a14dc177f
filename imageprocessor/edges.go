package imageprocessor

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/stat"

	"wallsieve/colorutil"
)

// ErrInvalidInput is returned when an image or configuration cannot be analyzed
var ErrInvalidInput = errors.New("invalid input for edge analysis")

// EdgeOptions configures how the edges of an image are sampled and compared
type EdgeOptions struct {
	TopCrop      float64
	BottomCrop   float64
	SampleStride int
	Algorithm    colorutil.Algorithm
}

// Validate checks the option ranges
func (o EdgeOptions) Validate() error {
	if o.TopCrop < 0 || o.TopCrop >= 1 {
		return fmt.Errorf("%w: top crop %v outside [0,1)", ErrInvalidInput, o.TopCrop)
	}
	if o.BottomCrop < 0 || o.BottomCrop >= 1 {
		return fmt.Errorf("%w: bottom crop %v outside [0,1)", ErrInvalidInput, o.BottomCrop)
	}
	if o.TopCrop+o.BottomCrop >= 1 {
		return fmt.Errorf("%w: crops %v+%v remove the whole image", ErrInvalidInput, o.TopCrop, o.BottomCrop)
	}
	if o.SampleStride < 1 {
		return fmt.Errorf("%w: sample stride %d must be positive", ErrInvalidInput, o.SampleStride)
	}
	if !o.Algorithm.Valid() {
		return fmt.Errorf("%w: unknown algorithm %d", ErrInvalidInput, int(o.Algorithm))
	}
	return nil
}

// EdgeDeviation holds the mean perceptual distance of each edge from its modal color
type EdgeDeviation struct {
	Left  float64
	Right float64
}

// AnalyzeEdges scores how uniform the leftmost and rightmost columns of img are
// within the vertical band left after cropping. Zero means a single-colored edge.
func AnalyzeEdges(img image.Image, opts EdgeOptions) (EdgeDeviation, error) {
	if err := opts.Validate(); err != nil {
		return EdgeDeviation{}, err
	}
	if img == nil {
		return EdgeDeviation{}, fmt.Errorf("%w: nil image", ErrInvalidInput)
	}

	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width < 2 {
		return EdgeDeviation{}, fmt.Errorf("%w: width %d has no distinct left and right edges", ErrInvalidInput, width)
	}

	top := int(float64(height) * opts.TopCrop)
	bottom := int(float64(height) * (1 - opts.BottomCrop))
	if bottom <= top {
		return EdgeDeviation{}, fmt.Errorf("%w: cropping leaves no rows of %d", ErrInvalidInput, height)
	}

	y0, y1 := b.Min.Y+top, b.Min.Y+bottom
	left := sampleColumn(img, b.Min.X, y0, y1, opts.SampleStride)
	right := sampleColumn(img, b.Max.X-1, y0, y1, opts.SampleStride)

	return EdgeDeviation{
		Left:  columnDeviation(left, opts.Algorithm),
		Right: columnDeviation(right, opts.Algorithm),
	}, nil
}

// sampleColumn returns every stride-th pixel of column x between rows y0 and y1
func sampleColumn(img image.Image, x, y0, y1, stride int) []colorutil.RGB {
	col := imaging.Crop(img, image.Rect(x, y0, x+1, y1))
	rows := col.Bounds().Dy()

	samples := make([]colorutil.RGB, 0, rows/stride+1)
	for y := 0; y < rows; y += stride {
		i := y * col.Stride
		samples = append(samples, colorutil.RGB{R: col.Pix[i], G: col.Pix[i+1], B: col.Pix[i+2]})
	}
	return samples
}

// columnDeviation averages the distance of each sample from the samples' modal color
func columnDeviation(samples []colorutil.RGB, alg colorutil.Algorithm) float64 {
	modal, ok := colorutil.ModalColor(samples)
	if !ok {
		return 0
	}

	distances := make([]float64, len(samples))
	for i, s := range samples {
		distances[i] = alg.Distance(modal, s)
	}
	return stat.Mean(distances, nil)
}
