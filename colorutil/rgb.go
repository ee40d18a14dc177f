package colorutil

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// RGB is an 8-bit sRGB triple
type RGB struct {
	R, G, B uint8
}

// FromColor drops alpha after converting to non-premultiplied form
func FromColor(c color.Color) RGB {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return RGB{R: n.R, G: n.G, B: n.B}
}

// Colorful scales the triple into go-colorful's [0,1] sRGB space
func (c RGB) Colorful() colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}
}

// Lab returns CIE Lab (D65) with L on the 0-100 scale
func (c RGB) Lab() (l, a, b float64) {
	l, a, b = c.Colorful().Lab()
	return l * labScale, a * labScale, b * labScale
}

// ModalColor returns the most frequent triple among samples.
// Ties are resolved by averaging each channel over all tied triples, truncating.
func ModalColor(samples []RGB) (RGB, bool) {
	if len(samples) == 0 {
		return RGB{}, false
	}

	counts := make(map[RGB]int, len(samples))
	best := 0
	for _, s := range samples {
		counts[s]++
		if counts[s] > best {
			best = counts[s]
		}
	}

	var r, g, b, n int
	for c, count := range counts {
		if count != best {
			continue
		}
		r += int(c.R)
		g += int(c.G)
		b += int(c.B)
		n++
	}

	return RGB{R: uint8(r / n), G: uint8(g / n), B: uint8(b / n)}, true
}
