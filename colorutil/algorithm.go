// Package colorutil provides the perceptual color distances used to score image edges.
package colorutil

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Algorithm selects one of the supported delta-E formulas
type Algorithm int

// Supported algorithms, in order of increasing accuracy and cost.
// The numeric values are the indexes users pick them by.
const (
	CIE76 Algorithm = iota
	CMC
	CIE94
	CIE2000
)

// go-colorful works on L in [0,1]; thresholds are expressed on the usual 0-100 scale.
const labScale = 100.0

// Algorithms lists every supported algorithm
func Algorithms() []Algorithm {
	return []Algorithm{CIE76, CMC, CIE94, CIE2000}
}

// String returns the identifier persisted alongside deviations
func (a Algorithm) String() string {
	switch a {
	case CIE76:
		return "cie76"
	case CMC:
		return "cmc"
	case CIE94:
		return "cie94"
	case CIE2000:
		return "cie2000"
	default:
		return fmt.Sprintf("algorithm(%d)", int(a))
	}
}

// Valid reports whether a is one of the supported algorithms
func (a Algorithm) Valid() bool {
	return a >= CIE76 && a <= CIE2000
}

// Distance returns the perceptual distance of sample from reference.
// CMC and CIE94 are not symmetric; reference plays the role of the standard.
func (a Algorithm) Distance(reference, sample RGB) float64 {
	return a.distance(reference.Colorful(), sample.Colorful())
}

func (a Algorithm) distance(ref, smp colorful.Color) float64 {
	switch a {
	case CIE76:
		return ref.DistanceLab(smp) * labScale
	case CMC:
		return distanceCMC(ref, smp, 2, 1)
	case CIE94:
		return ref.DistanceCIE94(smp) * labScale
	case CIE2000:
		return ref.DistanceCIEDE2000(smp) * labScale
	default:
		return math.NaN()
	}
}

// ParseAlgorithm accepts either an index ("3") or an identifier ("cie2000")
func ParseAlgorithm(s string) (Algorithm, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if idx, err := strconv.Atoi(s); err == nil {
		a := Algorithm(idx)
		if !a.Valid() {
			return 0, fmt.Errorf("unknown algorithm index %d", idx)
		}
		return a, nil
	}

	switch s {
	case "cie76", "cie1976", "delta_e_cie1976":
		return CIE76, nil
	case "cmc", "delta_e_cmc":
		return CMC, nil
	case "cie94", "cie1994", "delta_e_cie1994":
		return CIE94, nil
	case "cie2000", "ciede2000", "delta_e_cie2000":
		return CIE2000, nil
	}
	return 0, fmt.Errorf("unknown algorithm %q", s)
}

// distanceCMC implements CMC l:c with the reference color as the standard
func distanceCMC(ref, smp colorful.Color, l, c float64) float64 {
	l1, a1, b1 := ref.Lab()
	l2, a2, b2 := smp.Lab()
	l1, a1, b1 = l1*labScale, a1*labScale, b1*labScale
	l2, a2, b2 = l2*labScale, a2*labScale, b2*labScale

	c1 := math.Hypot(a1, b1)
	c2 := math.Hypot(a2, b2)
	dL := l1 - l2
	dC := c1 - c2
	dA := a1 - a2
	dB := b1 - b2
	dH2 := dA*dA + dB*dB - dC*dC
	dH := 0.0
	if dH2 > 0 {
		dH = math.Sqrt(dH2)
	}

	h1 := math.Atan2(b1, a1) * 180 / math.Pi
	if h1 < 0 {
		h1 += 360
	}

	c1p4 := c1 * c1 * c1 * c1
	f := math.Sqrt(c1p4 / (c1p4 + 1900))

	var t float64
	if h1 >= 164 && h1 <= 345 {
		t = 0.56 + math.Abs(0.2*math.Cos((h1+168)*math.Pi/180))
	} else {
		t = 0.36 + math.Abs(0.4*math.Cos((h1+35)*math.Pi/180))
	}

	sl := 0.511
	if l1 >= 16 {
		sl = (0.040975 * l1) / (1 + 0.01765*l1)
	}
	sc := (0.0638*c1)/(1+0.0131*c1) + 0.638
	sh := sc * (f*t + 1 - f)

	return math.Sqrt(sq(dL/(l*sl)) + sq(dC/(c*sc)) + sq(dH/sh))
}

func sq(v float64) float64 {
	return v * v
}
