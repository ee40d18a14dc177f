package colorutil

import (
	"image/color"
	"math"
	"testing"

	"github.com/lucasb-eyer/go-colorful"
)

func TestDistanceIdenticalColorsIsZero(t *testing.T) {
	colors := []RGB{{0, 0, 0}, {255, 255, 255}, {12, 200, 99}, {250, 3, 180}}
	for _, alg := range Algorithms() {
		for _, c := range colors {
			if d := alg.Distance(c, c); d != 0 {
				t.Errorf("%s: distance(%v, %v) = %v, want 0", alg, c, c, d)
			}
		}
	}
}

func TestDistanceBlackWhite(t *testing.T) {
	black := RGB{0, 0, 0}
	white := RGB{255, 255, 255}

	// Pure lightness difference: every formula reports close to 100 for CIE76 and CIE2000.
	tests := []struct {
		alg  Algorithm
		want float64
		tol  float64
	}{
		{CIE76, 100, 0.01},
		{CIE2000, 100, 0.01},
	}
	for _, tt := range tests {
		t.Run(tt.alg.String(), func(t *testing.T) {
			got := tt.alg.Distance(black, white)
			if math.Abs(got-tt.want) > tt.tol {
				t.Errorf("Distance = %v, want %v", got, tt.want)
			}
		})
	}

	for _, alg := range Algorithms() {
		if d := alg.Distance(black, white); !(d > 0) {
			t.Errorf("%s: distance between black and white = %v, want > 0", alg, d)
		}
	}
}

// lab builds a color from Lab values on the 0-100 scale
func lab(l, a, b float64) colorful.Color {
	return colorful.Lab(l/labScale, a/labScale, b/labScale)
}

func TestDistanceReferenceValues(t *testing.T) {
	dark1 := lab(0.9, 16.3, -2.22)
	dark2 := lab(0.7, 14.2, -1.80)
	blue1 := lab(50, 2.6772, -79.7751)
	blue2 := lab(50, 0, -82.7485)

	// Published values: colormath delta_e_* for the dark pair, Sharma et al. for the blue pair
	tests := []struct {
		name     string
		alg      Algorithm
		ref, smp colorful.Color
		want     float64
	}{
		{"cie76 dark", CIE76, dark1, dark2, 2.151},
		{"cie94 dark", CIE94, dark1, dark2, 1.249},
		{"cie94 blue", CIE94, blue1, blue2, 1.395},
		{"cie2000 dark", CIE2000, dark1, dark2, 1.523},
		{"cie2000 blue", CIE2000, blue1, blue2, 2.0425},
		{"cmc dark", CMC, dark1, dark2, 1.443},
		// CMC weights by the reference color, so swapping the pair changes the result
		{"cmc dark swapped", CMC, dark2, dark1, 1.538},
		{"cmc blue", CMC, blue1, blue2, 1.739},
		{"cmc blue swapped", CMC, blue2, blue1, 1.701},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.alg.distance(tt.ref, tt.smp)
			if math.Abs(got-tt.want) > 1e-3 {
				t.Errorf("distance = %.4f, want %.4f", got, tt.want)
			}
		})
	}
}

func TestDistanceOrdersCloseAndFarColors(t *testing.T) {
	ref := RGB{100, 100, 100}
	near := RGB{102, 100, 100}
	far := RGB{200, 30, 30}
	for _, alg := range Algorithms() {
		dn := alg.Distance(ref, near)
		df := alg.Distance(ref, far)
		if dn >= df {
			t.Errorf("%s: near distance %v should be below far distance %v", alg, dn, df)
		}
	}
}

func TestParseAlgorithm(t *testing.T) {
	tests := []struct {
		in      string
		want    Algorithm
		wantErr bool
	}{
		{"0", CIE76, false},
		{"1", CMC, false},
		{"2", CIE94, false},
		{"3", CIE2000, false},
		{"cie2000", CIE2000, false},
		{" CMC ", CMC, false},
		{"delta_e_cie1994", CIE94, false},
		{"4", 0, true},
		{"-1", 0, true},
		{"euclid", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAlgorithm(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAlgorithm(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseAlgorithm(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	for _, alg := range Algorithms() {
		got, err := ParseAlgorithm(alg.String())
		if err != nil || got != alg {
			t.Errorf("ParseAlgorithm(%q) = %v, %v", alg.String(), got, err)
		}
	}
}

func TestModalColor(t *testing.T) {
	tests := []struct {
		name    string
		samples []RGB
		want    RGB
	}{
		{"single", []RGB{{1, 2, 3}}, RGB{1, 2, 3}},
		{"clear mode", []RGB{{10, 10, 10}, {10, 10, 10}, {200, 0, 0}}, RGB{10, 10, 10}},
		{"tie averages with truncation", []RGB{{0, 0, 0}, {255, 1, 3}}, RGB{127, 0, 1}},
		{"three-way tie", []RGB{{3, 0, 0}, {0, 3, 0}, {0, 0, 4}, {0, 0, 4}, {3, 0, 0}, {0, 3, 0}}, RGB{1, 1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ModalColor(tt.samples)
			if !ok {
				t.Fatal("ModalColor returned !ok")
			}
			if got != tt.want {
				t.Errorf("ModalColor = %v, want %v", got, tt.want)
			}
		})
	}

	if _, ok := ModalColor(nil); ok {
		t.Error("ModalColor(nil) should report !ok")
	}
}

func TestFromColorDropsAlpha(t *testing.T) {
	got := FromColor(color.NRGBA{R: 10, G: 20, B: 30, A: 128})
	if got != (RGB{10, 20, 30}) {
		t.Errorf("FromColor = %v", got)
	}
}

func TestLabScale(t *testing.T) {
	l, _, _ := RGB{255, 255, 255}.Lab()
	if math.Abs(l-100) > 0.01 {
		t.Errorf("white L = %v, want ~100", l)
	}
}
