package utils

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
)

// DatabasePath returns the sqlite file for a store name inside dir.
// A name without an extension gets ".db"; ":memory:" is passed through.
func DatabasePath(dir, storeName string) string {
	if storeName == ":memory:" {
		return storeName
	}
	if filepath.Ext(storeName) == "" {
		storeName += ".db"
	}
	if dir == "" || filepath.IsAbs(storeName) {
		return storeName
	}
	return filepath.Join(dir, storeName)
}

// ParseRatio parses an aspect ratio written as "16x9", "16:9" or "1.78"
func ParseRatio(s string) (float64, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	for _, sep := range []string{"x", ":", "/"} {
		w, h, found := strings.Cut(s, sep)
		if !found {
			continue
		}
		width, err := parseFinite(strings.TrimSpace(w))
		if err != nil {
			return 0, fmt.Errorf("invalid ratio width in %q: %w", s, err)
		}
		height, err := parseFinite(strings.TrimSpace(h))
		if err != nil {
			return 0, fmt.Errorf("invalid ratio height in %q: %w", s, err)
		}
		if width <= 0 || height <= 0 {
			return 0, fmt.Errorf("ratio %q must have positive sides", s)
		}
		return width / height, nil
	}

	ratio, err := parseFinite(s)
	if err != nil {
		return 0, fmt.Errorf("invalid ratio %q: %w", s, err)
	}
	if ratio <= 0 {
		return 0, fmt.Errorf("ratio %q must be positive", s)
	}
	return ratio, nil
}

// ParsePercent parses "10%" as 0.1; a value without "%" is taken as a fraction
func ParsePercent(s string) (float64, error) {
	s = strings.TrimSpace(s)
	scale := 1.0
	if trimmed, ok := strings.CutSuffix(s, "%"); ok {
		s = strings.TrimSpace(trimmed)
		scale = 100
	}

	v, err := parseFinite(s)
	if err != nil {
		return 0, fmt.Errorf("invalid percentage %q: %w", s, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("percentage %q must not be negative", s)
	}
	return v / scale, nil
}

// parseFinite is strconv.ParseFloat without NaN and the infinities
func parseFinite(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not a finite number", s)
	}
	return v, nil
}
