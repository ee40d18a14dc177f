// Package selector picks stored pictures by aspect ratio and edge uniformity
// and copies the matching files into a destination folder.
package selector

import (
	"errors"
	"fmt"

	"wallsieve/types"
)

// ErrInvalidCriteria is returned for thresholds that cannot select anything sensibly
var ErrInvalidCriteria = errors.New("invalid selection criteria")

// Criteria holds the thresholds a record is checked against
type Criteria struct {
	TargetRatio    float64
	RatioDeviation float64
	MinWidth       int
	MinHeight      int
	MaxDeviation   float64
	// Algorithm, when set, limits the uniformity path to records scored with it
	Algorithm string
}

// Validate checks the threshold ranges
func (c Criteria) Validate() error {
	if c.TargetRatio <= 0 {
		return fmt.Errorf("%w: target ratio %v must be positive", ErrInvalidCriteria, c.TargetRatio)
	}
	if c.RatioDeviation < 0 {
		return fmt.Errorf("%w: ratio deviation %v is negative", ErrInvalidCriteria, c.RatioDeviation)
	}
	if c.MinWidth < 0 || c.MinHeight < 0 {
		return fmt.Errorf("%w: minimum size %dx%d is negative", ErrInvalidCriteria, c.MinWidth, c.MinHeight)
	}
	if c.MaxDeviation < 0 {
		return fmt.Errorf("%w: max deviation %v is negative", ErrInvalidCriteria, c.MaxDeviation)
	}
	return nil
}

// RatioWindow returns the inclusive bounds an image ratio must fall within
func (c Criteria) RatioWindow() (lo, hi float64) {
	return c.TargetRatio * (1 - c.RatioDeviation), c.TargetRatio * (1 + c.RatioDeviation)
}

// Accepts reports whether rec is large enough and either has uniform edges
// or already has an aspect ratio close to the target
func (c Criteria) Accepts(rec types.PictureRecord) bool {
	if rec.Width < c.MinWidth || rec.Height < c.MinHeight {
		return false
	}
	return c.UniformEdges(rec) || c.RatioMatches(rec)
}

// UniformEdges reports whether both edge deviations are below the maximum
func (c Criteria) UniformEdges(rec types.PictureRecord) bool {
	if c.Algorithm != "" && rec.ComparisonAlgorithm != c.Algorithm {
		return false
	}
	return rec.LeftDeviation < c.MaxDeviation && rec.RightDeviation < c.MaxDeviation
}

// RatioMatches reports whether the record's width/height falls within the ratio window
func (c Criteria) RatioMatches(rec types.PictureRecord) bool {
	if rec.Height <= 0 {
		return false
	}
	lo, hi := c.RatioWindow()
	ratio := rec.AspectRatio()
	return ratio >= lo && ratio <= hi
}
