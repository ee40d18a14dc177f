package selector

import (
	"errors"
	"math/rand/v2"
	"testing"

	"wallsieve/types"
)

func baseCriteria() Criteria {
	return Criteria{
		TargetRatio:    16.0 / 9.0,
		RatioDeviation: 0.1,
		MinWidth:       100,
		MinHeight:      100,
		MaxDeviation:   5,
	}
}

func record(w, h int, left, right float64) types.PictureRecord {
	return types.PictureRecord{Width: w, Height: h, LeftDeviation: left, RightDeviation: right, ComparisonAlgorithm: "cie2000"}
}

func TestAcceptsScenarios(t *testing.T) {
	tests := []struct {
		name   string
		rec    types.PictureRecord
		modify func(*Criteria)
		want   bool
	}{
		{"uniform edges", record(1920, 1080, 2, 3), nil, true},
		{"ratio path when edges fail", record(1920, 1080, 2, 3), func(c *Criteria) { c.MaxDeviation = 1 }, true},
		{"neither path", record(100, 2000, 50, 60), nil, false},
		{"too narrow", record(99, 1080, 0, 0), nil, false},
		{"too short", record(1920, 99, 0, 0), nil, false},
		{"minimum is inclusive", record(100, 100, 0, 0), nil, true},
		{"one edge at threshold", record(1000, 1000, 4.9, 5), nil, false},
		{"ratio at window edge", record(1600, 1000, 50, 50), func(c *Criteria) { c.TargetRatio = 1.6; c.RatioDeviation = 0 }, true},
		{"square fails both", record(1000, 1000, 9, 1), nil, false},
		{"algorithm filter blocks uniform path", record(1000, 1000, 1, 1), func(c *Criteria) { c.Algorithm = "cie76" }, false},
		{"algorithm filter keeps ratio path", record(1920, 1080, 99, 99), func(c *Criteria) { c.Algorithm = "cie76" }, true},
		{"zero height", record(1920, 0, 99, 99), func(c *Criteria) { c.MinHeight = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := baseCriteria()
			if tt.modify != nil {
				tt.modify(&c)
			}
			if got := c.Accepts(tt.rec); got != tt.want {
				t.Errorf("Accepts(%+v) = %v, want %v", tt.rec, got, tt.want)
			}
		})
	}
}

func TestRatioWindow(t *testing.T) {
	c := Criteria{TargetRatio: 2, RatioDeviation: 0.25}
	lo, hi := c.RatioWindow()
	if lo != 1.5 || hi != 2.5 {
		t.Errorf("RatioWindow() = %v, %v; want 1.5, 2.5", lo, hi)
	}
}

func TestAcceptsIsMonotonic(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	records := make([]types.PictureRecord, 500)
	for i := range records {
		records[i] = record(1+rng.IntN(4000), 1+rng.IntN(4000), rng.Float64()*30, rng.Float64()*30)
	}

	accepted := func(c Criteria) map[int]bool {
		out := make(map[int]bool)
		for i, r := range records {
			if c.Accepts(r) {
				out[i] = true
			}
		}
		return out
	}
	subset := func(a, b map[int]bool) bool {
		for i := range a {
			if !b[i] {
				return false
			}
		}
		return true
	}

	prev := baseCriteria()
	prev.MaxDeviation = 0
	prev.RatioDeviation = 0
	for step := 0; step < 40; step++ {
		next := prev
		if step%2 == 0 {
			next.MaxDeviation += 0.75
		} else {
			next.RatioDeviation += 0.05
		}
		if !subset(accepted(prev), accepted(next)) {
			t.Fatalf("relaxing %+v to %+v dropped records", prev, next)
		}
		prev = next
	}
}

func TestCriteriaValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Criteria)
	}{
		{"zero ratio", func(c *Criteria) { c.TargetRatio = 0 }},
		{"negative ratio deviation", func(c *Criteria) { c.RatioDeviation = -0.1 }},
		{"negative min width", func(c *Criteria) { c.MinWidth = -1 }},
		{"negative max deviation", func(c *Criteria) { c.MaxDeviation = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := baseCriteria()
			tt.modify(&c)
			if err := c.Validate(); !errors.Is(err, ErrInvalidCriteria) {
				t.Errorf("Validate() error = %v, want ErrInvalidCriteria", err)
			}
		})
	}
	if err := baseCriteria().Validate(); err != nil {
		t.Errorf("valid criteria rejected: %v", err)
	}
}
