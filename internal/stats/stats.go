// Package stats provides the summary statistics used across feature
// extraction and model fitting. All standard deviations are sample
// (n-1) deviations, via gonum, so extraction, normalization, and the
// tests that check them share one convention.
package stats

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary is the reduction of a scalar signal accumulated over samples.
type Summary struct {
	Mean  float64
	Std   float64
	Min   float64
	Max   float64
	Count int
}

// Summarize reduces values to a Summary. An empty input reduces to the
// zero Summary; a single sample has Std 0.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	return Summary{
		Mean:  stat.Mean(values, nil),
		Std:   StdDev(values),
		Min:   floats.Min(values),
		Max:   floats.Max(values),
		Count: len(values),
	}
}

// Mean returns the arithmetic mean, or 0 for an empty input.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// StdDev returns the sample standard deviation, or 0 when fewer than
// two samples are available.
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.StdDev(values, nil)
}

// MeanStdDev returns both moments in one pass.
func MeanStdDev(values []float64) (mean, std float64) {
	if len(values) == 0 {
		return 0, 0
	}
	if len(values) < 2 {
		return stat.Mean(values, nil), 0
	}
	return stat.MeanStdDev(values, nil)
}

// Max returns the largest value, or 0 for an empty input.
func Max(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return floats.Max(values)
}

// Min returns the smallest value, or 0 for an empty input.
func Min(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return floats.Min(values)
}

// Series accumulates scalar samples frame by frame and reduces them at
// the end. It is the accumulate-then-reduce buffer behind every
// per-frame signal in the extractor.
type Series struct {
	values []float64
}

// NewSeries returns a Series with room for n samples.
func NewSeries(n int) *Series {
	return &Series{values: make([]float64, 0, n)}
}

// Add appends one sample.
func (s *Series) Add(v float64) {
	s.values = append(s.values, v)
}

// Len returns the number of accumulated samples.
func (s *Series) Len() int {
	return len(s.values)
}

// Summary reduces the accumulated samples.
func (s *Series) Summary() Summary {
	return Summarize(s.values)
}

// Values exposes the raw samples (read-only by convention).
func (s *Series) Values() []float64 {
	return s.values
}
