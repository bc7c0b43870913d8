package stats

import (
	"math"
	"testing"
)

func TestSummarize_Basic(t *testing.T) {
	s := Summarize([]float64{2, 4, 4, 4, 5, 5, 7, 9})

	if s.Count != 8 {
		t.Errorf("Count = %d, want 8", s.Count)
	}
	if s.Mean != 5.0 {
		t.Errorf("Mean = %v, want 5.0", s.Mean)
	}
	// Sample std-dev of this classic set: sqrt(32/7) ≈ 2.138
	want := math.Sqrt(32.0 / 7.0)
	if math.Abs(s.Std-want) > 1e-12 {
		t.Errorf("Std = %v, want %v", s.Std, want)
	}
	if s.Min != 2 || s.Max != 9 {
		t.Errorf("Min/Max = %v/%v, want 2/9", s.Min, s.Max)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	if s != (Summary{}) {
		t.Errorf("empty input should reduce to the zero Summary, got %+v", s)
	}
}

func TestSummarize_SingleSample(t *testing.T) {
	s := Summarize([]float64{3.5})
	if s.Mean != 3.5 || s.Std != 0 || s.Min != 3.5 || s.Max != 3.5 {
		t.Errorf("single sample summary = %+v", s)
	}
}

func TestStdDev_Constant(t *testing.T) {
	if got := StdDev([]float64{1.25, 1.25, 1.25}); got != 0 {
		t.Errorf("StdDev of constant signal = %v, want 0", got)
	}
}

func TestMeanStdDev_MatchesSeparateCalls(t *testing.T) {
	values := []float64{0.1, 0.9, 0.4, 0.6, 0.5}
	mean, std := MeanStdDev(values)
	if math.Abs(mean-Mean(values)) > 1e-15 {
		t.Errorf("mean mismatch: %v vs %v", mean, Mean(values))
	}
	if math.Abs(std-StdDev(values)) > 1e-15 {
		t.Errorf("std mismatch: %v vs %v", std, StdDev(values))
	}
}

func TestSeries_AccumulateThenReduce(t *testing.T) {
	series := NewSeries(4)
	for _, v := range []float64{1, 2, 3, 4} {
		series.Add(v)
	}

	if series.Len() != 4 {
		t.Fatalf("Len = %d, want 4", series.Len())
	}
	s := series.Summary()
	if s.Mean != 2.5 {
		t.Errorf("Mean = %v, want 2.5", s.Mean)
	}
	if s.Max != 4 || s.Min != 1 {
		t.Errorf("Min/Max = %v/%v, want 1/4", s.Min, s.Max)
	}
}

func TestSeries_EmptyReducesToZero(t *testing.T) {
	series := NewSeries(0)
	if s := series.Summary(); s != (Summary{}) {
		t.Errorf("empty series summary = %+v, want zero value", s)
	}
}
