// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"math"
	"testing"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertInDelta checks that got is within delta of want.
func AssertInDelta(t *testing.T, got, want, delta float64) {
	t.Helper()
	if math.IsNaN(got) || math.Abs(got-want) > delta {
		t.Errorf("got %v, want %v (±%v)", got, want, delta)
	}
}

// AssertVectorLen checks the length of a feature vector.
func AssertVectorLen(t *testing.T, vec []float64, want int) {
	t.Helper()
	if len(vec) != want {
		t.Fatalf("vector length = %d, want %d", len(vec), want)
	}
}

// AssertAllFinite fails if any element of vec is NaN or infinite.
func AssertAllFinite(t *testing.T, vec []float64) {
	t.Helper()
	for i, v := range vec {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("vec[%d] = %v, want finite", i, v)
		}
	}
}
