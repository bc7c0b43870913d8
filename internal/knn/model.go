// Package knn implements the per-child arousal classifier: a
// k-nearest-neighbor model over z-score normalized feature vectors
// with Euclidean distance, majority vote and a deterministic
// tie-break, plus a lossless JSON codec for persistence.
package knn

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/attune-care/attune/internal/arousal"
)

const (
	// DefaultK is the neighbor count used when a model doesn't carry
	// its own.
	DefaultK = 5

	// MinStd is the smallest usable per-dimension standard deviation.
	// Dimensions flatter than this normalize with 1.0 so constant
	// features don't blow up the distance metric.
	MinStd = 1e-4
)

// ErrEmptyTrainingSet is returned by Fit when there are no examples to
// learn from.
var ErrEmptyTrainingSet = errors.New("empty training set")

// Example is one labeled feature vector.
type Example struct {
	Features []float64     `json:"features"`
	State    arousal.State `json:"state"`
}

// Model is a trained classifier. Exemplars are stored normalized;
// Means and Stds capture the training-split statistics used to
// normalize queries. A fitted model is immutable: retraining builds a
// new Model.
type Model struct {
	Exemplars []Example `json:"exemplars"`
	Means     []float64 `json:"means"`
	Stds      []float64 `json:"stds"`
	K         int       `json:"k"`
}

// Fit learns per-dimension normalization statistics from examples and
// stores the normalized exemplars. Stds below MinStd are clamped to
// 1.0. k <= 0 selects DefaultK.
func Fit(examples []Example, k int) (*Model, error) {
	if len(examples) == 0 {
		return nil, ErrEmptyTrainingSet
	}

	dim := len(examples[0].Features)
	for i, ex := range examples {
		if len(ex.Features) != dim {
			return nil, fmt.Errorf("example %d has %d features, want %d", i, len(ex.Features), dim)
		}
		if !ex.State.Valid() {
			return nil, fmt.Errorf("example %d has unknown state %q", i, ex.State)
		}
	}

	means := make([]float64, dim)
	stds := make([]float64, dim)
	column := make([]float64, len(examples))
	for d := 0; d < dim; d++ {
		for i, ex := range examples {
			column[i] = ex.Features[d]
		}
		mean, std := stat.MeanStdDev(column, nil)
		if len(examples) < 2 || std < MinStd {
			std = 1.0
		}
		means[d] = mean
		stds[d] = std
	}

	if k <= 0 {
		k = DefaultK
	}

	m := &Model{
		Exemplars: make([]Example, len(examples)),
		Means:     means,
		Stds:      stds,
		K:         k,
	}
	for i, ex := range examples {
		m.Exemplars[i] = Example{
			Features: m.normalize(ex.Features),
			State:    ex.State,
		}
	}
	return m, nil
}

// normalize z-scores features with the model's stored statistics.
func (m *Model) normalize(features []float64) []float64 {
	out := make([]float64, len(features))
	for d := range features {
		out[d] = (features[d] - m.Means[d]) / m.Stds[d]
	}
	return out
}

// Dim returns the feature dimension the model was fitted on.
func (m *Model) Dim() int {
	if m == nil {
		return 0
	}
	return len(m.Means)
}

// Predict classifies a raw (unnormalized) feature vector. It is a
// total function: a nil or empty model, or a query whose dimension
// doesn't match the model, returns arousal.DefaultState rather than an
// error.
//
// Among the k nearest exemplars the state with the most votes wins.
// Vote ties go to the state whose nearest exemplar appears earliest in
// the distance ordering; exemplars at equal distance keep their stored
// order, and states are scanned in enum order, so the result is fully
// deterministic.
func (m *Model) Predict(features []float64) arousal.State {
	if m == nil || len(m.Exemplars) == 0 {
		return arousal.DefaultState
	}
	if len(features) != len(m.Means) {
		return arousal.DefaultState
	}

	query := m.normalize(features)

	type neighbor struct {
		dist float64
		idx  int
	}
	neighbors := make([]neighbor, len(m.Exemplars))
	for i, ex := range m.Exemplars {
		neighbors[i] = neighbor{dist: floats.Distance(query, ex.Features, 2), idx: i}
	}
	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].dist != neighbors[j].dist {
			return neighbors[i].dist < neighbors[j].dist
		}
		return neighbors[i].idx < neighbors[j].idx
	})

	k := m.K
	if k <= 0 {
		k = DefaultK
	}
	if k > len(neighbors) {
		k = len(neighbors)
	}

	votes := make(map[arousal.State]int, arousal.Count())
	nearestRank := make(map[arousal.State]int, arousal.Count())
	for rank, nb := range neighbors[:k] {
		state := m.Exemplars[nb.idx].State
		votes[state]++
		if _, seen := nearestRank[state]; !seen {
			nearestRank[state] = rank
		}
	}

	var (
		best      arousal.State
		bestVotes = -1
		bestRank  = len(neighbors)
	)
	for _, state := range arousal.States() {
		v, ok := votes[state]
		if !ok {
			continue
		}
		r := nearestRank[state]
		if v > bestVotes || (v == bestVotes && r < bestRank) {
			best = state
			bestVotes = v
			bestRank = r
		}
	}
	return best
}
