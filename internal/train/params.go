package train

import (
	"github.com/attune-care/attune/internal/corpus"
	"github.com/attune-care/attune/internal/knn"
)

// Params tunes a training run. The resolved values, including the
// shuffle seed actually used, persist in each model record's
// params_json.
type Params struct {
	// MinTotalClips and MinClipsPerState gate training; both are
	// checked before any extraction work starts.
	MinTotalClips    int `json:"min_total_clips"`
	MinClipsPerState int `json:"min_clips_per_state"`

	// TrainFraction is the share of examples used for fitting; the
	// remainder validates the model.
	TrainFraction float64 `json:"train_fraction"`

	// K is the neighbor count for the fitted model.
	K int `json:"k"`

	// Seed fixes the shuffle permutation. Zero draws a seed from the
	// clock at run time.
	Seed int64 `json:"seed,omitempty"`
}

// DefaultParams returns the standard training parameters. The gating
// minimums are shared with the corpus package so readiness and training
// agree on what "enough data" means.
func DefaultParams() Params {
	return Params{
		MinTotalClips:    corpus.MinTotalClips,
		MinClipsPerState: corpus.MinClipsPerState,
		TrainFraction:    0.8,
		K:                knn.DefaultK,
	}
}

// withDefaults fills unset fields from DefaultParams.
func (p Params) withDefaults() Params {
	def := DefaultParams()
	if p.MinTotalClips <= 0 {
		p.MinTotalClips = def.MinTotalClips
	}
	if p.MinClipsPerState <= 0 {
		p.MinClipsPerState = def.MinClipsPerState
	}
	if p.TrainFraction <= 0 || p.TrainFraction > 1 {
		p.TrainFraction = def.TrainFraction
	}
	if p.K <= 0 {
		p.K = def.K
	}
	return p
}
