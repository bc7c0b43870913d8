// Package train orchestrates a child's model training run: gate on the
// corpus distribution, extract features from every clip, shuffle and
// split, fit the k-NN model, evaluate it on the held-out split, and
// publish the result as a versioned model record.
package train

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"

	humanize "github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"

	"github.com/attune-care/attune/internal/arousal"
	"github.com/attune-care/attune/internal/corpus"
	"github.com/attune-care/attune/internal/event"
	"github.com/attune-care/attune/internal/extract"
	"github.com/attune-care/attune/internal/knn"
	"github.com/attune-care/attune/internal/media"
	"github.com/attune-care/attune/internal/modelstore"
	"github.com/attune-care/attune/internal/timeutil"
)

var log = event.Log

// Phase names one stage of a training run, in execution order.
type Phase string

const (
	PhaseExtracting Phase = "extracting_features"
	PhasePreparing  Phase = "preparing_data"
	PhaseTraining   Phase = "training"
	PhaseEvaluating Phase = "evaluating"
	PhaseExporting  Phase = "exporting"
	PhaseComplete   Phase = "complete"
)

// Phase weights as fractions of total run progress. Extraction
// dominates the wall clock, so it carries most of the bar.
const (
	weightExtract  = 0.60
	weightPrepare  = 0.10
	weightTrain    = 0.20
	weightEvaluate = 0.05
	weightExport   = 0.05
)

// Progress reports how far a training run has advanced. Fraction is in
// [0,1] and never decreases across a run.
type Progress struct {
	Phase    Phase   `json:"phase"`
	Fraction float64 `json:"fraction"`
}

// ProgressFunc receives progress updates during Train. Callbacks run on
// the training goroutine; keep them fast.
type ProgressFunc func(Progress)

// reporter clamps progress monotone and tolerates a nil callback.
type reporter struct {
	fn   ProgressFunc
	last float64
}

func (r *reporter) report(phase Phase, fraction float64) {
	if fraction < r.last {
		fraction = r.last
	}
	r.last = fraction
	if r.fn != nil {
		r.fn(Progress{Phase: phase, Fraction: fraction})
	}
}

// Config wires a Trainer.
type Config struct {
	// Extractor turns clips into feature vectors.
	Extractor *extract.Extractor

	// Models persists the trained result.
	Models *modelstore.Store

	// Clock stamps the model record and seeds unseeded runs. Defaults
	// to the real clock.
	Clock timeutil.Clock

	// Params tunes the run. Zero fields fall back to DefaultParams.
	Params Params
}

// Trainer runs training for any number of children, one run per child
// at a time. A second Train call for a child with a run in flight fails
// fast with ErrTrainingActive instead of queueing.
type Trainer struct {
	extractor *extract.Extractor
	models    *modelstore.Store
	clock     timeutil.Clock
	params    Params

	mu     sync.Mutex
	active map[string]bool
}

// NewTrainer validates cfg and builds a Trainer.
func NewTrainer(cfg Config) (*Trainer, error) {
	if cfg.Extractor == nil {
		return nil, errors.New("trainer requires a feature extractor")
	}
	if cfg.Models == nil {
		return nil, errors.New("trainer requires a model store")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Trainer{
		extractor: cfg.Extractor,
		models:    cfg.Models,
		clock:     clock,
		params:    cfg.Params.withDefaults(),
		active:    make(map[string]bool),
	}, nil
}

// Params returns the effective training parameters.
func (t *Trainer) Params() Params {
	return t.params
}

// Train runs one training pass over the child's clips and publishes the
// resulting model as the child's new active version. The run is
// all-or-nothing: a gating failure, extraction error or context
// cancellation leaves the previously active model untouched.
func (t *Trainer) Train(ctx context.Context, childID string, clips []corpus.Clip, progress ProgressFunc) (*modelstore.Record, error) {
	if err := t.begin(childID); err != nil {
		return nil, err
	}
	defer t.end(childID)

	if err := t.validateDistribution(clips); err != nil {
		return nil, err
	}

	seed := t.params.Seed
	if seed == 0 {
		seed = t.clock.Now().UnixNano()
	}

	log.Infof("train: child %s starting over %s",
		childID, english.Plural(len(clips), "clip", "clips"))

	rep := &reporter{fn: progress}
	rep.report(PhaseExtracting, 0)

	examples, err := t.extractAll(ctx, clips, rep)
	if err != nil {
		return nil, err
	}

	trainSet, validation := splitExamples(examples, t.params.TrainFraction, seed)
	if len(trainSet) == 0 {
		return nil, knn.ErrEmptyTrainingSet
	}
	rep.report(PhasePreparing, weightExtract+weightPrepare)

	model, err := knn.Fit(trainSet, t.params.K)
	if err != nil {
		return nil, fmt.Errorf("fitting model: %w", err)
	}
	rep.report(PhaseTraining, weightExtract+weightPrepare+weightTrain)

	eval := Evaluate(model, validation)
	rep.report(PhaseEvaluating, weightExtract+weightPrepare+weightTrain+weightEvaluate)

	// Nothing persists for a cancelled run.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rep.report(PhaseExporting, weightExtract+weightPrepare+weightTrain+weightEvaluate)
	rec, err := t.export(ctx, childID, model, eval, len(clips), seed)
	if err != nil {
		return nil, err
	}
	rep.report(PhaseComplete, 1)

	log.Infof("train: child %s model v%d accuracy=%.3f (%d train / %d validation, %s)",
		childID, rec.Version, eval.Accuracy, len(trainSet), len(validation),
		humanize.Bytes(uint64(rec.SizeBytes)))
	return rec, nil
}

// begin marks a child's run in flight, failing if one already is.
func (t *Trainer) begin(childID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active[childID] {
		return ErrTrainingActive
	}
	t.active[childID] = true
	return nil
}

func (t *Trainer) end(childID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.active, childID)
}

// validateDistribution gates the run on corpus shape before any
// extraction starts: the overall minimum first, then per-state minimums
// in enum order.
func (t *Trainer) validateDistribution(clips []corpus.Clip) error {
	if len(clips) < t.params.MinTotalClips {
		return &InsufficientDataError{Have: len(clips), Need: t.params.MinTotalClips}
	}

	counts := make(map[arousal.State]int, arousal.Count())
	for _, clip := range clips {
		if !clip.State.Valid() {
			return fmt.Errorf("clip %s has unknown state %q", clip.ID, clip.State)
		}
		counts[clip.State]++
	}
	for _, state := range arousal.States() {
		if counts[state] < t.params.MinClipsPerState {
			return &InsufficientStateDataError{
				State: state,
				Have:  counts[state],
				Need:  t.params.MinClipsPerState,
			}
		}
	}
	return nil
}

// extractAll runs the extractor over every clip in sequence, reporting
// progress after each. Any extraction failure aborts the run naming the
// offending clip.
func (t *Trainer) extractAll(ctx context.Context, clips []corpus.Clip, rep *reporter) ([]knn.Example, error) {
	examples := make([]knn.Example, 0, len(clips))
	for i, clip := range clips {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		set, err := t.extractor.Extract(ctx, media.Clip{
			Path:            clip.MediaPath,
			DurationSeconds: clip.DurationSeconds,
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, &ClipExtractionError{ClipID: clip.ID, Err: err}
		}
		examples = append(examples, knn.Example{Features: set.Vector(), State: clip.State})
		rep.report(PhaseExtracting, weightExtract*float64(i+1)/float64(len(clips)))
	}
	return examples, nil
}

// splitExamples shuffles a copy with a seeded uniform permutation and
// cuts the first floor(fraction*n) examples for training, leaving the
// rest for validation.
func splitExamples(examples []knn.Example, fraction float64, seed int64) (trainSet, validation []knn.Example) {
	shuffled := make([]knn.Example, len(examples))
	copy(shuffled, examples)

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	cut := int(math.Floor(fraction * float64(len(shuffled))))
	return shuffled[:cut], shuffled[cut:]
}

// export serializes the resolved run parameters and metrics and
// publishes the model through the store.
func (t *Trainer) export(ctx context.Context, childID string, model *knn.Model, eval Evaluation, clipCount int, seed int64) (*modelstore.Record, error) {
	resolved := t.params
	resolved.Seed = seed

	paramsJSON, err := json.Marshal(struct {
		Train   Params         `json:"train"`
		Extract extract.Params `json:"extract"`
	}{resolved, t.extractor.Params()})
	if err != nil {
		return nil, fmt.Errorf("encoding run parameters: %w", err)
	}
	metricsJSON, err := json.Marshal(eval)
	if err != nil {
		return nil, fmt.Errorf("encoding evaluation metrics: %w", err)
	}

	rec, err := t.models.Publish(ctx, childID, model, modelstore.PublishMeta{
		TrainedAt:         t.clock.Now(),
		Accuracy:          eval.Accuracy,
		TrainingClipCount: clipCount,
		ParamsJSON:        paramsJSON,
		MetricsJSON:       metricsJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("exporting model: %w", err)
	}
	return rec, nil
}
