package train

import (
	"github.com/attune-care/attune/internal/arousal"
	"github.com/attune-care/attune/internal/knn"
)

// StateMetrics are one state's confusion counts and derived rates on
// the validation split.
type StateMetrics struct {
	State          arousal.State `json:"state"`
	TruePositives  int           `json:"true_positives"`
	FalsePositives int           `json:"false_positives"`
	FalseNegatives int           `json:"false_negatives"`
	Precision      float64       `json:"precision"`
	Recall         float64       `json:"recall"`
}

// Evaluation summarizes model quality on the validation split. PerState
// is ordered by the state enum so reports are reproducible.
type Evaluation struct {
	Total          int            `json:"total"`
	Correct        int            `json:"correct"`
	Accuracy       float64        `json:"accuracy"`
	MacroPrecision float64        `json:"macro_precision"`
	MacroRecall    float64        `json:"macro_recall"`
	PerState       []StateMetrics `json:"per_state"`
}

// Evaluate predicts every validation example and accumulates per-state
// confusion counts. A state's precision or recall is 0 when its
// denominator is 0, and the macros average over the full label space.
// An empty validation set reports accuracy 1.0, a degenerate case the
// clip minimums make unreachable in normal runs.
func Evaluate(m *knn.Model, validation []knn.Example) Evaluation {
	states := arousal.States()
	metrics := make([]StateMetrics, len(states))
	for i, state := range states {
		metrics[i].State = state
	}

	correct := 0
	for _, ex := range validation {
		truth := ex.State.Index()
		if truth < 0 {
			continue
		}
		got := m.Predict(ex.Features)
		if got == ex.State {
			correct++
			metrics[truth].TruePositives++
			continue
		}
		metrics[got.Index()].FalsePositives++
		metrics[truth].FalseNegatives++
	}

	eval := Evaluation{
		Total:    len(validation),
		Correct:  correct,
		Accuracy: 1.0,
		PerState: metrics,
	}
	if eval.Total > 0 {
		eval.Accuracy = float64(correct) / float64(eval.Total)
	}

	var precisionSum, recallSum float64
	for i := range metrics {
		sm := &metrics[i]
		if denom := sm.TruePositives + sm.FalsePositives; denom > 0 {
			sm.Precision = float64(sm.TruePositives) / float64(denom)
		}
		if denom := sm.TruePositives + sm.FalseNegatives; denom > 0 {
			sm.Recall = float64(sm.TruePositives) / float64(denom)
		}
		precisionSum += sm.Precision
		recallSum += sm.Recall
	}
	eval.MacroPrecision = precisionSum / float64(len(states))
	eval.MacroRecall = recallSum / float64(len(states))
	return eval
}
