package knn

import (
	"encoding/json"
	"fmt"
)

// Save serializes a model to compact JSON. encoding/json emits
// float64 values in shortest-round-trip form, so Load(Save(m))
// reproduces m exactly.
func Save(m *Model) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("cannot save nil model")
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal model: %w", err)
	}
	return data, nil
}

// Load deserializes a model blob and validates its shape.
func Load(data []byte) (*Model, error) {
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal model: %w", err)
	}

	if len(m.Means) != len(m.Stds) {
		return nil, fmt.Errorf("corrupt model: %d means but %d stds", len(m.Means), len(m.Stds))
	}
	for i, ex := range m.Exemplars {
		if len(ex.Features) != len(m.Means) {
			return nil, fmt.Errorf("corrupt model: exemplar %d has %d features, want %d",
				i, len(ex.Features), len(m.Means))
		}
		if !ex.State.Valid() {
			return nil, fmt.Errorf("corrupt model: exemplar %d has unknown state %q", i, ex.State)
		}
	}
	return &m, nil
}
