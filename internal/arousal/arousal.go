// Package arousal defines the closed label space for a child's
// regulation state. Every component that counts, reports, or votes over
// labels iterates States() so ordering is reproducible.
package arousal

import "fmt"

// State classifies a child's arousal regulation level.
type State string

const (
	// StateShutdown indicates withdrawal or dissociation (under-arousal)
	StateShutdown State = "shutdown"
	// StateCalm indicates a regulated baseline
	StateCalm State = "calm"
	// StateElevated indicates rising but manageable arousal
	StateElevated State = "elevated"
	// StateEscalating indicates rapidly increasing dysregulation
	StateEscalating State = "escalating"
	// StateCrisis indicates full dysregulation requiring intervention
	StateCrisis State = "crisis"
)

// DefaultState is returned by inference against an empty or untrained
// model: the regulated midpoint of the scale.
const DefaultState = StateCalm

// states is the canonical enumeration order, from under-arousal to
// over-arousal. Counters, vote tie-breaks, and reports all follow it.
var states = []State{
	StateShutdown,
	StateCalm,
	StateElevated,
	StateEscalating,
	StateCrisis,
}

// States returns the label set in canonical order. The returned slice
// is a copy; callers may reorder it freely.
func States() []State {
	out := make([]State, len(states))
	copy(out, states)
	return out
}

// Count returns the number of states in the label space.
func Count() int {
	return len(states)
}

// Valid reports whether s is a member of the label space.
func (s State) Valid() bool {
	for _, known := range states {
		if s == known {
			return true
		}
	}
	return false
}

// Index returns the position of s in canonical order, or -1 if s is not
// a known state.
func (s State) Index() int {
	for i, known := range states {
		if s == known {
			return i
		}
	}
	return -1
}

// String returns the state's wire name.
func (s State) String() string {
	return string(s)
}

// Parse converts a stored label back into a State.
func Parse(raw string) (State, error) {
	s := State(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown arousal state %q", raw)
	}
	return s, nil
}
