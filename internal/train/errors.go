package train

import (
	"errors"
	"fmt"

	"github.com/attune-care/attune/internal/arousal"
)

// ErrTrainingActive is returned when a second training run is started
// for a child whose previous run has not finished.
var ErrTrainingActive = errors.New("training already in progress for this child")

// InsufficientDataError reports a corpus below the overall clip
// minimum. Raised before any feature extraction starts.
type InsufficientDataError struct {
	Have int
	Need int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient training data: have %d clips, need %d", e.Have, e.Need)
}

// InsufficientStateDataError reports a state below the per-state clip
// minimum. States are checked in enum order, so the first shortfall in
// that order is the one reported.
type InsufficientStateDataError struct {
	State arousal.State
	Have  int
	Need  int
}

func (e *InsufficientStateDataError) Error() string {
	return fmt.Sprintf("insufficient clips for state %s: have %d, need %d", e.State, e.Have, e.Need)
}

// ClipExtractionError identifies the clip whose feature extraction
// aborted a training run.
type ClipExtractionError struct {
	ClipID string
	Err    error
}

func (e *ClipExtractionError) Error() string {
	return fmt.Sprintf("extracting features from clip %s: %v", e.ClipID, e.Err)
}

func (e *ClipExtractionError) Unwrap() error {
	return e.Err
}
