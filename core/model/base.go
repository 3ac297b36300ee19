// Package model provides the core abstractions shared by carprice estimators.
//
// This package defines:
//
//   - StateManager: the Untrained / Trained state machine embedded by every
//     estimator; training is monotonic and a trained estimator never returns
//     to Untrained
//   - Envelope: the versioned msgpack container every persisted blob artifact
//     is wrapped in, so that stale or foreign blobs are rejected on load
//
// Example usage:
//
//	type MyModel struct {
//		State *model.StateManager
//	}
//
//	func (m *MyModel) Fit(X, y mat.Matrix) error {
//		// training logic
//		m.State.SetFitted()
//		return nil
//	}
package model

import "fmt"

// EstimatorState represents the learning state of an estimator.
type EstimatorState int

const (
	// Untrained indicates the estimator has not been fitted yet.
	Untrained EstimatorState = iota
	// Trained indicates the estimator has been fitted at least once.
	Trained
)

func (s EstimatorState) String() string {
	switch s {
	case Untrained:
		return "Untrained"
	case Trained:
		return "Trained"
	default:
		return fmt.Sprintf("EstimatorState(%d)", int(s))
	}
}

// StateManager tracks the fitted state and training dimensions of an estimator.
// Fields are exported for msgpack encoding.
type StateManager struct {
	State     EstimatorState `msgpack:"state"`
	NFeatures int            `msgpack:"n_features"`
	NSamples  int            `msgpack:"n_samples"`
	Fits      int            `msgpack:"fits"`
}

// NewStateManager returns a StateManager in the Untrained state.
func NewStateManager() *StateManager {
	return &StateManager{State: Untrained}
}

// IsFitted returns whether the estimator has been trained.
//
// Example:
//
//	if !forest.State.IsFitted() {
//	    return errors.NewNotFittedError("RandomForestRegressor", "Predict")
//	}
func (s *StateManager) IsFitted() bool {
	return s != nil && s.State == Trained
}

// SetFitted moves the estimator to Trained. Calling it on an already trained
// estimator records a retrain; there is no transition back to Untrained.
func (s *StateManager) SetFitted() {
	s.State = Trained
	s.Fits++
}

// SetDimensions records the shape of the data the estimator was trained on.
func (s *StateManager) SetDimensions(nFeatures, nSamples int) {
	s.NFeatures = nFeatures
	s.NSamples = nSamples
}

// GetState returns the current state.
func (s *StateManager) GetState() EstimatorState {
	if s == nil {
		return Untrained
	}
	return s.State
}
