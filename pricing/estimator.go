package pricing

import (
	"context"

	"github.com/ezoic/carprice/artifact"
	"github.com/ezoic/carprice/core/model"
	"github.com/ezoic/carprice/dataset"
	"github.com/ezoic/carprice/pkg/errors"
)

// Estimator predicts prices from a set of Artifacts.
//
// It starts Untrained and becomes Trained once artifacts are installed by
// Train, Load or Use. Installing new artifacts replaces the old ones as a
// whole; an estimator never returns to Untrained.
type Estimator struct {
	state     *model.StateManager
	artifacts *Artifacts
}

// NewEstimator returns an Untrained estimator.
func NewEstimator() *Estimator {
	return &Estimator{state: model.NewStateManager()}
}

// State returns the current state.
func (e *Estimator) State() model.EstimatorState { return e.state.GetState() }

// Artifacts returns the installed artifacts, or nil when Untrained.
func (e *Estimator) Artifacts() *Artifacts { return e.artifacts }

// Use installs a.
func (e *Estimator) Use(a *Artifacts) error {
	if a == nil || a.Forest == nil || !a.Forest.State.IsFitted() || a.Scalers == nil {
		return errors.NewNotFittedError("Estimator", "Use")
	}
	e.artifacts = a
	e.state.SetDimensions(len(FeatureOrder), a.Forest.State.NSamples)
	e.state.SetFitted()
	return nil
}

// Train runs trainer on table, persists the result to store and installs it.
// On failure the estimator keeps its previous artifacts. store may be nil to
// skip persistence.
func (e *Estimator) Train(ctx context.Context, trainer *Trainer, store artifact.Store, table *dataset.Table) (*Artifacts, error) {
	a, err := trainer.Train(ctx, table)
	if err != nil {
		return nil, err
	}
	if store != nil {
		if err := SaveArtifacts(ctx, store, a); err != nil {
			return nil, err
		}
	}
	return a, e.Use(a)
}

// Load reads artifacts from store and installs them.
func (e *Estimator) Load(ctx context.Context, store artifact.Store) error {
	a, err := LoadArtifacts(ctx, store)
	if err != nil {
		return err
	}
	return e.Use(a)
}

// Predict returns the price of in.
//
// Errors:
//   - NotFittedError: if the estimator is Untrained
//   - ValueError or InvalidFeatureVectorError: if in fails validation
//   - UnknownCategoryError: if a label was not seen in training
func (e *Estimator) Predict(in Input) (float64, error) {
	if !e.state.IsFitted() {
		return 0, errors.NewNotFittedError("Estimator", "Predict")
	}
	if err := in.Validate(); err != nil {
		return 0, err
	}
	vector, err := e.artifacts.Vector(in)
	if err != nil {
		return 0, err
	}
	return e.artifacts.Forest.PredictVector(vector)
}

// PredictVector predicts from an already encoded and scaled feature vector.
func (e *Estimator) PredictVector(vector []float64) (float64, error) {
	if !e.state.IsFitted() {
		return 0, errors.NewNotFittedError("Estimator", "PredictVector")
	}
	if len(vector) != len(FeatureOrder) {
		return 0, errors.NewInvalidFeatureVectorError("expected %d values, got %d", len(FeatureOrder), len(vector))
	}
	return e.artifacts.Forest.PredictVector(vector)
}
