// Package ensemble provides bagged tree ensembles.
package ensemble

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/carprice/core/model"
	"github.com/ezoic/carprice/pkg/errors"
	"github.com/ezoic/carprice/pkg/log"
	"github.com/ezoic/carprice/sklearn/tree"
)

// ProgressFunc is called after each tree is fitted.
type ProgressFunc func(done, total int)

// RandomForestRegressor averages the predictions of regression trees fitted
// on bootstrap samples of the training data.
type RandomForestRegressor struct {
	State *model.StateManager `msgpack:"state"`

	// Hyperparameters
	NEstimators     int    `msgpack:"n_estimators"`      // Number of trees
	MaxDepth        int    `msgpack:"max_depth"`         // Maximum tree depth (0 = unlimited)
	MinSamplesSplit int    `msgpack:"min_samples_split"` // Minimum samples to split a node
	MinSamplesLeaf  int    `msgpack:"min_samples_leaf"`  // Minimum samples in a leaf
	MaxFeatures     int    `msgpack:"max_features"`      // Features tried per split (0 = all)
	Bootstrap       bool   `msgpack:"bootstrap"`         // Draw a bootstrap sample per tree
	RandomState     uint64 `msgpack:"random_state"`      // Forest seed

	Trees []*tree.DecisionTreeRegressor `msgpack:"trees"`

	progress ProgressFunc
	logger   log.Logger
}

// Option is a functional option for RandomForestRegressor.
type Option func(*RandomForestRegressor)

// NewRandomForestRegressor creates a forest with 100 fully grown trees
// considering every feature at each split, seeded with 42.
func NewRandomForestRegressor(opts ...Option) *RandomForestRegressor {
	rf := &RandomForestRegressor{
		State:           model.NewStateManager(),
		NEstimators:     100,
		MaxDepth:        0,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		MaxFeatures:     0,
		Bootstrap:       true,
		RandomState:     42,
	}
	for _, opt := range opts {
		opt(rf)
	}
	rf.logger = log.GetLoggerWithName("ensemble").With(log.ModelNameKey, "RandomForestRegressor")
	return rf
}

// WithNEstimators sets the number of trees
func WithNEstimators(n int) Option { return func(rf *RandomForestRegressor) { rf.NEstimators = n } }

// WithMaxDepth sets the maximum depth of every tree
func WithMaxDepth(depth int) Option { return func(rf *RandomForestRegressor) { rf.MaxDepth = depth } }

// WithMinSamplesSplit sets minimum samples to split
func WithMinSamplesSplit(n int) Option {
	return func(rf *RandomForestRegressor) { rf.MinSamplesSplit = n }
}

// WithMinSamplesLeaf sets minimum samples in leaf
func WithMinSamplesLeaf(n int) Option { return func(rf *RandomForestRegressor) { rf.MinSamplesLeaf = n } }

// WithMaxFeatures sets how many features each split considers
func WithMaxFeatures(n int) Option { return func(rf *RandomForestRegressor) { rf.MaxFeatures = n } }

// WithBootstrap toggles bootstrap sampling
func WithBootstrap(b bool) Option { return func(rf *RandomForestRegressor) { rf.Bootstrap = b } }

// WithRandomState sets the forest seed
func WithRandomState(seed uint64) Option { return func(rf *RandomForestRegressor) { rf.RandomState = seed } }

// WithProgress registers a callback invoked after each fitted tree
func WithProgress(fn ProgressFunc) Option { return func(rf *RandomForestRegressor) { rf.progress = fn } }

// Fit trains the forest. See FitContext.
func (rf *RandomForestRegressor) Fit(X, y mat.Matrix) error {
	return rf.FitContext(context.Background(), X, y)
}

// FitContext trains NEstimators trees, checking ctx between trees.
//
// Each tree gets its own seed drawn from a generator seeded with RandomState,
// so the same data and seed always produce the same forest. The forest is
// replaced only after every tree has been fitted; a failed or cancelled fit
// leaves a previously trained forest untouched.
//
// Parameters:
//   - ctx: Cancellation for long fits
//   - X: Training data of shape (n_samples, n_features)
//   - y: Targets of shape (n_samples, 1)
//
// Errors:
//   - ErrEmptyData: if X is empty
//   - ErrDimensionMismatch: if y doesn't match X
//   - ValueError: for invalid hyperparameters or non-finite input
func (rf *RandomForestRegressor) FitContext(ctx context.Context, X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "RandomForestRegressor.Fit")
	nSamples, nFeatures := X.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError("RandomForestRegressor.Fit", "empty data", errors.ErrEmptyData)
	}
	yRows, yCols := y.Dims()
	if yCols != 1 {
		return errors.NewDimensionError("RandomForestRegressor.Fit", 1, yCols, 1)
	}
	if yRows != nSamples {
		return errors.NewDimensionError("RandomForestRegressor.Fit", nSamples, yRows, 0)
	}
	if rf.NEstimators < 1 {
		return errors.NewValueError("RandomForestRegressor.Fit", fmt.Sprintf("n_estimators must be positive, got %d", rf.NEstimators))
	}

	targets := make([]float64, nSamples)
	for i := range targets {
		targets[i] = y.At(i, 0)
	}

	rf.logger.Info("Training started",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
		log.EstimatorsKey, rf.NEstimators,
	)
	start := time.Now()

	seeds := rand.New(rand.NewPCG(rf.RandomState, rf.RandomState))
	trees := make([]*tree.DecisionTreeRegressor, rf.NEstimators)
	sample := make([]int, nSamples)
	for t := range trees {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "forest training cancelled")
		}

		seed := seeds.Uint64()
		treeRand := rand.New(rand.NewPCG(seed, seed))
		for i := range sample {
			if rf.Bootstrap {
				sample[i] = treeRand.IntN(nSamples)
			} else {
				sample[i] = i
			}
		}

		dt := tree.NewDecisionTreeRegressor(
			tree.WithMaxDepth(rf.MaxDepth),
			tree.WithMinSamplesSplit(rf.MinSamplesSplit),
			tree.WithMinSamplesLeaf(rf.MinSamplesLeaf),
			tree.WithMaxFeatures(rf.MaxFeatures),
			tree.WithRandomState(seed),
		)
		if err := dt.FitSample(X, targets, sample); err != nil {
			return errors.NewModelError("RandomForestRegressor.Fit", fmt.Sprintf("tree %d", t), err)
		}
		trees[t] = dt

		if rf.progress != nil {
			rf.progress(t+1, len(trees))
		}
	}

	rf.Trees = trees
	rf.State.SetDimensions(nFeatures, nSamples)
	rf.State.SetFitted()

	rf.logger.Info("Training completed",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// Predict returns the mean tree prediction for every row of X.
func (rf *RandomForestRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !rf.State.IsFitted() {
		return nil, errors.NewNotFittedError("RandomForestRegressor", "Predict")
	}
	nSamples, nFeatures := X.Dims()
	if nFeatures != rf.State.NFeatures {
		return nil, errors.NewDimensionError("RandomForestRegressor.Predict", rf.State.NFeatures, nFeatures, 1)
	}

	predictions := mat.NewDense(nSamples, 1, nil)
	row := make([]float64, nFeatures)
	for i := 0; i < nSamples; i++ {
		mat.Row(row, i, X)
		predictions.Set(i, 0, rf.mean(row))
	}
	rf.logger.Debug("Prediction completed",
		log.OperationKey, log.OperationPredict,
		log.PhaseKey, log.PhaseInference,
		log.PredsKey, nSamples,
	)
	return predictions, nil
}

// PredictVector returns the prediction for a single feature vector.
//
// Errors:
//   - NotFittedError: if the forest has not been trained
//   - InvalidFeatureVectorError: if the vector has the wrong length or holds NaN or infinities
func (rf *RandomForestRegressor) PredictVector(vector []float64) (float64, error) {
	if !rf.State.IsFitted() {
		return 0, errors.NewNotFittedError("RandomForestRegressor", "PredictVector")
	}
	if len(vector) != rf.State.NFeatures {
		return 0, errors.NewInvalidFeatureVectorError("expected %d values, got %d", rf.State.NFeatures, len(vector))
	}
	for j, v := range vector {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, errors.NewInvalidFeatureVectorError("value %d is %v", j, v)
		}
	}
	price := rf.mean(vector)
	rf.logger.Debug("Prediction completed",
		log.OperationKey, log.OperationPredict,
		log.PhaseKey, log.PhaseInference,
		log.PredsKey, 1,
	)
	return price, nil
}

func (rf *RandomForestRegressor) mean(row []float64) float64 {
	sum := 0.0
	for _, t := range rf.Trees {
		sum += t.PredictRow(row)
	}
	return sum / float64(len(rf.Trees))
}

// FeatureImportances returns the mean of the per-tree importances.
func (rf *RandomForestRegressor) FeatureImportances() []float64 {
	if !rf.State.IsFitted() {
		return nil
	}
	importances := make([]float64, rf.State.NFeatures)
	for _, t := range rf.Trees {
		for j, v := range t.FeatureImportances {
			importances[j] += v
		}
	}
	for j := range importances {
		importances[j] /= float64(len(rf.Trees))
	}
	return importances
}

// GetParams returns the model hyperparameters
func (rf *RandomForestRegressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators":      rf.NEstimators,
		"max_depth":         rf.MaxDepth,
		"min_samples_split": rf.MinSamplesSplit,
		"min_samples_leaf":  rf.MinSamplesLeaf,
		"max_features":      rf.MaxFeatures,
		"bootstrap":         rf.Bootstrap,
		"random_state":      rf.RandomState,
	}
}

// Encode serialises the fitted forest as a versioned msgpack envelope.
func (rf *RandomForestRegressor) Encode() ([]byte, error) {
	if !rf.State.IsFitted() {
		return nil, errors.NewNotFittedError("RandomForestRegressor", "Encode")
	}
	return model.Marshal(model.KindRandomForestRegressor, rf)
}

// DecodeRandomForestRegressor restores a forest written by Encode and checks
// that every tree is structurally sound.
func DecodeRandomForestRegressor(data []byte) (*RandomForestRegressor, error) {
	rf := NewRandomForestRegressor()
	if err := model.Unmarshal(data, model.KindRandomForestRegressor, rf); err != nil {
		return nil, err
	}
	if !rf.State.IsFitted() || len(rf.Trees) == 0 {
		return nil, errors.NewNotFittedError("RandomForestRegressor", "Decode")
	}
	for i, t := range rf.Trees {
		if t == nil {
			return nil, errors.NewValueError("DecodeRandomForestRegressor", fmt.Sprintf("tree %d is missing", i))
		}
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if t.State.NFeatures != rf.State.NFeatures {
			return nil, errors.NewDimensionError("DecodeRandomForestRegressor", rf.State.NFeatures, t.State.NFeatures, 1)
		}
	}
	return rf, nil
}

func (rf *RandomForestRegressor) String() string {
	if !rf.State.IsFitted() {
		return fmt.Sprintf("RandomForestRegressor(n_estimators=%d)", rf.NEstimators)
	}
	return fmt.Sprintf("RandomForestRegressor(n_estimators=%d, n_features=%d)", rf.NEstimators, rf.State.NFeatures)
}
