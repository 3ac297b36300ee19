package ensemble_test

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/carprice/sklearn/ensemble"
	cpErrors "github.com/ezoic/carprice/pkg/errors"
)

// linearData returns y = 3*x0 - 2*x1 + noise on [0,1]².
func linearData(n int, seed uint64) (*mat.Dense, *mat.Dense) {
	rng := rand.New(rand.NewPCG(seed, seed))
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x0, x1 := rng.Float64(), rng.Float64()
		X.Set(i, 0, x0)
		X.Set(i, 1, x1)
		y.Set(i, 0, 3*x0-2*x1+0.01*rng.NormFloat64())
	}
	return X, y
}

func TestRandomForestRegressor_Learns(t *testing.T) {
	X, y := linearData(300, 1)
	rf := ensemble.NewRandomForestRegressor(ensemble.WithNEstimators(20))
	require.NoError(t, rf.Fit(X, y))
	require.Len(t, rf.Trees, 20)

	pred, err := rf.PredictVector([]float64{0.5, 0.5})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, pred, 0.3)

	pred, err = rf.PredictVector([]float64{0.9, 0.1})
	require.NoError(t, err)
	assert.InDelta(t, 2.5, pred, 0.4)

	importances := rf.FeatureImportances()
	require.Len(t, importances, 2)
	assert.Greater(t, importances[0], importances[1])
}

func TestRandomForestRegressor_Deterministic(t *testing.T) {
	X, y := linearData(100, 2)

	a := ensemble.NewRandomForestRegressor(ensemble.WithNEstimators(5), ensemble.WithRandomState(42))
	b := ensemble.NewRandomForestRegressor(ensemble.WithNEstimators(5), ensemble.WithRandomState(42))
	require.NoError(t, a.Fit(X, y))
	require.NoError(t, b.Fit(X, y))

	pa, err := a.Predict(X)
	require.NoError(t, err)
	pb, err := b.Predict(X)
	require.NoError(t, err)
	assert.True(t, mat.Equal(pa, pb))
}

func TestRandomForestRegressor_MeanOfTrees(t *testing.T) {
	X, y := linearData(50, 3)
	rf := ensemble.NewRandomForestRegressor(ensemble.WithNEstimators(4))
	require.NoError(t, rf.Fit(X, y))

	row := []float64{0.3, 0.7}
	sum := 0.0
	for _, tr := range rf.Trees {
		sum += tr.PredictRow(row)
	}
	pred, err := rf.PredictVector(row)
	require.NoError(t, err)
	assert.InDelta(t, sum/4, pred, 1e-12)
}

func TestRandomForestRegressor_Progress(t *testing.T) {
	X, y := linearData(30, 4)
	var calls []int
	rf := ensemble.NewRandomForestRegressor(
		ensemble.WithNEstimators(3),
		ensemble.WithProgress(func(done, total int) {
			assert.Equal(t, 3, total)
			calls = append(calls, done)
		}),
	)
	require.NoError(t, rf.Fit(X, y))
	assert.Equal(t, []int{1, 2, 3}, calls)
}

func TestRandomForestRegressor_InvalidInference(t *testing.T) {
	rf := ensemble.NewRandomForestRegressor(ensemble.WithNEstimators(2))
	_, err := rf.PredictVector([]float64{0, 0})
	assert.True(t, errors.Is(err, cpErrors.ErrNotFitted))

	X, y := linearData(20, 5)
	require.NoError(t, rf.Fit(X, y))

	tests := []struct {
		name   string
		vector []float64
	}{
		{"too short", []float64{0.1}},
		{"too long", []float64{0.1, 0.2, 0.3}},
		{"nan", []float64{math.NaN(), 0.2}},
		{"inf", []float64{0.1, math.Inf(-1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rf.PredictVector(tt.vector)
			var invalid *cpErrors.InvalidFeatureVectorError
			assert.True(t, errors.As(err, &invalid))
		})
	}
}

func TestRandomForestRegressor_RetrainStaysTrained(t *testing.T) {
	X, y := linearData(20, 6)
	rf := ensemble.NewRandomForestRegressor(ensemble.WithNEstimators(2))
	require.NoError(t, rf.Fit(X, y))
	require.NoError(t, rf.Fit(X, y))
	assert.True(t, rf.State.IsFitted())
	assert.Equal(t, 2, rf.State.Fits)

	// A failed retrain keeps the previous trees.
	err := rf.Fit(mat.NewDense(1, 2, []float64{math.NaN(), 0}), mat.NewDense(1, 1, []float64{1}))
	assert.Error(t, err)
	assert.True(t, rf.State.IsFitted())
	assert.Len(t, rf.Trees, 2)
}

func TestRandomForestRegressor_Cancelled(t *testing.T) {
	X, y := linearData(20, 7)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rf := ensemble.NewRandomForestRegressor(ensemble.WithNEstimators(2))
	err := rf.FitContext(ctx, X, y)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, rf.State.IsFitted())
}

func TestRandomForestRegressor_EncodeDecode(t *testing.T) {
	X, y := linearData(40, 8)
	rf := ensemble.NewRandomForestRegressor(ensemble.WithNEstimators(3))
	require.NoError(t, rf.Fit(X, y))

	data, err := rf.Encode()
	require.NoError(t, err)

	loaded, err := ensemble.DecodeRandomForestRegressor(data)
	require.NoError(t, err)
	assert.Equal(t, rf.NEstimators, loaded.NEstimators)

	want, _ := rf.Predict(X)
	got, err := loaded.Predict(X)
	require.NoError(t, err)
	assert.True(t, mat.Equal(want, got))

	_, err = ensemble.DecodeRandomForestRegressor(data[:len(data)/2])
	assert.Error(t, err)

	_, err = ensemble.NewRandomForestRegressor().Encode()
	assert.True(t, errors.Is(err, cpErrors.ErrNotFitted))
}
