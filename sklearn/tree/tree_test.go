package tree_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/carprice/sklearn/tree"
	cpErrors "github.com/ezoic/carprice/pkg/errors"
)

func stepData() (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(6, 2, []float64{
		1, 0,
		2, 0,
		3, 1,
		10, 1,
		11, 0,
		12, 1,
	})
	y := mat.NewDense(6, 1, []float64{5, 5, 5, 20, 20, 20})
	return X, y
}

func TestDecisionTreeRegressor_MidpointSplit(t *testing.T) {
	X, y := stepData()
	dt := tree.NewDecisionTreeRegressor()
	require.NoError(t, dt.Fit(X, y))

	root := dt.Nodes[0]
	assert.False(t, root.IsLeaf())
	assert.Equal(t, 0, root.Feature)
	assert.Equal(t, 6.5, root.Threshold)
	assert.Len(t, dt.Nodes, 3)
	assert.Equal(t, 2, dt.GetNLeaves())
	assert.Equal(t, 1, dt.GetDepth())

	pred, err := dt.Predict(mat.NewDense(3, 2, []float64{6.5, 0, 6.6, 0, -100, 1}))
	require.NoError(t, err)
	// x <= threshold goes left
	assert.Equal(t, 5.0, pred.At(0, 0))
	assert.Equal(t, 20.0, pred.At(1, 0))
	assert.Equal(t, 5.0, pred.At(2, 0))

	assert.Equal(t, []float64{1, 0}, dt.FeatureImportances)
}

func TestDecisionTreeRegressor_FitsTrainingDataExactly(t *testing.T) {
	X := mat.NewDense(5, 1, []float64{1, 2, 3, 4, 5})
	y := mat.NewDense(5, 1, []float64{3, 1, 4, 1, 5})

	dt := tree.NewDecisionTreeRegressor()
	require.NoError(t, dt.Fit(X, y))

	pred, err := dt.Predict(X)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		assert.Equal(t, y.At(i, 0), pred.At(i, 0))
	}
}

func TestDecisionTreeRegressor_Stopping(t *testing.T) {
	X := mat.NewDense(5, 1, []float64{1, 2, 3, 4, 5})
	y := mat.NewDense(5, 1, []float64{3, 1, 4, 1, 5})

	stump := tree.NewDecisionTreeRegressor(tree.WithMaxDepth(1))
	require.NoError(t, stump.Fit(X, y))
	assert.Equal(t, 1, stump.GetDepth())
	assert.Equal(t, 2, stump.GetNLeaves())

	leafy := tree.NewDecisionTreeRegressor(tree.WithMinSamplesLeaf(3))
	require.NoError(t, leafy.Fit(X, y))
	assert.Equal(t, 1, leafy.GetNLeaves())
	assert.InDelta(t, 2.8, leafy.Nodes[0].Value, 1e-12)

	constant := tree.NewDecisionTreeRegressor()
	require.NoError(t, constant.Fit(X, mat.NewDense(5, 1, []float64{7, 7, 7, 7, 7})))
	assert.Len(t, constant.Nodes, 1)
}

func TestDecisionTreeRegressor_FitSampleWithRepeats(t *testing.T) {
	X, _ := stepData()
	y := []float64{5, 5, 5, 20, 20, 20}

	dt := tree.NewDecisionTreeRegressor()
	require.NoError(t, dt.FitSample(X, y, []int{0, 0, 1, 1}))
	assert.Len(t, dt.Nodes, 1)
	assert.Equal(t, 5.0, dt.PredictRow([]float64{11, 0}))
	assert.Equal(t, 4, dt.State.NSamples)
}

func TestDecisionTreeRegressor_Errors(t *testing.T) {
	dt := tree.NewDecisionTreeRegressor()
	_, err := dt.Predict(mat.NewDense(1, 2, nil))
	assert.True(t, errors.Is(err, cpErrors.ErrNotFitted))

	X, y := stepData()
	err = dt.Fit(X, mat.NewDense(5, 1, nil))
	assert.True(t, errors.Is(err, cpErrors.ErrDimensionMismatch))

	require.NoError(t, dt.Fit(X, y))
	_, err = dt.Predict(mat.NewDense(1, 3, nil))
	assert.True(t, errors.Is(err, cpErrors.ErrDimensionMismatch))

	bad := tree.NewDecisionTreeRegressor(tree.WithMinSamplesSplit(1))
	assert.True(t, errors.Is(bad.Fit(X, y), cpErrors.ErrInvalidValue))
}

func TestDecisionTreeRegressor_MsgpackRoundTrip(t *testing.T) {
	X, y := stepData()
	dt := tree.NewDecisionTreeRegressor(tree.WithRandomState(7))
	require.NoError(t, dt.Fit(X, y))

	data, err := msgpack.Marshal(dt)
	require.NoError(t, err)

	var loaded tree.DecisionTreeRegressor
	require.NoError(t, msgpack.Unmarshal(data, &loaded))
	require.NoError(t, loaded.Validate())
	assert.Equal(t, dt.Nodes, loaded.Nodes)
	assert.Equal(t, dt.PredictRow([]float64{2, 0}), loaded.PredictRow([]float64{2, 0}))
}
