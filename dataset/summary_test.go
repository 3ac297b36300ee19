package dataset_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezoic/carprice/dataset"
)

const epsilon = 1e-9

func TestQuantileLinearInterpolation(t *testing.T) {
	values := []float64{100, 100000, 5000000}

	assert.InDelta(t, 50050, dataset.Quantile(values, 0.25), epsilon)
	assert.InDelta(t, 100000, dataset.Quantile(values, 0.5), epsilon)
	assert.InDelta(t, 2550000, dataset.Quantile(values, 0.75), epsilon)
	assert.InDelta(t, 100, dataset.Quantile(values, 0), epsilon)
	assert.InDelta(t, 5000000, dataset.Quantile(values, 1), epsilon)
}

func TestQuantileIgnoresNaNAndOrder(t *testing.T) {
	values := []float64{4, math.NaN(), 1, 3, 2}
	assert.InDelta(t, 1.75, dataset.Quantile(values, 0.25), epsilon)
	assert.True(t, math.IsNaN(dataset.Quantile([]float64{math.NaN()}, 0.5)))
	assert.Equal(t, 7.0, dataset.Quantile([]float64{7}, 0.75))
}

func TestDescribe(t *testing.T) {
	table := dataset.New()
	require.NoError(t, table.AddStringColumn("brand", []string{"Ford", "Audi", "Ford", "Ford", ""}))
	require.NoError(t, table.AddFloatColumn("mpg", []float64{50, 60, 50, 50, math.NaN()}))

	s := dataset.Describe(table)
	assert.Equal(t, 5, s.Rows)
	assert.Equal(t, 2, s.Columns)

	require.Len(t, s.Categorical, 1)
	assert.Equal(t, []string{"Ford", "Audi", ""}, s.Categorical[0].Unique)

	require.Len(t, s.Numeric, 1)
	mpg := s.Numeric[0]
	assert.Equal(t, 4, mpg.Count)
	assert.InDelta(t, 52.5, mpg.Mean, epsilon)
	assert.InDelta(t, 5.0, mpg.Std, epsilon)
	assert.Equal(t, 50.0, mpg.Min)
	assert.Equal(t, 60.0, mpg.Max)
	assert.InDelta(t, 50.0, mpg.Q50, epsilon)
	assert.InDelta(t, 52.5, mpg.Q75, epsilon)

	assert.Equal(t, 1, s.Missing["brand"])
	assert.Equal(t, 1, s.Missing["mpg"])
	// Rows 2 and 3 repeat row 0.
	assert.Equal(t, 2, s.Duplicates)
}
