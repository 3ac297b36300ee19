package dataset_test

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezoic/carprice/dataset"
)

const carsCSV = `brand,model,year,price,transmission,mileage,fuelType,tax,mpg,engineSize
Audi, A1,2017,12500,Manual,15735,Petrol,150,55.4,1.4
BMW, 5 Series,2016,16500,Automatic,36203,Diesel,20,64.2,2.0
Ford, Fiesta,2019,,Manual,,Petrol,145,,1.0
`

func TestReadCSVInfersKinds(t *testing.T) {
	table, err := dataset.ReadCSV(strings.NewReader(carsCSV))
	require.NoError(t, err)

	assert.Equal(t, 3, table.NumRows())
	assert.Equal(t, 10, table.NumColumns())

	models, err := table.Strings("model")
	require.NoError(t, err)
	assert.Equal(t, []string{" A1", " 5 Series", " Fiesta"}, models)

	prices, err := table.Floats("price")
	require.NoError(t, err)
	assert.Equal(t, 12500.0, prices[0])
	assert.True(t, math.IsNaN(prices[2]))

	engine, err := table.Floats("engineSize")
	require.NoError(t, err)
	assert.Equal(t, []float64{1.4, 2.0, 1.0}, engine)
}

func TestReadCSVForcedStringColumns(t *testing.T) {
	input := "model,price\n1,100\n2,200\n"

	table, err := dataset.ReadCSV(strings.NewReader(input), "model")
	require.NoError(t, err)

	models, err := table.Strings("model")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, models)
}

func TestReadCSVEmptyInput(t *testing.T) {
	_, err := dataset.ReadCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestReadCSVRaggedRows(t *testing.T) {
	_, err := dataset.ReadCSV(strings.NewReader("a,b\n1,2\n3\n"))
	assert.Error(t, err)
}

func TestReadCSVStripsBOM(t *testing.T) {
	table, err := dataset.ReadCSV(strings.NewReader("\ufeffbrand,price\nAudi,1\n"))
	require.NoError(t, err)
	assert.True(t, table.Has("brand"))
}
