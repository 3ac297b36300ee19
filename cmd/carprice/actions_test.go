package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezoic/carprice/cnf"
	"github.com/ezoic/carprice/dataset"
	"github.com/ezoic/carprice/pricing"
	"github.com/ezoic/carprice/pricing/pricingtest"
)

func writeCSV(t *testing.T, table *dataset.Table) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cars.csv")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := csv.NewWriter(f)
	require.NoError(t, w.Write(table.Names()))
	columns := table.Columns()
	for i := 0; i < table.NumRows(); i++ {
		record := make([]string, len(columns))
		for j, c := range columns {
			if c.Kind == dataset.Float {
				record[j] = strconv.FormatFloat(c.Floats[i], 'g', -1, 64)
			} else {
				record[j] = c.Strings[i]
			}
		}
		require.NoError(t, w.Write(record))
	}
	w.Flush()
	require.NoError(t, w.Error())
	return path
}

func testConf(t *testing.T) *cnf.Conf {
	t.Helper()
	conf := &cnf.Conf{ArtifactDir: t.TempDir(), NEstimators: 5}
	require.NoError(t, cnf.ValidateAndDefaults(conf))
	return conf
}

func audi() pricing.Input {
	return pricing.Input{
		Brand: "Audi", Model: " A3", Transmission: "Manual", FuelType: "Petrol",
		Year: 2018, Mileage: 25000, Tax: 145, MPG: 50, EngineSize: 1.4,
	}
}

func TestActions_TrainThenPredict(t *testing.T) {
	ctx := context.Background()
	conf := testConf(t)
	data := writeCSV(t, pricingtest.Cars(300, 31))

	var out bytes.Buffer
	require.Equal(t, exitOK, runActionTrain(ctx, &out, conf, data, false))
	assert.Contains(t, out.String(), "Outlier bounds")
	assert.Contains(t, out.String(), "artifacts saved (fs backend)")

	tests := []struct {
		name   string
		mutate func(*pricing.Input)
		code   int
	}{
		{"known car", func(*pricing.Input) {}, exitOK},
		{"unknown brand", func(in *pricing.Input) { in.Brand = "Tesla" }, exitErrorPrediction},
		{"year out of range", func(in *pricing.Input) { in.Year = 1999 }, exitErrorPrediction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := audi()
			tt.mutate(&in)
			var out bytes.Buffer
			assert.Equal(t, tt.code, runActionPredict(ctx, &out, conf, in))
			if tt.code == exitOK {
				assert.Contains(t, out.String(), "Predicted Price: ")
			}
		})
	}
}

func TestActions_PredictWithoutModel(t *testing.T) {
	var out bytes.Buffer
	assert.Equal(t, exitErrorStore, runActionPredict(context.Background(), &out, testConf(t), audi()))
	assert.Empty(t, out.String())
}

func TestActions_Analyze(t *testing.T) {
	conf := testConf(t)
	var out bytes.Buffer
	require.Equal(t, exitOK, runActionAnalyze(&out, conf, writeCSV(t, pricingtest.Cars(50, 32))))
	for _, section := range []string{"Dataset Information", "Descriptive Statistics", "Missing Values", "Unique Values", "Duplicate Rows"} {
		assert.Contains(t, out.String(), section)
	}
	assert.Contains(t, out.String(), "rows: 50, columns: 10")
}

func TestActions_DatasetFromConfig(t *testing.T) {
	conf := testConf(t)
	var out bytes.Buffer
	assert.Equal(t, exitErrorData, runActionAnalyze(&out, conf, ""))

	conf.DatasetPath = writeCSV(t, pricingtest.Cars(20, 33))
	out.Reset()
	assert.Equal(t, exitOK, runActionAnalyze(&out, conf, ""))
	assert.Contains(t, out.String(), "rows: 20")
}

func TestActions_Scatter(t *testing.T) {
	ctx := context.Background()
	conf := testConf(t)
	data := writeCSV(t, pricingtest.Cars(300, 34))

	tests := []struct {
		name     string
		variable string
		code     int
		want     string
	}{
		{"year", "year", exitOK, "Scatter Plot: Price vs. Year"},
		{"engine size", "engineSize", exitOK, "Scatter Plot: Price vs. EngineSize"},
		{"unknown", "colour", exitErrorPrediction, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			assert.Equal(t, tt.code, runActionScatter(ctx, &out, conf, data, tt.variable, nil))
			if tt.want != "" {
				assert.Contains(t, out.String(), tt.want)
				assert.Contains(t, out.String(), "Predicted Price: None")
			}
		})
	}

	t.Run("with prediction", func(t *testing.T) {
		var out bytes.Buffer
		require.Equal(t, exitOK, runActionTrain(ctx, &out, conf, data, false))
		out.Reset()
		in := audi()
		require.Equal(t, exitOK, runActionScatter(ctx, &out, conf, data, "mileage", &in))
		assert.Contains(t, out.String(), "Scatter Plot: Price vs. Mileage")
		assert.Contains(t, out.String(), "<- prediction")
		assert.NotContains(t, out.String(), "Predicted Price: None")
	})
}
