package preprocessing_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezoic/carprice/preprocessing"
	cpErrors "github.com/ezoic/carprice/pkg/errors"
)

func TestLabelEncoder_SortedCodes(t *testing.T) {
	enc := preprocessing.NewLabelEncoder("brand")
	codes, err := enc.FitTransform([]string{"Ford", "Audi", "BMW", "Audi", "Toyota"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Audi", "BMW", "Ford", "Toyota"}, enc.Classes())
	assert.Equal(t, []float64{2, 0, 1, 0, 3}, codes)
}

func TestLabelEncoder_ByteOrder(t *testing.T) {
	enc := preprocessing.NewLabelEncoder("model")
	require.NoError(t, enc.Fit([]string{"a6", " A1", "Z4", "A3"}))

	// Leading space sorts first, upper case before lower case.
	assert.Equal(t, []string{" A1", "A3", "Z4", "a6"}, enc.Classes())
}

func TestLabelEncoder_RoundTrip(t *testing.T) {
	labels := []string{"Manual", "Automatic", "Semi-Auto", "Other", "Manual"}
	enc := preprocessing.NewLabelEncoder("transmission")
	require.NoError(t, enc.Fit(labels))

	for _, label := range labels {
		code, err := enc.TransformValue(label)
		require.NoError(t, err)
		decoded, err := enc.Decode(code)
		require.NoError(t, err)
		assert.Equal(t, label, decoded)
	}

	_, err := enc.Decode(len(enc.Classes()))
	assert.True(t, errors.Is(err, cpErrors.ErrInvalidValue))
}

func TestLabelEncoder_UnknownCategory(t *testing.T) {
	enc := preprocessing.NewLabelEncoder("brand")
	require.NoError(t, enc.Fit([]string{"Audi", "BMW", "Ford"}))

	_, err := enc.TransformValue("Tesla")
	var unknown *cpErrors.UnknownCategoryError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "brand", unknown.Column)
	assert.Equal(t, "Tesla", unknown.Value)
}

func TestLabelEncoder_Unfitted(t *testing.T) {
	enc := preprocessing.NewLabelEncoder("brand")
	_, err := enc.TransformValue("Audi")
	assert.True(t, errors.Is(err, cpErrors.ErrNotFitted))

	err = enc.Fit(nil)
	assert.True(t, errors.Is(err, cpErrors.ErrEmptyData))
}

func TestLabelEncoder_MappingRoundTrip(t *testing.T) {
	enc := preprocessing.NewLabelEncoder("model")
	require.NoError(t, enc.Fit([]string{" A1", " 5 Series", " Fiesta"}))

	var buf bytes.Buffer
	require.NoError(t, enc.WriteMapping(&buf))
	assert.Equal(t, "0:  5 Series\n1:  A1\n2:  Fiesta\n", buf.String())

	loaded, err := preprocessing.ReadMapping("model", &buf)
	require.NoError(t, err)
	assert.Equal(t, enc.Classes(), loaded.Classes())

	code, err := loaded.TransformValue(" A1")
	require.NoError(t, err)
	assert.Equal(t, 1, code)
}

func TestReadMapping_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"gap in codes", "0: Audi\n2: BMW\n"},
		{"not starting at zero", "1: Audi\n"},
		{"descending", "1: BMW\n0: Audi\n"},
		{"bad code", "x: Audi\n"},
		{"missing separator", "0 Audi\n"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := preprocessing.ReadMapping("brand", strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}
