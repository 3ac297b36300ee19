package pricing

import (
	"fmt"
	"math"

	"github.com/ezoic/carprice/pkg/errors"
)

// Accepted input ranges.
const (
	MinYear       = 2000
	MaxYear       = 2024
	MinMPG        = 1
	MaxMPG        = 500
	MinTax        = 1
	MaxTax        = 1000
	MinEngineSize = 0
	MaxEngineSize = 10

	// DefaultEngineSize is used when no engine size is given.
	DefaultEngineSize = 1
)

// Input is one car to price, in raw (unencoded, unscaled) form.
type Input struct {
	Brand        string
	Model        string
	Transmission string
	FuelType     string
	Year         float64
	Mileage      float64
	Tax          float64
	MPG          float64
	EngineSize   float64
}

// Validate checks the numeric fields.
//
// Errors:
//   - InvalidFeatureVectorError: if a numeric field is NaN or infinite
//   - ValueError: if a field is outside its accepted range
func (in Input) Validate() error {
	fields := []struct {
		name     string
		value    float64
		min, max float64
	}{
		{ColumnYear, in.Year, MinYear, MaxYear},
		{ColumnMileage, in.Mileage, 0, math.Inf(1)},
		{ColumnTax, in.Tax, MinTax, MaxTax},
		{ColumnMPG, in.MPG, MinMPG, MaxMPG},
		{ColumnEngineSize, in.EngineSize, MinEngineSize, MaxEngineSize},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return errors.NewInvalidFeatureVectorError("%s is %v", f.name, f.value)
		}
		if f.value < f.min || f.value > f.max {
			return errors.NewValueError("Input.Validate",
				fmt.Sprintf("%s %v outside [%v, %v]", f.name, f.value, f.min, f.max))
		}
	}
	return nil
}

// Value returns the raw numeric value of column, or false for categorical or
// unknown columns.
func (in Input) Value(column string) (float64, bool) {
	switch column {
	case ColumnYear:
		return in.Year, true
	case ColumnMileage:
		return in.Mileage, true
	case ColumnTax:
		return in.Tax, true
	case ColumnMPG:
		return in.MPG, true
	case ColumnEngineSize:
		return in.EngineSize, true
	}
	return 0, false
}

func (in Input) label(column string) string {
	switch column {
	case ColumnBrand:
		return in.Brand
	case ColumnModel:
		return in.Model
	case ColumnTransmission:
		return in.Transmission
	case ColumnFuelType:
		return in.FuelType
	}
	return ""
}
