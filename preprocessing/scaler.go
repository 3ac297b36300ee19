// Package preprocessing provides the fitted transforms of the pricing pipeline.
//
// This package implements:
//
//   - RemoveOutliers: sequential IQR outlier filtering over numeric columns
//   - LabelEncoder: maps string labels to integer codes in sorted order
//   - MinMaxScaler: rescales one numeric column to [0, 1]
//   - ScalerSet: one MinMaxScaler per feature column of a table
//
// Encoders and scalers follow the Fit / Transform / FitTransform pattern and
// embed a model.StateManager. Their fitted statistics are computed once per
// training run, persisted, and loaded unchanged at inference time.
//
// Example usage:
//
//	scaler := preprocessing.NewMinMaxScaler("mileage")
//	if err := scaler.Fit(trainMileage); err != nil {
//		log.Fatal(err)
//	}
//	scaled, err := scaler.TransformValue(42000)
package preprocessing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/ezoic/carprice/core/model"
	"github.com/ezoic/carprice/dataset"
	"github.com/ezoic/carprice/pkg/errors"
)

// MinMaxScaler rescales a single column with v' = (v - min) / (max - min).
// Values outside the fitted range are not clamped.
type MinMaxScaler struct {
	State *model.StateManager `msgpack:"state"`

	// Column is the name of the scaled column.
	Column string `msgpack:"column"`

	// DataMin is the smallest training value.
	DataMin float64 `msgpack:"data_min"`

	// DataMax is the largest training value.
	DataMax float64 `msgpack:"data_max"`
}

// NewMinMaxScaler creates an unfitted scaler for column.
func NewMinMaxScaler(column string) *MinMaxScaler {
	return &MinMaxScaler{Column: column, State: model.NewStateManager()}
}

// Fit computes the minimum and maximum of the training values.
//
// Parameters:
//   - values: Training values of the column
//
// Returns:
//   - error: nil if successful, otherwise an error describing the failure
//
// Errors:
//   - ErrEmptyData: if values is empty
//   - ValueError: if values contain NaN or infinities
//   - DegenerateColumnError: if every value is the same, so max == min
//
// Example:
//
//	scaler := preprocessing.NewMinMaxScaler("tax")
//	if err := scaler.Fit([]float64{20, 145, 150}); err != nil {
//	    log.Fatal(err)
//	}
func (m *MinMaxScaler) Fit(values []float64) (err error) {
	defer errors.Recover(&err, "MinMaxScaler.Fit")
	if len(values) == 0 {
		return errors.NewModelError("MinMaxScaler.Fit", "empty data", errors.ErrEmptyData)
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.NewValueError("MinMaxScaler.Fit",
				fmt.Sprintf("column %q has non-finite value at row %d", m.Column, i))
		}
	}

	lo, hi := floats.Min(values), floats.Max(values)
	if hi == lo {
		return errors.NewDegenerateColumnError(m.Column, lo)
	}

	m.DataMin = lo
	m.DataMax = hi
	m.State.SetDimensions(1, len(values))
	m.State.SetFitted()
	return nil
}

// TransformValue scales one value.
func (m *MinMaxScaler) TransformValue(v float64) (float64, error) {
	if !m.State.IsFitted() {
		return 0, errors.NewNotFittedError("MinMaxScaler", "Transform")
	}
	return (v - m.DataMin) / (m.DataMax - m.DataMin), nil
}

// Transform scales every value using the fitted range.
//
// Errors:
//   - ErrNotFitted: if the scaler hasn't been fitted yet
func (m *MinMaxScaler) Transform(values []float64) ([]float64, error) {
	if !m.State.IsFitted() {
		return nil, errors.NewNotFittedError("MinMaxScaler", "Transform")
	}
	span := m.DataMax - m.DataMin
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = (v - m.DataMin) / span
	}
	return out, nil
}

// FitTransform fits the scaler and scales the training values in one step.
func (m *MinMaxScaler) FitTransform(values []float64) ([]float64, error) {
	if err := m.Fit(values); err != nil {
		return nil, err
	}
	return m.Transform(values)
}

// InverseTransform maps scaled values back to the original range.
func (m *MinMaxScaler) InverseTransform(values []float64) ([]float64, error) {
	if !m.State.IsFitted() {
		return nil, errors.NewNotFittedError("MinMaxScaler", "InverseTransform")
	}
	span := m.DataMax - m.DataMin
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v*span + m.DataMin
	}
	return out, nil
}

// Encode encodes the fitted scaler as a versioned msgpack envelope.
func (m *MinMaxScaler) Encode() ([]byte, error) {
	if !m.State.IsFitted() {
		return nil, errors.NewNotFittedError("MinMaxScaler", "Encode")
	}
	return model.Marshal(model.KindMinMaxScaler, m)
}

// DecodeMinMaxScaler decodes a scaler written by Encode.
func DecodeMinMaxScaler(data []byte) (*MinMaxScaler, error) {
	m := &MinMaxScaler{}
	if err := model.Unmarshal(data, model.KindMinMaxScaler, m); err != nil {
		return nil, err
	}
	if !m.State.IsFitted() {
		return nil, errors.NewNotFittedError("MinMaxScaler", "Decode")
	}
	if m.DataMax == m.DataMin {
		return nil, errors.NewDegenerateColumnError(m.Column, m.DataMin)
	}
	return m, nil
}

func (m *MinMaxScaler) String() string {
	if !m.State.IsFitted() {
		return fmt.Sprintf("MinMaxScaler(column=%s)", m.Column)
	}
	return fmt.Sprintf("MinMaxScaler(column=%s, min=%g, max=%g)", m.Column, m.DataMin, m.DataMax)
}

// ScalerSet holds one MinMaxScaler per feature column and passes the target
// column through unscaled.
type ScalerSet struct {
	Columns []string
	Target  string

	scalers map[string]*MinMaxScaler
}

// NewScalerSet creates an unfitted set for columns. target may be empty when
// the tables to transform carry no target.
func NewScalerSet(columns []string, target string) *ScalerSet {
	return &ScalerSet{
		Columns: append([]string(nil), columns...),
		Target:  target,
		scalers: make(map[string]*MinMaxScaler, len(columns)),
	}
}

// Fit fits one scaler per column on t. On error the set is left unchanged.
func (s *ScalerSet) Fit(t *dataset.Table) error {
	fitted := make(map[string]*MinMaxScaler, len(s.Columns))
	for _, name := range s.Columns {
		values, err := t.Floats(name)
		if err != nil {
			return err
		}
		scaler := NewMinMaxScaler(name)
		if err := scaler.Fit(values); err != nil {
			return err
		}
		fitted[name] = scaler
	}
	s.scalers = fitted
	return nil
}

// Transform returns a table with the scaled feature columns in set order,
// followed by the target column copied unchanged when one is configured.
func (s *ScalerSet) Transform(t *dataset.Table) (*dataset.Table, error) {
	out := dataset.New()
	for _, name := range s.Columns {
		scaler, ok := s.scalers[name]
		if !ok {
			return nil, errors.NewNotFittedError("ScalerSet", "Transform")
		}
		values, err := t.Floats(name)
		if err != nil {
			return nil, err
		}
		scaled, err := scaler.Transform(values)
		if err != nil {
			return nil, err
		}
		if err := out.AddFloatColumn(name, scaled); err != nil {
			return nil, err
		}
	}
	if s.Target != "" {
		target, err := t.Floats(s.Target)
		if err != nil {
			return nil, err
		}
		if err := out.AddFloatColumn(s.Target, append([]float64(nil), target...)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// FitTransform fits the set on t and transforms it.
func (s *ScalerSet) FitTransform(t *dataset.Table) (*dataset.Table, error) {
	if err := s.Fit(t); err != nil {
		return nil, err
	}
	return s.Transform(t)
}

// Scaler returns the fitted scaler of column.
func (s *ScalerSet) Scaler(column string) (*MinMaxScaler, bool) {
	scaler, ok := s.scalers[column]
	return scaler, ok
}

// Set installs a fitted scaler, typically one loaded from storage.
func (s *ScalerSet) Set(scaler *MinMaxScaler) error {
	if !scaler.State.IsFitted() {
		return errors.NewNotFittedError("MinMaxScaler", "ScalerSet.Set")
	}
	if s.scalers == nil {
		s.scalers = make(map[string]*MinMaxScaler)
	}
	s.scalers[scaler.Column] = scaler
	return nil
}

// TransformVector scales a vector whose entries follow Columns order.
func (s *ScalerSet) TransformVector(vector []float64) ([]float64, error) {
	if len(vector) != len(s.Columns) {
		return nil, errors.NewDimensionError("ScalerSet.TransformVector", len(s.Columns), len(vector), 1)
	}
	out := make([]float64, len(vector))
	for j, name := range s.Columns {
		scaler, ok := s.scalers[name]
		if !ok {
			return nil, errors.NewNotFittedError("ScalerSet", "TransformVector")
		}
		v, err := scaler.TransformValue(vector[j])
		if err != nil {
			return nil, err
		}
		out[j] = v
	}
	return out, nil
}
