// Package errors provides the error vocabulary shared by every carprice package.
//
// It builds on github.com/cockroachdb/errors so that every error carries a
// stack trace (printed with %+v) while staying compatible with the standard
// errors.Is / errors.As helpers. The package defines:
//
//   - Sentinel errors (ErrEmptyData, ErrNotFitted, ...) for errors.Is checks
//   - Generic estimator errors (ModelError, ValueError, DimensionError, NotFittedError)
//   - Pipeline error kinds surfaced to callers: UnknownCategoryError,
//     DegenerateColumnError, InvalidFeatureVectorError, MissingColumnError and
//     ArtifactLoadError
//   - Recover, which turns a panic inside an estimator method into an error
//
// Example:
//
//	code, err := encoder.Transform("Tesla")
//	var unknown *errors.UnknownCategoryError
//	if errors.As(err, &unknown) {
//		fmt.Println("unseen label:", unknown.Value)
//	}
package errors

import (
	"fmt"

	cerrors "github.com/cockroachdb/errors"
)

// Sentinel errors.
var (
	ErrEmptyData          = cerrors.New("empty data")
	ErrDimensionMismatch  = cerrors.New("dimension mismatch")
	ErrNotFitted          = cerrors.New("model not fitted")
	ErrInvalidValue       = cerrors.New("invalid value")
	ErrUnknownCategory    = cerrors.New("unknown category")
	ErrDegenerateColumn   = cerrors.New("degenerate column")
	ErrInvalidFeatureVec  = cerrors.New("invalid feature vector")
	ErrMissingColumn      = cerrors.New("missing column")
	ErrArtifactLoad       = cerrors.New("artifact load failed")
	ErrArtifactNotFound   = cerrors.New("artifact not found")
	ErrUnsupportedVersion = cerrors.New("unsupported artifact version")
)

// Re-exported helpers so callers need a single errors import.
var (
	New    = cerrors.New
	Newf   = cerrors.Newf
	Wrap   = cerrors.Wrap
	Wrapf  = cerrors.Wrapf
	Is     = cerrors.Is
	As     = cerrors.As
	Unwrap = cerrors.Unwrap
)

// ModelError is a failure inside an estimator operation.
type ModelError struct {
	Op      string
	Message string
	Err     error
}

// NewModelError creates a ModelError for operation op wrapping err.
func NewModelError(op, message string, err error) error {
	return cerrors.WithStackDepth(&ModelError{Op: op, Message: message, Err: err}, 1)
}

func (e *ModelError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("carprice: %s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("carprice: %s: %s: %v", e.Op, e.Message, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

// ValueError reports an argument with an invalid value.
type ValueError struct {
	Op      string
	Message string
}

// NewValueError creates a ValueError.
func NewValueError(op, message string) error {
	return cerrors.WithStackDepth(&ValueError{Op: op, Message: message}, 1)
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *ValueError) Is(target error) bool { return target == ErrInvalidValue }

// DimensionError reports a size mismatch along Axis (0 = rows, 1 = columns).
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int
}

// NewDimensionError creates a DimensionError.
func NewDimensionError(op string, expected, got, axis int) error {
	return cerrors.WithStackDepth(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}, 1)
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("%s: dimension mismatch on axis %d: expected %d, got %d", e.Op, e.Axis, e.Expected, e.Got)
}

func (e *DimensionError) Is(target error) bool { return target == ErrDimensionMismatch }

// NotFittedError is returned when an untrained estimator is used.
type NotFittedError struct {
	ModelName string
	Method    string
}

// NewNotFittedError creates a NotFittedError.
func NewNotFittedError(modelName, method string) error {
	return cerrors.WithStackDepth(&NotFittedError{ModelName: modelName, Method: method}, 1)
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("%s: %s called before Fit", e.ModelName, e.Method)
}

func (e *NotFittedError) Is(target error) bool { return target == ErrNotFitted }

// UnknownCategoryError is returned when encoding a label absent from the fitted mapping.
type UnknownCategoryError struct {
	Column string
	Value  string
}

// NewUnknownCategoryError creates an UnknownCategoryError.
func NewUnknownCategoryError(column, value string) error {
	return cerrors.WithStackDepth(&UnknownCategoryError{Column: column, Value: value}, 1)
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown category %q for column %q", e.Value, e.Column)
}

func (e *UnknownCategoryError) Is(target error) bool { return target == ErrUnknownCategory }

// DegenerateColumnError is returned when a column has zero range (max == min).
type DegenerateColumnError struct {
	Column string
	Value  float64
}

// NewDegenerateColumnError creates a DegenerateColumnError.
func NewDegenerateColumnError(column string, value float64) error {
	return cerrors.WithStackDepth(&DegenerateColumnError{Column: column, Value: value}, 1)
}

func (e *DegenerateColumnError) Error() string {
	return fmt.Sprintf("column %q is constant (min == max == %g) and cannot be scaled", e.Column, e.Value)
}

func (e *DegenerateColumnError) Is(target error) bool { return target == ErrDegenerateColumn }

// InvalidFeatureVectorError is returned for inference input of the wrong length
// or with non-finite values.
type InvalidFeatureVectorError struct {
	Reason string
}

// NewInvalidFeatureVectorError creates an InvalidFeatureVectorError.
func NewInvalidFeatureVectorError(format string, args ...interface{}) error {
	return cerrors.WithStackDepth(&InvalidFeatureVectorError{Reason: fmt.Sprintf(format, args...)}, 1)
}

func (e *InvalidFeatureVectorError) Error() string {
	return "invalid feature vector: " + e.Reason
}

func (e *InvalidFeatureVectorError) Is(target error) bool { return target == ErrInvalidFeatureVec }

// MissingColumnError is returned when a required column is absent from a table.
type MissingColumnError struct {
	Column string
}

// NewMissingColumnError creates a MissingColumnError.
func NewMissingColumnError(column string) error {
	return cerrors.WithStackDepth(&MissingColumnError{Column: column}, 1)
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("required column %q is missing", e.Column)
}

func (e *MissingColumnError) Is(target error) bool { return target == ErrMissingColumn }

// ArtifactLoadError is returned when a persisted artifact cannot be read,
// decoded, or was written by an incompatible version.
type ArtifactLoadError struct {
	Name string
	Err  error
}

// NewArtifactLoadError creates an ArtifactLoadError for artifact name.
func NewArtifactLoadError(name string, err error) error {
	return cerrors.WithStackDepth(&ArtifactLoadError{Name: name, Err: err}, 1)
}

func (e *ArtifactLoadError) Error() string {
	return fmt.Sprintf("failed to load artifact %q: %v", e.Name, e.Err)
}

func (e *ArtifactLoadError) Unwrap() error { return e.Err }

func (e *ArtifactLoadError) Is(target error) bool { return target == ErrArtifactLoad }

// Recover converts a panic raised inside op into an error stored in *err.
// It must be called via defer.
func Recover(err *error, op string) {
	if r := recover(); r != nil {
		if rerr, ok := r.(error); ok {
			*err = cerrors.Wrapf(rerr, "%s: panic", op)
			return
		}
		*err = cerrors.Newf("%s: panic: %v", op, r)
	}
}
