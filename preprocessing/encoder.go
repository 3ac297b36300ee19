package preprocessing

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/ezoic/carprice/core/model"
	"github.com/ezoic/carprice/pkg/errors"
)

// LabelEncoder maps the distinct labels of one string column to integer codes.
//
// Codes are assigned from zero in lexicographic (byte) order of the labels, so
// the same set of training labels always yields the same mapping. Labels are
// kept verbatim, including surrounding whitespace.
type LabelEncoder struct {
	State *model.StateManager

	// Column is the name of the encoded column, used in error messages.
	Column string

	classes []string
	index   map[string]int
}

// NewLabelEncoder creates an unfitted encoder for column.
func NewLabelEncoder(column string) *LabelEncoder {
	return &LabelEncoder{Column: column, State: model.NewStateManager()}
}

// Fit learns the sorted set of distinct labels.
//
// Errors:
//   - ErrEmptyData: if values is empty
func (e *LabelEncoder) Fit(values []string) (err error) {
	defer errors.Recover(&err, "LabelEncoder.Fit")
	if len(values) == 0 {
		return errors.NewModelError("LabelEncoder.Fit", "empty data", errors.ErrEmptyData)
	}

	seen := make(map[string]struct{}, len(values))
	classes := make([]string, 0)
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		classes = append(classes, v)
	}
	sort.Strings(classes)

	e.setClasses(classes)
	e.State.SetDimensions(1, len(values))
	e.State.SetFitted()
	return nil
}

func (e *LabelEncoder) setClasses(classes []string) {
	e.classes = classes
	e.index = make(map[string]int, len(classes))
	for code, label := range classes {
		e.index[label] = code
	}
}

// TransformValue returns the code of a single label.
//
// Errors:
//   - NotFittedError: if the encoder has not been fitted
//   - UnknownCategoryError: if label was not seen during Fit
func (e *LabelEncoder) TransformValue(label string) (int, error) {
	if !e.State.IsFitted() {
		return 0, errors.NewNotFittedError("LabelEncoder", "Transform")
	}
	code, ok := e.index[label]
	if !ok {
		return 0, errors.NewUnknownCategoryError(e.Column, label)
	}
	return code, nil
}

// Transform encodes every label. Codes are returned as float64 so they can be
// stored back into a numeric table column.
func (e *LabelEncoder) Transform(values []string) ([]float64, error) {
	out := make([]float64, len(values))
	for i, v := range values {
		code, err := e.TransformValue(v)
		if err != nil {
			return nil, err
		}
		out[i] = float64(code)
	}
	return out, nil
}

// FitTransform fits the encoder on values and encodes them.
func (e *LabelEncoder) FitTransform(values []string) ([]float64, error) {
	if err := e.Fit(values); err != nil {
		return nil, err
	}
	return e.Transform(values)
}

// Decode returns the label of code.
func (e *LabelEncoder) Decode(code int) (string, error) {
	if !e.State.IsFitted() {
		return "", errors.NewNotFittedError("LabelEncoder", "Decode")
	}
	if code < 0 || code >= len(e.classes) {
		return "", errors.NewValueError("LabelEncoder.Decode",
			fmt.Sprintf("code %d out of range [0, %d) for column %q", code, len(e.classes), e.Column))
	}
	return e.classes[code], nil
}

// Classes returns the labels ordered by code.
func (e *LabelEncoder) Classes() []string {
	return append([]string(nil), e.classes...)
}

// WriteMapping writes one "<code>: <label>" line per code in ascending order.
func (e *LabelEncoder) WriteMapping(w io.Writer) error {
	if !e.State.IsFitted() {
		return errors.NewNotFittedError("LabelEncoder", "WriteMapping")
	}
	bw := bufio.NewWriter(w)
	for code, label := range e.classes {
		if _, err := fmt.Fprintf(bw, "%d: %s\n", code, label); err != nil {
			return errors.Wrapf(err, "failed to write mapping for %s", e.Column)
		}
	}
	return errors.Wrapf(bw.Flush(), "failed to write mapping for %s", e.Column)
}

// ReadMapping rebuilds a fitted encoder for column from text written by
// WriteMapping. Codes must be contiguous and ascending from zero.
func ReadMapping(column string, r io.Reader) (*LabelEncoder, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	classes := make([]string, 0)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		rawCode, label, ok := strings.Cut(line, ":")
		if !ok {
			return nil, errors.NewValueError("ReadMapping", fmt.Sprintf("line %d: missing ':' separator", lineNo))
		}
		label = strings.TrimPrefix(label, " ")
		code, err := strconv.Atoi(strings.TrimSpace(rawCode))
		if err != nil {
			return nil, errors.NewValueError("ReadMapping", fmt.Sprintf("line %d: invalid code %q", lineNo, rawCode))
		}
		if code != len(classes) {
			return nil, errors.NewValueError("ReadMapping",
				fmt.Sprintf("line %d: expected code %d, got %d", lineNo, len(classes), code))
		}
		classes = append(classes, label)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read mapping for %s", column)
	}
	if len(classes) == 0 {
		return nil, errors.NewModelError("ReadMapping", "mapping for "+column+" is empty", errors.ErrEmptyData)
	}

	e := NewLabelEncoder(column)
	e.setClasses(classes)
	e.State.SetDimensions(1, len(classes))
	e.State.SetFitted()
	return e, nil
}

func (e *LabelEncoder) String() string {
	if !e.State.IsFitted() {
		return fmt.Sprintf("LabelEncoder(column=%s)", e.Column)
	}
	return fmt.Sprintf("LabelEncoder(column=%s, n_classes=%d)", e.Column, len(e.classes))
}
