package preprocessing

import (
	"fmt"

	"github.com/ezoic/carprice/dataset"
	"github.com/ezoic/carprice/pkg/errors"
	"github.com/ezoic/carprice/pkg/log"
)

// IQRFactor is the Tukey fence multiplier applied to the interquartile range.
const IQRFactor = 1.5

// Bounds records the fences applied to one column during RemoveOutliers.
type Bounds struct {
	Column     string
	Q1         float64
	Q3         float64
	Lower      float64
	Upper      float64
	RowsBefore int
	RowsAfter  int
}

// Contains reports whether v lies strictly inside the fences.
func (b Bounds) Contains(v float64) bool {
	return v > b.Lower && v < b.Upper
}

// RemoveOutliers drops rows whose value in any of the given columns falls
// outside (Q1 - 1.5*IQR, Q3 + 1.5*IQR).
//
// Columns are processed in order and each one sees the table already filtered
// by the previous ones, so quartiles of later columns are computed on the
// surviving rows. Columns absent from the table are skipped. The input table
// is not modified.
//
// Parameters:
//   - t: Table to filter
//   - columns: Numeric columns to filter on, in processing order
//
// Returns:
//   - *dataset.Table: The filtered table
//   - []Bounds: Fences used for every processed column
//   - error: ValueError if a requested column holds strings
//
// Example:
//
//	cleaned, bounds, err := preprocessing.RemoveOutliers(table, []string{"mileage", "price"})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(bounds[0].Lower, bounds[0].Upper)
func RemoveOutliers(t *dataset.Table, columns []string) (_ *dataset.Table, _ []Bounds, err error) {
	defer errors.Recover(&err, "RemoveOutliers")
	logger := log.GetLoggerWithName("preprocessing").With(log.OperationKey, log.OperationFilter, log.PhaseKey, log.PhasePreprocessing)

	current := t
	bounds := make([]Bounds, 0, len(columns))
	for _, name := range columns {
		col, ok := current.Column(name)
		if !ok {
			logger.Debug("Column absent, skipping", log.ColumnKey, name)
			continue
		}
		if col.Kind != dataset.Float {
			return nil, nil, errors.NewValueError("RemoveOutliers", fmt.Sprintf("column %q is not numeric", name))
		}

		values := col.Floats
		q1 := dataset.Quantile(values, 0.25)
		q3 := dataset.Quantile(values, 0.75)
		iqr := q3 - q1
		b := Bounds{
			Column:     name,
			Q1:         q1,
			Q3:         q3,
			Lower:      q1 - IQRFactor*iqr,
			Upper:      q3 + IQRFactor*iqr,
			RowsBefore: current.NumRows(),
		}
		current = current.Filter(func(row int) bool { return b.Contains(values[row]) })
		b.RowsAfter = current.NumRows()
		bounds = append(bounds, b)

		logger.Debug("Outliers removed",
			log.ColumnKey, name,
			log.RowsBeforeKey, b.RowsBefore,
			log.RowsAfterKey, b.RowsAfter,
		)
	}
	if current == t {
		current = t.Clone()
	}
	return current, bounds, nil
}
