package dataset

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/ezoic/carprice/pkg/errors"
)

// ReadCSV reads a comma-separated table with a header row.
//
// A column is numeric when every non-empty cell parses as a float; empty
// numeric cells become NaN. Columns listed in stringColumns are always read
// as strings, whatever their content. Cell values are kept verbatim.
func ReadCSV(r io.Reader, stringColumns ...string) (*Table, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = false

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.NewModelError("ReadCSV", "missing header row", errors.ErrEmptyData)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read CSV header")
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	cells := make([][]string, len(header))
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to read CSV record")
		}
		for j := range header {
			cells[j] = append(cells[j], record[j])
		}
	}

	forced := make(map[string]bool, len(stringColumns))
	for _, name := range stringColumns {
		forced[name] = true
	}

	table := New()
	for j, name := range header {
		name = strings.TrimSpace(name)
		values := cells[j]
		if values == nil {
			values = []string{}
		}
		if !forced[name] {
			if floats, ok := parseFloats(values); ok {
				if err := table.AddFloatColumn(name, floats); err != nil {
					return nil, err
				}
				continue
			}
		}
		if err := table.AddStringColumn(name, values); err != nil {
			return nil, err
		}
	}
	return table, nil
}

// LoadCSV opens path and reads it with ReadCSV.
func LoadCSV(path string, stringColumns ...string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer func() { _ = f.Close() }()
	return ReadCSV(f, stringColumns...)
}

func parseFloats(values []string) ([]float64, bool) {
	out := make([]float64, len(values))
	seen := false
	for i, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			out[i] = math.NaN()
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, false
		}
		out[i] = f
		seen = true
	}
	return out, seen || len(values) == 0
}
