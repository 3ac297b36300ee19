// Package dataset holds the in-memory table the pricing pipeline works on.
//
// A Table is an ordered set of named columns, each holding either float64 or
// string values. All columns always have the same length and rows are
// positionally aligned across columns: filtering, sampling and selection
// produce new tables and never reorder one column without the others.
package dataset

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/ezoic/carprice/pkg/errors"
)

// Kind is the value type of a column.
type Kind int

const (
	// Float columns hold float64 values; NaN marks a missing cell.
	Float Kind = iota
	// String columns hold raw labels; the empty string marks a missing cell.
	String
)

func (k Kind) String() string {
	if k == Float {
		return "float64"
	}
	return "string"
}

// Column is a named, typed column. Exactly one of Floats or Strings is set.
type Column struct {
	Name    string
	Kind    Kind
	Floats  []float64
	Strings []string
}

// Len returns the number of values in the column.
func (c *Column) Len() int {
	if c.Kind == Float {
		return len(c.Floats)
	}
	return len(c.Strings)
}

func (c *Column) clone() *Column {
	out := &Column{Name: c.Name, Kind: c.Kind}
	if c.Kind == Float {
		out.Floats = append([]float64(nil), c.Floats...)
	} else {
		out.Strings = append([]string(nil), c.Strings...)
	}
	return out
}

func (c *Column) take(indices []int) *Column {
	out := &Column{Name: c.Name, Kind: c.Kind}
	if c.Kind == Float {
		out.Floats = make([]float64, len(indices))
		for i, idx := range indices {
			out.Floats[i] = c.Floats[idx]
		}
	} else {
		out.Strings = make([]string, len(indices))
		for i, idx := range indices {
			out.Strings[i] = c.Strings[idx]
		}
	}
	return out
}

// Table is an ordered collection of equal-length columns.
type Table struct {
	columns []*Column
	index   map[string]int
	rows    int
}

// New returns an empty table.
func New() *Table {
	return &Table{index: make(map[string]int)}
}

// NumRows returns the shared row count.
func (t *Table) NumRows() int { return t.rows }

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int { return len(t.columns) }

// Names returns the column names in table order.
func (t *Table) Names() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Has reports whether the table has a column called name.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns the named column.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// Columns returns the columns in table order.
func (t *Table) Columns() []*Column {
	return append([]*Column(nil), t.columns...)
}

// AddFloatColumn appends a float column. The values slice is owned by the table afterwards.
func (t *Table) AddFloatColumn(name string, values []float64) error {
	return t.add(&Column{Name: name, Kind: Float, Floats: values})
}

// AddStringColumn appends a string column. The values slice is owned by the table afterwards.
func (t *Table) AddStringColumn(name string, values []string) error {
	return t.add(&Column{Name: name, Kind: String, Strings: values})
}

// SetFloatColumn replaces the named column with float values, keeping its
// position, or appends it when absent. Used to swap an encoded label column
// for its integer codes.
func (t *Table) SetFloatColumn(name string, values []float64) error {
	i, ok := t.index[name]
	if !ok {
		return t.AddFloatColumn(name, values)
	}
	if len(values) != t.rows {
		return errors.NewDimensionError("Table.SetFloatColumn", t.rows, len(values), 0)
	}
	t.columns[i] = &Column{Name: name, Kind: Float, Floats: values}
	return nil
}

func (t *Table) add(c *Column) error {
	if c.Name == "" {
		return errors.NewValueError("Table.AddColumn", "column name must not be empty")
	}
	if t.Has(c.Name) {
		return errors.NewValueError("Table.AddColumn", fmt.Sprintf("duplicate column %q", c.Name))
	}
	if len(t.columns) > 0 && c.Len() != t.rows {
		return errors.NewDimensionError("Table.AddColumn", t.rows, c.Len(), 0)
	}
	t.rows = c.Len()
	t.index[c.Name] = len(t.columns)
	t.columns = append(t.columns, c)
	return nil
}

// Floats returns the values of a float column.
//
// Errors:
//   - MissingColumnError: if the column does not exist
//   - ValueError: if the column holds strings
func (t *Table) Floats(name string) ([]float64, error) {
	c, ok := t.Column(name)
	if !ok {
		return nil, errors.NewMissingColumnError(name)
	}
	if c.Kind != Float {
		return nil, errors.NewValueError("Table.Floats", fmt.Sprintf("column %q holds %s values", name, c.Kind))
	}
	return c.Floats, nil
}

// Strings returns the values of a string column.
func (t *Table) Strings(name string) ([]string, error) {
	c, ok := t.Column(name)
	if !ok {
		return nil, errors.NewMissingColumnError(name)
	}
	if c.Kind != String {
		return nil, errors.NewValueError("Table.Strings", fmt.Sprintf("column %q holds %s values", name, c.Kind))
	}
	return c.Strings, nil
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	out := New()
	for _, c := range t.columns {
		_ = out.add(c.clone())
	}
	out.rows = t.rows
	return out
}

// Take returns a new table holding the given rows, in the given order.
func (t *Table) Take(indices []int) *Table {
	out := New()
	for _, c := range t.columns {
		_ = out.add(c.take(indices))
	}
	out.rows = len(indices)
	return out
}

// Filter returns a new table holding the rows for which keep returns true.
func (t *Table) Filter(keep func(row int) bool) *Table {
	indices := make([]int, 0, t.rows)
	for i := 0; i < t.rows; i++ {
		if keep(i) {
			indices = append(indices, i)
		}
	}
	return t.Take(indices)
}

// Select returns a new table with only the named columns, in the given order.
func (t *Table) Select(names ...string) (*Table, error) {
	out := New()
	for _, name := range names {
		c, ok := t.Column(name)
		if !ok {
			return nil, errors.NewMissingColumnError(name)
		}
		if err := out.add(c.clone()); err != nil {
			return nil, err
		}
	}
	out.rows = t.rows
	return out, nil
}

// Sample returns n rows drawn without replacement using a seeded source.
// When n >= NumRows all rows are returned in shuffled order.
func (t *Table) Sample(n int, seed uint64) *Table {
	rng := rand.New(rand.NewPCG(seed, seed))
	perm := rng.Perm(t.rows)
	if n < len(perm) {
		perm = perm[:n]
	}
	return t.Take(perm)
}

// Matrix copies the named float columns into a rows x len(names) matrix.
func (t *Table) Matrix(names []string) (*mat.Dense, error) {
	if t.rows == 0 || len(names) == 0 {
		return nil, errors.NewModelError("Table.Matrix", "empty data", errors.ErrEmptyData)
	}
	X := mat.NewDense(t.rows, len(names), nil)
	for j, name := range names {
		values, err := t.Floats(name)
		if err != nil {
			return nil, err
		}
		for i, v := range values {
			X.Set(i, j, v)
		}
	}
	return X, nil
}
