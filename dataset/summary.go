package dataset

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// NumericSummary holds descriptive statistics of one float column.
// Missing (NaN) cells are excluded from every statistic.
type NumericSummary struct {
	Column string
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Q25    float64
	Q50    float64
	Q75    float64
	Max    float64
}

// CategoricalSummary lists the distinct labels of a string column in
// first-seen order.
type CategoricalSummary struct {
	Column string
	Unique []string
}

// Summary is an overview of a table used by the analyze command.
type Summary struct {
	Rows        int
	Columns     int
	Numeric     []NumericSummary
	Categorical []CategoricalSummary
	Missing     map[string]int
	Duplicates  int
}

// Describe computes a Summary of t.
func Describe(t *Table) *Summary {
	s := &Summary{
		Rows:    t.NumRows(),
		Columns: t.NumColumns(),
		Missing: make(map[string]int, t.NumColumns()),
	}
	for _, c := range t.columns {
		switch c.Kind {
		case Float:
			s.Numeric = append(s.Numeric, describeFloats(c.Name, c.Floats))
			s.Missing[c.Name] = countNaN(c.Floats)
		case String:
			s.Categorical = append(s.Categorical, CategoricalSummary{Column: c.Name, Unique: Unique(c.Strings)})
			s.Missing[c.Name] = countEmpty(c.Strings)
		}
	}
	s.Duplicates = countDuplicates(t)
	return s
}

// Unique returns the distinct values in first-seen order.
func Unique(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0)
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func describeFloats(name string, values []float64) NumericSummary {
	present := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			present = append(present, v)
		}
	}
	ns := NumericSummary{Column: name, Count: len(present)}
	if len(present) == 0 {
		nan := math.NaN()
		ns.Mean, ns.Std, ns.Min, ns.Q25, ns.Q50, ns.Q75, ns.Max = nan, nan, nan, nan, nan, nan, nan
		return ns
	}
	sort.Float64s(present)
	ns.Mean = stat.Mean(present, nil)
	if len(present) > 1 {
		ns.Std = stat.StdDev(present, nil)
	} else {
		ns.Std = math.NaN()
	}
	ns.Min = floats.Min(present)
	ns.Max = floats.Max(present)
	ns.Q25 = quantileSorted(present, 0.25)
	ns.Q50 = quantileSorted(present, 0.5)
	ns.Q75 = quantileSorted(present, 0.75)
	return ns
}

func countNaN(values []float64) int {
	n := 0
	for _, v := range values {
		if math.IsNaN(v) {
			n++
		}
	}
	return n
}

func countEmpty(values []string) int {
	n := 0
	for _, v := range values {
		if v == "" {
			n++
		}
	}
	return n
}

func countDuplicates(t *Table) int {
	seen := make(map[string]struct{}, t.rows)
	dups := 0
	var b strings.Builder
	for i := 0; i < t.rows; i++ {
		b.Reset()
		for _, c := range t.columns {
			if c.Kind == Float {
				b.WriteString(strconv.FormatFloat(c.Floats[i], 'g', -1, 64))
			} else {
				b.WriteString(c.Strings[i])
			}
			b.WriteByte(0x1f)
		}
		key := b.String()
		if _, ok := seen[key]; ok {
			dups++
			continue
		}
		seen[key] = struct{}{}
	}
	return dups
}
