package dataset

import (
	"math"
	"sort"
)

// Quantile returns the p-quantile of values using linear interpolation
// between the two closest ranks: with h = (n-1)*p over the sorted values,
// the result is x[floor(h)] + (h-floor(h)) * (x[floor(h)+1] - x[floor(h)]).
// NaN values are ignored; the result is NaN when nothing remains.
func Quantile(values []float64, p float64) float64 {
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	if len(sorted) == 0 {
		return math.NaN()
	}
	sort.Float64s(sorted)
	return quantileSorted(sorted, p)
}

func quantileSorted(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	h := float64(n-1) * p
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	if lo < 0 {
		return sorted[0]
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
