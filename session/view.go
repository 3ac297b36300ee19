package session

import (
	"strconv"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot/plotter"

	"github.com/ezoic/carprice/dataset"
	"github.com/ezoic/carprice/pricing"
)

// View is everything a front end renders.
type View struct {
	// HasPrice is false until the first successful prediction.
	HasPrice bool
	// Price is the last predicted price truncated to an integer.
	Price int

	Variable string
	Stats    Stats
	Scatter  Scatter
}

// PriceLabel returns the price text, "None" before any prediction.
func (v View) PriceLabel() string {
	if !v.HasPrice {
		return "None"
	}
	return strconv.Itoa(v.Price)
}

// Stats summarises the cleaned dataset.
type Stats struct {
	TopModel       string // Most frequent model
	AverageMileage int    // Truncated mean mileage
	AverageMPG     int    // Truncated mean mpg
}

// Scatter is price plotted against one variable over the session sample.
type Scatter struct {
	Title  string
	XLabel string
	YLabel string
	Points plotter.XYs

	// Highlight is the last prediction at its input value, nil before any.
	Highlight *plotter.XY
}

// View builds the current view.
func (s *Session) View() (View, error) {
	stats, err := computeStats(s.data)
	if err != nil {
		return View{}, err
	}
	scatter, err := s.scatter()
	if err != nil {
		return View{}, err
	}
	v := View{Variable: s.Variable(), Stats: stats, Scatter: scatter}
	if s.lastPrice != nil {
		v.HasPrice = true
		v.Price = int(*s.lastPrice)
	}
	return v, nil
}

func (s *Session) scatter() (Scatter, error) {
	variable := s.Variable()
	xs, err := s.sample.Floats(variable)
	if err != nil {
		return Scatter{}, err
	}
	ys, err := s.sample.Floats(pricing.ColumnPrice)
	if err != nil {
		return Scatter{}, err
	}
	points := make(plotter.XYs, len(xs))
	for i := range xs {
		points[i].X = xs[i]
		points[i].Y = ys[i]
	}

	sc := Scatter{
		Title:  "Scatter Plot: Price vs. " + Title(variable),
		XLabel: Title(variable),
		YLabel: "Price",
		Points: points,
	}
	if s.lastPrice != nil && s.lastInput != nil {
		x, _ := s.lastInput.Value(variable)
		sc.Highlight = &plotter.XY{X: x, Y: float64(int(*s.lastPrice))}
	}
	return sc, nil
}

func computeStats(t *dataset.Table) (Stats, error) {
	var st Stats
	if t.NumRows() == 0 {
		return st, nil
	}
	models, err := t.Strings(pricing.ColumnModel)
	if err != nil {
		return st, err
	}
	st.TopModel = mostFrequent(models)

	mileage, err := t.Floats(pricing.ColumnMileage)
	if err != nil {
		return st, err
	}
	st.AverageMileage = int(stat.Mean(mileage, nil))

	mpg, err := t.Floats(pricing.ColumnMPG)
	if err != nil {
		return st, err
	}
	st.AverageMPG = int(stat.Mean(mpg, nil))
	return st, nil
}

// mostFrequent returns the most common value; ties go to the value seen first.
func mostFrequent(values []string) string {
	counts := make(map[string]int, len(values))
	best, bestCount := "", 0
	for _, v := range values {
		counts[v]++
	}
	for _, v := range dataset.Unique(values) {
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	return best
}
