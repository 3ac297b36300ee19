// Package pricingtest generates synthetic used-car tables for tests.
package pricingtest

import (
	"math/rand/v2"

	"github.com/ezoic/carprice/dataset"
)

var (
	brands = []string{"Audi", "BMW", "Ford", "Toyota"}
	models = map[string][]string{
		"Audi":   {" A1", " A3", " Q5"},
		"BMW":    {" 1 Series", " 3 Series", " X5"},
		"Ford":   {" Fiesta", " Focus", " Kuga"},
		"Toyota": {" Yaris", " Corolla", " RAV4"},
	}
	premium       = map[string]float64{"Audi": 6000, "BMW": 7000, "Ford": 0, "Toyota": 2000}
	transmissions = []string{"Manual", "Automatic", "Semi-Auto"}
	fuelTypes     = []string{"Petrol", "Diesel", "Hybrid"}
	engineSizes   = []float64{1.0, 1.2, 1.4, 1.6, 1.8, 2.0}
)

// Cars returns n rows with every column the pricing pipeline needs. Values
// are drawn from smooth distributions so that outlier removal keeps most
// rows, and price depends mostly on year, mileage, brand and engine size.
func Cars(n int, seed uint64) *dataset.Table {
	rng := rand.New(rand.NewPCG(seed, seed))

	brand := make([]string, n)
	model := make([]string, n)
	transmission := make([]string, n)
	fuelType := make([]string, n)
	year := make([]float64, n)
	mileage := make([]float64, n)
	tax := make([]float64, n)
	mpg := make([]float64, n)
	engineSize := make([]float64, n)
	price := make([]float64, n)

	for i := 0; i < n; i++ {
		b := brands[rng.IntN(len(brands))]
		brand[i] = b
		model[i] = models[b][rng.IntN(len(models[b]))]
		transmission[i] = transmissions[rng.IntN(len(transmissions))]
		fuelType[i] = fuelTypes[rng.IntN(len(fuelTypes))]
		year[i] = float64(2010 + rng.IntN(11))
		mileage[i] = float64(rng.IntN(100000))
		tax[i] = float64(100 + rng.IntN(101))
		mpg[i] = 30 + 40*rng.Float64()
		engineSize[i] = engineSizes[rng.IntN(len(engineSizes))]
		price[i] = 15000 +
			1500*(year[i]-2010) -
			0.05*mileage[i] +
			premium[b] +
			2000*engineSize[i] +
			200*rng.NormFloat64()
	}

	t := dataset.New()
	mustAdd(t.AddStringColumn("brand", brand))
	mustAdd(t.AddStringColumn("model", model))
	mustAdd(t.AddFloatColumn("year", year))
	mustAdd(t.AddFloatColumn("price", price))
	mustAdd(t.AddStringColumn("transmission", transmission))
	mustAdd(t.AddFloatColumn("mileage", mileage))
	mustAdd(t.AddStringColumn("fuelType", fuelType))
	mustAdd(t.AddFloatColumn("tax", tax))
	mustAdd(t.AddFloatColumn("mpg", mpg))
	mustAdd(t.AddFloatColumn("engineSize", engineSize))
	return t
}

func mustAdd(err error) {
	if err != nil {
		panic(err)
	}
}
