// Package model_selection provides dataset splitting helpers.
package model_selection

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/ezoic/carprice/pkg/errors"
)

// TrainTestSplit shuffles the row indices 0..n-1 with a generator seeded by
// seed and returns disjoint train and test index sets. The test set holds
// ceil(testSize*n) rows. The same n, testSize and seed always yield the same
// split.
//
// Parameters:
//   - n: Number of rows
//   - testSize: Fraction of rows held out, in (0, 1)
//   - seed: Shuffle seed
//
// Returns:
//   - train: Indices of the training rows
//   - test: Indices of the held-out rows
//   - error: ValueError if the split would leave either side empty
//
// Example:
//
//	train, test, err := model_selection.TrainTestSplit(table.NumRows(), 0.2, 42)
//	if err != nil {
//	    return err
//	}
//	trainTable := table.Take(train)
func TrainTestSplit(n int, testSize float64, seed uint64) (train, test []int, err error) {
	if n < 2 {
		return nil, nil, errors.NewModelError("TrainTestSplit", fmt.Sprintf("need at least 2 rows, got %d", n), errors.ErrEmptyData)
	}
	if !(testSize > 0 && testSize < 1) {
		return nil, nil, errors.NewValueError("TrainTestSplit", fmt.Sprintf("test size must be in (0, 1), got %v", testSize))
	}
	nTest := int(math.Ceil(testSize * float64(n)))
	if nTest >= n {
		return nil, nil, errors.NewValueError("TrainTestSplit",
			fmt.Sprintf("test size %v leaves no training rows out of %d", testSize, n))
	}

	rng := rand.New(rand.NewPCG(seed, seed))
	perm := rng.Perm(n)
	test = perm[:nTest]
	train = perm[nTest:]
	return train, test, nil
}
