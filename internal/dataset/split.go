package dataset

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// ErrInvalidSplit indicates split parameters that would leave a side empty.
var ErrInvalidSplit = errors.New("invalid split")

// Split holds disjoint training and validation subsets of one dataset.
type Split struct {
	Train      *Dataset
	Validation *Dataset
	TrainIdx   []int
	ValIdx     []int
}

// SplitTrainValidation shuffles row indices with seed and assigns the first
// round(testSize*N) of them to validation and the rest to training.
func SplitTrainValidation(d *Dataset, testSize float64, seed int64) (*Split, error) {
	if testSize <= 0 || testSize >= 1 || math.IsNaN(testSize) {
		return nil, fmt.Errorf("%w: test size must be in (0, 1) (got %g)", ErrInvalidSplit, testSize)
	}
	n := d.Len()
	if n == 0 {
		return nil, fmt.Errorf("%w: dataset is empty", ErrInvalidSplit)
	}
	nVal := int(math.Round(testSize * float64(n)))
	if nVal == 0 || nVal == n {
		return nil, fmt.Errorf("%w: test size %g leaves an empty side for %d rows", ErrInvalidSplit, testSize, n)
	}

	order := shuffledIndices(n, rand.New(rand.NewSource(seed)))
	valIdx := order[:nVal]
	trainIdx := order[nVal:]

	return &Split{
		Train:      d.Subset(trainIdx),
		Validation: d.Subset(valIdx),
		TrainIdx:   trainIdx,
		ValIdx:     valIdx,
	}, nil
}

func shuffledIndices(n int, rng *rand.Rand) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	rng.Shuffle(n, func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	return order
}
