package evaluation

import (
	"fmt"
	"math/rand"
)

type TrainTestSplitter struct {
	testSize   float64
	randomSeed int64
	shuffle    bool
}

func NewTrainTestSplitter(testSize float64, randomSeed int64, shuffle bool) *TrainTestSplitter {
	return &TrainTestSplitter{
		testSize:   testSize,
		randomSeed: randomSeed,
		shuffle:    shuffle,
	}
}

// SplitIndices partitions [0, n) into train and test index sets. Both sides
// keep at least one index.
func (tts *TrainTestSplitter) SplitIndices(n int) ([]int, []int, error) {
	if n < 2 {
		return nil, nil, fmt.Errorf("cannot split dataset of %d rows", n)
	}

	if tts.testSize <= 0 || tts.testSize >= 1 {
		return nil, nil, fmt.Errorf("test size must be between 0 and 1")
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}

	if tts.shuffle {
		rng := rand.New(rand.NewSource(tts.randomSeed))
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	testCount := int(float64(n) * tts.testSize)
	if testCount == 0 {
		testCount = 1
	}
	if testCount == n {
		testCount = n - 1
	}
	trainCount := n - testCount

	train := make([]int, trainCount)
	test := make([]int, testCount)
	copy(train, indices[:trainCount])
	copy(test, indices[trainCount:])

	return train, test, nil
}
