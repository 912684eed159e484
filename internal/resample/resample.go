// Package resample draws bootstrap resamples from a dataset with
// deterministic, per-resample random streams.
package resample

import (
	"golang.org/x/exp/rand"

	"github.com/sells-group/ipwboot/internal/model"
)

// indexSeed derives an independent stream seed for one resample index
// from the run seed. Splitting by index keeps resample compositions
// bit-identical no matter how many workers execute them or in what order.
func indexSeed(seed uint64, index int) uint64 {
	x := seed ^ (uint64(index)+1)*0x9e3779b97f4a7c15
	x ^= x >> 33
	x *= 0xff51afd7ed558ccd
	x ^= x >> 33
	return x
}

// Draw produces count bootstrap resamples of dataset, each the same size
// as the source and drawn uniformly with replacement. If includeApparent
// is true, one extra resample identical to the source (identity indices,
// ID model.ApparentID) is appended after the bootstrap resamples.
func Draw(dataset *model.Dataset, count int, includeApparent bool, seed uint64) ([]model.Resample, error) {
	if dataset == nil || dataset.Len() == 0 {
		return nil, &model.InvalidInputError{Reason: "dataset is empty"}
	}
	if count < 1 {
		return nil, &model.InvalidInputError{Reason: "resample count must be at least 1"}
	}

	n := dataset.Len()
	out := make([]model.Resample, 0, count+1)

	for b := 0; b < count; b++ {
		rng := rand.New(rand.NewSource(indexSeed(seed, b)))
		indices := make([]int, n)
		for i := range indices {
			indices[i] = rng.Intn(n)
		}
		out = append(out, model.Resample{ID: b, Source: dataset, Indices: indices})
	}

	if includeApparent {
		indices := make([]int, n)
		for i := range indices {
			indices[i] = i
		}
		out = append(out, model.Resample{ID: model.ApparentID, Source: dataset, Indices: indices})
	}

	return out, nil
}
