package corpus

import (
	"math/rand"

	"github.com/hupe1980/scalareval/scalarset"
)

// Values draws n distinct integers uniformly from [lo, hi) and converts them
// to T.
//
// Values keeps drawing until it has n distinct values. If the range holds
// fewer than n integers it never returns; callers must validate the range
// first. It panics if n > 0 and hi <= lo. The order of the result is
// unspecified.
func Values[T scalarset.Value](rng *rand.Rand, n int, lo, hi int32) []T {
	if n <= 0 {
		return []T{}
	}

	span := int64(hi) - int64(lo)
	seen := make(map[int32]struct{}, n)
	out := make([]T, 0, n)
	for len(out) < n {
		v := int32(int64(lo) + rng.Int63n(span))
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, scalarset.FromSeed[T](v))
	}
	return out
}

// RangeSize returns the number of integers in [lo, hi).
func RangeSize(lo, hi int32) int64 {
	if hi <= lo {
		return 0
	}
	return int64(hi) - int64(lo)
}

// NewRand returns a generator seeded with seed.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
