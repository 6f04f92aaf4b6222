package evaluator

import (
	"context"
	"errors"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/scalareval/internal/corpus"
	"github.com/hupe1980/scalareval/scalarset"
)

// ErrNotImplemented is returned when a backend cannot evaluate the element
// type it was given.
var ErrNotImplemented = errors.New("evaluator: not implemented")

// Params controls one evaluation.
type Params struct {
	// MaxThreads caps the CPU worker pool and the compute units of a device
	// dispatch. Zero uses runtime.GOMAXPROCS(0) or the device default.
	MaxThreads int

	// RecordMatches collects the indices of matching sets in Result.Matches.
	RecordMatches bool
}

// Result is the outcome of one evaluation.
type Result struct {
	// MatchCount is the number of sets sharing a value with the probe.
	MatchCount uint64
	// Duration covers the scan only.
	Duration time.Duration
	// Preloaded reports whether the sets were private copies.
	Preloaded bool
	// ThreadCount is the number of workers that ran the scan.
	ThreadCount int
	// Backend names the backend that produced the result.
	Backend string
	// Matches holds the matching set indices if Params.RecordMatches was set.
	Matches *roaring.Bitmap
}

// Backend evaluates a probe against attached sets.
type Backend[T scalarset.Value] interface {
	Name() string
	Evaluate(ctx context.Context, sets *corpus.Sets[T], probe *scalarset.Set[T], p Params) (Result, error)
}

// bitmapOf returns the indices i with flags[i] set.
func bitmapOf[F bool | int32](flags []F) *roaring.Bitmap {
	var zero F
	bm := roaring.New()
	for i, f := range flags {
		if f != zero {
			bm.Add(uint32(i))
		}
	}
	bm.RunOptimize()
	return bm
}
