package evaluator

import (
	"context"
	"time"

	"github.com/hupe1980/scalareval/internal/corpus"
	"github.com/hupe1980/scalareval/internal/pool"
	"github.com/hupe1980/scalareval/scalarset"
)

// CPUName is the name of the CPU backend.
const CPUName = "cpu"

// CPU evaluates on host threads.
type CPU[T scalarset.Value] struct{}

// NewCPU returns the CPU backend.
func NewCPU[T scalarset.Value]() *CPU[T] { return &CPU[T]{} }

// Name implements Backend.
func (*CPU[T]) Name() string { return CPUName }

// Evaluate implements Backend. Each call uses its own pool of at most
// p.MaxThreads workers.
func (*CPU[T]) Evaluate(ctx context.Context, sets *corpus.Sets[T], probe *scalarset.Set[T], p Params) (Result, error) {
	wp, err := pool.New(p.MaxThreads)
	if err != nil {
		return Result{}, err
	}
	defer wp.Close()

	var flags []bool
	if p.RecordMatches {
		flags = make([]bool, sets.Len())
	}

	start := time.Now()
	count, err := wp.Sum(ctx, sets.Len(), func(c pool.Chunk) uint64 {
		var n uint64
		for i, s := range sets.Sets[c.Lo:c.Hi] {
			if s.Any(probe) {
				n++
				if flags != nil {
					flags[c.Lo+i] = true
				}
			}
		}
		return n
	})
	elapsed := time.Since(start)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		MatchCount:  count,
		Duration:    elapsed,
		Preloaded:   sets.Preloaded,
		ThreadCount: wp.Workers(),
		Backend:     CPUName,
	}
	if flags != nil {
		res.Matches = bitmapOf(flags)
	}
	return res, nil
}
