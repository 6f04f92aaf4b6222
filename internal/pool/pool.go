// Package pool provides a bounded fork-join worker pool.
//
// A Pool is created for one evaluation, splits an index range into
// contiguous chunks, and runs them on at most Workers goroutines. It holds no
// goroutines between calls, so closing it only prevents further use.
package pool

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// MaxWorkers is the largest pool that can be constructed.
const MaxWorkers = 4096

// chunksPerWorker over-partitions the range so that uneven set sizes still
// keep every worker busy.
const chunksPerWorker = 8

var (
	// ErrInvalidWorkers is returned by New for out-of-range worker counts.
	ErrInvalidWorkers = errors.New("pool: invalid worker count")
	// ErrClosed is returned when a closed pool is used.
	ErrClosed = errors.New("pool: closed")
)

// Pool runs data-parallel work with a fixed worker count.
type Pool struct {
	workers int
	closed  atomic.Bool
}

// New creates a pool with the given number of workers. Zero selects
// runtime.GOMAXPROCS(0).
func New(workers int) (*Pool, error) {
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers < 0 || workers > MaxWorkers {
		return nil, ErrInvalidWorkers
	}
	return &Pool{workers: workers}, nil
}

// Workers returns the actual worker count.
func (p *Pool) Workers() int {
	return p.workers
}

// Close releases the pool. It is idempotent.
func (p *Pool) Close() error {
	p.closed.Store(true)
	return nil
}

// Chunk is a half-open index range [Lo, Hi).
type Chunk struct {
	Lo, Hi int
}

// Split partitions [0, n) into contiguous chunks sized for the pool.
func (p *Pool) Split(n int) []Chunk {
	if n <= 0 {
		return nil
	}
	count := min(n, p.workers*chunksPerWorker)
	chunks := make([]Chunk, 0, count)
	for i := range count {
		lo := i * n / count
		hi := (i + 1) * n / count
		chunks = append(chunks, Chunk{Lo: lo, Hi: hi})
	}
	return chunks
}

// Run executes fn once per chunk of [0, n) with at most Workers chunks in
// flight. The first error cancels the remaining chunks and is returned.
func (p *Pool) Run(ctx context.Context, n int, fn func(ctx context.Context, c Chunk) error) error {
	if p.closed.Load() {
		return ErrClosed
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for _, c := range p.Split(n) {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, c)
		})
	}
	return g.Wait()
}

// Sum runs fn on every chunk of [0, n) and adds up the results.
func (p *Pool) Sum(ctx context.Context, n int, fn func(c Chunk) uint64) (uint64, error) {
	chunks := p.Split(n)
	partial := make([]uint64, len(chunks))

	if p.closed.Load() {
		return 0, ErrClosed
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, c := range chunks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			partial[i] = fn(c)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	var total uint64
	for _, v := range partial {
		total += v
	}
	return total, nil
}
