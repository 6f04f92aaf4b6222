package corpus

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/scalareval/internal/mmap"
	"github.com/hupe1980/scalareval/internal/pool"
	"github.com/hupe1980/scalareval/internal/resource"
	"github.com/hupe1980/scalareval/scalarset"
)

// Sets is the ordered result of attaching a corpus.
type Sets[T scalarset.Value] struct {
	// Raw is the buffer view the sets were attached from. It stays borrowed
	// even when the sets are preloaded.
	Raw []T

	// Sets holds one entry per record in file order.
	Sets []*scalarset.Set[T]

	// Preloaded reports whether Sets are private copies.
	Preloaded bool

	rc      *resource.Controller
	charged int64
}

// Len returns the number of attached sets.
func (s *Sets[T]) Len() int { return len(s.Sets) }

// Release returns the memory charged for preloaded copies. The sets must not
// be used afterwards.
func (s *Sets[T]) Release() {
	if s.charged > 0 {
		s.rc.ReleaseMemory(s.charged)
		s.charged = 0
	}
	s.Sets = nil
}

// Attach walks buf from the start and attaches every complete record. A
// trailing partial record ends the walk silently; a malformed record ends it
// with a warning.
//
// With preload, every set is copied into process-owned memory and the copies
// are charged to the controller set with WithController.
func Attach[T scalarset.Value](ctx context.Context, buf *Buffer[T], preload bool, optFns ...Option) (*Sets[T], error) {
	o := applyOptions(optFns)

	view, err := buf.View()
	if err != nil {
		return nil, err
	}
	if err := buf.Advise(mmap.AccessSequential); err != nil {
		o.logger.Debug("advise failed", "path", buf.Path(), "error", err)
	}

	var sets []*scalarset.Set[T]
	cells := 0
	rest := view
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s, tail, err := scalarset.Attach(rest)
		if err != nil {
			if errors.Is(err, scalarset.ErrMalformed) {
				o.logger.Warn("stopping at malformed record", "path", buf.Path(), "set", len(sets), "offset", len(view)-len(rest))
			}
			break
		}
		sets = append(sets, s)
		cells += s.Len()
		rest = tail
	}

	out := &Sets[T]{Raw: view, Sets: sets, rc: o.rc}
	if !preload {
		return out, nil
	}

	bytes := int64(cells) * scalarset.CellSize
	if err := o.rc.AcquireMemory(bytes); err != nil {
		return nil, fmt.Errorf("preload %s (%d bytes): %w", buf.Path(), bytes, err)
	}

	p, err := pool.New(o.workers)
	if err != nil {
		o.rc.ReleaseMemory(bytes)
		return nil, err
	}
	defer p.Close()

	err = p.Run(ctx, len(sets), func(_ context.Context, c pool.Chunk) error {
		for i := c.Lo; i < c.Hi; i++ {
			sets[i] = sets[i].Clone()
		}
		return nil
	})
	if err != nil {
		o.rc.ReleaseMemory(bytes)
		return nil, err
	}

	out.Preloaded = true
	out.charged = bytes
	o.logger.Debug("preloaded corpus", "path", buf.Path(), "sets", len(sets), "bytes", bytes)
	return out, nil
}
