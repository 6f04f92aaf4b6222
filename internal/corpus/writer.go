package corpus

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/scalareval/internal/fs"
	"github.com/hupe1980/scalareval/internal/resource"
	"github.com/hupe1980/scalareval/scalarset"
)

const (
	// writeBufferSize matches the buffered writer used for reports.
	writeBufferSize = 1 << 20

	// generateBatch is the number of sets generated before they are flushed
	// to the file, bounding memory for very large corpora.
	generateBatch = 4096
)

// ErrInvalidSpec is returned for specs that cannot describe a corpus.
var ErrInvalidSpec = errors.New("corpus: invalid spec")

// Spec describes a corpus to generate.
type Spec struct {
	SetCount int
	SetSize  int
	Min, Max int32
	// Seed makes generation reproducible. Zero picks a time-based seed.
	Seed int64
}

// Validate checks that every set can be filled with distinct values.
func (s Spec) Validate() error {
	if s.SetCount < 0 || s.SetSize < 0 {
		return fmt.Errorf("%w: negative count (sets=%d, values=%d)", ErrInvalidSpec, s.SetCount, s.SetSize)
	}
	if s.SetSize > 0 && RangeSize(s.Min, s.Max) < int64(s.SetSize) {
		return fmt.Errorf("%w: range [%d, %d) has fewer than %d values", ErrInvalidSpec, s.Min, s.Max, s.SetSize)
	}
	return nil
}

// Write generates spec.SetCount sets and writes them to path in generation
// order. On any failure the partially written file is removed.
func Write[T scalarset.Value](ctx context.Context, path string, spec Spec, optFns ...Option) (err error) {
	o := applyOptions(optFns)
	if err := spec.Validate(); err != nil {
		return err
	}

	rc := o.rc
	if rc == nil {
		rc = resource.NewController(resource.Config{MaxBackgroundWorkers: int64(o.workers)})
	}

	seed := spec.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	f, err := fs.Create(o.fs, path)
	if err != nil {
		return fmt.Errorf("create corpus %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = o.fs.Remove(path)
		}
	}()

	o.logger.Info("generating corpus", "path", path, "sets", spec.SetCount, "values", spec.SetSize, "kind", scalarset.KindOf[T]())

	w := bufio.NewWriterSize(resource.NewRateLimitedWriter(ctx, f, rc), writeBufferSize)
	batch := make([]*scalarset.Set[T], 0, min(spec.SetCount, generateBatch))

	for start := 0; start < spec.SetCount; start += generateBatch {
		end := min(start+generateBatch, spec.SetCount)
		batch = batch[:end-start]

		if err := generate(ctx, rc, batch, start, seed, spec); err != nil {
			return err
		}

		for _, s := range batch {
			if err := s.Serialize(w); err != nil {
				return fmt.Errorf("write corpus %s: %w", path, err)
			}
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("write corpus %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync corpus %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close corpus %s: %w", path, err)
	}
	return nil
}

// generate fills out[i] with set number offset+i. Each set has its own
// generator derived from seed, so the result does not depend on scheduling.
func generate[T scalarset.Value](ctx context.Context, rc *resource.Controller, out []*scalarset.Set[T], offset int, seed int64, spec Spec) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := range out {
		if err := rc.AcquireBackground(gctx); err != nil {
			break
		}
		g.Go(func() error {
			defer rc.ReleaseBackground()
			rng := NewRand(seed + int64(offset+i))
			out[i] = scalarset.New(Values[T](rng, spec.SetSize, spec.Min, spec.Max))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
