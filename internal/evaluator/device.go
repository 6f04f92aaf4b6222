package evaluator

import (
	"context"
	"fmt"
	"time"
	"unsafe"

	"github.com/hupe1980/scalareval/internal/accel"
	"github.com/hupe1980/scalareval/internal/corpus"
	"github.com/hupe1980/scalareval/scalarset"
)

// Device evaluates with one dispatch on an accelerator device. Only float
// sets are supported.
type Device[T scalarset.Value] struct {
	dev accel.Device
}

// NewDevice wraps dev.
func NewDevice[T scalarset.Value](dev accel.Device) *Device[T] {
	return &Device[T]{dev: dev}
}

// Name implements Backend.
func (d *Device[T]) Name() string { return d.dev.Name() }

// Evaluate implements Backend. Offsets are derived from the attached sets,
// so sets must have been attached from the start of sets.Raw.
func (d *Device[T]) Evaluate(ctx context.Context, sets *corpus.Sets[T], probe *scalarset.Set[T], p Params) (Result, error) {
	if kind := scalarset.KindOf[T](); kind != scalarset.Float32 {
		return Result{}, fmt.Errorf("%w: %s sets on device %s", ErrNotImplemented, kind, d.dev.Name())
	}

	begin, end, err := accel.Offsets(sets.Sets)
	if err != nil {
		return Result{}, err
	}

	l := &accel.Launch{
		Data:  floats(sets.Raw),
		Begin: begin,
		End:   end,
		Probe: floats(probe.Values()),
		Hits:  make([]int32, len(begin)),
		Units: p.MaxThreads,
	}

	start := time.Now()
	err = d.dev.Run(ctx, l)
	elapsed := time.Since(start)
	if err != nil {
		return Result{}, fmt.Errorf("device %s: %w", d.dev.Name(), err)
	}

	res := Result{
		MatchCount:  accel.Sum(l.Hits),
		Duration:    elapsed,
		Preloaded:   sets.Preloaded,
		ThreadCount: units(d.dev, l),
		Backend:     d.dev.Name(),
	}
	if p.RecordMatches {
		res.Matches = bitmapOf(l.Hits)
	}
	return res, nil
}

// floats reinterprets a float-kinded slice. Callers check KindOf first.
func floats[T scalarset.Value](v []T) []float32 {
	if len(v) == 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(unsafe.SliceData(v))), len(v))
}

// units returns the compute units used by l, falling back to the device's
// own count for devices that do not report it.
func units(dev accel.Device, l *accel.Launch) int {
	if l.Units > 0 {
		return l.Units
	}
	if u, ok := dev.(interface{ Units() int }); ok {
		return u.Units()
	}
	return 1
}
