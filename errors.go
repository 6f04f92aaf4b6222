package scalareval

import (
	"errors"
	"fmt"

	"github.com/hupe1980/scalareval/internal/accel"
	"github.com/hupe1980/scalareval/internal/corpus"
	"github.com/hupe1980/scalareval/internal/evaluator"
	"github.com/hupe1980/scalareval/internal/harness"
	"github.com/hupe1980/scalareval/internal/resource"
	"github.com/hupe1980/scalareval/scalarset"
)

var (
	// ErrEndOfData is returned when no further set can be attached.
	ErrEndOfData = scalarset.ErrEndOfData

	// ErrMalformed is returned for records whose header is inconsistent.
	ErrMalformed = scalarset.ErrMalformed

	// ErrNotImplemented is returned when a backend cannot evaluate the
	// element type, e.g. int32 sets on an accelerator device.
	ErrNotImplemented = evaluator.ErrNotImplemented

	// ErrBackendDisabled is returned for devices that were not built in.
	ErrBackendDisabled = accel.ErrBackendDisabled

	// ErrUnknownDevice is returned for unregistered device names.
	ErrUnknownDevice = accel.ErrUnknownDevice

	// ErrInvalidConfig is returned for sweeps that cannot run.
	ErrInvalidConfig = harness.ErrInvalidConfig

	// ErrMemoryLimitExceeded is returned when preloading would exceed the
	// configured memory limit.
	ErrMemoryLimitExceeded = resource.ErrMemoryLimitExceeded
)

// ErrInvalidRange indicates that Count distinct values cannot be drawn from
// [Min, Max).
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidRange struct {
	Min   int32
	Max   int32
	Count int
	cause error
}

func (e *ErrInvalidRange) Error() string {
	return fmt.Sprintf("invalid range: cannot draw %d distinct values from [%d, %d)", e.Count, e.Min, e.Max)
}

func (e *ErrInvalidRange) Unwrap() error { return e.cause }

func checkRange(lo, hi int32, count int) error {
	if count < 0 || corpus.RangeSize(lo, hi) < int64(count) || (count > 0 && hi <= lo) {
		return &ErrInvalidRange{Min: lo, Max: hi, Count: count}
	}
	return nil
}

func translateError(err error, lo, hi int32, count int) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, corpus.ErrInvalidSpec) {
		return &ErrInvalidRange{Min: lo, Max: hi, Count: count, cause: err}
	}
	return err
}
