package accel

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/scalareval/internal/conv"
	"github.com/hupe1980/scalareval/scalarset"
)

// Epsilon is the distance under which two float values are treated as equal
// by the kernel.
const Epsilon = 0.1

var (
	// ErrBackendDisabled is returned when a device's runtime is not compiled
	// into this binary.
	ErrBackendDisabled = errors.New("accel: support not enabled")

	// ErrUnknownDevice is returned by Open for unregistered names.
	ErrUnknownDevice = errors.New("accel: unknown device")

	// ErrInvalidLaunch is returned when the launch buffers disagree in size.
	ErrInvalidLaunch = errors.New("accel: invalid launch")
)

// Launch holds the buffers of one kernel dispatch.
type Launch struct {
	// Data is the raw corpus buffer, read-only.
	Data []float32
	// Begin and End locate each set's payload in Data, read-only.
	Begin, End []uint32
	// Probe holds the probe values, read-only.
	Probe []float32
	// Hits receives one flag per set, write-only.
	Hits []int32
	// Units caps the compute units of the dispatch; zero uses the device
	// default. Run stores the number of units it used.
	Units int
}

// Items returns the number of work items.
func (l *Launch) Items() int { return len(l.Begin) }

// Validate checks that the buffers are consistent with each other.
func (l *Launch) Validate() error {
	n := len(l.Begin)
	if len(l.End) != n || len(l.Hits) != n {
		return fmt.Errorf("%w: %d begin, %d end, %d hit cells", ErrInvalidLaunch, n, len(l.End), len(l.Hits))
	}
	for i := range n {
		if l.Begin[i] > l.End[i] || int(l.End[i]) > len(l.Data) {
			return fmt.Errorf("%w: set %d spans [%d, %d) of %d cells", ErrInvalidLaunch, i, l.Begin[i], l.End[i], len(l.Data))
		}
	}
	return nil
}

// Device executes the membership kernel.
type Device interface {
	// Name returns the registered device name.
	Name() string

	// Run dispatches one work item per set and blocks until all of them
	// have completed.
	Run(ctx context.Context, l *Launch) error

	// Close releases device resources.
	Close() error
}

// Offsets returns the payload bounds of every set, assuming the sets were
// attached back to back from the start of a single buffer.
func Offsets[T scalarset.Value](sets []*scalarset.Set[T]) (begin, end []uint32, err error) {
	begin = make([]uint32, len(sets))
	end = make([]uint32, len(sets))

	running := 0
	for i, s := range sets {
		b := running + 1 + s.BucketCount() + 1
		e := b + s.Size()
		if begin[i], err = conv.CellOffset(b); err != nil {
			return nil, nil, err
		}
		if end[i], err = conv.CellOffset(e); err != nil {
			return nil, nil, err
		}
		running = e
	}
	return begin, end, nil
}

// Sum adds up a hit table.
func Sum(hits []int32) uint64 {
	var total uint64
	for _, h := range hits {
		total += uint64(h)
	}
	return total
}

// item is the body of one work item.
func item(l *Launch, i int) {
	l.Hits[i] = 0
	for _, v := range l.Data[l.Begin[i]:l.End[i]] {
		for _, p := range l.Probe {
			d := v - p
			if d < Epsilon && d > -Epsilon {
				l.Hits[i] = 1
				return
			}
		}
	}
}
