package accel

import (
	"context"
	"fmt"

	"github.com/hupe1980/scalareval/internal/pool"
)

// EmulatorName is the registered name of the emulator.
const EmulatorName = "emulator"

// Emulator runs the kernel on host goroutines.
type Emulator struct {
	pool *pool.Pool
}

// NewEmulator creates an emulator with the given number of compute units.
// Zero uses one per available CPU.
func NewEmulator(units int) (*Emulator, error) {
	p, err := pool.New(units)
	if err != nil {
		return nil, err
	}
	return &Emulator{pool: p}, nil
}

// Name implements Device.
func (e *Emulator) Name() string { return EmulatorName }

// Units returns the number of compute units.
func (e *Emulator) Units() int { return e.pool.Workers() }

// Run implements Device.
func (e *Emulator) Run(ctx context.Context, l *Launch) error {
	if err := l.Validate(); err != nil {
		return err
	}

	p := e.pool
	if l.Units > 0 && l.Units != p.Workers() {
		sized, err := pool.New(l.Units)
		if err != nil {
			return fmt.Errorf("%w: %d units", ErrInvalidLaunch, l.Units)
		}
		defer sized.Close()
		p = sized
	}
	l.Units = p.Workers()

	return p.Run(ctx, l.Items(), func(_ context.Context, c pool.Chunk) error {
		for i := c.Lo; i < c.Hi; i++ {
			item(l, i)
		}
		return nil
	})
}

// Close implements Device.
func (e *Emulator) Close() error { return e.pool.Close() }
