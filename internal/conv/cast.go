package conv

import (
	"errors"
	"fmt"
	"math"
)

// ErrOffsetOverflow is returned when a cell index does not fit a device
// buffer offset.
var ErrOffsetOverflow = errors.New("conv: cell offset out of range")

// CellOffset converts a cell index into a 32-bit device buffer offset.
func CellOffset(n int) (uint32, error) {
	if n < 0 || uint64(n) > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %d", ErrOffsetOverflow, n)
	}
	return uint32(n), nil
}
