//go:build amd64 || arm64

package conv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCellOffset(t *testing.T) {
	for _, n := range []int{0, 123, math.MaxInt32, math.MaxUint32} {
		got, err := CellOffset(n)
		assert.NoError(t, err)
		assert.Equal(t, uint32(n), got)
	}

	for _, n := range []int{-1, math.MaxUint32 + 1, math.MaxInt} {
		_, err := CellOffset(n)
		assert.ErrorIs(t, err, ErrOffsetOverflow, "n=%d", n)
	}
}
