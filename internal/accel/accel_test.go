package accel

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/scalareval/scalarset"
)

// layout serializes sets back to back, as a corpus file holds them, and
// attaches them again from the resulting buffer.
func layout(t *testing.T, values ...[]float32) ([]float32, []*scalarset.Set[float32]) {
	t.Helper()
	var raw bytes.Buffer
	for _, v := range values {
		require.NoError(t, scalarset.New(v).Serialize(&raw))
	}

	data := make([]float32, raw.Len()/scalarset.CellSize)
	for i := range data {
		data[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw.Bytes()[i*scalarset.CellSize:]))
	}

	var sets []*scalarset.Set[float32]
	rest := data
	for {
		s, tail, err := scalarset.Attach(rest)
		if err != nil {
			break
		}
		sets = append(sets, s)
		rest = tail
	}
	require.Len(t, sets, len(values))
	return data, sets
}

func TestOffsets(t *testing.T) {
	data, sets := layout(t,
		[]float32{1, 2, 3},
		[]float32{},
		[]float32{4, 5, 6, 7, 8, 9, 10, 11, 12, 13},
	)

	begin, end, err := Offsets(sets)
	require.NoError(t, err)

	// One bucket: header, one end, size, then three values.
	assert.Equal(t, uint32(3), begin[0])
	assert.Equal(t, uint32(6), end[0])
	// Empty set: header, one end, size.
	assert.Equal(t, uint32(9), begin[1])
	assert.Equal(t, uint32(9), end[1])
	// Two buckets for ten values.
	assert.Equal(t, uint32(13), begin[2])
	assert.Equal(t, uint32(23), end[2])
	assert.Equal(t, len(data), int(end[2]))

	for i, s := range sets {
		got := append([]float32(nil), data[begin[i]:end[i]]...)
		assert.ElementsMatch(t, s.Values(), got)
	}
}

func TestEmulator_Run(t *testing.T) {
	data, sets := layout(t,
		[]float32{1, 2, 3},
		[]float32{10, 20, 30},
		[]float32{},
		[]float32{100, 3.05},
	)
	begin, end, err := Offsets(sets)
	require.NoError(t, err)

	dev, err := NewEmulator(2)
	require.NoError(t, err)
	defer dev.Close()
	assert.Equal(t, 2, dev.Units())

	l := &Launch{
		Data:  data,
		Begin: begin,
		End:   end,
		Probe: []float32{3, 50},
		Hits:  []int32{7, 7, 7, 7},
	}
	require.NoError(t, dev.Run(t.Context(), l))

	assert.Equal(t, []int32{1, 0, 0, 1}, l.Hits)
	assert.Equal(t, uint64(2), Sum(l.Hits))
}

func TestEmulator_EmptyProbe(t *testing.T) {
	data, sets := layout(t, []float32{1}, []float32{2})
	begin, end, err := Offsets(sets)
	require.NoError(t, err)

	dev, err := NewEmulator(0)
	require.NoError(t, err)

	l := &Launch{Data: data, Begin: begin, End: end, Hits: make([]int32, 2)}
	require.NoError(t, dev.Run(t.Context(), l))
	assert.Zero(t, Sum(l.Hits))
}

func TestEmulator_LaunchUnits(t *testing.T) {
	data, sets := layout(t, []float32{1}, []float32{2}, []float32{3})
	begin, end, err := Offsets(sets)
	require.NoError(t, err)

	dev, err := NewEmulator(1)
	require.NoError(t, err)
	defer dev.Close()

	l := &Launch{Data: data, Begin: begin, End: end, Probe: []float32{2}, Hits: make([]int32, 3), Units: 3}
	require.NoError(t, dev.Run(t.Context(), l))
	assert.Equal(t, 3, l.Units)
	assert.Equal(t, 1, dev.Units())
	assert.Equal(t, []int32{0, 1, 0}, l.Hits)

	l = &Launch{Data: data, Begin: begin, End: end, Probe: []float32{2}, Hits: make([]int32, 3)}
	require.NoError(t, dev.Run(t.Context(), l))
	assert.Equal(t, 1, l.Units)

	l.Units = 5000
	assert.ErrorIs(t, dev.Run(t.Context(), l), ErrInvalidLaunch)
}

func TestEmulator_InvalidLaunch(t *testing.T) {
	dev, err := NewEmulator(1)
	require.NoError(t, err)

	tests := map[string]*Launch{
		"hit table too short": {Begin: []uint32{0}, End: []uint32{0}},
		"past end of data":    {Data: make([]float32, 2), Begin: []uint32{0}, End: []uint32{3}, Hits: make([]int32, 1)},
		"reversed bounds":     {Data: make([]float32, 4), Begin: []uint32{3}, End: []uint32{1}, Hits: make([]int32, 1)},
	}
	for name, l := range tests {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, dev.Run(t.Context(), l), ErrInvalidLaunch)
		})
	}
}

func TestEmulator_Canceled(t *testing.T) {
	data, sets := layout(t, []float32{1})
	begin, end, err := Offsets(sets)
	require.NoError(t, err)

	dev, err := NewEmulator(1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	l := &Launch{Data: data, Begin: begin, End: end, Probe: []float32{1}, Hits: make([]int32, 1)}
	assert.ErrorIs(t, dev.Run(ctx, l), context.Canceled)
}

func TestOpen(t *testing.T) {
	dev, err := Open(EmulatorName)
	require.NoError(t, err)
	assert.Equal(t, EmulatorName, dev.Name())
	require.NoError(t, dev.Close())

	_, err = Open(OpenCLName)
	assert.ErrorIs(t, err, ErrBackendDisabled)

	_, err = Open("")
	assert.ErrorIs(t, err, ErrBackendDisabled)

	_, err = Open("cuda")
	assert.ErrorIs(t, err, ErrUnknownDevice)

	assert.Equal(t, []string{EmulatorName, OpenCLName}, Devices())
}
