package scalarset

import (
	"encoding/binary"
	"errors"
	"io"
	"math/bits"
)

var (
	// ErrEndOfData is returned by Attach when the buffer does not hold another
	// complete record. It marks the normal end of a corpus.
	ErrEndOfData = errors.New("scalarset: no complete record in buffer")

	// ErrMalformed is returned by Attach when a record header is
	// self-inconsistent (e.g. bucket ends that do not add up to the size).
	ErrMalformed = errors.New("scalarset: malformed record")
)

// valuesPerBucket is the target load per bucket when building a set.
const valuesPerBucket = 8

// Set is an immutable hashed set stored in the flat record layout.
// A Set obtained from Attach aliases the caller's buffer.
type Set[T Value] struct {
	data    []T
	buckets int
	size    int
}

// New builds a set from values. Values are expected to be distinct;
// duplicates are stored as given and count towards Size.
func New[T Value](values []T) *Set[T] {
	buckets := bucketCountFor(len(values))
	data := make([]T, 1+buckets+1+len(values))
	data[0] = fromWord[T](uint32(buckets))

	mask := uint32(buckets - 1)
	counts := make([]int, buckets)
	for _, v := range values {
		counts[hashValue(v)&mask]++
	}

	// Convert counts into cumulative ends and per-bucket write cursors.
	cursor := make([]int, buckets)
	end := 0
	for b, c := range counts {
		cursor[b] = end
		end += c
		data[1+b] = fromWord[T](uint32(end))
	}
	data[1+buckets] = fromWord[T](uint32(len(values)))

	payload := data[2+buckets:]
	for _, v := range values {
		b := hashValue(v) & mask
		payload[cursor[b]] = v
		cursor[b]++
	}

	return &Set[T]{data: data, buckets: buckets, size: len(values)}
}

func bucketCountFor(n int) int {
	want := (n + valuesPerBucket - 1) / valuesPerBucket
	if want <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(want-1))
}

// Attach parses one record at the start of buf without copying. It returns
// the set and the remainder of buf following the record.
func Attach[T Value](buf []T) (*Set[T], []T, error) {
	if len(buf) < 2 {
		return nil, buf, ErrEndOfData
	}
	buckets := int(word(buf[0]))
	if buckets == 0 || buckets&(buckets-1) != 0 {
		return nil, buf, ErrMalformed
	}
	if buckets > len(buf)-2 {
		return nil, buf, ErrEndOfData
	}
	size := int(word(buf[1+buckets]))
	total := 2 + buckets + size
	if size > len(buf) || total > len(buf) {
		return nil, buf, ErrEndOfData
	}

	prev := uint32(0)
	for _, c := range buf[1 : 1+buckets] {
		e := word(c)
		if e < prev {
			return nil, buf, ErrMalformed
		}
		prev = e
	}
	if int(prev) != size {
		return nil, buf, ErrMalformed
	}

	s := &Set[T]{
		data:    buf[:total:total],
		buckets: buckets,
		size:    size,
	}
	return s, buf[total:], nil
}

// Contains reports whether v is a member of the set.
func (s *Set[T]) Contains(v T) bool {
	b := int(hashValue(v) & uint32(s.buckets-1))
	start := 0
	if b > 0 {
		start = int(word(s.data[b]))
	}
	end := int(word(s.data[1+b]))
	for _, x := range s.data[2+s.buckets+start : 2+s.buckets+end] {
		if x == v {
			return true
		}
	}
	return false
}

// Any reports whether at least one value of other is a member of s.
func (s *Set[T]) Any(other *Set[T]) bool {
	for _, v := range other.Values() {
		if s.Contains(v) {
			return true
		}
	}
	return false
}

// Size returns the number of values in the set.
func (s *Set[T]) Size() int { return s.size }

// BucketCount returns the number of hash buckets.
func (s *Set[T]) BucketCount() int { return s.buckets }

// Len returns the length of the serialized record in cells.
func (s *Set[T]) Len() int { return len(s.data) }

// Values returns the payload. The slice aliases the set's storage and must
// not be modified.
func (s *Set[T]) Values() []T {
	return s.data[2+s.buckets:]
}

// Clone returns a copy of the set backed by process-owned memory.
func (s *Set[T]) Clone() *Set[T] {
	data := make([]T, len(s.data))
	copy(data, s.data)
	return &Set[T]{data: data, buckets: s.buckets, size: s.size}
}

// Serialize writes the record to w in little-endian cell order.
func (s *Set[T]) Serialize(w io.Writer) error {
	buf := make([]byte, len(s.data)*CellSize)
	for i, c := range s.data {
		binary.LittleEndian.PutUint32(buf[i*CellSize:], word(c))
	}
	_, err := w.Write(buf)
	return err
}
