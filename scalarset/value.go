package scalarset

import "unsafe"

// Value is the set of element types a scalar set can hold.
type Value interface {
	~int32 | ~float32
}

// Kind identifies the concrete numeric representation of a Value type.
type Kind uint8

const (
	// Int32 is the 32-bit signed integer representation.
	Int32 Kind = iota + 1
	// Float32 is the 32-bit IEEE-754 representation.
	Float32
)

// String returns the short name used in corpus file names.
func (k Kind) String() string {
	switch k {
	case Int32:
		return "i32"
	case Float32:
		return "f32"
	default:
		return "unknown"
	}
}

// KindOf reports the representation of T.
func KindOf[T Value]() Kind {
	var half T = 1
	half /= 2
	if half == 0 {
		return Int32
	}
	return Float32
}

// FromSeed converts a generated integer seed into T.
// Integers are cast directly, floats take the integral value.
func FromSeed[T Value](seed int32) T {
	return T(seed)
}

// CellSize is the width in bytes of every cell in a record.
const CellSize = 4

func word[T Value](v T) uint32 {
	return *(*uint32)(unsafe.Pointer(&v))
}

func fromWord[T Value](w uint32) T {
	return *(*T)(unsafe.Pointer(&w))
}

// mix is the murmur3 32-bit finalizer.
func mix(h uint32) uint32 {
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16
	return h
}

func hashValue[T Value](v T) uint32 {
	if v == 0 {
		// +0.0 and -0.0 compare equal and must land in the same bucket.
		return mix(0)
	}
	return mix(word(v))
}
