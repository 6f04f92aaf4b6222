package mmap

import "errors"

// AccessPattern is a hint to the kernel about upcoming reads.
type AccessPattern int

const (
	// AccessDefault clears any previous hint.
	AccessDefault AccessPattern = iota
	// AccessSequential is used while attaching records front to back.
	AccessSequential
	// AccessRandom is used while workers scan sets in parallel.
	AccessRandom
	// AccessWillNeed asks the kernel to start reading ahead.
	AccessWillNeed
	// AccessDontNeed allows the kernel to drop the pages.
	AccessDontNeed
)

var (
	// ErrClosed is returned when a closed mapping is accessed.
	ErrClosed = errors.New("mmap: mapping is closed")
	// ErrInvalidSize is returned for files whose size cannot be mapped.
	ErrInvalidSize = errors.New("mmap: invalid file size")
	// ErrInvalidOffset is returned for negative read offsets.
	ErrInvalidOffset = errors.New("mmap: invalid offset")
)
