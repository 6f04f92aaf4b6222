// Package mmap maps corpus files read-only into the address space.
//
// # Overview
//
// A corpus file holds many serialized scalar sets back to back. Mapping it
// lets every evaluation worker read set records straight out of the page
// cache; nothing is copied unless the caller explicitly preloads.
//
// # Usage
//
//	m, err := mmap.Open("i32_1000_sets_with_100_values.bin")
//	if err != nil { ... }
//	defer m.Close()
//
//	_ = m.Advise(mmap.AccessSequential)
//	data := m.Bytes()
//
// # Platform Support
//
//   - Unix (Linux, macOS, BSD): mmap(2) with madvise(2) hints
//   - Windows: CreateFileMapping/MapViewOfFile (hints are no-ops)
//
// # Lifetime
//
// Bytes returns nil once Close has been called, so holders of a Mapping can
// detect that the memory behind earlier slices is gone. Slices obtained
// before Close must not be touched afterwards.
package mmap
