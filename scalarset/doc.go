// Package scalarset implements a read-only hashed set of 32-bit scalars that
// can be serialized into a flat buffer and attached back without copying.
//
// # Record Layout
//
// Every set is stored as a single record of 4-byte cells:
//
//	[bucket count][bucket ends ...][size][payload ...]
//
// The first cell holds the number of buckets B. The next B cells hold the
// cumulative end offset of each bucket inside the payload, so bucket i spans
// payload[ends[i-1]:ends[i]]. The cell after the bucket region holds the
// number of payload values. Header cells are stored as uint32 bit patterns
// even when the element type is float32.
//
// Records are concatenated without any file-level header, so a corpus is
// read by attaching records one after another until [ErrEndOfData].
//
// # Zero-Copy Attach
//
//	set, rest, err := scalarset.Attach(buf)
//
// The returned Set aliases buf. It stays valid only while buf does; use
// [Set.Clone] to take a private copy.
//
// All cells are little-endian; the package assumes a little-endian host when
// reinterpreting mapped memory.
package scalarset
