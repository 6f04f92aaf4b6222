// Package corpus produces and consumes corpus files: flat concatenations of
// serialized scalar sets.
//
// The life of a corpus:
//
//	Values ──► Write ──► (file) ──► Load ──► Attach ──► evaluator
//
// Write generates every set's values in parallel but serializes them strictly
// in generation order through one buffered writer. Load maps the file
// read-only; Attach walks the mapping with scalarset.Attach and optionally
// preloads each set into process memory.
package corpus
