// Package fs abstracts the file operations used to write corpora and
// reports, so that tests can inject write failures.
//
//   - [LocalFS]: the os-backed implementation ([Default])
//   - [FaultyFS]: wraps another FileSystem and fails writes, syncs or closes
//
// Typical test usage:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".bin", fs.Fault{FailAfterBytes: 1024})
//	err := corpus.Write[int32](ctx, path, spec, corpus.WithFileSystem(ffs))
package fs
