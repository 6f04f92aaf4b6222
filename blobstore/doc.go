// Package blobstore provides the storage abstraction behind the corpus mirror.
//
// A Store holds immutable, named blobs. Corpus files are published once and
// fetched by any number of machines, so stores only need whole-object
// writes, ranged reads and listing.
//
// # Built-in Implementations
//
//   - LocalStore: a directory on the local file system, read through mmap
//   - MemoryStore: in-process maps, for tests
//   - s3.Store: Amazon S3 with ranged reads and multipart uploads
//   - minio.Store: MinIO and other S3-compatible services
//
// Implementations must be safe for concurrent use.
package blobstore
