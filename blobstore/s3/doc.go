// Package s3 provides an Amazon S3 implementation of blobstore.Store.
//
// # Usage
//
//	store, err := s3.New(ctx, "corpora-bucket",
//	    s3.WithPrefix("scalareval/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//
// # Features
//
//   - Range reads for partial fetches
//   - Multipart uploads for large corpora, aborted on failure
//   - CRC32C integrity checks on single-shot puts
//   - Automatic pagination for listing
package s3
