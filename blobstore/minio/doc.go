// Package minio provides a blobstore.Store implementation using the MinIO
// client, for MinIO and other S3-compatible services.
//
// # Basic Usage
//
//	store, err := minio.Dial("localhost:9000", "corpora", "scalareval/", minio.Config{
//	    AccessKey: "minioadmin",
//	    SecretKey: "minioadmin",
//	})
//
// Without explicit keys, Dial reads MINIO_ACCESS_KEY/MINIO_SECRET_KEY and
// then the AWS_* variables.
package minio
