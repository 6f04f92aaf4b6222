// Package hash provides the CRC32-Castagnoli checksum attached to uploaded
// corpus blobs.
//
//	input.ChecksumCRC32C = aws.String(hash.ChecksumHeader(data))
package hash
