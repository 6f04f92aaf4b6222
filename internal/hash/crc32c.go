package hash

import (
	"encoding/base64"
	"encoding/binary"
	"hash/crc32"
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// CRC32C returns the CRC32-Castagnoli checksum of data.
func CRC32C(data []byte) uint32 {
	return crc32.Checksum(data, castagnoli)
}

// ChecksumHeader renders the CRC32C of data as object stores carry it: the
// big-endian sum, base64 encoded.
func ChecksumHeader(data []byte) string {
	var sum [4]byte
	binary.BigEndian.PutUint32(sum[:], CRC32C(data))
	return base64.StdEncoding.EncodeToString(sum[:])
}
