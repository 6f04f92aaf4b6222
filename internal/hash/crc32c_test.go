package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCRC32C(t *testing.T) {
	assert.Equal(t, uint32(0), CRC32C(nil))
	// Check value from RFC 3720, B.4.
	assert.Equal(t, uint32(0x8a9136aa), CRC32C(make([]byte, 32)))
	assert.Equal(t, uint32(0xe3069283), CRC32C([]byte("123456789")))
}

func TestChecksumHeader(t *testing.T) {
	assert.Equal(t, "AAAAAA==", ChecksumHeader(nil))
	assert.Equal(t, "4waSgw==", ChecksumHeader([]byte("123456789")))
}
