package htlc

import (
	"crypto/sha256"

	"github.com/holiman/uint256"
)

// HashLength is the size of a hash lock.
const HashLength = sha256.Size

// HashLock returns the commitment to given preimage.
//
// The preimage is hashed in its canonical single cell representation: two
// descriptor bytes (no references, 256 data bits) followed by the 32 byte big
// endian value. Every 256 bit value has exactly one such encoding.
func HashLock(preimage *uint256.Int) []byte {
	var cell [2 + 32]byte
	cell[0] = 0x00
	cell[1] = 0x40
	value := preimage.Bytes32()
	copy(cell[2:], value[:])
	h := sha256.Sum256(cell[:])
	return h[:]
}
