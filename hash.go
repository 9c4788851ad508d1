package chordring

import (
	"crypto/sha1"
	"encoding/binary"
)

// HashToID maps an address onto a ring of 2^bits identifiers.
// The address must include the port so co-located nodes get distinct ids.
func HashToID(address string, bits int) ID {
	var (
		sum   = sha1.Sum([]byte(address))
		value = binary.BigEndian.Uint64(sum[len(sum)-8:])
	)
	return ID(value & ringMask(bits))
}

// ringMask returns 2^bits - 1.
func ringMask(bits int) uint64 {
	return (uint64(1) << uint(bits)) - 1
}

// ringSize returns 2^bits.
func ringSize(bits int) uint64 {
	return uint64(1) << uint(bits)
}
