// File: protocol/mavlink/crc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// CRC-16/MCRF4XX (X.25) as used by MAVLink frame checksums.

package mavlink

const crcInit uint16 = 0xFFFF

// crcAccumulate folds one byte into a running X.25 checksum.
func crcAccumulate(b byte, crc uint16) uint16 {
	tmp := b ^ byte(crc&0xFF)
	tmp ^= tmp << 4
	return (crc >> 8) ^ (uint16(tmp) << 8) ^ (uint16(tmp) << 3) ^ (uint16(tmp) >> 4)
}

// crcAccumulateBytes folds p into crc.
func crcAccumulateBytes(p []byte, crc uint16) uint16 {
	for _, b := range p {
		crc = crcAccumulate(b, crc)
	}
	return crc
}

// Checksum computes the X.25 checksum of p starting from the standard seed.
func Checksum(p []byte) uint16 {
	return crcAccumulateBytes(p, crcInit)
}
