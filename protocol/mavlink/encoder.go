// File: protocol/mavlink/encoder.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Frame encoder with per-channel transmit sequence.

package mavlink

import (
	"encoding/binary"
	"fmt"
)

// Encoder serializes messages into frames. Each Encoder owns the transmit
// sequence counter of one channel.
type Encoder struct {
	version Version
	seq     uint8
}

// NewEncoder returns an encoder emitting frames of the given version.
func NewEncoder(v Version) *Encoder {
	if v != V1 {
		v = V2
	}
	return &Encoder{version: v}
}

// Version returns the protocol version frames are written in.
func (e *Encoder) Version() Version { return e.version }

// Seq returns the sequence number the next frame will carry.
func (e *Encoder) Seq() uint8 { return e.seq }

// Encode writes one complete frame for msg into dst and returns its length.
// dst must hold at least MaxPacketLen bytes so that no frame can overflow it.
func (e *Encoder) Encode(dst []byte, sysID, compID uint8, msg Message) (int, error) {
	if len(dst) < MaxPacketLen {
		return 0, ErrShortBuffer
	}
	id := msg.MsgID()
	entry, ok := LookupMessage(id)
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownMessage, id)
	}

	var hdr int
	switch e.version {
	case V1:
		if id > 0xFF {
			return 0, ErrMessageID
		}
		hdr = HeaderLenV1
	default:
		hdr = HeaderLenV2
	}

	payload := dst[hdr : hdr+MaxPayloadLen]
	clear(payload[:entry.Len])
	plen := msg.MarshalPayload(payload)
	if e.version == V2 {
		for plen > 1 && payload[plen-1] == 0 {
			plen--
		}
	}

	seq := e.seq
	e.seq++
	if e.version == V1 {
		dst[0] = STXv1
		dst[1] = byte(plen)
		dst[2] = seq
		dst[3] = sysID
		dst[4] = compID
		dst[5] = byte(id)
	} else {
		dst[0] = STXv2
		dst[1] = byte(plen)
		dst[2] = 0 // incompat: signing is never produced
		dst[3] = 0 // compat
		dst[4] = seq
		dst[5] = sysID
		dst[6] = compID
		dst[7] = byte(id)
		dst[8] = byte(id >> 8)
		dst[9] = byte(id >> 16)
	}

	crc := crcAccumulateBytes(dst[1:hdr+plen], crcInit)
	crc = crcAccumulate(entry.CRCExtra, crc)
	binary.LittleEndian.PutUint16(dst[hdr+plen:], crc)
	return hdr + plen + ChecksumLen, nil
}
