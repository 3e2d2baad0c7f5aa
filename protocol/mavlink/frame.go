// File: protocol/mavlink/frame.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Decoded frame record and wire constants.

package mavlink

import (
	"errors"
	"fmt"
)

// Wire constants.
const (
	STXv1 byte = 0xFE
	STXv2 byte = 0xFD

	HeaderLenV1    = 6  // STX..msgid
	HeaderLenV2    = 10 // STX..msgid[2]
	ChecksumLen    = 2
	SignatureLen   = 13
	MaxPayloadLen  = 255
	MaxPacketLenV1 = HeaderLenV1 + MaxPayloadLen + ChecksumLen
	// MaxPacketLen is the worst case size of any encoded frame; output
	// buffers handed to Encoder must be at least this long.
	MaxPacketLen = HeaderLenV2 + MaxPayloadLen + ChecksumLen + SignatureLen

	// IncompatFlagSigned marks a MAVLink 2 frame carrying a signature.
	IncompatFlagSigned uint8 = 0x01
)

// Version is the MAVLink protocol major version of a frame.
type Version uint8

const (
	V1 Version = 1
	V2 Version = 2
)

func (v Version) String() string {
	switch v {
	case V1:
		return "v1"
	case V2:
		return "v2"
	}
	return "v?"
}

var (
	ErrMessageMismatch = errors.New("mavlink: frame id does not match message type")
	ErrShortBuffer     = errors.New("mavlink: output buffer shorter than MaxPacketLen")
	ErrMessageID       = errors.New("mavlink: message id not encodable in MAVLink 1")
	ErrUnknownMessage  = errors.New("mavlink: message id not in dialect")
)

// Frame is one fully delimited, checksum-validated MAVLink frame.
type Frame struct {
	Version       Version
	IncompatFlags uint8
	CompatFlags   uint8
	Seq           uint8
	SysID         uint8
	CompID        uint8
	MsgID         uint32
	Payload       []byte // as received, MAVLink 2 payloads may be truncated
	Checksum      uint16
	Signature     []byte // nil unless IncompatFlagSigned is set
}

// Signed reports whether the frame carried a MAVLink 2 signature.
func (f *Frame) Signed() bool {
	return f.Version == V2 && f.IncompatFlags&IncompatFlagSigned != 0
}

// Decode unmarshals the payload into msg. It fails with ErrMessageMismatch
// when msg is not the type the frame carries.
func (f *Frame) Decode(msg Message) error {
	if msg.MsgID() != f.MsgID {
		return fmt.Errorf("%w: frame %d, target %d", ErrMessageMismatch, f.MsgID, msg.MsgID())
	}
	e, ok := LookupMessage(f.MsgID)
	if !ok {
		return ErrUnknownMessage
	}
	p := f.Payload
	if len(p) < int(e.Len) {
		// MAVLink 2 strips trailing zero bytes on the wire.
		full := make([]byte, e.Len)
		copy(full, p)
		p = full
	}
	return msg.UnmarshalPayload(p[:e.Len])
}

func (f *Frame) String() string {
	name := "UNKNOWN"
	if e, ok := LookupMessage(f.MsgID); ok {
		name = e.Name
	}
	return fmt.Sprintf("v%d %s(%d) seq=%d sys=%d comp=%d len=%d", f.Version, name, f.MsgID, f.Seq, f.SysID, f.CompID, len(f.Payload))
}
