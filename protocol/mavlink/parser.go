// File: protocol/mavlink/parser.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Incremental, byte-at-a-time MAVLink frame parser.

package mavlink

// Phase is the coarse parser phase.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseInProgress
	PhaseMessageReceived
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseInProgress:
		return "in-progress"
	case PhaseMessageReceived:
		return "message-received"
	}
	return "unknown"
}

// DropReason classifies a discarded frame.
type DropReason uint8

const (
	DropBadCRC DropReason = iota + 1
	DropBadLength
	DropIncompatFlags
)

func (r DropReason) String() string {
	switch r {
	case DropBadCRC:
		return "bad_crc"
	case DropBadLength:
		return "bad_length"
	case DropIncompatFlags:
		return "incompat_flags"
	}
	return "unknown"
}

// Observer receives parser events. Implementations must not block.
type Observer interface {
	OnFrameDropped(reason DropReason)
}

// Status accumulates per-channel receive statistics.
type Status struct {
	PacketsReceived uint64
	ParseErrors     uint64
	PacketsDropped  uint64 // sequence gaps
	LastSeq         uint8
}

type parseState uint8

const (
	stateIdle parseState = iota
	stateGotSTX
	stateGotLength
	stateGotIncompat
	stateGotCompat
	stateGotSeq
	stateGotSysID
	stateGotCompID
	stateGotMsgID1
	stateGotMsgID2
	stateGotMsgID3
	stateGotPayload
	stateGotCRC1
	stateSignature
)

// Parser reassembles frames from a byte stream. A Parser belongs to exactly
// one channel and is not safe for concurrent use.
type Parser struct {
	state    parseState
	received bool

	version  Version
	incompat uint8
	compat   uint8
	length   uint8
	seq      uint8
	sysID    uint8
	compID   uint8
	msgID    uint32
	crc      uint16
	crcLow   uint8
	n        int

	payload   [MaxPayloadLen]byte
	signature [SignatureLen]byte

	status   Status
	observer Observer
}

// NewParser returns an idle parser. obs may be nil.
func NewParser(obs Observer) *Parser {
	return &Parser{observer: obs}
}

// Phase reports the coarse parser phase. PhaseMessageReceived is only
// visible between a Feed that emitted a frame and the next Feed.
func (p *Parser) Phase() Phase {
	switch {
	case p.state != stateIdle:
		return PhaseInProgress
	case p.received:
		return PhaseMessageReceived
	}
	return PhaseIdle
}

// Status returns a copy of the receive statistics.
func (p *Parser) Status() Status { return p.status }

// Reset drops any partial frame.
func (p *Parser) Reset() {
	p.state = stateIdle
	p.received = false
	p.n = 0
}

// Feed consumes one byte. It returns a complete, checksum-validated frame
// when b finishes one. The returned frame owns its payload.
func (p *Parser) Feed(b byte) (*Frame, bool) {
	p.received = false

	switch p.state {
	case stateIdle:
		switch b {
		case STXv1:
			p.begin(V1)
		case STXv2:
			p.begin(V2)
		}
		return nil, false

	case stateGotSTX:
		p.length = b
		p.crc = crcAccumulate(b, p.crc)
		p.state = stateGotLength

	case stateGotLength:
		p.crc = crcAccumulate(b, p.crc)
		if p.version == V1 {
			p.seq = b
			p.state = stateGotSeq
			break
		}
		p.incompat = b
		if b&^IncompatFlagSigned != 0 {
			p.drop(DropIncompatFlags)
			return nil, false
		}
		p.state = stateGotIncompat

	case stateGotIncompat:
		p.compat = b
		p.crc = crcAccumulate(b, p.crc)
		p.state = stateGotCompat

	case stateGotCompat:
		p.seq = b
		p.crc = crcAccumulate(b, p.crc)
		p.state = stateGotSeq

	case stateGotSeq:
		p.sysID = b
		p.crc = crcAccumulate(b, p.crc)
		p.state = stateGotSysID

	case stateGotSysID:
		p.compID = b
		p.crc = crcAccumulate(b, p.crc)
		p.state = stateGotCompID

	case stateGotCompID:
		p.msgID = uint32(b)
		p.crc = crcAccumulate(b, p.crc)
		if p.version == V1 {
			p.afterMsgID()
			break
		}
		p.state = stateGotMsgID1

	case stateGotMsgID1:
		p.msgID |= uint32(b) << 8
		p.crc = crcAccumulate(b, p.crc)
		p.state = stateGotMsgID2

	case stateGotMsgID2:
		p.msgID |= uint32(b) << 16
		p.crc = crcAccumulate(b, p.crc)
		p.afterMsgID()

	case stateGotMsgID3:
		p.payload[p.n] = b
		p.n++
		p.crc = crcAccumulate(b, p.crc)
		if p.n == int(p.length) {
			p.state = stateGotPayload
		}

	case stateGotPayload:
		p.crc = crcAccumulate(crcExtra(p.msgID), p.crc)
		p.crcLow = b
		p.state = stateGotCRC1

	case stateGotCRC1:
		got := uint16(p.crcLow) | uint16(b)<<8
		if got != p.crc {
			p.drop(DropBadCRC)
			return nil, false
		}
		if p.version == V2 && p.incompat&IncompatFlagSigned != 0 {
			p.n = 0
			p.state = stateSignature
			break
		}
		return p.emit(), true

	case stateSignature:
		p.signature[p.n] = b
		p.n++
		if p.n == SignatureLen {
			return p.emit(), true
		}
	}
	return nil, false
}

func (p *Parser) begin(v Version) {
	p.version = v
	p.incompat = 0
	p.compat = 0
	p.msgID = 0
	p.n = 0
	p.crc = crcInit
	p.state = stateGotSTX
}

func (p *Parser) afterMsgID() {
	if e, ok := LookupMessage(p.msgID); ok {
		if p.version == V1 && p.length != e.Len {
			p.drop(DropBadLength)
			return
		}
		if p.version == V2 && p.length > e.Len {
			p.drop(DropBadLength)
			return
		}
	}
	p.n = 0
	if p.length == 0 {
		p.state = stateGotPayload
		return
	}
	p.state = stateGotMsgID3
}

func (p *Parser) drop(reason DropReason) {
	p.status.ParseErrors++
	p.state = stateIdle
	p.n = 0
	if p.observer != nil {
		p.observer.OnFrameDropped(reason)
	}
}

func (p *Parser) emit() *Frame {
	f := &Frame{
		Version:       p.version,
		IncompatFlags: p.incompat,
		CompatFlags:   p.compat,
		Seq:           p.seq,
		SysID:         p.sysID,
		CompID:        p.compID,
		MsgID:         p.msgID,
		Payload:       append([]byte(nil), p.payload[:p.length]...),
		Checksum:      p.crc,
	}
	if f.Signed() {
		f.Signature = append([]byte(nil), p.signature[:]...)
	}

	if p.status.PacketsReceived > 0 {
		p.status.PacketsDropped += uint64(p.seq - p.status.LastSeq - 1)
	}
	p.status.PacketsReceived++
	p.status.LastSeq = p.seq

	p.state = stateIdle
	p.n = 0
	p.received = true
	return f
}
