// File: protocol/mavlink/dialect.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Dialect table: message ids the relay knows, with wire length and CRC_EXTRA.

package mavlink

// Message ids of the supported dialect subset.
const (
	MsgIDHeartbeat     uint32 = 0
	MsgIDRCChannelsRaw uint32 = 35
	MsgIDRCChannels    uint32 = 65
)

// MsgEntry describes one known message.
type MsgEntry struct {
	ID       uint32
	Name     string
	Len      uint8 // full (untruncated) payload length
	CRCExtra uint8
}

var dialect = map[uint32]MsgEntry{
	MsgIDHeartbeat:     {ID: MsgIDHeartbeat, Name: "HEARTBEAT", Len: 9, CRCExtra: 50},
	MsgIDRCChannelsRaw: {ID: MsgIDRCChannelsRaw, Name: "RC_CHANNELS_RAW", Len: 22, CRCExtra: 244},
	MsgIDRCChannels:    {ID: MsgIDRCChannels, Name: "RC_CHANNELS", Len: 42, CRCExtra: 118},
}

// LookupMessage returns the dialect entry for id.
func LookupMessage(id uint32) (MsgEntry, bool) {
	e, ok := dialect[id]
	return e, ok
}

// crcExtra returns CRC_EXTRA for id; unknown ids seed with zero.
func crcExtra(id uint32) uint8 {
	return dialect[id].CRCExtra
}
