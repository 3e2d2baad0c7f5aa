// File: protocol/mavlink/messages.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Typed payloads. Field order follows the MAVLink wire ordering (largest
// types first), little endian.

package mavlink

import (
	"encoding/binary"
	"fmt"
)

// Message is a typed MAVLink payload.
type Message interface {
	MsgID() uint32
	// MarshalPayload writes the full-length payload into dst and returns its length.
	MarshalPayload(dst []byte) int
	// UnmarshalPayload reads a full-length payload.
	UnmarshalPayload(p []byte) error
}

func checkLen(id uint32, p []byte) error {
	e, _ := LookupMessage(id)
	if len(p) < int(e.Len) {
		return fmt.Errorf("mavlink: %s payload %d bytes, need %d", e.Name, len(p), e.Len)
	}
	return nil
}

// Heartbeat is HEARTBEAT (#0).
type Heartbeat struct {
	CustomMode     uint32
	Type           uint8
	Autopilot      uint8
	BaseMode       uint8
	SystemStatus   uint8
	MavlinkVersion uint8
}

func (*Heartbeat) MsgID() uint32 { return MsgIDHeartbeat }

func (m *Heartbeat) MarshalPayload(dst []byte) int {
	binary.LittleEndian.PutUint32(dst[0:], m.CustomMode)
	dst[4] = m.Type
	dst[5] = m.Autopilot
	dst[6] = m.BaseMode
	dst[7] = m.SystemStatus
	dst[8] = m.MavlinkVersion
	return 9
}

func (m *Heartbeat) UnmarshalPayload(p []byte) error {
	if err := checkLen(MsgIDHeartbeat, p); err != nil {
		return err
	}
	m.CustomMode = binary.LittleEndian.Uint32(p[0:])
	m.Type = p[4]
	m.Autopilot = p[5]
	m.BaseMode = p[6]
	m.SystemStatus = p[7]
	m.MavlinkVersion = p[8]
	return nil
}

// RCChannelsRaw is RC_CHANNELS_RAW (#35): eight raw servo channels.
type RCChannelsRaw struct {
	TimeBootMs uint32
	Chan       [8]uint16
	Port       uint8
	RSSI       uint8
}

func (*RCChannelsRaw) MsgID() uint32 { return MsgIDRCChannelsRaw }

func (m *RCChannelsRaw) MarshalPayload(dst []byte) int {
	binary.LittleEndian.PutUint32(dst[0:], m.TimeBootMs)
	for i, v := range m.Chan {
		binary.LittleEndian.PutUint16(dst[4+2*i:], v)
	}
	dst[20] = m.Port
	dst[21] = m.RSSI
	return 22
}

func (m *RCChannelsRaw) UnmarshalPayload(p []byte) error {
	if err := checkLen(MsgIDRCChannelsRaw, p); err != nil {
		return err
	}
	m.TimeBootMs = binary.LittleEndian.Uint32(p[0:])
	for i := range m.Chan {
		m.Chan[i] = binary.LittleEndian.Uint16(p[4+2*i:])
	}
	m.Port = p[20]
	m.RSSI = p[21]
	return nil
}

// RCChannels is RC_CHANNELS (#65): up to eighteen RC channel values.
// This is the message the relay answers.
type RCChannels struct {
	TimeBootMs uint32
	Chan       [18]uint16
	ChanCount  uint8
	RSSI       uint8
}

func (*RCChannels) MsgID() uint32 { return MsgIDRCChannels }

func (m *RCChannels) MarshalPayload(dst []byte) int {
	binary.LittleEndian.PutUint32(dst[0:], m.TimeBootMs)
	for i, v := range m.Chan {
		binary.LittleEndian.PutUint16(dst[4+2*i:], v)
	}
	dst[40] = m.ChanCount
	dst[41] = m.RSSI
	return 42
}

func (m *RCChannels) UnmarshalPayload(p []byte) error {
	if err := checkLen(MsgIDRCChannels, p); err != nil {
		return err
	}
	m.TimeBootMs = binary.LittleEndian.Uint32(p[0:])
	for i := range m.Chan {
		m.Chan[i] = binary.LittleEndian.Uint16(p[4+2*i:])
	}
	m.ChanCount = p[40]
	m.RSSI = p[41]
	return nil
}
