// File: relay/handler.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package relay

import "github.com/momentics/hioload-mavrelay/protocol/mavlink"

// Handler is the application logic behind the dispatcher. Handle is called
// once per decoded frame, in wire order. It returns the message to send back
// (nil for none) and whether the frame's type was one it recognizes.
type Handler interface {
	Handle(c *Conn, f *mavlink.Frame) (resp mavlink.Message, handled bool)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(c *Conn, f *mavlink.Frame) (mavlink.Message, bool)

func (fn HandlerFunc) Handle(c *Conn, f *mavlink.Frame) (mavlink.Message, bool) {
	return fn(c, f)
}

// EchoRC answers every RC_CHANNELS frame with a fresh RC_CHANNELS frame
// carrying the same values. Other types are left unhandled.
type EchoRC struct{}

func (EchoRC) Handle(c *Conn, f *mavlink.Frame) (mavlink.Message, bool) {
	if f.MsgID != mavlink.MsgIDRCChannels {
		return nil, false
	}
	var rc mavlink.RCChannels
	if err := f.Decode(&rc); err != nil {
		c.log.Debug().Err(err).Msg("rc_channels decode failed")
		return nil, false
	}
	return &rc, true
}
