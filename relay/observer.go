// File: relay/observer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package relay

import "github.com/momentics/hioload-mavrelay/protocol/mavlink"

// Close reasons reported to observers and close hooks.
const (
	ReasonPeerClosed  = "peer_closed"
	ReasonReadError   = "read_error"
	ReasonWriteError  = "write_error"
	ReasonIdleTimeout = "idle_timeout"
	ReasonRegister    = "register_error"
	ReasonShutdown    = "shutdown"
	ReasonLocal       = "local"
)

// Observer receives relay events. Silently absorbed conditions (malformed
// frames, unanswered types, partial writes) surface here instead of as
// errors. Calls happen on the loop goroutine and must not block.
type Observer interface {
	mavlink.Observer

	OnConnOpened()
	OnConnClosed(reason string)
	OnBytesRead(n int)
	OnBytesWritten(n int)
	OnFrameDecoded(msgID uint32)
	OnUnknownType(msgID uint32)
	OnResponseScheduled()
	OnPartialWrite()
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) OnFrameDropped(mavlink.DropReason) {}
func (NopObserver) OnConnOpened()                     {}
func (NopObserver) OnConnClosed(string)               {}
func (NopObserver) OnBytesRead(int)                   {}
func (NopObserver) OnBytesWritten(int)                {}
func (NopObserver) OnFrameDecoded(uint32)             {}
func (NopObserver) OnUnknownType(uint32)              {}
func (NopObserver) OnResponseScheduled()              {}
func (NopObserver) OnPartialWrite()                   {}

var _ Observer = NopObserver{}
