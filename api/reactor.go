// File: api/reactor.go
// Author: momentics <momentics@gmail.com>
//
// Defines the abstract interface for the readiness-driven event reactor
// the relay runs on. One goroutine polls; every callback runs on it.

package api

// EventMask is a set of readiness conditions.
type EventMask uint8

const (
	EventRead EventMask = 1 << iota
	EventWrite
	EventError // hang-up or socket error; delivered to the read callback
)

func (m EventMask) String() string {
	s := ""
	if m&EventRead != 0 {
		s += "r"
	}
	if m&EventWrite != 0 {
		s += "w"
	}
	if m&EventError != 0 {
		s += "e"
	}
	if s == "" {
		return "-"
	}
	return s
}

// FDCallback is invoked on the reactor goroutine when fd becomes ready.
type FDCallback func(fd int, events EventMask)

// Reactor multiplexes readiness events for file descriptors. Readable and
// writable interest are tracked independently, each with its own callback.
type Reactor interface {
	// Register adds interest in events for fd and binds cb to those events.
	// Registering an already watched fd merges the interest.
	Register(fd int, events EventMask, cb FDCallback) error

	// Unregister drops interest in events. When no interest is left the fd
	// is removed from the reactor entirely.
	Unregister(fd int, events EventMask) error

	// Interest reports the events fd is currently registered for.
	Interest(fd int) EventMask

	// Poll waits up to timeoutMs (<0 blocks) and dispatches ready callbacks.
	Poll(timeoutMs int) (handled int, err error)

	// Wake interrupts a blocked Poll. Safe to call from any goroutine.
	Wake() error

	// Close must cleanup the internal poller backend.
	Close() error
}
