// File: server/types.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/momentics/hioload-mavrelay/api"
	"github.com/momentics/hioload-mavrelay/reactor"
	"github.com/momentics/hioload-mavrelay/relay"
	"github.com/momentics/hioload-mavrelay/transport/unixsock"
)

// Config holds all server-side configuration parameters.
type Config struct {
	SocketPath string        // unix socket path, unlinked and re-bound on start
	Backlog    int           // listen backlog
	Tick       time.Duration // loop tick driving the idle sweep
	CPU        int           // pin the loop thread to this CPU; -1 disables
	Relay      relay.Config
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		SocketPath: "/tmp/mavrelay.sock",
		Backlog:    unixsock.DefaultBacklog,
		Tick:       reactor.DefaultTick,
		CPU:        -1,
		Relay:      relay.DefaultConfig(),
	}
}

// Server accepts relay connections on a unix socket and serves them from a
// single event loop.
type Server struct {
	cfg     *Config
	reactor api.Reactor
	loop    *reactor.Loop
	pool    api.BufferPool
	disp    *relay.Dispatcher
	handler relay.Handler
	obs     relay.Observer
	log     zerolog.Logger

	lfd         int
	ownsReactor bool

	// accept is unixsock.Accept outside tests.
	accept func(lfd int) (*unixsock.Conn, error)
	// acceptPaused is set while the listener is unregistered after an
	// accept error. Loop goroutine only.
	acceptPaused bool

	active   atomic.Int64
	accepted atomic.Uint64
}
