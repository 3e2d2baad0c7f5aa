// File: server/options.go
// Package server defines functional options for the Server.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"github.com/rs/zerolog"

	"github.com/momentics/hioload-mavrelay/api"
	"github.com/momentics/hioload-mavrelay/relay"
)

// ServerOption customizes server initialization.
type ServerOption func(*Server)

// WithLogger sets the server logger. Connection loggers derive from it.
func WithLogger(l zerolog.Logger) ServerOption {
	return func(s *Server) {
		s.log = l
	}
}

// WithObserver routes relay events, typically to control.Metrics.
func WithObserver(o relay.Observer) ServerOption {
	return func(s *Server) {
		s.obs = o
	}
}

// WithHandler replaces the default RC_CHANNELS echo handler.
func WithHandler(h relay.Handler) ServerOption {
	return func(s *Server) {
		s.handler = h
	}
}

// WithBufferPool overrides the process-wide buffer pool.
func WithBufferPool(p api.BufferPool) ServerOption {
	return func(s *Server) {
		s.pool = p
	}
}

// WithReactor runs the server on an existing reactor. The server does not
// close a reactor it did not create.
func WithReactor(r api.Reactor) ServerOption {
	return func(s *Server) {
		s.reactor = r
	}
}
