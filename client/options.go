// File: client/options.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package client

import (
	"github.com/rs/zerolog"

	"github.com/momentics/hioload-mavrelay/api"
	"github.com/momentics/hioload-mavrelay/relay"
)

// Option customizes client initialization.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithObserver routes relay events, typically to control.Metrics.
func WithObserver(o relay.Observer) Option {
	return func(c *Client) { c.obs = o }
}

// WithBufferPool overrides the process-wide buffer pool.
func WithBufferPool(p api.BufferPool) Option {
	return func(c *Client) { c.pool = p }
}

// WithReactor runs the client on an existing reactor.
func WithReactor(r api.Reactor) Option {
	return func(c *Client) { c.reactor = r }
}
