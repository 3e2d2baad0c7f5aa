// File: client/client.go
// Package client provides the relay's connecting side: it dials the unix
// socket, primes the exchange with one RC_CHANNELS frame and answers every
// RC_CHANNELS response until the requested number of round trips is done.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package client

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/momentics/hioload-mavrelay/api"
	"github.com/momentics/hioload-mavrelay/pool"
	"github.com/momentics/hioload-mavrelay/protocol/mavlink"
	"github.com/momentics/hioload-mavrelay/reactor"
	"github.com/momentics/hioload-mavrelay/relay"
	"github.com/momentics/hioload-mavrelay/transport/unixsock"
)

// Config holds all configurable parameters for the client.
type Config struct {
	SocketPath string        // server socket path
	Rounds     int           // responses to receive before stopping; 0 runs until the peer leaves
	Tick       time.Duration // loop tick
	CPU        int           // pin the loop thread to this CPU; -1 disables
	Relay      relay.Config
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		SocketPath: "/tmp/mavrelay.sock",
		Tick:       reactor.DefaultTick,
		CPU:        -1,
		Relay:      relay.DefaultConfig(),
	}
}

// Client runs one relay connection on its own event loop.
type Client struct {
	cfg     *Config
	reactor api.Reactor
	loop    *reactor.Loop
	pool    api.BufferPool
	disp    *relay.Dispatcher
	conn    *relay.Conn
	obs     relay.Observer
	log     zerolog.Logger

	ownsReactor bool
	received    atomic.Int64
	closeErr    error
}

// New dials cfg.SocketPath, registers the connection for readability and
// schedules the priming frame. Every error returned is a setup error.
func New(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Rounds < 0 {
		return nil, api.NewError(api.ErrCodeInvalidArgument, "rounds must not be negative").WithContext("rounds", cfg.Rounds)
	}
	c := &Client{
		cfg: cfg,
		obs: relay.NopObserver{},
		log: zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.pool == nil {
		c.pool = pool.Default()
	}
	if c.reactor == nil {
		r, err := reactor.New(reactor.WithLogger(c.log))
		if err != nil {
			return nil, api.Wrap(api.ErrCodeSetup, "create reactor", err)
		}
		c.reactor = r
		c.ownsReactor = true
	}

	nc, err := unixsock.Dial(cfg.SocketPath)
	if err != nil {
		c.closeReactor()
		return nil, err
	}

	c.disp = relay.New(c.reactor, c.pool, c,
		relay.WithConfig(cfg.Relay),
		relay.WithObserver(c.obs),
		relay.WithLogger(c.log),
		relay.WithCloseHook(c.onClose),
	)
	conn, err := c.disp.Attach(nc)
	if err != nil {
		_ = nc.Close()
		c.closeReactor()
		return nil, err
	}
	c.conn = conn
	c.loop = reactor.NewLoop(c.reactor, cfg.Tick)
	c.loop.PinCPU(cfg.CPU)
	c.loop.OnTick(func(now time.Time) { c.disp.SweepIdle(now) })

	if err := conn.Send(&mavlink.RCChannels{}); err != nil {
		c.disp.CloseAll()
		c.closeReactor()
		return nil, api.Wrap(api.ErrCodeSetup, "schedule priming frame", err)
	}
	c.obs.OnResponseScheduled()
	c.log.Info().Str("path", cfg.SocketPath).Int("rounds", cfg.Rounds).Msg("connected")
	return c, nil
}

// Handle answers RC_CHANNELS with the values it received and stops the loop
// once Rounds responses have arrived.
func (c *Client) Handle(conn *relay.Conn, f *mavlink.Frame) (mavlink.Message, bool) {
	if f.MsgID != mavlink.MsgIDRCChannels {
		return nil, false
	}
	var rc mavlink.RCChannels
	if err := f.Decode(&rc); err != nil {
		conn.Logger().Debug().Err(err).Msg("rc_channels decode failed")
		return nil, false
	}
	n := c.received.Add(1)
	conn.Logger().Debug().Int64("round", n).Uint8("seq", f.Seq).Msg("response received")
	if c.cfg.Rounds > 0 && n >= int64(c.cfg.Rounds) {
		c.loop.Stop()
		return nil, true
	}
	return &rc, true
}

func (c *Client) onClose(_ *relay.Conn, reason string, err error) {
	if reason == relay.ReasonShutdown || reason == relay.ReasonLocal {
		return
	}
	n := c.received.Load()
	if c.cfg.Rounds > 0 && n < int64(c.cfg.Rounds) {
		e := api.Wrap(api.ErrCodePeer, fmt.Sprintf("connection closed after %d of %d responses", n, c.cfg.Rounds), err)
		c.closeErr = e.WithContext("reason", reason)
	}
	c.loop.Stop()
}

// Received returns the number of responses received. Safe from any goroutine.
func (c *Client) Received() int64 { return c.received.Load() }

// Loop exposes the event loop.
func (c *Client) Loop() *reactor.Loop { return c.loop }

func (c *Client) closeReactor() {
	if c.ownsReactor && c.reactor != nil {
		_ = c.reactor.Close()
	}
}

var _ relay.Handler = (*Client)(nil)
