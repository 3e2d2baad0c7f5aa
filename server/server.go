// File: server/server.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Listening socket bootstrap and the accept path.

package server

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/momentics/hioload-mavrelay/api"
	"github.com/momentics/hioload-mavrelay/pool"
	"github.com/momentics/hioload-mavrelay/reactor"
	"github.com/momentics/hioload-mavrelay/relay"
	"github.com/momentics/hioload-mavrelay/transport/unixsock"
)

// NewServer binds the listening socket and registers it for readability.
// Every error returned is a setup error.
func NewServer(cfg *Config, opts ...ServerOption) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	s := &Server{
		cfg:     cfg,
		handler: relay.EchoRC{},
		obs:     relay.NopObserver{},
		log:     zerolog.Nop(),
		lfd:     -1,
		accept:  unixsock.Accept,
	}
	for _, o := range opts {
		o(s)
	}
	if s.pool == nil {
		s.pool = pool.Default()
	}
	if s.reactor == nil {
		r, err := reactor.New(reactor.WithLogger(s.log))
		if err != nil {
			return nil, api.Wrap(api.ErrCodeSetup, "create reactor", err)
		}
		s.reactor = r
		s.ownsReactor = true
	}

	lfd, err := unixsock.Listen(cfg.SocketPath, cfg.Backlog)
	if err != nil {
		s.closeReactor()
		return nil, err
	}
	s.lfd = lfd

	s.disp = relay.New(s.reactor, s.pool, s.handler,
		relay.WithConfig(cfg.Relay),
		relay.WithObserver(s.obs),
		relay.WithLogger(s.log),
		relay.WithCloseHook(func(*relay.Conn, string, error) { s.active.Add(-1) }),
	)

	if err := s.reactor.Register(lfd, api.EventRead, s.onAcceptable); err != nil {
		_ = unixsock.CloseFD(lfd)
		_ = unixsock.Remove(cfg.SocketPath)
		s.closeReactor()
		return nil, api.Wrap(api.ErrCodeSetup, "register listener", err).WithContext("path", cfg.SocketPath)
	}

	s.loop = reactor.NewLoop(s.reactor, cfg.Tick)
	s.loop.PinCPU(cfg.CPU)
	s.loop.OnTick(s.onTick)

	s.log.Info().Str("path", cfg.SocketPath).Int("backlog", cfg.Backlog).Msg("listening")
	return s, nil
}

func (s *Server) onTick(now time.Time) {
	if s.acceptPaused {
		s.resumeAccept()
	}
	if n := s.disp.SweepIdle(now); n > 0 {
		s.log.Info().Int("closed", n).Msg("idle connections swept")
	}
}

// onAcceptable drains the accept backlog. A hard accept error (EMFILE and
// the like) leaves the backlog readable, so the listener is taken out of the
// level-triggered set until the next tick instead of firing on every Poll.
func (s *Server) onAcceptable(fd int, _ api.EventMask) {
	for {
		nc, err := s.accept(fd)
		if errors.Is(err, api.ErrWouldBlock) {
			return
		}
		if err != nil {
			s.pauseAccept(err)
			return
		}
		c, err := s.disp.Attach(nc)
		if err != nil {
			s.log.Error().Err(err).Int("fd", nc.RawFD()).Msg("attach failed")
			_ = nc.Close()
			continue
		}
		s.active.Add(1)
		s.accepted.Add(1)
		c.Logger().Info().Msg("client connected")
	}
}

func (s *Server) pauseAccept(cause error) {
	if err := s.reactor.Unregister(s.lfd, api.EventRead); err != nil {
		s.log.Error().Err(err).Msg("unregister listener")
		return
	}
	s.acceptPaused = true
	s.log.Warn().Err(cause).Dur("retry_in", s.cfg.Tick).Msg("accept failed, listener paused")
}

func (s *Server) resumeAccept() {
	if err := s.reactor.Register(s.lfd, api.EventRead, s.onAcceptable); err != nil {
		s.log.Error().Err(err).Msg("re-register listener")
		return
	}
	s.acceptPaused = false
	s.log.Info().Msg("listener resumed")
}

// Path returns the bound socket path.
func (s *Server) Path() string { return s.cfg.SocketPath }

// Loop exposes the event loop, e.g. to add tick hooks before Run.
func (s *Server) Loop() *reactor.Loop { return s.loop }

// Active returns the number of open connections. Safe from any goroutine.
func (s *Server) Active() int64 { return s.active.Load() }

// Accepted returns the number of connections accepted so far.
func (s *Server) Accepted() uint64 { return s.accepted.Load() }

func (s *Server) closeReactor() {
	if s.ownsReactor && s.reactor != nil {
		_ = s.reactor.Close()
	}
}
