// File: server/run.go
// Package server implements the relay's listening side: socket bootstrap,
// the accept path, the event loop and graceful shutdown.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package server

import (
	"context"
	"errors"

	"github.com/momentics/hioload-mavrelay/api"
	"github.com/momentics/hioload-mavrelay/transport/unixsock"
)

// Run drives the event loop until ctx is cancelled or Shutdown is called,
// then closes every connection and removes the socket path.
func (s *Server) Run(ctx context.Context) error {
	err := s.loop.Run(ctx)
	if cerr := s.close(); cerr != nil {
		err = errors.Join(err, cerr)
	}
	return err
}

// Shutdown stops the loop. Safe from any goroutine.
func (s *Server) Shutdown() {
	s.loop.Stop()
}

func (s *Server) close() error {
	s.disp.CloseAll()

	var errs []error
	if s.lfd >= 0 {
		if !s.acceptPaused {
			if err := s.reactor.Unregister(s.lfd, api.EventRead); err != nil {
				errs = append(errs, err)
			}
		}
		if err := unixsock.CloseFD(s.lfd); err != nil {
			errs = append(errs, err)
		}
		s.lfd = -1
	}
	if err := unixsock.Remove(s.cfg.SocketPath); err != nil {
		errs = append(errs, err)
	}
	s.closeReactor()
	s.log.Info().Uint64("accepted", s.accepted.Load()).Msg("server stopped")
	return errors.Join(errs...)
}
