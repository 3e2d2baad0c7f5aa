//go:build linux

// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

package unixsock

import (
	"errors"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-mavrelay/api"
)

// Conn is a non-blocking stream socket implementing api.NetConn.
type Conn struct {
	fd int
}

// NewConn wraps an already non-blocking descriptor.
func NewConn(fd int) *Conn { return &Conn{fd: fd} }

// Read performs a single non-blocking read.
func (c *Conn) Read(p []byte) (int, error) {
	if c.fd < 0 {
		return 0, api.ErrTransportClosed
	}
	for {
		n, err := unix.Read(c.fd, p)
		switch {
		case err == nil:
			return n, nil
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN):
			return 0, api.ErrWouldBlock
		default:
			return 0, err
		}
	}
}

// Write performs a single non-blocking send. MSG_NOSIGNAL turns a write to a
// closed peer into EPIPE instead of SIGPIPE.
func (c *Conn) Write(p []byte) (int, error) {
	if c.fd < 0 {
		return 0, api.ErrTransportClosed
	}
	for {
		n, err := unix.SendmsgN(c.fd, p, nil, nil, unix.MSG_NOSIGNAL|unix.MSG_DONTWAIT)
		switch {
		case err == nil:
			return n, nil
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN):
			return 0, api.ErrWouldBlock
		default:
			return 0, err
		}
	}
}

// Close releases the descriptor. Closing twice is a no-op.
func (c *Conn) Close() error {
	if c.fd < 0 {
		return nil
	}
	fd := c.fd
	c.fd = -1
	return unix.Close(fd)
}

// RawFD returns the descriptor, or -1 once closed.
func (c *Conn) RawFD() int { return c.fd }

var _ api.NetConn = (*Conn)(nil)
