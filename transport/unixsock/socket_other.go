//go:build !linux

// File: transport/unixsock/socket_other.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementation for unsupported platforms.

package unixsock

import "github.com/momentics/hioload-mavrelay/api"

// DefaultBacklog is the listen backlog.
const DefaultBacklog = 5

// Conn is unavailable on this platform.
type Conn struct{ fd int }

func (c *Conn) Read([]byte) (int, error)  { return 0, api.ErrNotSupported }
func (c *Conn) Write([]byte) (int, error) { return 0, api.ErrNotSupported }
func (c *Conn) Close() error              { return nil }
func (c *Conn) RawFD() int                { return c.fd }

func unsupported(op string) error {
	return api.Wrap(api.ErrCodeSetup, "unixsock: "+op, api.ErrNotSupported)
}

func Listen(string, int) (int, error) { return -1, unsupported("listen") }
func Accept(int) (*Conn, error)       { return nil, unsupported("accept") }
func Dial(string) (*Conn, error)      { return nil, unsupported("dial") }
func Remove(string) error             { return nil }
func Pair() (*Conn, *Conn, error)     { return nil, nil, unsupported("socketpair") }
func CloseFD(int) error               { return nil }
