// Package fake
// Author: momentics <momentics@gmail.com>
//
// Fake implementations for testing and development.
// Provides predictable, controllable behavior for the reactor and socket
// interfaces the relay is driven through.

package fake

import (
	"sync"

	"github.com/momentics/hioload-mavrelay/api"
)

// Conn is a scripted api.NetConn. Reads are served from queued chunks;
// writes are recorded and may be capped per call to force short writes.
type Conn struct {
	mu         sync.Mutex
	fd         int
	recv       [][]byte
	eof        bool
	sent       []byte
	writeLimit int
	writeBlock bool
	closed     bool
	closes     int
	readError  error
	writeError error
	closeError error
	writes     int
}

// NewConn creates a fake connection pretending to own descriptor fd.
func NewConn(fd int) *Conn {
	return &Conn{fd: fd}
}

// Read implements api.NetConn.Read. It returns one queued chunk per call,
// ErrWouldBlock when nothing is queued, and (0, nil) after SetEOF.
func (c *Conn) Read(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, api.ErrTransportClosed
	}
	if c.readError != nil {
		return 0, c.readError
	}
	if len(c.recv) == 0 {
		if c.eof {
			return 0, nil
		}
		return 0, api.ErrWouldBlock
	}
	n := copy(p, c.recv[0])
	if n < len(c.recv[0]) {
		c.recv[0] = c.recv[0][n:]
	} else {
		c.recv = c.recv[1:]
	}
	return n, nil
}

// Write implements api.NetConn.Write.
func (c *Conn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.writes++
	if c.closed {
		return 0, api.ErrTransportClosed
	}
	if c.writeError != nil {
		return 0, c.writeError
	}
	if c.writeBlock {
		return 0, api.ErrWouldBlock
	}
	n := len(p)
	if c.writeLimit > 0 && n > c.writeLimit {
		n = c.writeLimit
	}
	c.sent = append(c.sent, p[:n]...)
	return n, nil
}

// Close implements api.NetConn.Close.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closes++
	if c.closeError != nil {
		return c.closeError
	}
	c.closed = true
	return nil
}

// RawFD implements api.NetConn.RawFD.
func (c *Conn) RawFD() int { return c.fd }

// AddRecvData queues data to be returned by a later Read.
func (c *Conn) AddRecvData(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recv = append(c.recv, append([]byte(nil), data...))
}

// SetEOF makes Read report an orderly peer close once the queue drains.
func (c *Conn) SetEOF() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.eof = true
}

// SetWriteLimit caps the bytes accepted per Write. 0 removes the cap.
func (c *Conn) SetWriteLimit(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeLimit = n
}

// SetWriteBlocked makes Write return ErrWouldBlock while on.
func (c *Conn) SetWriteBlocked(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeBlock = on
}

// SetReadError configures the connection to return an error on Read.
func (c *Conn) SetReadError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readError = err
}

// SetWriteError configures the connection to return an error on Write.
func (c *Conn) SetWriteError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeError = err
}

// SetCloseError configures the connection to return an error on Close.
func (c *Conn) SetCloseError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeError = err
}

// GetSentData returns a copy of every byte written so far.
func (c *Conn) GetSentData() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.sent...)
}

// ClearSentData forgets the recorded output.
func (c *Conn) ClearSentData() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = c.sent[:0]
}

// Writes returns the number of Write calls.
func (c *Conn) Writes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes
}

// Closed reports whether Close succeeded at least once.
func (c *Conn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Closes returns the number of Close calls.
func (c *Conn) Closes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}

var _ api.NetConn = (*Conn)(nil)
