// File: api/transport.go
// Author: momentics <momentics@gmail.com>
//
// Defines the non-blocking socket abstraction (NetConn) driven by the reactor.

package api

// NetConn abstracts a full-duplex, non-blocking stream socket.
// Read and Write never block: they return ErrWouldBlock when the socket is
// not ready, a short count, or an error.
type NetConn interface {
	// Read reads into a preallocated buffer. (0, nil) means the peer closed.
	Read(p []byte) (n int, err error)

	// Write writes as much of p as the socket accepts.
	Write(p []byte) (n int, err error)

	// Close shuts down the connection and releases the descriptor.
	Close() error

	// RawFD returns the underlying OS-level file descriptor.
	RawFD() int
}
