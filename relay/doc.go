// File: relay/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package relay is the I/O dispatcher of the MAVLink relay. It binds
// non-blocking connections to an api.Reactor, feeds every byte read into the
// connection's frame parser in arrival order, hands decoded frames to a
// Handler and queues encoded responses for writing back on the same
// connection.
//
// Buffer ownership is explicit: a read buffer belongs to the read callback
// and is released once all of its bytes are parsed; a write buffer is moved
// into the connection by Schedule and released by the write side once fully
// flushed, or by teardown.
//
// Everything in this package runs on the event loop goroutine.
package relay
