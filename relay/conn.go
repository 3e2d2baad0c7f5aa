// File: relay/conn.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package relay

import (
	"time"

	"github.com/eapache/queue"
	"github.com/rs/zerolog"

	"github.com/momentics/hioload-mavrelay/api"
	"github.com/momentics/hioload-mavrelay/protocol/mavlink"
)

// Conn is the dispatcher's handle on one connection: descriptor, parser
// state, transmit encoder and the outbound buffers it owns.
type Conn struct {
	ID string

	d      *Dispatcher
	nc     api.NetConn
	fd     int
	parser *mavlink.Parser
	enc    *mavlink.Encoder
	log    zerolog.Logger

	// outq holds owned api.Buffer values waiting for writability.
	outq    *queue.Queue
	pending api.Buffer
	offset  int

	lastActive time.Time
	closed     bool
}

// FD returns the connection's descriptor.
func (c *Conn) FD() int { return c.fd }

// Closed reports whether the connection has been torn down.
func (c *Conn) Closed() bool { return c.closed }

// ParserStatus returns the receive statistics of the connection's parser.
func (c *Conn) ParserStatus() mavlink.Status { return c.parser.Status() }

// Pending returns the number of buffers not yet fully written.
func (c *Conn) Pending() int {
	n := c.outq.Length()
	if c.pending != nil {
		n++
	}
	return n
}

// Logger returns the connection-scoped logger.
func (c *Conn) Logger() *zerolog.Logger { return &c.log }

// Schedule takes ownership of buf and queues it for writing. The caller's
// handle is dead on return, whatever the outcome.
func (c *Conn) Schedule(buf api.Buffer) error {
	owned := buf.Transfer()
	if c.closed {
		owned.Release()
		return api.ErrTransportClosed
	}
	c.outq.Add(owned)
	if c.d.r.Interest(c.fd)&api.EventWrite != 0 {
		return nil
	}
	if err := c.d.r.Register(c.fd, api.EventWrite, c.d.onWritable); err != nil {
		c.d.teardown(c, ReasonRegister, err)
		return api.Wrap(api.ErrCodeSetup, "register writable", err).WithContext("fd", c.fd)
	}
	return nil
}

// Send encodes msg into a worst-case sized buffer and schedules it.
func (c *Conn) Send(msg mavlink.Message) error {
	if c.closed {
		return api.ErrTransportClosed
	}
	out := c.d.pool.Acquire(mavlink.MaxPacketLen)
	n, err := c.enc.Encode(out.Bytes(), c.d.cfg.SysID, c.d.cfg.CompID, msg)
	if err != nil {
		out.Release()
		return api.Wrap(api.ErrCodeProtocol, "encode", err).WithContext("msg", msg.MsgID())
	}
	out.Truncate(n)
	return c.Schedule(out)
}

// Close tears the connection down.
func (c *Conn) Close() {
	c.d.teardown(c, ReasonLocal, nil)
}

// releaseOutbound frees every buffer the connection still owns.
func (c *Conn) releaseOutbound() {
	if c.pending != nil {
		c.pending.Release()
		c.pending = nil
		c.offset = 0
	}
	for c.outq.Length() > 0 {
		c.outq.Remove().(api.Buffer).Release()
	}
}
