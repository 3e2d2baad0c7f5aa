// File: relay/dispatcher.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package relay

import (
	"errors"
	"time"

	"github.com/eapache/queue"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/momentics/hioload-mavrelay/api"
	"github.com/momentics/hioload-mavrelay/protocol/mavlink"
)

// DefaultReadBufferSize is the size of the buffer each readable event reads into.
const DefaultReadBufferSize = 1024

// Config tunes a Dispatcher.
type Config struct {
	ReadBufferSize int
	IdleTimeout    time.Duration // 0 disables
	SysID          uint8
	CompID         uint8
	Version        mavlink.Version
}

// DefaultConfig mirrors the reference relay: 1 KiB reads, sysid 1, compid 1.
func DefaultConfig() Config {
	return Config{
		ReadBufferSize: DefaultReadBufferSize,
		SysID:          1,
		CompID:         1,
		Version:        mavlink.V2,
	}
}

// CloseHook is told about every teardown. err is nil for orderly closes.
type CloseHook func(c *Conn, reason string, err error)

// Dispatcher owns the connections registered on one reactor.
type Dispatcher struct {
	r       api.Reactor
	pool    api.BufferPool
	handler Handler
	cfg     Config
	obs     Observer
	log     zerolog.Logger
	now     func() time.Time
	onClose CloseHook

	conns   map[int]*Conn
	parsers *mavlink.ChannelSet
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

func WithConfig(cfg Config) Option       { return func(d *Dispatcher) { d.cfg = cfg } }
func WithObserver(o Observer) Option     { return func(d *Dispatcher) { d.obs = o } }
func WithLogger(l zerolog.Logger) Option { return func(d *Dispatcher) { d.log = l } }
func WithCloseHook(h CloseHook) Option   { return func(d *Dispatcher) { d.onClose = h } }

// WithClock replaces time.Now, for idle-timeout tests.
func WithClock(now func() time.Time) Option { return func(d *Dispatcher) { d.now = now } }

// New creates a dispatcher bound to r, drawing buffers from bp.
func New(r api.Reactor, bp api.BufferPool, h Handler, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		r:       r,
		pool:    bp,
		handler: h,
		cfg:     DefaultConfig(),
		obs:     NopObserver{},
		log:     zerolog.Nop(),
		now:     time.Now,
		conns:   make(map[int]*Conn),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.cfg.ReadBufferSize <= 0 {
		d.cfg.ReadBufferSize = DefaultReadBufferSize
	}
	if d.cfg.Version != mavlink.V1 {
		d.cfg.Version = mavlink.V2
	}
	d.parsers = mavlink.NewChannelSet(d.obs)
	return d
}

// Attach registers nc for readability with no pending payload.
func (d *Dispatcher) Attach(nc api.NetConn) (*Conn, error) {
	fd := nc.RawFD()
	if _, dup := d.conns[fd]; dup {
		return nil, api.Wrap(api.ErrCodeInvalidArgument, "attach", api.ErrAlreadyExists).WithContext("fd", fd)
	}
	id := uuid.NewString()
	c := &Conn{
		ID:         id,
		d:          d,
		nc:         nc,
		fd:         fd,
		parser:     d.parsers.Get(fd),
		enc:        mavlink.NewEncoder(d.cfg.Version),
		log:        d.log.With().Str("conn", id).Int("fd", fd).Logger(),
		outq:       queue.New(),
		lastActive: d.now(),
	}
	if err := d.r.Register(fd, api.EventRead, d.onReadable); err != nil {
		d.parsers.Remove(fd)
		return nil, api.Wrap(api.ErrCodeSetup, "register readable", err).WithContext("fd", fd)
	}
	d.conns[fd] = c
	d.obs.OnConnOpened()
	c.log.Debug().Msg("connection attached")
	return c, nil
}

// Conn looks up a live connection by descriptor.
func (d *Dispatcher) Conn(fd int) (*Conn, bool) {
	c, ok := d.conns[fd]
	return c, ok
}

// Len returns the number of live connections.
func (d *Dispatcher) Len() int { return len(d.conns) }

// onReadable performs exactly one non-blocking read and parses what it got.
func (d *Dispatcher) onReadable(fd int, _ api.EventMask) {
	c, ok := d.conns[fd]
	if !ok {
		return
	}
	buf := d.pool.Acquire(d.cfg.ReadBufferSize)
	n, err := c.nc.Read(buf.Bytes())
	switch {
	case errors.Is(err, api.ErrWouldBlock):
		buf.Release()
		return
	case err != nil:
		buf.Release()
		d.teardown(c, ReasonReadError, err)
		return
	case n == 0:
		buf.Release()
		d.teardown(c, ReasonPeerClosed, nil)
		return
	}
	buf.Truncate(n)
	c.lastActive = d.now()
	d.obs.OnBytesRead(n)
	d.consume(c, buf)
}

// consume feeds every byte of buf to the parser in order and releases buf.
func (d *Dispatcher) consume(c *Conn, buf api.Buffer) {
	defer buf.Release()
	for _, b := range buf.Bytes() {
		f, ok := c.parser.Feed(b)
		if !ok {
			continue
		}
		c.log.Debug().
			Uint32("msgid", f.MsgID).
			Uint8("seq", f.Seq).
			Uint8("compid", f.CompID).
			Uint8("sysid", f.SysID).
			Msg("received message")
		d.obs.OnFrameDecoded(f.MsgID)

		resp, handled := d.handler.Handle(c, f)
		if !handled {
			d.obs.OnUnknownType(f.MsgID)
		}
		if c.closed {
			return
		}
		if resp == nil {
			continue
		}
		if err := c.Send(resp); err != nil {
			c.log.Warn().Err(err).Msg("response not scheduled")
			if c.closed {
				return
			}
			continue
		}
		d.obs.OnResponseScheduled()
	}
}

// onWritable flushes queued buffers until the queue is empty or the socket
// stops accepting bytes. A short write keeps the buffer and its offset and
// leaves writable interest registered so the rest goes out on the next event.
func (d *Dispatcher) onWritable(fd int, _ api.EventMask) {
	c, ok := d.conns[fd]
	if !ok {
		return
	}
	for {
		if c.pending == nil {
			if c.outq.Length() == 0 {
				if err := d.r.Unregister(fd, api.EventWrite); err != nil {
					d.teardown(c, ReasonRegister, err)
				}
				return
			}
			c.pending = c.outq.Remove().(api.Buffer)
			c.offset = 0
		}

		data := c.pending.Bytes()[c.offset:]
		n, err := c.nc.Write(data)
		if n > 0 {
			c.offset += n
			c.lastActive = d.now()
			d.obs.OnBytesWritten(n)
		}
		switch {
		case errors.Is(err, api.ErrWouldBlock):
			return
		case err != nil:
			d.teardown(c, ReasonWriteError, err)
			return
		}
		if c.offset < c.pending.Len() {
			d.obs.OnPartialWrite()
			c.log.Debug().Int("written", c.offset).Int("len", c.pending.Len()).Msg("partial write, waiting for writability")
			return
		}
		c.pending.Release()
		c.pending = nil
		c.offset = 0
	}
}

// teardown deregisters both directions, releases every owned buffer and
// closes the descriptor, in that order.
func (d *Dispatcher) teardown(c *Conn, reason string, err error) {
	if c.closed {
		return
	}
	c.closed = true
	if uerr := d.r.Unregister(c.fd, api.EventRead|api.EventWrite); uerr != nil {
		c.log.Debug().Err(uerr).Msg("unregister on teardown")
	}
	c.releaseOutbound()
	d.parsers.Remove(c.fd)
	delete(d.conns, c.fd)
	if cerr := c.nc.Close(); cerr != nil {
		c.log.Debug().Err(cerr).Msg("close on teardown")
	}
	d.obs.OnConnClosed(reason)

	if err != nil {
		c.log.Warn().Err(err).Str("reason", reason).Msg("connection closed")
	} else {
		c.log.Info().Str("reason", reason).Msg("connection closed")
	}

	if d.onClose != nil {
		d.onClose(c, reason, err)
	}
}

// SweepIdle tears down connections idle for at least IdleTimeout and
// returns how many it closed. Meant to run from the loop's tick.
func (d *Dispatcher) SweepIdle(now time.Time) int {
	if d.cfg.IdleTimeout <= 0 {
		return 0
	}
	closed := 0
	for _, c := range d.conns {
		if now.Sub(c.lastActive) >= d.cfg.IdleTimeout {
			d.teardown(c, ReasonIdleTimeout, nil)
			closed++
		}
	}
	return closed
}

// CloseAll tears down every connection.
func (d *Dispatcher) CloseAll() {
	for _, c := range d.conns {
		d.teardown(c, ReasonShutdown, nil)
	}
}
