package relay_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/momentics/hioload-mavrelay/api"
	"github.com/momentics/hioload-mavrelay/fake"
	"github.com/momentics/hioload-mavrelay/pool"
	"github.com/momentics/hioload-mavrelay/protocol/mavlink"
	"github.com/momentics/hioload-mavrelay/relay"
	"github.com/rs/zerolog"
)

type recorder struct {
	relay.NopObserver
	opened, closed  int
	reasons         []string
	decoded         int
	unknown         int
	responses       int
	partial         int
	dropped         int
	bytesIn, bytesO int
}

func (r *recorder) OnConnOpened()                     { r.opened++ }
func (r *recorder) OnConnClosed(reason string)        { r.closed++; r.reasons = append(r.reasons, reason) }
func (r *recorder) OnFrameDecoded(uint32)             { r.decoded++ }
func (r *recorder) OnUnknownType(uint32)              { r.unknown++ }
func (r *recorder) OnResponseScheduled()              { r.responses++ }
func (r *recorder) OnPartialWrite()                   { r.partial++ }
func (r *recorder) OnFrameDropped(mavlink.DropReason) { r.dropped++ }
func (r *recorder) OnBytesRead(n int)                 { r.bytesIn += n }
func (r *recorder) OnBytesWritten(n int)              { r.bytesO += n }

type harness struct {
	r    *fake.Reactor
	bp   *pool.BufferPool
	obs  *recorder
	d    *relay.Dispatcher
	nc   *fake.Conn
	conn *relay.Conn
}

func newHarness(t *testing.T, opts ...relay.Option) *harness {
	t.Helper()
	h := &harness{r: fake.NewReactor(), bp: pool.NewBufferPool(), obs: &recorder{}}
	opts = append([]relay.Option{relay.WithObserver(h.obs)}, opts...)
	h.d = relay.New(h.r, h.bp, relay.EchoRC{}, opts...)
	h.nc = fake.NewConn(7)
	c, err := h.d.Attach(h.nc)
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	h.conn = c
	return h
}

func (h *harness) assertNoLeaks(t *testing.T) {
	t.Helper()
	st := h.bp.Stats()
	if st.InUse != 0 || st.Misuse != 0 {
		t.Fatalf("pool stats %+v, want nothing in use and no misuse", st)
	}
}

func rcFrame(t *testing.T, v mavlink.Version, seq uint8, chans ...uint16) []byte {
	t.Helper()
	enc := mavlink.NewEncoder(v)
	buf := make([]byte, mavlink.MaxPacketLen)
	msg := &mavlink.RCChannels{ChanCount: uint8(len(chans))}
	copy(msg.Chan[:], chans)
	var n int
	for i := 0; i <= int(seq); i++ {
		var err error
		if n, err = enc.Encode(buf, 1, 1, msg); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	return append([]byte(nil), buf[:n]...)
}

func decodeAll(t *testing.T, raw []byte) []*mavlink.RCChannels {
	t.Helper()
	p := mavlink.NewParser(nil)
	var out []*mavlink.RCChannels
	for _, b := range raw {
		f, ok := p.Feed(b)
		if !ok {
			continue
		}
		var rc mavlink.RCChannels
		if err := f.Decode(&rc); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if f.SysID != 1 || f.CompID != 1 {
			t.Fatalf("response from %d/%d, want 1/1", f.SysID, f.CompID)
		}
		out = append(out, &rc)
	}
	return out
}

func TestAttachRegistersReadable(t *testing.T) {
	h := newHarness(t)
	if got := h.r.Interest(7); got != api.EventRead {
		t.Fatalf("interest = %v, want r", got)
	}
	if h.d.Len() != 1 || h.obs.opened != 1 {
		t.Fatalf("len=%d opened=%d", h.d.Len(), h.obs.opened)
	}
	if h.conn.ID == "" || h.conn.FD() != 7 {
		t.Fatalf("conn id=%q fd=%d", h.conn.ID, h.conn.FD())
	}
	if _, err := h.d.Attach(fake.NewConn(7)); err == nil {
		t.Fatal("duplicate attach accepted")
	}
}

func TestAttachRegisterFailureIsSetupError(t *testing.T) {
	r := fake.NewReactor()
	r.SetRegisterError(errors.New("epoll full"))
	d := relay.New(r, pool.NewBufferPool(), relay.EchoRC{})
	_, err := d.Attach(fake.NewConn(3))
	if !api.IsSetup(err) {
		t.Fatalf("err = %v, want setup error", err)
	}
	if d.Len() != 0 {
		t.Fatal("failed attach left a connection behind")
	}
}

func TestEchoScenario(t *testing.T) {
	h := newHarness(t)
	h.nc.AddRecvData(rcFrame(t, mavlink.V2, 5, 1, 2, 3, 4, 5, 6, 7, 8))

	h.r.Fire(7, api.EventRead)
	if h.obs.decoded != 1 || h.obs.responses != 1 {
		t.Fatalf("decoded=%d responses=%d", h.obs.decoded, h.obs.responses)
	}
	if st := h.conn.ParserStatus(); st.LastSeq != 5 || st.PacketsReceived != 1 {
		t.Fatalf("parser status %+v, want seq 5 and one packet", st)
	}
	if h.r.Interest(7)&api.EventWrite == 0 {
		t.Fatal("writable interest not added after scheduling a response")
	}
	if h.conn.Pending() != 1 {
		t.Fatalf("pending = %d, want 1", h.conn.Pending())
	}

	h.r.Fire(7, api.EventWrite)
	resp := decodeAll(t, h.nc.GetSentData())
	if len(resp) != 1 {
		t.Fatalf("got %d responses, want 1", len(resp))
	}
	for i := 0; i < 8; i++ {
		if resp[0].Chan[i] != uint16(i+1) {
			t.Fatalf("chan%d = %d, want %d", i+1, resp[0].Chan[i], i+1)
		}
	}
	if h.r.Interest(7) != api.EventRead {
		t.Fatalf("interest = %v after flush, want r", h.r.Interest(7))
	}
	if h.conn.Pending() != 0 {
		t.Fatal("queue not drained")
	}
	h.assertNoLeaks(t)
}

func TestHandlerSeesWireHeader(t *testing.T) {
	r := fake.NewReactor()
	bp := pool.NewBufferPool()
	var seen []*mavlink.Frame
	d := relay.New(r, bp, relay.HandlerFunc(func(c *relay.Conn, f *mavlink.Frame) (mavlink.Message, bool) {
		cp := *f
		seen = append(seen, &cp)
		return relay.EchoRC{}.Handle(c, f)
	}))
	nc := fake.NewConn(9)
	if _, err := d.Attach(nc); err != nil {
		t.Fatalf("attach: %v", err)
	}
	nc.AddRecvData(rcFrame(t, mavlink.V2, 5, 1000, 2000))
	r.Fire(9, api.EventRead)

	if len(seen) != 1 {
		t.Fatalf("handler saw %d frames, want 1", len(seen))
	}
	f := seen[0]
	if f.Seq != 5 || f.SysID != 1 || f.CompID != 1 || f.MsgID != mavlink.MsgIDRCChannels {
		t.Fatalf("frame header seq=%d sys=%d comp=%d msgid=%d", f.Seq, f.SysID, f.CompID, f.MsgID)
	}
	r.Fire(9, api.EventWrite)
	if resp := decodeAll(t, nc.GetSentData()); len(resp) != 1 || resp[0].Chan[1] != 2000 {
		t.Fatalf("echo = %+v", resp)
	}
}

func TestConnLoggerCarriesID(t *testing.T) {
	var out bytes.Buffer
	h := newHarness(t, relay.WithLogger(zerolog.New(&out)))
	out.Reset()

	h.conn.Logger().Info().Msg("hello")
	line := out.String()
	if !strings.Contains(line, `"conn":"`+h.conn.ID+`"`) || !strings.Contains(line, `"fd":7`) {
		t.Fatalf("log line %q lacks conn id or fd", line)
	}
}

func TestTwoFramesInOneRead(t *testing.T) {
	h := newHarness(t)
	data := append(rcFrame(t, mavlink.V1, 0, 10), rcFrame(t, mavlink.V2, 1, 20)...)
	h.nc.AddRecvData(data)

	h.r.Fire(7, api.EventRead)
	if h.obs.responses != 2 || h.conn.Pending() != 2 {
		t.Fatalf("responses=%d pending=%d, want 2/2", h.obs.responses, h.conn.Pending())
	}
	h.r.Fire(7, api.EventWrite)
	resp := decodeAll(t, h.nc.GetSentData())
	if len(resp) != 2 || resp[0].Chan[0] != 10 || resp[1].Chan[0] != 20 {
		t.Fatalf("responses out of order or missing: %+v", resp)
	}
	h.assertNoLeaks(t)
}

func TestFragmentedFrameAcrossReads(t *testing.T) {
	h := newHarness(t)
	raw := rcFrame(t, mavlink.V2, 0, 1500)
	h.nc.AddRecvData(raw[:4])
	h.r.Fire(7, api.EventRead)
	if h.obs.decoded != 0 {
		t.Fatal("frame emitted before it was complete")
	}
	h.nc.AddRecvData(raw[4:])
	h.r.Fire(7, api.EventRead)
	if h.obs.decoded != 1 || h.obs.responses != 1 {
		t.Fatalf("decoded=%d responses=%d", h.obs.decoded, h.obs.responses)
	}
	h.r.Fire(7, api.EventWrite)
	h.assertNoLeaks(t)
}

func TestUnknownTypeIgnored(t *testing.T) {
	h := newHarness(t)
	enc := mavlink.NewEncoder(mavlink.V2)
	buf := make([]byte, mavlink.MaxPacketLen)
	n, err := enc.Encode(buf, 1, 1, &mavlink.Heartbeat{Type: 2})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	h.nc.AddRecvData(buf[:n])

	h.r.Fire(7, api.EventRead)
	if h.obs.decoded != 1 || h.obs.unknown != 1 || h.obs.responses != 0 {
		t.Fatalf("decoded=%d unknown=%d responses=%d", h.obs.decoded, h.obs.unknown, h.obs.responses)
	}
	if h.r.Interest(7) != api.EventRead {
		t.Fatal("writable interest added without a response")
	}
	h.assertNoLeaks(t)
}

func TestCorruptFrameDropped(t *testing.T) {
	h := newHarness(t)
	raw := rcFrame(t, mavlink.V2, 0, 1)
	raw[len(raw)-1] ^= 0xFF
	h.nc.AddRecvData(raw)

	h.r.Fire(7, api.EventRead)
	if h.obs.dropped != 1 || h.obs.decoded != 0 {
		t.Fatalf("dropped=%d decoded=%d", h.obs.dropped, h.obs.decoded)
	}
	if h.d.Len() != 1 {
		t.Fatal("malformed frame tore the connection down")
	}
}

func TestPartialWriteRetried(t *testing.T) {
	h := newHarness(t)
	h.nc.SetWriteLimit(5)
	h.nc.AddRecvData(rcFrame(t, mavlink.V1, 0, 1, 2, 3))
	h.r.Fire(7, api.EventRead)

	for i := 0; i < 100 && h.conn.Pending() > 0; i++ {
		h.r.Fire(7, api.EventWrite)
		if h.conn.Pending() > 0 && h.r.Interest(7)&api.EventWrite == 0 {
			t.Fatal("writable interest dropped with bytes outstanding")
		}
	}
	if h.obs.partial == 0 {
		t.Fatal("no partial write observed")
	}
	resp := decodeAll(t, h.nc.GetSentData())
	if len(resp) != 1 || resp[0].Chan[2] != 3 {
		t.Fatalf("reassembled response wrong: %+v", resp)
	}
	if h.r.Interest(7) != api.EventRead {
		t.Fatal("writable interest kept after flush")
	}
	h.assertNoLeaks(t)
}

func TestWouldBlockKeepsQueue(t *testing.T) {
	h := newHarness(t)
	h.nc.SetWriteBlocked(true)
	h.nc.AddRecvData(rcFrame(t, mavlink.V2, 0, 9))
	h.r.Fire(7, api.EventRead)
	h.r.Fire(7, api.EventWrite)
	if h.conn.Pending() != 1 || len(h.nc.GetSentData()) != 0 {
		t.Fatal("blocked write consumed the queue")
	}
	h.nc.SetWriteBlocked(false)
	h.r.Fire(7, api.EventWrite)
	if h.conn.Pending() != 0 {
		t.Fatal("queue not flushed after unblock")
	}
	h.assertNoLeaks(t)
}

func TestPeerCloseTearsDown(t *testing.T) {
	var hookReason string
	h := newHarness(t, relay.WithCloseHook(func(_ *relay.Conn, reason string, _ error) { hookReason = reason }))
	h.nc.SetEOF()

	h.r.Fire(7, api.EventRead)
	if h.d.Len() != 0 || !h.conn.Closed() || !h.nc.Closed() {
		t.Fatal("connection not torn down on EOF")
	}
	if h.r.Interest(7) != 0 {
		t.Fatal("descriptor still registered")
	}
	if hookReason != relay.ReasonPeerClosed || h.obs.reasons[0] != relay.ReasonPeerClosed {
		t.Fatalf("reason hook=%q obs=%v", hookReason, h.obs.reasons)
	}
	h.assertNoLeaks(t)
}

func TestTeardownReleasesQueuedBuffers(t *testing.T) {
	h := newHarness(t)
	h.nc.SetWriteLimit(3)
	h.nc.AddRecvData(append(rcFrame(t, mavlink.V2, 0, 1), rcFrame(t, mavlink.V2, 1, 2)...))
	h.r.Fire(7, api.EventRead)
	h.r.Fire(7, api.EventWrite)
	if h.bp.Stats().InUse != 2 {
		t.Fatalf("in use = %d, want 2 (pending and queued)", h.bp.Stats().InUse)
	}

	h.nc.SetWriteError(errors.New("broken pipe"))
	h.r.Fire(7, api.EventWrite)
	if !h.conn.Closed() || h.obs.reasons[0] != relay.ReasonWriteError {
		t.Fatalf("closed=%v reasons=%v", h.conn.Closed(), h.obs.reasons)
	}
	h.assertNoLeaks(t)
}

func TestReadErrorTearsDown(t *testing.T) {
	h := newHarness(t)
	h.nc.SetReadError(errors.New("connection reset"))
	h.r.Fire(7, api.EventRead)
	if h.d.Len() != 0 || h.obs.reasons[0] != relay.ReasonReadError {
		t.Fatalf("len=%d reasons=%v", h.d.Len(), h.obs.reasons)
	}
	h.assertNoLeaks(t)
}

func TestSpuriousReadableIsHarmless(t *testing.T) {
	h := newHarness(t)
	h.r.Fire(7, api.EventRead)
	if h.d.Len() != 1 || h.obs.bytesIn != 0 {
		t.Fatal("would-block read changed state")
	}
	h.assertNoLeaks(t)
}

func TestScheduleOnClosedConnReleases(t *testing.T) {
	h := newHarness(t)
	h.conn.Close()
	if h.nc.Closes() != 1 {
		t.Fatalf("closes = %d, want 1", h.nc.Closes())
	}
	h.conn.Close()
	if h.nc.Closes() != 1 {
		t.Fatal("second Close reached the socket")
	}

	buf := h.bp.Acquire(16)
	if err := h.conn.Schedule(buf); !errors.Is(err, api.ErrTransportClosed) {
		t.Fatalf("err = %v, want ErrTransportClosed", err)
	}
	if buf.Bytes() != nil {
		t.Fatal("caller handle still alive after Schedule")
	}
	h.assertNoLeaks(t)
}

func TestSweepIdle(t *testing.T) {
	now := time.Unix(1000, 0)
	cfg := relay.DefaultConfig()
	cfg.IdleTimeout = 10 * time.Second
	h := newHarness(t, relay.WithConfig(cfg), relay.WithClock(func() time.Time { return now }))

	if n := h.d.SweepIdle(now.Add(5 * time.Second)); n != 0 {
		t.Fatalf("swept %d before timeout", n)
	}
	now = now.Add(8 * time.Second)
	h.nc.AddRecvData(rcFrame(t, mavlink.V2, 0, 1))
	h.r.Fire(7, api.EventRead)
	h.r.Fire(7, api.EventWrite)

	if n := h.d.SweepIdle(now.Add(5 * time.Second)); n != 0 {
		t.Fatal("activity did not refresh the idle clock")
	}
	if n := h.d.SweepIdle(now.Add(10 * time.Second)); n != 1 {
		t.Fatalf("swept %d, want 1", n)
	}
	if h.obs.reasons[0] != relay.ReasonIdleTimeout {
		t.Fatalf("reason = %v", h.obs.reasons)
	}
	h.assertNoLeaks(t)
}

func TestCloseAll(t *testing.T) {
	h := newHarness(t)
	if _, err := h.d.Attach(fake.NewConn(8)); err != nil {
		t.Fatal(err)
	}
	h.d.CloseAll()
	if h.d.Len() != 0 || h.r.Registered() != 0 || h.obs.closed != 2 {
		t.Fatalf("len=%d registered=%d closed=%d", h.d.Len(), h.r.Registered(), h.obs.closed)
	}
}
