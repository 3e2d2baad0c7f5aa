//go:build linux

package relay_test

import (
	"context"
	"testing"
	"time"

	"github.com/momentics/hioload-mavrelay/pool"
	"github.com/momentics/hioload-mavrelay/protocol/mavlink"
	"github.com/momentics/hioload-mavrelay/reactor"
	"github.com/momentics/hioload-mavrelay/relay"
	"github.com/momentics/hioload-mavrelay/transport/unixsock"
)

func TestEchoOverSocketPair(t *testing.T) {
	r, err := reactor.New()
	if err != nil {
		t.Fatalf("reactor: %v", err)
	}
	defer r.Close()

	local, peer, err := unixsock.Pair()
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	defer peer.Close()

	bp := pool.NewBufferPool()
	obs := &recorder{}
	d := relay.New(r, bp, relay.EchoRC{}, relay.WithObserver(obs))
	if _, err := d.Attach(local); err != nil {
		t.Fatalf("attach: %v", err)
	}

	const frames = 20
	for i := 0; i < frames; i++ {
		raw := rcFrame(t, mavlink.V2, uint8(i), uint16(1000+i))
		if _, err := peer.Write(raw); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}

	loop := reactor.NewLoop(r, 10*time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	p := mavlink.NewParser(nil)
	var got []uint16
	buf := make([]byte, 4096)
	loop.OnTick(func(time.Time) {
		for {
			n, err := peer.Read(buf)
			if err != nil || n == 0 {
				break
			}
			for _, b := range buf[:n] {
				f, ok := p.Feed(b)
				if !ok {
					continue
				}
				var rc mavlink.RCChannels
				if err := f.Decode(&rc); err != nil {
					t.Errorf("decode: %v", err)
					continue
				}
				got = append(got, rc.Chan[0])
			}
		}
		if len(got) >= frames {
			loop.Stop()
		}
	})
	if err := loop.Run(ctx); err != nil {
		t.Fatalf("loop: %v", err)
	}

	if len(got) != frames {
		t.Fatalf("got %d responses, want %d", len(got), frames)
	}
	for i, v := range got {
		if v != uint16(1000+i) {
			t.Fatalf("response %d carries %d, want %d", i, v, 1000+i)
		}
	}
	if obs.decoded != frames || obs.responses != frames {
		t.Fatalf("decoded=%d responses=%d", obs.decoded, obs.responses)
	}

	d.CloseAll()
	if st := bp.Stats(); st.InUse != 0 || st.Misuse != 0 {
		t.Fatalf("pool stats %+v", st)
	}
}
