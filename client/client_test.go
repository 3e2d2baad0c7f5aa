//go:build linux

package client_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/momentics/hioload-mavrelay/api"
	"github.com/momentics/hioload-mavrelay/client"
	"github.com/momentics/hioload-mavrelay/pool"
	"github.com/momentics/hioload-mavrelay/relay"
	"github.com/momentics/hioload-mavrelay/server"
	"github.com/momentics/hioload-mavrelay/transport/unixsock"
)

func startServer(t *testing.T) (*server.Server, string) {
	t.Helper()
	cfg := server.DefaultConfig()
	cfg.SocketPath = filepath.Join(t.TempDir(), "relay.sock")
	cfg.Tick = 20 * time.Millisecond
	srv, err := server.NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- srv.Run(context.Background()) }()
	t.Cleanup(func() {
		srv.Shutdown()
		<-done
	})
	return srv, cfg.SocketPath
}

func clientConfig(path string, rounds int) *client.Config {
	cfg := client.DefaultConfig()
	cfg.SocketPath = path
	cfg.Rounds = rounds
	cfg.Tick = 20 * time.Millisecond
	return cfg
}

func TestClientCompletesRounds(t *testing.T) {
	_, path := startServer(t)
	bp := pool.NewBufferPool()
	c, err := client.New(clientConfig(path, 10), client.WithBufferPool(bp))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if ctx.Err() != nil {
		t.Fatal("rounds not completed before the deadline")
	}
	if got := c.Received(); got != 10 {
		t.Fatalf("received = %d, want 10", got)
	}
	if st := bp.Stats(); st.InUse != 0 || st.Misuse != 0 {
		t.Fatalf("pool stats %+v", st)
	}
}

func TestClientReportsEarlyPeerClose(t *testing.T) {
	srv, path := startServer(t)
	c, err := client.New(clientConfig(path, 1<<30))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background()) }()

	deadline := time.Now().Add(3 * time.Second)
	for c.Received() < 5 {
		if time.Now().After(deadline) {
			t.Fatal("no traffic")
		}
		time.Sleep(5 * time.Millisecond)
	}
	srv.Shutdown()

	err = <-done
	var ae *api.Error
	if !errors.As(err, &ae) || ae.Code != api.ErrCodePeer {
		t.Fatalf("err = %v, want peer error", err)
	}
}

func TestClientStopsOnCancel(t *testing.T) {
	_, path := startServer(t)
	c, err := client.New(clientConfig(path, 0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if c.Received() == 0 {
		t.Fatal("no round trip happened")
	}
}

func TestClientIdleTimeout(t *testing.T) {
	// A listener nobody accepts from: the connect completes in the backlog
	// but no byte ever comes back.
	path := filepath.Join(t.TempDir(), "silent.sock")
	lfd, err := unixsock.Listen(path, 1)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	t.Cleanup(func() {
		_ = unixsock.CloseFD(lfd)
		_ = unixsock.Remove(path)
	})

	cfg := clientConfig(path, 3)
	cfg.Tick = 10 * time.Millisecond
	cfg.Relay.IdleTimeout = 50 * time.Millisecond
	c, err := client.New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = c.Run(ctx)
	if ctx.Err() != nil {
		t.Fatal("idle connection was never swept")
	}
	var ae *api.Error
	if !errors.As(err, &ae) || ae.Code != api.ErrCodePeer {
		t.Fatalf("err = %v, want peer error", err)
	}
	if ae.Context["reason"] != relay.ReasonIdleTimeout {
		t.Fatalf("reason = %v, want %s", ae.Context["reason"], relay.ReasonIdleTimeout)
	}
}

func TestClientDialFailure(t *testing.T) {
	_, err := client.New(clientConfig(filepath.Join(t.TempDir(), "nobody.sock"), 1))
	if !api.IsSetup(err) {
		t.Fatalf("err = %v, want setup error", err)
	}
}

func TestClientRejectsNegativeRounds(t *testing.T) {
	if _, err := client.New(clientConfig("/tmp/unused.sock", -1)); err == nil {
		t.Fatal("negative rounds accepted")
	}
}
