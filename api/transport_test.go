package api_test

import (
	"errors"
	"testing"

	"github.com/momentics/hioload-mavrelay/api"
)

func TestNetConnInterfaceCompliance(t *testing.T) {
	var c api.NetConn = (*mockConn)(nil)
	if _, err := c.Read(nil); !errors.Is(err, api.ErrWouldBlock) {
		t.Fatalf("Read err = %v", err)
	}
}

func TestEventErrorString(t *testing.T) {
	if got := (api.EventWrite | api.EventError).String(); got != "we" {
		t.Fatalf("got %q", got)
	}
}

// mockConn implements api.NetConn for the interface check
type mockConn struct{}

func (*mockConn) Read([]byte) (int, error)  { return 0, api.ErrWouldBlock }
func (*mockConn) Write([]byte) (int, error) { return 0, api.ErrWouldBlock }
func (*mockConn) Close() error              { return nil }
func (*mockConn) RawFD() int                { return -1 }
