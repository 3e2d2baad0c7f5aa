package main

import (
	"strings"
	"testing"

	"github.com/momentics/hioload-mavrelay/control"
	"github.com/momentics/hioload-mavrelay/protocol/mavlink"
)

func TestClientRejectsBadRoundCount(t *testing.T) {
	path := ""
	for _, arg := range []string{"x", "-3"} {
		cmd := clientCmd(&path)
		cmd.SetArgs([]string{"--", arg})
		err := cmd.Execute()
		if err == nil || !strings.Contains(err.Error(), "invalid round count") {
			t.Fatalf("arg %q: err = %v", arg, err)
		}
	}
}

func TestRelayConfigMapping(t *testing.T) {
	rt := &procRuntime{cfg: control.DefaultConfig()}
	rt.cfg.MavlinkVersion = 1
	rt.cfg.SysID = 42
	rc := rt.relayConfig()
	if rc.Version != mavlink.V1 || rc.SysID != 42 || rc.CompID != 1 || rc.ReadBufferSize != 1024 {
		t.Fatalf("unexpected relay config %+v", rc)
	}
}
