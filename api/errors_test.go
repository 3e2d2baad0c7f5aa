package api_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/momentics/hioload-mavrelay/api"
)

func TestStructuredErrorWrapping(t *testing.T) {
	base := errors.New("address in use")
	err := api.Wrap(api.ErrCodeSetup, "bind", base).WithContext("path", "/tmp/x.sock")
	wrapped := fmt.Errorf("server: %w", err)

	if !errors.Is(wrapped, base) {
		t.Fatal("cause lost through wrapping")
	}
	if !api.IsSetup(wrapped) {
		t.Fatal("setup code not detected")
	}
	if !strings.Contains(err.Error(), "/tmp/x.sock") || !strings.Contains(err.Error(), "address in use") {
		t.Fatalf("message = %q", err.Error())
	}
	if api.IsSetup(base) {
		t.Fatal("plain error reported as setup")
	}
}

func TestEventMaskString(t *testing.T) {
	if got := (api.EventRead | api.EventWrite).String(); got != "rw" {
		t.Fatalf("got %q", got)
	}
	if got := api.EventMask(0).String(); got != "-" {
		t.Fatalf("got %q", got)
	}
}

func TestErrorCodeString(t *testing.T) {
	cases := map[api.ErrorCode]string{
		api.ErrCodeInvalidArgument: "invalid_argument",
		api.ErrCodeSetup:           "setup",
		api.ErrCodePeer:            "peer",
		api.ErrCodeProtocol:        "protocol",
		api.ErrCodeInternal:        "internal",
		api.ErrorCode(0):           "code(0)",
	}
	for code, want := range cases {
		if got := code.String(); got != want {
			t.Errorf("%d: got %q, want %q", int(code), got, want)
		}
	}
}
