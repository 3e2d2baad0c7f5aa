//go:build !linux

// File: reactor/reactor_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementation for unsupported platforms.

package reactor

import (
	"errors"

	"github.com/momentics/hioload-mavrelay/api"
)

// New returns an error for unsupported platforms.
func New(opts ...Option) (api.Reactor, error) {
	return nil, errors.New("reactor: this platform is not supported")
}
