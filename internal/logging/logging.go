// File: internal/logging/logging.go
// Author: momentics <momentics@gmail.com>
//
// zerolog setup shared by the binaries and tests.

package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Format selects the log encoder.
type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
)

// Options configures New.
type Options struct {
	App    string
	Level  string
	Format Format
	Out    io.Writer
}

// ParseLevel maps a config string to a zerolog level. Unknown or empty
// strings fall back to info.
func ParseLevel(raw string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off", "none":
		return zerolog.Disabled
	}
	return zerolog.InfoLevel
}

// New builds the process logger and installs it as the zerolog global.
func New(o Options) zerolog.Logger {
	out := o.Out
	if out == nil {
		out = os.Stdout
	}
	if o.Format != FormatJSON {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	SetLevel(o.Level)
	logger := zerolog.New(out).With().Timestamp().Str("app", o.App).Logger()
	log.Logger = logger
	return logger
}

// SetLevel changes the process-wide minimum level. Loggers built by New
// follow it, so a config reload takes effect immediately.
func SetLevel(raw string) zerolog.Level {
	lvl := ParseLevel(raw)
	zerolog.SetGlobalLevel(lvl)
	return lvl
}

// ForTest returns a debug-level console logger on w, or Nop when w is nil.
func ForTest(w io.Writer) zerolog.Logger {
	if w == nil {
		return zerolog.Nop()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).Level(zerolog.DebugLevel)
}
