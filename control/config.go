// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Relay configuration: defaults < TOML file < environment.

package control

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MAVRELAY_"

// Config holds every tunable of the relay binaries.
type Config struct {
	SocketPath     string        `env:"SOCKET_PATH"`
	Backlog        int           `env:"BACKLOG"`
	ReadBufferSize int           `env:"READ_BUFFER_SIZE"`
	IdleTimeout    time.Duration `env:"IDLE_TIMEOUT"`
	Tick           time.Duration `env:"TICK"`
	CPU            int           `env:"CPU"` // pin the event loop; -1 disables

	SysID          uint8 `env:"SYSID"`
	CompID         uint8 `env:"COMPID"`
	MavlinkVersion int   `env:"MAVLINK_VERSION"`

	MetricsAddr string `env:"METRICS_ADDR"`
	LogLevel    string `env:"LOG_LEVEL"`
	LogFormat   string `env:"LOG_FORMAT"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		SocketPath:     "/tmp/mavrelay.sock",
		Backlog:        5,
		ReadBufferSize: 1024,
		Tick:           250 * time.Millisecond,
		CPU:            -1,
		SysID:          1,
		CompID:         1,
		MavlinkVersion: 2,
		LogLevel:       "info",
		LogFormat:      "console",
	}
}

type fileConfig struct {
	SocketPath     string `toml:"socket_path"`
	Backlog        int    `toml:"backlog"`
	ReadBufferSize int    `toml:"read_buffer_size"`
	IdleTimeout    string `toml:"idle_timeout"`
	Tick           string `toml:"tick"`
	CPU            int    `toml:"cpu"`
	SysID          uint8  `toml:"sysid"`
	CompID         uint8  `toml:"compid"`
	MavlinkVersion int    `toml:"mavlink_version"`
	MetricsAddr    string `toml:"metrics_addr"`
	LogLevel       string `toml:"log_level"`
	LogFormat      string `toml:"log_format"`
}

// LoadConfig builds a Config from defaults, the optional TOML file at path
// and the environment, then validates it.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("socket_path") {
		cfg.SocketPath = strings.TrimSpace(raw.SocketPath)
	}
	if meta.IsDefined("backlog") {
		cfg.Backlog = raw.Backlog
	}
	if meta.IsDefined("read_buffer_size") {
		cfg.ReadBufferSize = raw.ReadBufferSize
	}
	if meta.IsDefined("idle_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.IdleTimeout))
		if err != nil {
			return fmt.Errorf("parse idle_timeout: %w", err)
		}
		cfg.IdleTimeout = d
	}
	if meta.IsDefined("tick") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Tick))
		if err != nil {
			return fmt.Errorf("parse tick: %w", err)
		}
		cfg.Tick = d
	}
	if meta.IsDefined("cpu") {
		cfg.CPU = raw.CPU
	}
	if meta.IsDefined("sysid") {
		cfg.SysID = raw.SysID
	}
	if meta.IsDefined("compid") {
		cfg.CompID = raw.CompID
	}
	if meta.IsDefined("mavlink_version") {
		cfg.MavlinkVersion = raw.MavlinkVersion
	}
	if meta.IsDefined("metrics_addr") {
		cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = raw.LogLevel
	}
	if meta.IsDefined("log_format") {
		cfg.LogFormat = raw.LogFormat
	}
	return nil
}

// Validate rejects configurations the relay cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.SocketPath == "" {
		errs = append(errs, errors.New("socket_path is empty"))
	}
	if len(c.SocketPath) >= 108 {
		errs = append(errs, fmt.Errorf("socket_path longer than 107 bytes: %q", c.SocketPath))
	}
	if c.ReadBufferSize <= 0 {
		errs = append(errs, fmt.Errorf("read_buffer_size must be positive, got %d", c.ReadBufferSize))
	}
	if c.IdleTimeout < 0 {
		errs = append(errs, fmt.Errorf("idle_timeout must not be negative, got %s", c.IdleTimeout))
	}
	if c.Tick < time.Millisecond {
		errs = append(errs, fmt.Errorf("tick must be at least 1ms, got %s", c.Tick))
	}
	if c.MavlinkVersion != 1 && c.MavlinkVersion != 2 {
		errs = append(errs, fmt.Errorf("mavlink_version must be 1 or 2, got %d", c.MavlinkVersion))
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format must be console or json, got %q", c.LogFormat))
	}
	return errors.Join(errs...)
}
