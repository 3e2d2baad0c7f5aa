// File: cmd/mavrelay/runtime.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/momentics/hioload-mavrelay/control"
	"github.com/momentics/hioload-mavrelay/internal/logging"
	"github.com/momentics/hioload-mavrelay/pool"
	"github.com/momentics/hioload-mavrelay/protocol/mavlink"
	"github.com/momentics/hioload-mavrelay/relay"
)

// procRuntime is the process-wide plumbing shared by both roles.
type procRuntime struct {
	cfg      control.Config
	log      zerolog.Logger
	pool     *pool.BufferPool
	metrics  *control.Metrics
	probes   *control.DebugProbes
	reloader *control.Reloader
}

func setup(configPath, app string) (*procRuntime, error) {
	envErr := godotenv.Load()

	cfg, err := control.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	logger := logging.New(logging.Options{
		App:    app,
		Level:  cfg.LogLevel,
		Format: logging.Format(cfg.LogFormat),
		Out:    os.Stderr,
	})
	if envErr != nil {
		logger.Debug().Msg("no .env file found, using environment variables")
	}

	rt := &procRuntime{
		cfg:      cfg,
		log:      logger,
		pool:     pool.Default(),
		metrics:  control.NewMetrics(),
		probes:   control.NewDebugProbes(),
		reloader: control.NewReloader(configPath),
	}
	rt.metrics.TrackPool(rt.pool)
	rt.probes.RegisterProbe("pool", func() any { return rt.pool.Stats() })
	rt.probes.RegisterProbe("config", func() any { return rt.cfg })
	control.RegisterPlatformProbes(rt.probes)
	rt.reloader.OnReload(func(c control.Config) {
		lvl := logging.SetLevel(c.LogLevel)
		rt.log.Info().Str("level", lvl.String()).Msg("configuration reloaded")
	})
	return rt, nil
}

func (rt *procRuntime) relayConfig() relay.Config {
	v := mavlink.V2
	if rt.cfg.MavlinkVersion == 1 {
		v = mavlink.V1
	}
	return relay.Config{
		ReadBufferSize: rt.cfg.ReadBufferSize,
		IdleTimeout:    rt.cfg.IdleTimeout,
		SysID:          rt.cfg.SysID,
		CompID:         rt.cfg.CompID,
		Version:        v,
	}
}

// startControl serves metrics and debug state when an address is configured.
func (rt *procRuntime) startControl(ctx context.Context, g *errgroup.Group) {
	if rt.cfg.MetricsAddr == "" {
		return
	}
	h := control.NewRouter(rt.metrics, rt.probes)
	g.Go(func() error {
		rt.log.Info().Str("addr", rt.cfg.MetricsAddr).Msg("control server listening")
		return control.Serve(ctx, rt.cfg.MetricsAddr, h)
	})
}

// handleSignals cancels on SIGINT/SIGTERM and reloads the config on SIGHUP.
func (rt *procRuntime) handleSignals(ctx context.Context, cancel context.CancelFunc) error {
	c := make(chan os.Signal, 2)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(c)
	for {
		select {
		case sig := <-c:
			if sig == syscall.SIGHUP {
				if _, err := rt.reloader.Reload(); err != nil {
					rt.log.Warn().Err(err).Msg("config reload failed")
				}
				continue
			}
			rt.log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
			cancel()
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}
