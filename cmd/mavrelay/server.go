// File: cmd/mavrelay/server.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package main

import (
	"context"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/momentics/hioload-mavrelay/server"
)

func serverCmd(configPath *string) *cobra.Command {
	var socketPath string

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Listen on the unix socket and echo RC_CHANNELS frames",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(*configPath, "mavrelay-server")
			if err != nil {
				return err
			}
			if socketPath != "" {
				rt.cfg.SocketPath = socketPath
			}

			cfg := &server.Config{
				SocketPath: rt.cfg.SocketPath,
				Backlog:    rt.cfg.Backlog,
				Tick:       rt.cfg.Tick,
				CPU:        rt.cfg.CPU,
				Relay:      rt.relayConfig(),
			}
			srv, err := server.NewServer(cfg,
				server.WithLogger(rt.log),
				server.WithObserver(rt.metrics),
				server.WithBufferPool(rt.pool),
			)
			if err != nil {
				return err
			}
			rt.probes.RegisterProbe("connections", func() any {
				return map[string]any{"active": srv.Active(), "accepted": srv.Accepted()}
			})

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				defer cancel()
				return srv.Run(ctx)
			})
			rt.startControl(ctx, g)
			g.Go(func() error { return rt.handleSignals(ctx, cancel) })

			if err := g.Wait(); err != nil {
				return err
			}
			rt.log.Info().Msg("relay server stopped")
			return nil
		},
	}
	cmd.Flags().StringVarP(&socketPath, "socket", "s", "", "socket path (overrides config)")
	return cmd
}
