// File: cmd/mavrelay/client.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/momentics/hioload-mavrelay/client"
)

func clientCmd(configPath *string) *cobra.Command {
	var socketPath string

	cmd := &cobra.Command{
		Use:   "client <n>",
		Short: "Connect to the server and run n RC_CHANNELS round trips",
		Long: `Connect to the relay server, send one RC_CHANNELS frame and answer each
response until n responses have been received. n = 0 runs until the server
goes away or the process is interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rounds, err := strconv.Atoi(args[0])
			if err != nil || rounds < 0 {
				return fmt.Errorf("invalid round count %q", args[0])
			}
			rt, err := setup(*configPath, "mavrelay-client")
			if err != nil {
				return err
			}
			if socketPath != "" {
				rt.cfg.SocketPath = socketPath
			}

			cfg := &client.Config{
				SocketPath: rt.cfg.SocketPath,
				Rounds:     rounds,
				Tick:       rt.cfg.Tick,
				CPU:        rt.cfg.CPU,
				Relay:      rt.relayConfig(),
			}
			c, err := client.New(cfg,
				client.WithLogger(rt.log),
				client.WithObserver(rt.metrics),
				client.WithBufferPool(rt.pool),
			)
			if err != nil {
				return err
			}
			rt.probes.RegisterProbe("received", func() any { return c.Received() })

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				defer cancel()
				return c.Run(ctx)
			})
			rt.startControl(ctx, g)
			g.Go(func() error { return rt.handleSignals(ctx, cancel) })

			if err := g.Wait(); err != nil {
				return err
			}
			rt.log.Info().Int64("received", c.Received()).Int("requested", rounds).Msg("relay client finished")
			return nil
		},
	}
	cmd.Flags().StringVarP(&socketPath, "socket", "s", "", "socket path (overrides config)")
	return cmd
}
