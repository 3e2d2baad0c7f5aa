// File: cmd/mavrelay/main.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/momentics/hioload-mavrelay/api"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "mavrelay",
		Short: "Event-driven MAVLink relay over a unix socket",
		Long: `mavrelay answers every RC_CHANNELS frame it receives on a unix-domain
socket with a fresh RC_CHANNELS frame carrying the same values.

Run "mavrelay server" on one side and "mavrelay client <n>" on the other.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "TOML config file")

	rootCmd.AddCommand(
		serverCmd(&configPath),
		clientCmd(&configPath),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		if api.IsSetup(err) {
			log.Fatal().Err(err).Msg("setup failed")
		}
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("mavrelay %s (%s)\n", version, commit)
		},
	}
}
