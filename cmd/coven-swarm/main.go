// ABOUTME: Entry point for coven-swarm
// ABOUTME: Runs a swarm of tool-using agents and inspects their saved state

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/2389/coven-swarm/internal/config"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
  ___ _____   _____ _ __        _____      ____ _ _ __ _ __ ___
 / __/ _ \ \ / / _ \ '_ \ _____/ __\ \ /\ / / _' | '__| '_ ' _ \
| (_| (_) \ V /  __/ | | |_____\__ \\ V  V / (_| | |  | | | | | |
 \___\___/ \_/ \___|_| |_|     |___/ \_/\_/ \__,_|_|  |_| |_| |_|
`

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:           "coven-swarm",
		Short:         "Run a swarm of tool-using LLM agents",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "config file (.yaml or .toml)")

	cmd.AddCommand(runCmd(&configPath))
	cmd.AddCommand(agentsCmd(&configPath))
	cmd.AddCommand(showCmd(&configPath))
	cmd.AddCommand(initCmd(&configPath))
	return cmd
}
