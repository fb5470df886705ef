// ABOUTME: The run command: wires store, inference, apps and bridges into a swarm
// ABOUTME: Bridges and the swarm loop share one errgroup and stop together

package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/2389/coven-swarm/internal/agent"
	"github.com/2389/coven-swarm/internal/builtins"
	"github.com/2389/coven-swarm/internal/config"
	"github.com/2389/coven-swarm/internal/inference"
	"github.com/2389/coven-swarm/internal/store"
	"github.com/2389/coven-swarm/internal/swarm"
	"github.com/2389/coven-swarm/internal/tools"
)

func runCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the swarm loop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSwarm(cmd.Context(), *configPath)
		},
	}
}

// bridge is an app with its own connection loop.
type bridge interface {
	tools.Provider
	Run(ctx context.Context) error
}

func runSwarm(ctx context.Context, configPath string) error {
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("Database:  %s\n", cfg.Database.Path)
	green.Print("    ▶ ")
	fmt.Printf("Model:     %s/%s\n", cfg.Inference.Provider, cfg.Inference.Model)
	green.Print("    ▶ ")
	fmt.Printf("Agents:    %s\n", agentNames(cfg.Agents))
	if cfg.Swarm.Passes == 0 {
		green.Print("    ▶ ")
		fmt.Print("Rounds:    ")
		yellow.Println("until interrupted")
	} else {
		green.Print("    ▶ ")
		fmt.Printf("Rounds:    %d\n", cfg.Swarm.Passes)
	}
	if cfg.Matrix.Enabled {
		green.Print("    ▶ ")
		fmt.Printf("Matrix:    %s", cfg.Matrix.RoomID)
		if cfg.Matrix.Encryption {
			fmt.Print(" (encrypted)")
		}
		fmt.Println()
	}
	if cfg.Discord.Enabled {
		green.Print("    ▶ ")
		fmt.Printf("Discord:   %s\n", cfg.Discord.ChannelID)
	}
	fmt.Println()

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	toolClient, engineClient, err := newInferenceClients(cfg.Inference, logger)
	if err != nil {
		return err
	}

	shared := []tools.Provider{
		builtins.NewChat(st, cfg.Chat.ChannelID, cfg.Chat.EchoWindow, logger),
		builtins.NewMemory(st, toolClient, logger),
		builtins.NewPersona(st, toolClient, logger),
	}
	bridges, err := newBridges(cfg, logger)
	if err != nil {
		return err
	}
	for _, b := range bridges {
		shared = append(shared, b)
	}

	logger.Info("starting coven-swarm",
		"config", configPath,
		"agents", len(cfg.Agents),
		"bridges", len(bridges),
	)

	sw, err := swarm.New(ctx, swarm.Options{
		Agents:    cfg.Agents,
		Engine:    agent.EngineConfig{MaxBackground: cfg.Engine.MaxBackground},
		Passes:    cfg.Swarm.Passes,
		PassDelay: cfg.Swarm.PassDelay,
	}, shared, engineClient, agent.NewStorePersistence(st), logger)
	if err != nil {
		return fmt.Errorf("creating swarm: %w", err)
	}

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	g, gctx := errgroup.WithContext(runCtx)
	for _, b := range bridges {
		g.Go(func() error {
			return b.Run(gctx)
		})
	}
	g.Go(func() error {
		// Bridges stop when the swarm finishes its rounds.
		defer stop()
		return sw.Run(gctx)
	})

	return g.Wait()
}

func newBridges(cfg *config.Config, logger *slog.Logger) ([]bridge, error) {
	var bridges []bridge
	if cfg.Matrix.Enabled {
		m, err := builtins.NewMatrix(builtins.MatrixOptions{
			Homeserver:  cfg.Matrix.Homeserver,
			UserID:      cfg.Matrix.UserID,
			AccessToken: cfg.Matrix.AccessToken,
			RoomID:      cfg.Matrix.RoomID,
			DeviceID:    cfg.Matrix.DeviceID,
			Encryption:  cfg.Matrix.Encryption,
			RecoveryKey: cfg.Matrix.RecoveryKey,
			CryptoDir:   cfg.Matrix.CryptoDir,
		}, logger)
		if err != nil {
			return nil, err
		}
		bridges = append(bridges, m)
	}
	if cfg.Discord.Enabled {
		d, err := builtins.NewDiscord(cfg.Discord.Token, cfg.Discord.ChannelID, logger)
		if err != nil {
			return nil, err
		}
		bridges = append(bridges, d)
	}
	return bridges, nil
}

// newInferenceClients builds one backend and two views of it: the tool
// client used by apps, and the engine client whose retries also reject
// replies that do not match the run schema. Both draw from the same
// rate limiter.
func newInferenceClients(cfg config.InferenceConfig, logger *slog.Logger) (tool, engine inference.Client, err error) {
	tool, err = inference.New(inferenceOptions(cfg), logger)
	if err != nil {
		return nil, nil, fmt.Errorf("creating inference client: %w", err)
	}
	return tool, inference.WithValidator(tool, agent.ValidateReply), nil
}

func inferenceOptions(cfg config.InferenceConfig) inference.Options {
	return inference.Options{
		Provider:          cfg.Provider,
		BaseURL:           cfg.BaseURL,
		Model:             cfg.Model,
		APIKey:            cfg.APIKey,
		Timeout:           cfg.Timeout,
		ContextWindow:     cfg.ContextWindow,
		MaxAttempts:       cfg.MaxAttempts,
		RetryDelay:        cfg.RetryDelay,
		RequestsPerMinute: cfg.RequestsPerMinute,
	}
}

func agentNames(agents []config.AgentConfig) string {
	names := make([]string, len(agents))
	for i, a := range agents {
		names[i] = a.Name
	}
	return strings.Join(names, ", ")
}
