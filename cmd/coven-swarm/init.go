// ABOUTME: The init command writes a starter config file
// ABOUTME: Existing files are never overwritten

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/2389/coven-swarm/internal/config"
)

func initCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteExample(*configPath); err != nil {
				return err
			}

			green := color.New(color.FgGreen)
			green.Print("✓ ")
			fmt.Printf("Wrote %s\n", *configPath)
			fmt.Println("  Edit the agents and inference sections, then run: coven-swarm run")
			return nil
		},
	}
}
