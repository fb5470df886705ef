// ABOUTME: Inspection commands: list stored agents and show one agent's state
// ABOUTME: Read directly from the configured SQLite database

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/2389/coven-swarm/internal/agent"
	"github.com/2389/coven-swarm/internal/config"
	"github.com/2389/coven-swarm/internal/store"
)

func agentsCmd(configPath *string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "agents",
		Short: "List stored agents, most recently active first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(*configPath)
			if err != nil {
				return err
			}
			defer st.Close()
			return listAgents(cmd.Context(), st, limit, os.Stdout)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum agents to list")
	return cmd
}

func showCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show <agent-id>",
		Short: "Print an agent's stored state as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(*configPath)
			if err != nil {
				return err
			}
			defer st.Close()
			return showAgent(cmd.Context(), st, args[0], os.Stdout)
		},
	}
}

func openStore(configPath string) (*store.SQLiteStore, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return st, nil
}

func listAgents(ctx context.Context, st store.AgentStateStore, limit int, out io.Writer) error {
	persistence := agent.NewStorePersistence(st)
	ids, err := persistence.ListIDs(ctx, limit)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Fprintln(out, "No agents stored yet.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPASSES\tUPDATED\tNEXT INSTRUCTION")
	for _, id := range ids {
		state, err := persistence.Load(ctx, id)
		if err != nil {
			fmt.Fprintf(tw, "%s\t%s\t\t\t\n", id, color.RedString("unreadable"))
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			state.ID,
			state.Name,
			state.Passes,
			state.UpdatedAt.Local().Format("2006-01-02 15:04"),
			oneLine(state.NextInstruction(), 60),
		)
	}
	return tw.Flush()
}

func showAgent(ctx context.Context, st store.AgentStateStore, id string, out io.Writer) error {
	data, err := st.GetAgentState(ctx, id)
	if err != nil {
		return fmt.Errorf("agent %s: %w", id, err)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, "", "  "); err != nil {
		return fmt.Errorf("formatting agent state: %w", err)
	}
	pretty.WriteByte('\n')
	_, err = pretty.WriteTo(out)
	return err
}

// oneLine collapses newlines and truncates for table output.
func oneLine(s string, maxLen int) string {
	runes := []rune(s)
	for i, r := range runes {
		if r == '\n' || r == '\r' || r == '\t' {
			runes[i] = ' '
		}
	}
	if len(runes) <= maxLen {
		return string(runes)
	}
	return string(runes[:maxLen]) + "..."
}
