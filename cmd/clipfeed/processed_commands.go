package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"clipfeed/internal/processed"
)

func newProcessedCommand(ctx *commandContext) *cobra.Command {
	processedCmd := &cobra.Command{
		Use:   "processed",
		Short: "Inspect or reset the processed-video store",
	}
	processedCmd.AddCommand(newProcessedListCommand(ctx))
	processedCmd.AddCommand(newProcessedClearCommand(ctx))
	return processedCmd
}

func openStore(ctx *commandContext, cmd *cobra.Command) (*processed.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	return processed.Open(cmd.Context(), filepath.Join(cfg.Paths.StateDir, "processed.db"))
}

func newProcessedListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List processed videos, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(ctx, cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.All(cmd.Context())
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No processed videos recorded.")
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Video ID", "Channel", "Title", "Processed At"})
			for _, entry := range entries {
				processedAt := ""
				if !entry.ProcessedAt.IsZero() {
					processedAt = entry.ProcessedAt.Local().Format(time.RFC3339)
				}
				t.AppendRow(table.Row{entry.VideoID, entry.Channel, entry.Title, processedAt})
			}
			t.Render()
			return nil
		},
	}
}

func newProcessedClearCommand(ctx *commandContext) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Forget every processed video",
		Long: "Forget every processed video. The next scan treats anything still " +
			"inside the recency window as new, so fresh uploads may be clipped again.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear without --yes")
			}
			store, err := openStore(ctx, cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			count, err := store.Count(cmd.Context())
			if err != nil {
				return err
			}
			if err := store.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d processed entries.\n", count)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm clearing the store")
	return cmd
}
