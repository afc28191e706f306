package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kairos-track/kairos/internal/storage"
)

// NewStatusCommand creates the status command: print the active entry
// and the outbox depth without starting the pipeline.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the active entry and pending sync work",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(rootOpts.ConfigPath)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			store, mgr, err := bootstrap(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			snap := mgr.Current()
			now := time.Now().UTC()
			if entry, running := snap.ActiveEntry(now); running {
				rich := snap.Rich(entry)
				line := fmt.Sprintf("tracking %q for %s", entry.Description, entry.Duration(now).Round(time.Second))
				if rich.Info.Project != nil {
					line += fmt.Sprintf(" on %s", rich.Info.Project.Name)
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "no entry running")
			}

			pending, err := store.QueueSize(ctx, storage.SyncQueue)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "outbox: %d pending mutation(s)\n", pending)
			return nil
		},
	}
}
