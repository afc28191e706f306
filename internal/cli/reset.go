package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kairos-track/kairos/internal/storage"
)

// NewResetCommand creates the reset command: wipe every durable table
// and the outbox, as a logout would.
func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Wipe all local data",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmed {
				return fmt.Errorf("refusing to wipe without --yes")
			}
			cfg, err := LoadConfig(rootOpts.ConfigPath)
			if err != nil {
				return err
			}
			store, err := storage.Open(cfg.Database)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.WipeTables(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "local data wiped")
			return nil
		},
	}

	cmd.Flags().BoolVar(&confirmed, "yes", false, "confirm the wipe")
	return cmd
}
