// Package cli wires the sync core into a command-line shell: open the
// row store, build the initial snapshot, run the store manager and
// sync manager, and expose a few inspection commands. The core itself
// has no command surface; everything here is glue.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// RootOptions holds flags shared by every command.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
}

// NewRootCommand creates the kairos root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "kairos",
		Short:         "Offline-first time tracking sync core",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if opts.Verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			})))
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to yaml config")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewResetCommand(opts))

	return cmd
}

// Execute runs the root command and returns a process exit code.
func Execute() int {
	if err := NewRootCommand().Execute(); err != nil {
		slog.Error("command failed", "error", err)
		return 1
	}
	return 0
}
