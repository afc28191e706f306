package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kairos-track/kairos/internal/dispatch"
	"github.com/kairos-track/kairos/internal/remote"
	"github.com/kairos-track/kairos/internal/settings"
	"github.com/kairos-track/kairos/internal/state"
	"github.com/kairos-track/kairos/internal/storage"
	"github.com/kairos-track/kairos/internal/syncer"
)

// NewRunCommand creates the run command: open the store, build the
// initial snapshot, and run the pipeline until interrupted.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the sync pipeline",
		Long: `Run the store manager and sync manager until interrupted.

The row store is opened (created on first run), the snapshot is
rebuilt from persisted rows, and the sync manager starts draining the
outbox whenever the network allows.

Example:
  kairos run --config ~/.kairos/config.yaml --verbose`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd.Context(), rootOpts)
		},
	}
}

// bootstrap opens every collaborator and builds the initial snapshot.
func bootstrap(ctx context.Context, cfg Config) (*storage.Store, *dispatch.Manager, error) {
	slog.Info("opening row store", "path", cfg.Database)
	store, err := storage.Open(cfg.Database)
	if err != nil {
		return nil, nil, err
	}

	keeper := settings.NewFileKeeper(cfg.Settings)
	prefs := state.DefaultSettings()
	if blob, err := keeper.Load(); err != nil {
		slog.Warn("settings unreadable, using defaults", "error", err)
	} else if blob != nil {
		if err := json.Unmarshal(blob, &prefs); err != nil {
			slog.Warn("settings corrupt, using defaults", "error", err)
			prefs = state.DefaultSettings()
		}
	}

	rows, err := store.All(ctx)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	snap := state.Init(rows, prefs)
	slog.Info("snapshot initialized",
		"workspaces", len(snap.Workspaces),
		"projects", len(snap.Projects),
		"time_entries", len(snap.TimeEntries),
	)

	mgr := dispatch.New(store, snap, dispatch.WithSettingsKeeper(keeper))
	return store, mgr, nil
}

func runPipeline(ctx context.Context, rootOpts *RootOptions) error {
	cfg, err := LoadConfig(rootOpts.ConfigPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, mgr, err := bootstrap(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	client := remote.NewHTTPClient(cfg.API.BaseURL, cfg.API.Token)
	sync := syncer.New(mgr, store, client, syncer.AlwaysOnline{})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return mgr.Run(ctx) })
	g.Go(func() error { return sync.Run(ctx) })

	fmt.Fprintln(os.Stderr, "kairos running, press Ctrl+C to stop")
	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
