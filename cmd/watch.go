package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/pricewatch/internal/refresh"
)

// watchCommand returns the command running the scan scheduler with
// periodic auto-refresh until interrupted.
func watchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run the price watcher",
		Long: `Run the scan scheduler and the periodic auto-refresh loop.
The watcher runs continuously until interrupted with Ctrl+C.`,
		RunE: runWatch,
	}
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	deps, err := newAppDeps(ctx)
	if err != nil {
		return err
	}
	defer deps.Close()

	refresher := refresh.New(
		deps.Products,
		deps.Scheduler,
		deps.Bus,
		deps.Logger,
		deps.Config.Refresh.Schedule,
	)

	if deps.Config.Refresh.Enabled {
		if startErr := refresher.Start(ctx); startErr != nil {
			return fmt.Errorf("failed to start auto refresh: %w", startErr)
		}
		defer refresher.Stop()

		// Kick off one pass immediately so a fresh start does not wait
		// for the first cron tick.
		refresher.RefreshAll(ctx)
	}

	deps.Logger.Info("price watcher running")
	<-ctx.Done()
	deps.Logger.Info("shutdown signal received")

	return nil
}
