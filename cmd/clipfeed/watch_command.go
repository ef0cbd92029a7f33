package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"clipfeed/internal/logging"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run cycles on the configured interval until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			app, err := buildApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			// One watcher per state dir; a second instance would race
			// the processed store and double-post clips.
			lock := flock.New(filepath.Join(cfg.Paths.StateDir, "clipfeed.lock"))
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire instance lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another clipfeed instance is already watching (lock at %s)", lock.Path())
			}
			defer func() {
				_ = lock.Unlock()
			}()

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			interval := time.Duration(cfg.Workflow.ScanIntervalMinutes) * time.Minute
			app.logger.Info("watch started",
				logging.String(logging.FieldEventType, "watch_started"),
				logging.Duration("interval", interval),
				logging.Int("channels", len(cfg.Channels)))

			// First cycle runs immediately, then on the interval.
			if err := app.pipeline.RunCycle(runCtx); err != nil && runCtx.Err() == nil {
				app.logger.Error("cycle failed", logging.Error(err))
			}

			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-runCtx.Done():
					app.logger.Info("watch stopping",
						logging.String(logging.FieldEventType, "watch_stopped"))
					return nil
				case <-ticker.C:
					if err := app.pipeline.RunCycle(runCtx); err != nil && runCtx.Err() == nil {
						app.logger.Error("cycle failed", logging.Error(err))
					}
				}
			}
		},
	}
}
