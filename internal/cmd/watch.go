package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kindaran/pia-stats/internal/source"
	"github.com/kindaran/pia-stats/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch [paths...]",
	Short: "Re-export a log to CSV every time it changes",
	Long: `Export each log once, then keep watching it and export it again after
every change, once writes have settled for the debounce interval
(watch.debounce, default 2s). A failed export is logged and watching
continues.

Examples:
  piastats watch /home/kindaran/Logs/speedtest.log -d /home/kindaran/Logs`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	// --- Set up context with graceful shutdown ---
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("shutting down")
			cancel()
		case <-ctx.Done():
		}
	}()

	// --- Resolve inputs and start watching ---
	paths, err := source.Expand(inputs(args))
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no files matched the given patterns: %v", inputs(args))
	}

	w, err := watcher.New(paths, logger)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	logger.Info("watching", zap.Strings("paths", w.Paths()), zap.Duration("debounce", cfg.Watch.Debounce))

	runner := newRunner()
	export := func(path string) {
		res, err := runner.Run(ctx, path)
		switch {
		case err != nil:
			logger.Error("export failed", zap.String("input", path), zap.Error(err))
		case res.Written:
			fmt.Fprintln(cmd.OutOrStdout(), res.Output)
		}
	}

	for _, p := range w.Paths() {
		export(p)
	}

	go w.Start(ctx)
	watcher.Coalesce(ctx, w.Events, cfg.Watch.Debounce, export)
	return nil
}
