package cmd

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/sigeo-niteroi/dowatch/internal/metrics"
	"github.com/sigeo-niteroi/dowatch/internal/scheduler"
	"github.com/sigeo-niteroi/dowatch/internal/server"
)

// newServeCmd creates the 'serve' subcommand: a long-running daemon that
// triggers the pipeline itself once per day and exposes health and
// Prometheus metrics over HTTP.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Runs the watcher as a daemon with an internal daily trigger",
		RunE:  runServeCommand,
	}
}

func runServeCommand(cmd *cobra.Command, _ []string) error {
	sigCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.logger.Sync() //nolint:errcheck // best-effort flush

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	srv := server.New(a.logger, registry)
	runner := buildRunner(a, m)

	sched, err := scheduler.New(a.clock, a.cfg.Serve.DailyAt, a.logger)
	if err != nil {
		return err
	}

	errCh := make(chan error, 2)
	go func() {
		errCh <- srv.Serve(ctx, a.cfg.Serve.Port)
	}()
	go func() {
		errCh <- sched.Run(ctx, func(runCtx context.Context) {
			report, runErr := runner.Run(runCtx)
			srv.RecordRun(report, runErr)
		})
	}()

	err = <-errCh
	cancel()
	<-errCh

	if err == nil || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
