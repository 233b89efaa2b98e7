package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sigeo-niteroi/dowatch/internal/gazette"
)

// newWatchCmd creates the 'watch' subcommand: one whole pipeline
// invocation, including the internal retry loop. Intended to be run by an
// external daily scheduler.
func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Runs one gazette check and exits",
		Long: `Derives today's edition URL, fetches and scans the document, and sends
notifications for any matches. Absence of today's edition is a benign
no-op unless strict availability checking is configured. Retryable
failures re-run the whole pipeline on a fixed interval before giving up.`,
		RunE: runWatchCommand,
	}
}

func runWatchCommand(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.logger.Sync() //nolint:errcheck // best-effort flush

	runner := buildRunner(a, nil)
	report, err := runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("watch run failed: %w", err)
	}

	a.logger.Info("watch finished",
		zap.String("status", string(report.Status)),
		zap.Int("attempts", report.Attempts),
		zap.Int("matches", report.Matches),
	)
	if report.Status == gazette.RunNoPublication {
		a.logger.Info("no edition published yet, nothing to do")
	}
	return nil
}
