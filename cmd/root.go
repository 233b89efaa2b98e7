// Package cmd defines and implements the CLI commands for the dowatch
// executable.
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sigeo-niteroi/dowatch/internal/clock/system"
	"github.com/sigeo-niteroi/dowatch/internal/config"
	pdfextractor "github.com/sigeo-niteroi/dowatch/internal/extractor/pdf"
	collyfetcher "github.com/sigeo-niteroi/dowatch/internal/fetcher/colly"
	"github.com/sigeo-niteroi/dowatch/internal/gazette"
	"github.com/sigeo-niteroi/dowatch/internal/id/uuid"
	"github.com/sigeo-niteroi/dowatch/internal/logging"
	"github.com/sigeo-niteroi/dowatch/internal/metrics"
	smtpnotifier "github.com/sigeo-niteroi/dowatch/internal/notifier/smtp"
	"github.com/sigeo-niteroi/dowatch/internal/pipeline"
)

var cfgFile string

// app bundles the services every subcommand needs.
type app struct {
	cfg    config.Config
	logger *zap.Logger
	clock  gazette.Clock
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dowatch",
		Short: "Watches the daily official gazette for configured terms.",
		Long: `dowatch fetches the day's official gazette edition, scans its text for
the configured term registry, and notifies interested parties by email
when matches occur. Run it once per day via an external scheduler
(watch), or let it trigger itself (serve).`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newServeCmd())
	return cmd
}

// Execute is the main entry point. Unrecoverable failures exit non-zero so
// the invoking scheduler can alert on them.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func loadApp() (*app, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	return &app{cfg: cfg, logger: logger, clock: newClock(logger)}, nil
}

// newClock follows the publisher's calendar: the gazette is dated on
// Brasília time regardless of where the watcher runs.
func newClock(logger *zap.Logger) gazette.Clock {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		logger.Warn("publisher timezone unavailable, using local time", zap.Error(err))
		loc = nil
	}
	return system.New(loc)
}

func buildRunner(a *app, m *metrics.Metrics) *pipeline.Runner {
	p := pipeline.New(pipeline.Deps{
		Locator: gazette.NewLocator(a.cfg.Gazette.BaseURL),
		Fetcher: collyfetcher.New(collyfetcher.Config{
			UserAgent: a.cfg.Gazette.UserAgent,
			Timeout:   a.cfg.FetchTimeout(),
		}),
		Extractor: pdfextractor.New(a.logger),
		Notifier: smtpnotifier.New(smtpnotifier.Config{
			Host:       a.cfg.SMTP.Host,
			Port:       a.cfg.SMTP.Port,
			Username:   a.cfg.SMTP.Username,
			Password:   a.cfg.SMTP.Password,
			Sender:     a.cfg.SMTP.Sender,
			Operations: a.cfg.SMTP.Operations,
			Timeout:    a.cfg.MailTimeout(),
		}, a.logger),
		Registry: a.cfg.Registry(),
		Clock:    a.clock,
		IDs:      uuid.New(),
		Strict:   a.cfg.Gazette.StrictAvailability,
		Logger:   a.logger,
		Metrics:  m,
	})
	return pipeline.NewRunner(p, a.cfg.Retry.Attempts, a.cfg.RetryInterval(), a.logger)
}
