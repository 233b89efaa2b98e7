// Package pipeline sequences the locate-fetch-extract-match-notify run and
// owns the retry policy around it.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sigeo-niteroi/dowatch/internal/gazette"
	"github.com/sigeo-niteroi/dowatch/internal/metrics"
)

// Deps wires the collaborators into the orchestrator.
type Deps struct {
	Locator   *gazette.Locator
	Fetcher   gazette.Fetcher
	Extractor gazette.Extractor
	Notifier  gazette.Notifier
	Registry  gazette.TermRegistry
	Clock     gazette.Clock
	IDs       gazette.IDGenerator
	// Strict treats an absent edition as a retryable failure instead of a
	// benign no-op.
	Strict  bool
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Pipeline executes one run: derive today's reference, fetch the document,
// extract its text, match the registry, notify. Each run owns its
// reference, text, and results exclusively; nothing is kept across runs.
type Pipeline struct {
	locator   *gazette.Locator
	fetcher   gazette.Fetcher
	extractor gazette.Extractor
	notifier  gazette.Notifier
	registry  gazette.TermRegistry
	clock     gazette.Clock
	ids       gazette.IDGenerator
	strict    bool
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// New constructs a Pipeline.
func New(deps Deps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		locator:   deps.Locator,
		fetcher:   deps.Fetcher,
		extractor: deps.Extractor,
		notifier:  deps.Notifier,
		registry:  deps.Registry,
		clock:     deps.Clock,
		ids:       deps.IDs,
		strict:    deps.Strict,
		logger:    logger,
		metrics:   deps.Metrics,
	}
}

// Run executes one whole pipeline attempt. Errors marked retryable are
// meant for the Runner's backoff loop; extraction and configuration
// failures surface immediately.
func (p *Pipeline) Run(ctx context.Context) (gazette.RunReport, error) {
	report := gazette.RunReport{Started: p.clock.Now()}
	if id, err := p.ids.NewID(); err == nil {
		report.RunID = id
	} else {
		p.logger.Warn("run id generation failed", zap.Error(err))
	}

	report.Ref = p.locator.Locate(p.clock.Now())
	logger := p.logger.With(
		zap.String("run_id", report.RunID),
		zap.String("url", report.Ref.URL),
	)
	logger.Info("pipeline run started", zap.String("mode", p.registry.Mode().String()))

	outcome, err := p.fetcher.Fetch(ctx, report.Ref)
	if err != nil {
		// Only context cancellation reaches here; not retryable.
		return p.failed(report, logger, fmt.Errorf("fetch: %w", err))
	}

	switch outcome.Availability {
	case gazette.NotYetPublished:
		if p.strict {
			return p.failed(report, logger, gazette.Retryable(gazette.ErrNotYetPublished))
		}
		report.Status = gazette.RunNoPublication
		return p.done(report, logger)
	case gazette.TransportFailure:
		return p.failed(report, logger, gazette.Retryable(outcome.Reason))
	}

	extracted, err := p.extractor.Extract(outcome.Document)
	if err != nil {
		return p.failed(report, logger, err)
	}
	report.Pages = extracted.Pages
	report.SkippedPages = extracted.SkippedPages
	p.metrics.AddSkippedPages(extracted.SkippedPages)

	report.Results = gazette.Match(extracted.Text, p.registry)
	for _, r := range report.Results {
		if r.Found {
			report.Matches++
		}
	}
	p.metrics.AddMatches(report.Matches)

	if !gazette.AnyFound(report.Results) {
		report.Status = gazette.RunNoMatches
		return p.done(report, logger)
	}

	p.notify(ctx, &report, logger)
	report.Status = gazette.RunCompleted
	return p.done(report, logger)
}

// notify sends the summary and, in directory mode, the personal notices.
// Delivery failures are recorded but never fail the run.
func (p *Pipeline) notify(ctx context.Context, report *gazette.RunReport, logger *zap.Logger) {
	summary := p.notifier.SendSummary(ctx, report.Ref, report.Results)
	report.SummarySent = summary.Err == nil
	p.metrics.ObserveNotification(gazette.KindSummary.String(), summary.Err == nil)

	for _, outcome := range p.notifier.SendPersonalNotices(ctx, report.Ref, report.Results, p.registry) {
		if outcome.Err == nil {
			report.NoticesSent++
		} else {
			report.NoticesFailed++
		}
		p.metrics.ObserveNotification(outcome.Kind.String(), outcome.Err == nil)
	}

	logger.Info("notifications dispatched",
		zap.Bool("summary_sent", report.SummarySent),
		zap.Int("notices_sent", report.NoticesSent),
		zap.Int("notices_failed", report.NoticesFailed),
	)
}

func (p *Pipeline) done(report gazette.RunReport, logger *zap.Logger) (gazette.RunReport, error) {
	report.Finished = p.clock.Now()
	p.metrics.ObserveRun(string(report.Status))
	logger.Info("pipeline run finished",
		zap.String("status", string(report.Status)),
		zap.Int("matches", report.Matches),
		zap.Int("pages", report.Pages),
		zap.Int("skipped_pages", report.SkippedPages),
	)
	return report, nil
}

func (p *Pipeline) failed(report gazette.RunReport, logger *zap.Logger, err error) (gazette.RunReport, error) {
	report.Status = gazette.RunFailed
	report.Finished = p.clock.Now()
	p.metrics.ObserveRun(string(report.Status))
	logger.Warn("pipeline run failed",
		zap.Bool("retryable", gazette.IsRetryable(err)),
		zap.Error(err),
	)
	return report, err
}
