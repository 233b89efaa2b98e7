// Package metrics exposes Prometheus collectors for the watcher.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the watcher collectors. A nil *Metrics is valid and
// records nothing, so one-shot invocations can skip registration entirely.
type Metrics struct {
	runsTotal          *prometheus.CounterVec
	matchesTotal       prometheus.Counter
	notificationsTotal *prometheus.CounterVec
	skippedPagesTotal  prometheus.Counter
}

// New registers the watcher collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dowatch_runs_total",
				Help: "Total pipeline runs, labeled by terminal status.",
			},
			[]string{"status"},
		),
		matchesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "dowatch_matches_total",
				Help: "Total registry terms found across all runs.",
			},
		),
		notificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dowatch_notifications_total",
				Help: "Total notification sends, labeled by kind and result.",
			},
			[]string{"kind", "result"},
		),
		skippedPagesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "dowatch_skipped_pages_total",
				Help: "Total PDF pages that failed text extraction.",
			},
		),
	}
}

// ObserveRun records one finished pipeline run.
func (m *Metrics) ObserveRun(status string) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(status).Inc()
}

// AddMatches records found terms from one run.
func (m *Metrics) AddMatches(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.matchesTotal.Add(float64(n))
}

// ObserveNotification records one delivery attempt.
func (m *Metrics) ObserveNotification(kind string, delivered bool) {
	if m == nil {
		return
	}
	result := "delivered"
	if !delivered {
		result = "failed"
	}
	m.notificationsTotal.WithLabelValues(kind, result).Inc()
}

// AddSkippedPages records unreadable pages from one extraction.
func (m *Metrics) AddSkippedPages(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.skippedPagesTotal.Add(float64(n))
}
