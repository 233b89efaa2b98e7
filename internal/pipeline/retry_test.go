package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sigeo-niteroi/dowatch/internal/gazette"
)

func stubSleep(count *int) func(context.Context, time.Duration) error {
	return func(_ context.Context, _ time.Duration) error {
		*count++
		return nil
	}
}

func transportFailure() gazette.FetchOutcome {
	return gazette.FetchOutcome{
		Availability: gazette.TransportFailure,
		StatusCode:   502,
		Reason:       &gazette.TransportError{Err: errors.New("bad gateway")},
	}
}

func TestRunnerRetriesUntilSuccess(t *testing.T) {
	t.Parallel()

	// Three transport failures, then a publication with a match: exactly one
	// summary must go out across all attempts.
	fetcher := &scriptedFetcher{outcomes: []gazette.FetchOutcome{
		transportFailure(),
		transportFailure(),
		transportFailure(),
		available("doc"),
	}}
	extractor := &fakeExtractor{raw: "contrato 123 publicado"}
	notifier := &recordingNotifier{}
	p := newTestPipeline(fetcher, extractor, notifier, gazette.NewFlatRegistry([]string{"contrato 123"}), false)

	sleeps := 0
	r := NewRunner(p, 4, time.Hour, zap.NewNop())
	r.sleep = stubSleep(&sleeps)

	report, err := r.Run(context.Background())

	require.NoError(t, err)
	require.Equal(t, gazette.RunCompleted, report.Status)
	require.Equal(t, 4, report.Attempts)
	require.Equal(t, 3, sleeps)
	require.Equal(t, 1, notifier.summaries, "failed attempts must not produce mail")
}

func TestRunnerExhaustsBudget(t *testing.T) {
	t.Parallel()

	fetcher := &scriptedFetcher{outcomes: []gazette.FetchOutcome{transportFailure()}}
	p := newTestPipeline(fetcher, &fakeExtractor{}, &recordingNotifier{}, gazette.NewFlatRegistry([]string{"x"}), false)

	sleeps := 0
	r := NewRunner(p, 4, time.Hour, zap.NewNop())
	r.sleep = stubSleep(&sleeps)

	report, err := r.Run(context.Background())

	require.Error(t, err)
	require.Contains(t, err.Error(), "retry budget exhausted")
	require.Equal(t, 4, report.Attempts)
	require.Equal(t, 4, fetcher.calls)
	require.Equal(t, 3, sleeps, "no backoff after the final attempt")
}

func TestRunnerDoesNotRetryFatalErrors(t *testing.T) {
	t.Parallel()

	fetcher := &scriptedFetcher{outcomes: []gazette.FetchOutcome{available("garbage")}}
	extractor := &fakeExtractor{err: &gazette.ExtractionError{Err: errors.New("corrupt")}}
	p := newTestPipeline(fetcher, extractor, &recordingNotifier{}, gazette.NewFlatRegistry([]string{"x"}), false)

	sleeps := 0
	r := NewRunner(p, 4, time.Hour, zap.NewNop())
	r.sleep = stubSleep(&sleeps)

	report, err := r.Run(context.Background())

	var ee *gazette.ExtractionError
	require.True(t, errors.As(err, &ee))
	require.Equal(t, 1, report.Attempts)
	require.Equal(t, 1, fetcher.calls, "fatal failures must not consume retry budget")
	require.Zero(t, sleeps)
}

func TestRunnerBenignNoOpReturnsImmediately(t *testing.T) {
	t.Parallel()

	fetcher := &scriptedFetcher{outcomes: []gazette.FetchOutcome{
		{Availability: gazette.NotYetPublished, StatusCode: 404},
	}}
	p := newTestPipeline(fetcher, &fakeExtractor{}, &recordingNotifier{}, gazette.NewFlatRegistry([]string{"x"}), false)

	r := NewRunner(p, 4, time.Hour, zap.NewNop())
	report, err := r.Run(context.Background())

	require.NoError(t, err)
	require.Equal(t, gazette.RunNoPublication, report.Status)
	require.Equal(t, 1, report.Attempts)
}

func TestRunnerStrictModeRetriesAbsence(t *testing.T) {
	t.Parallel()

	fetcher := &scriptedFetcher{outcomes: []gazette.FetchOutcome{
		{Availability: gazette.NotYetPublished, StatusCode: 404},
		available("doc"),
	}}
	extractor := &fakeExtractor{raw: "contrato 123"}
	notifier := &recordingNotifier{}
	p := newTestPipeline(fetcher, extractor, notifier, gazette.NewFlatRegistry([]string{"contrato 123"}), true)

	sleeps := 0
	r := NewRunner(p, 4, time.Hour, zap.NewNop())
	r.sleep = stubSleep(&sleeps)

	report, err := r.Run(context.Background())

	require.NoError(t, err)
	require.Equal(t, gazette.RunCompleted, report.Status)
	require.Equal(t, 2, report.Attempts)
	require.Equal(t, 1, sleeps)
}

func TestRunnerSleepAbortedByContext(t *testing.T) {
	t.Parallel()

	fetcher := &scriptedFetcher{outcomes: []gazette.FetchOutcome{transportFailure()}}
	p := newTestPipeline(fetcher, &fakeExtractor{}, &recordingNotifier{}, gazette.NewFlatRegistry([]string{"x"}), false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRunner(p, 4, time.Millisecond, zap.NewNop())
	_, err := r.Run(ctx)

	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, fetcher.calls)
}
