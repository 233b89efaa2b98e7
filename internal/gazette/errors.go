package gazette

import (
	"errors"
	"fmt"
)

// ErrNotYetPublished is returned by the orchestrator in strict mode when
// today's edition is absent. It is always wrapped as retryable.
var ErrNotYetPublished = errors.New("publication not yet available")

// TransportError wraps a network or HTTP infrastructure failure observed
// while fetching the document.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ExtractionError wraps a structurally unreadable document. Fatal for the
// run: a corrupt edition will not self-heal within the same publication
// cycle, so it never consumes retry budget.
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("document extraction failed: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ConfigurationError marks missing or contradictory configuration. Fatal,
// surfaced immediately, never retried.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// retryableError tags an error as safe to re-run at the whole-pipeline
// level after a backoff interval.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }

func (e *retryableError) Unwrap() error { return e.err }

// Retryable wraps err so the retry wrapper will re-invoke the pipeline.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &retryableError{err: err}
}

// IsRetryable reports whether err was marked with Retryable.
func IsRetryable(err error) bool {
	var r *retryableError
	return errors.As(err, &r)
}
