package gazette

import (
	"context"
	"time"
)

// Fetcher retrieves the gazette document for a reference and classifies the
// outcome. Implementations must bound each attempt with a deadline.
type Fetcher interface {
	Fetch(ctx context.Context, ref PublicationReference) (FetchOutcome, error)
}

// Extractor converts document bytes into one lowercase text blob. A page
// that cannot be decoded contributes an empty segment; only a structurally
// corrupt document fails the call.
type Extractor interface {
	Extract(data []byte) (ExtractedText, error)
}

// Notifier delivers the two message categories. SendPersonalNotices must
// attempt every matched entry even when earlier sends fail.
type Notifier interface {
	SendSummary(ctx context.Context, ref PublicationReference, results []MatchResult) DeliveryOutcome
	SendPersonalNotices(ctx context.Context, ref PublicationReference, results []MatchResult, registry TermRegistry) []DeliveryOutcome
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
