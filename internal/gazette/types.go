// Package gazette defines core types shared across the watcher pipeline.
package gazette

import "time"

// PublicationReference identifies one day's gazette edition and the URL it
// is expected to be published at. Derived once per run, never mutated.
type PublicationReference struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Day   int        `json:"day"`
	URL   string     `json:"url"`
}

// Date renders the reference as dd/mm/yyyy, the format used in notices.
func (r PublicationReference) Date() string {
	return time.Date(r.Year, r.Month, r.Day, 0, 0, 0, 0, time.UTC).Format("02/01/2006")
}

// Availability discriminates the three possible fetch outcomes.
type Availability int

// Availability values returned by a Fetcher.
const (
	// Available means the document was retrieved with a non-empty body.
	Available Availability = iota
	// NotYetPublished means the edition does not exist yet. An expected,
	// benign daily state: the gazette may appear later in the day.
	NotYetPublished
	// TransportFailure means the attempt itself broke (DNS, timeout, 5xx),
	// distinct from legitimate absence.
	TransportFailure
)

func (a Availability) String() string {
	switch a {
	case Available:
		return "available"
	case NotYetPublished:
		return "not_yet_published"
	case TransportFailure:
		return "transport_failure"
	default:
		return "unknown"
	}
}

// FetchOutcome is the tagged result of a document fetch. Callers branch on
// Availability instead of string-matching error messages.
type FetchOutcome struct {
	Availability Availability
	Document     []byte
	StatusCode   int
	// Reason holds the underlying error for TransportFailure outcomes.
	Reason error
}

// ExtractedText is the lowercased text blob produced from one document,
// owned by a single run and discarded after matching.
type ExtractedText struct {
	Text         string
	Pages        int
	SkippedPages int
}

// MatchResult records whether one registry term occurred in the extracted
// text. Results preserve registry order and cover every entry exactly once.
type MatchResult struct {
	Term  string
	Found bool
}

// AnyFound reports whether at least one result is a hit.
func AnyFound(results []MatchResult) bool {
	for _, r := range results {
		if r.Found {
			return true
		}
	}
	return false
}

// NotificationKind distinguishes the two message categories.
type NotificationKind int

// Notification kinds produced by the Notifier.
const (
	KindSummary NotificationKind = iota
	KindPersonal
)

func (k NotificationKind) String() string {
	if k == KindSummary {
		return "summary"
	}
	return "personal"
}

// NotificationJob is one outbound message, consumed immediately by the mail
// transport and then discarded. No retry state is attached.
type NotificationJob struct {
	Kind       NotificationKind
	Recipients []string
	CC         string
	Subject    string
	Body       string
}

// DeliveryOutcome records the result of one notification send. A non-nil
// Err does not abort sibling sends.
type DeliveryOutcome struct {
	Recipient string
	Kind      NotificationKind
	Err       error
}

// RunStatus is the terminal state of one pipeline run.
type RunStatus string

// Run status values reported by the orchestrator.
const (
	RunCompleted     RunStatus = "completed"
	RunNoPublication RunStatus = "no_publication"
	RunNoMatches     RunStatus = "no_matches"
	RunFailed        RunStatus = "failed"
)

// RunReport summarizes one pipeline run for logs, health reporting, and
// the retry wrapper. Nothing in it is persisted across runs.
type RunReport struct {
	RunID         string               `json:"run_id"`
	Ref           PublicationReference `json:"ref"`
	Status        RunStatus            `json:"status"`
	Results       []MatchResult        `json:"-"`
	Matches       int                  `json:"matches"`
	Pages         int                  `json:"pages"`
	SkippedPages  int                  `json:"skipped_pages"`
	SummarySent   bool                 `json:"summary_sent"`
	NoticesSent   int                  `json:"notices_sent"`
	NoticesFailed int                  `json:"notices_failed"`
	Attempts      int                  `json:"attempts"`
	Started       time.Time            `json:"started_at"`
	Finished      time.Time            `json:"finished_at"`
}
