package gazette

import (
	"fmt"
	"strings"
	"time"
)

// DefaultBaseURL is the root under which daily editions are published.
const DefaultBaseURL = "https://diariooficial.niteroi.rj.gov.br/do"

// monthAbbrev maps time.Month-1 to the Portuguese abbreviation used in the
// publication path.
var monthAbbrev = [12]string{
	"Jan", "Fev", "Mar", "Abr", "Mai", "Jun",
	"Jul", "Ago", "Set", "Out", "Nov", "Dez",
}

// Locator derives the expected document location for a calendar date. Pure:
// no I/O, no failure mode.
type Locator struct {
	baseURL string
}

// NewLocator builds a Locator rooted at baseURL, falling back to
// DefaultBaseURL when empty.
func NewLocator(baseURL string) *Locator {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Locator{baseURL: strings.TrimRight(baseURL, "/")}
}

// Locate derives the PublicationReference for now's calendar date. The URL
// shape is <base>/<yyyy>/<mm>_<Abbrev>/<dd>.pdf, e.g. .../2026/09_Set/01.pdf.
func (l *Locator) Locate(now time.Time) PublicationReference {
	year, month, day := now.Date()
	url := fmt.Sprintf("%s/%d/%02d_%s/%02d.pdf", l.baseURL, year, int(month), monthAbbrev[month-1], day)
	return PublicationReference{
		Year:  year,
		Month: month,
		Day:   day,
		URL:   url,
	}
}
