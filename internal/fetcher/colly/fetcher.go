// Package collyfetcher implements gazette.Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/sigeo-niteroi/dowatch/internal/gazette"
)

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Fetcher retrieves gazette documents with the Colly collector and
// classifies the outcome: a client-error status or empty body means the
// edition simply does not exist yet, anything else broken is a transport
// failure worth retrying.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
}

// New builds a Fetcher.
func New(cfg Config) *Fetcher {
	c := colly.NewCollector(
		colly.Async(false),
		colly.IgnoreRobotsTxt(),
		colly.AllowURLRevisit(),
	)
	c.WithTransport(newHTTPTransport())
	return &Fetcher{cfg: cfg, baseCollector: c}
}

// Fetch executes a single HTTP GET for the referenced edition. The returned
// error is non-nil only when the attempt was aborted by ctx; every other
// condition is expressed through the FetchOutcome discriminant.
func (f *Fetcher) Fetch(ctx context.Context, ref gazette.PublicationReference) (gazette.FetchOutcome, error) {
	collector := f.baseCollector.Clone()
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	timeout := f.cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	collector.SetRequestTimeout(timeout)
	// Gazette editions routinely exceed Colly's 10 MB default body cap.
	collector.MaxBodySize = 64 * 1024 * 1024

	var (
		body       []byte
		statusCode int
		respErr    error
	)
	collector.OnResponse(func(r *colly.Response) {
		statusCode = r.StatusCode
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			statusCode = r.StatusCode
		}
		respErr = err
	})

	visitErr, err := f.runCollector(ctx, collector, ref.URL)
	if err != nil {
		return gazette.FetchOutcome{}, err
	}
	if respErr == nil && statusCode == 0 && visitErr != nil {
		// Visit rejects some requests before they are issued (malformed
		// URLs among them) without firing OnError. Those attempts are
		// broken, not absent editions.
		respErr = visitErr
	}

	return classify(statusCode, body, respErr), nil
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, url string) (visitErr error, err error) {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("fetch canceled: %w", ctx.Err())
	case visitErr = <-done:
		// Request-level errors mirror the OnError callback; classification
		// happens on the captured state.
		return visitErr, nil
	}
}

func classify(statusCode int, body []byte, respErr error) gazette.FetchOutcome {
	switch {
	case respErr != nil && statusCode >= 400 && statusCode < 500:
		// The edition does not exist yet. Expected daily state, not an error.
		return gazette.FetchOutcome{
			Availability: gazette.NotYetPublished,
			StatusCode:   statusCode,
		}
	case respErr != nil:
		return gazette.FetchOutcome{
			Availability: gazette.TransportFailure,
			StatusCode:   statusCode,
			Reason:       &gazette.TransportError{Err: respErr},
		}
	case len(body) == 0:
		// Empty-bodied success is treated like absence in both modes.
		return gazette.FetchOutcome{
			Availability: gazette.NotYetPublished,
			StatusCode:   statusCode,
		}
	default:
		return gazette.FetchOutcome{
			Availability: gazette.Available,
			StatusCode:   statusCode,
			Document:     body,
		}
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
