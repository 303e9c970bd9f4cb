/*
Package scrape fetches the promo code page and turns its markup into categorized code records.
*/
package scrape

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	// DefaultTimeout bounds a single page fetch.
	DefaultTimeout = 15 * time.Second
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
)

// FetchError covers network failures, non-2xx responses and timeouts.
type FetchError struct {
	URL        string
	StatusCode int
	Timeout    bool
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("fetch %s: timed out: %v", e.URL, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("fetch %s: received non-OK status code %d", e.URL, e.StatusCode)
	default:
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fetcher retrieves raw markup. Implementations must not retry.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// HTTPFetcher is a Fetcher backed by resty with a client-side timeout.
type HTTPFetcher struct {
	client  *resty.Client
	timeout time.Duration
}

// NewHTTPFetcher creates a fetcher whose requests never wait longer than timeout.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client := resty.New()
	client.SetHeader("user-agent", userAgent)
	client.SetHeader("accept", "text/html,application/xhtml+xml")
	client.SetTimeout(timeout)
	client.SetRetryCount(0)

	return &HTTPFetcher{client: client, timeout: timeout}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	res, err := f.client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return "", &FetchError{URL: url, Timeout: isTimeout(ctx, err), Err: err}
	}

	if !res.IsSuccess() {
		return "", &FetchError{URL: url, StatusCode: res.StatusCode(), Err: fmt.Errorf("status %s", res.Status())}
	}

	return res.String(), nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
