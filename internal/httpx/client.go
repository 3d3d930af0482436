// Package httpx wraps outbound HTTP calls with timeout, retry-with-backoff
// and rate-limit-aware throttling. Every client talking to an external
// system routes through a Transport from this package.
package httpx

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/opentelekomcloud/giji/internal/logging"
)

// Default policy values.
const (
	DefaultMaxAttempts = 3
	DefaultTimeout     = 30 * time.Second
	MetadataTimeout    = 10 * time.Second

	initialBackoff = 500 * time.Millisecond
	maxBackoff     = 10 * time.Second
)

// transientStatuses are the HTTP statuses worth retrying. Everything else
// in 4xx surfaces immediately as a typed error.
var transientStatuses = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// IsTransientStatus reports whether a status code is retried.
func IsTransientStatus(code int) bool {
	return transientStatuses[code]
}

// Transport retries transient failures with exponential backoff and
// optionally throttles against the remote's rate-limit headers. It wraps an
// arbitrary base round tripper so the same policy applies under go-github,
// go-jira and plain http clients.
type Transport struct {
	// Base is the underlying round tripper; http.DefaultTransport when nil.
	Base http.RoundTripper

	// MaxAttempts caps total attempts, including the first.
	MaxAttempts int

	// Limiter, when set, is consulted before and after every attempt.
	Limiter *RateTracker
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	maxAttempts := t.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initialBackoff
	bo.MaxInterval = maxBackoff

	var resp *http.Response
	var err error
	for attempt := 1; ; attempt++ {
		if t.Limiter != nil {
			if waitErr := t.Limiter.Wait(req.Context()); waitErr != nil {
				return nil, waitErr
			}
		}

		// Bodies are consumed per attempt; replay from GetBody on retries.
		if attempt > 1 && req.Body != nil {
			if req.GetBody == nil {
				return resp, err
			}
			body, bodyErr := req.GetBody()
			if bodyErr != nil {
				return nil, bodyErr
			}
			req.Body = body
		}

		resp, err = base.RoundTrip(req)

		if err == nil && t.Limiter != nil {
			t.Limiter.Observe(resp)
		}
		if err == nil && !transientStatuses[resp.StatusCode] {
			return resp, nil
		}
		if attempt >= maxAttempts {
			return resp, err
		}

		if resp != nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}

		wait := bo.NextBackOff()
		logging.Debug("retrying request",
			"method", req.Method,
			"url", req.URL.Redacted(),
			"attempt", attempt,
			"wait", wait)

		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(wait):
		}
	}
}

// NewClient returns an http client with the retry transport applied on top
// of base (nil for the default transport) and the given per-call timeout.
func NewClient(timeout time.Duration, base http.RoundTripper, limiter *RateTracker) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &Transport{
			Base:        base,
			MaxAttempts: DefaultMaxAttempts,
			Limiter:     limiter,
		},
	}
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
