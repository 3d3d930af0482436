package httpx

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/opentelekomcloud/giji/internal/logging"
)

// DefaultLowWater is the remaining-quota threshold below which the tracker
// sleeps until the quota resets instead of waiting to be rejected.
const DefaultLowWater = 10

// RateTracker observes the source tracker's X-RateLimit-Remaining and
// X-RateLimit-Reset headers after every call and proactively throttles the
// next call when the remaining quota drops below the low-water mark.
type RateTracker struct {
	mu        sync.Mutex
	remaining int
	reset     time.Time
	lowWater  int

	// now and sleep are replaceable in tests.
	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// NewRateTracker returns a tracker with the given low-water mark; zero or
// negative means DefaultLowWater. The quota is unknown until the first
// response is observed.
func NewRateTracker(lowWater int) *RateTracker {
	if lowWater <= 0 {
		lowWater = DefaultLowWater
	}
	return &RateTracker{
		remaining: -1,
		lowWater:  lowWater,
		now:       time.Now,
		sleep:     sleepContext,
	}
}

// Wait blocks until the next call may be issued. It returns early only when
// the context is cancelled.
func (r *RateTracker) Wait(ctx context.Context) error {
	r.mu.Lock()
	remaining := r.remaining
	reset := r.reset
	r.mu.Unlock()

	if remaining < 0 || remaining >= r.lowWater {
		return nil
	}

	wait := reset.Sub(r.now())
	if wait <= 0 {
		return nil
	}

	logging.Warn("rate limit low, sleeping until reset",
		"remaining", remaining,
		"reset_in", wait)

	if err := r.sleep(ctx, wait); err != nil {
		return err
	}

	// Quota is fresh after the reset time has passed.
	r.mu.Lock()
	if r.reset.Equal(reset) {
		r.remaining = -1
	}
	r.mu.Unlock()
	return nil
}

// Observe records the quota headers of a response. Responses without the
// headers leave the state untouched.
func (r *RateTracker) Observe(resp *http.Response) {
	remainingHeader := resp.Header.Get("X-RateLimit-Remaining")
	if remainingHeader == "" {
		return
	}
	remaining, err := strconv.Atoi(remainingHeader)
	if err != nil {
		return
	}

	reset := time.Time{}
	if resetHeader := resp.Header.Get("X-RateLimit-Reset"); resetHeader != "" {
		if unix, err := strconv.ParseInt(resetHeader, 10, 64); err == nil {
			reset = time.Unix(unix, 0)
		}
	}

	r.mu.Lock()
	r.remaining = remaining
	if !reset.IsZero() {
		r.reset = reset
	}
	r.mu.Unlock()
}
