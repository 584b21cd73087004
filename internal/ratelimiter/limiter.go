package ratelimiter

import (
	"context"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// HostLimiters holds one token bucket per callback host, created on first use.
// Burst equals the rate, so a host never receives more than ratePerSec calls
// in any one-second window after an idle period.
type HostLimiters struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

// New creates HostLimiters allowing ratePerSec calls per host. A ratePerSec of
// zero or less disables limiting.
func New(ratePerSec int) *HostLimiters {
	hl := &HostLimiters{
		limit:    rate.Inf,
		limiters: make(map[string]*rate.Limiter),
	}
	if ratePerSec > 0 {
		hl.limit = rate.Limit(ratePerSec)
		hl.burst = ratePerSec
	}
	return hl
}

// Wait blocks until the limiter for callbackURL's host grants a token.
// Returns a non-nil error if ctx is done first or its deadline is too close
// for a token to arrive in time.
func (hl *HostLimiters) Wait(ctx context.Context, callbackURL string) error {
	return hl.limiter(hostOf(callbackURL)).Wait(ctx)
}

func (hl *HostLimiters) limiter(host string) *rate.Limiter {
	hl.mu.Lock()
	defer hl.mu.Unlock()
	l, ok := hl.limiters[host]
	if !ok {
		l = rate.NewLimiter(hl.limit, hl.burst)
		hl.limiters[host] = l
	}
	return l
}

func hostOf(callbackURL string) string {
	u, err := url.Parse(callbackURL)
	if err != nil || u.Host == "" {
		return callbackURL
	}
	return u.Host
}
