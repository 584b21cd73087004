package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/notifyhub/receiver/internal/config"
	"github.com/notifyhub/receiver/internal/domain"
	"github.com/notifyhub/receiver/internal/provider"
	"github.com/notifyhub/receiver/internal/ratelimiter"
)

// MetricHooks carries the metric callback functions injected by main.
// Using a struct keeps the pool constructor signature clean.
type MetricHooks struct {
	OnDelivered func(productType string, latency time.Duration)
	OnFailed    func(productType string, latency time.Duration)
}

// Result is the outcome of one subscriber's delivery attempt.
// Err is nil when the callback was acknowledged.
type Result struct {
	URL string
	Err error
}

// Pool fans a notification out to many subscribers with at most size
// deliveries in flight. Each delivery runs on its own goroutine and captures
// its own error, so one failing callback never affects the others.
type Pool struct {
	size   int
	worker *Worker
}

func NewPool(
	cfg *config.Config,
	prov provider.Provider,
	limiter *ratelimiter.HostLimiters,
	logger *zap.Logger,
	hooks MetricHooks,
) *Pool {
	size := cfg.NotifyConcurrency
	if size <= 0 {
		size = 1
	}
	return &Pool{
		size: size,
		worker: NewWorker(
			prov, limiter, cfg.CallbackTimeout, logger,
			hooks.OnDelivered, hooks.OnFailed,
		),
	}
}

// Dispatch makes exactly one delivery attempt per subscriber and blocks until
// all attempts have finished. Results are in the same order as subs.
func (p *Pool) Dispatch(ctx context.Context, n *domain.Notification, subs []domain.Subscriber) []Result {
	results := make([]Result, len(subs))

	var g errgroup.Group
	g.SetLimit(p.size)
	for i, s := range subs {
		g.Go(func() error {
			results[i] = Result{URL: s.URL, Err: p.worker.Deliver(ctx, s.URL, n)}
			return nil
		})
	}
	_ = g.Wait()

	return results
}
