package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/notifyhub/receiver/internal/domain"
	"github.com/notifyhub/receiver/internal/provider"
	"github.com/notifyhub/receiver/internal/ratelimiter"
)

// Worker performs single delivery attempts: it waits for the callback host's
// rate limiter, calls the provider under a per-attempt timeout, and reports the
// outcome through the metric hooks.
type Worker struct {
	prov    provider.Provider
	limiter *ratelimiter.HostLimiters
	timeout time.Duration
	logger  *zap.Logger

	// Hooks for metrics, injected by the pool so the worker stays metrics-agnostic.
	onDelivered func(productType string, latency time.Duration)
	onFailed    func(productType string, latency time.Duration)
}

// NewWorker constructs a worker. onDelivered and onFailed are optional (nil = no-op).
func NewWorker(
	prov provider.Provider,
	limiter *ratelimiter.HostLimiters,
	timeout time.Duration,
	logger *zap.Logger,
	onDelivered func(string, time.Duration),
	onFailed func(string, time.Duration),
) *Worker {
	if onDelivered == nil {
		onDelivered = func(string, time.Duration) {}
	}
	if onFailed == nil {
		onFailed = func(string, time.Duration) {}
	}
	return &Worker{
		prov: prov, limiter: limiter, timeout: timeout, logger: logger,
		onDelivered: onDelivered, onFailed: onFailed,
	}
}

// Deliver returns nil on success or an error wrapping domain.ErrDeliveryFailure.
// A panic in the provider is recovered and returned as a failure.
func (w *Worker) Deliver(ctx context.Context, callbackURL string, n *domain.Notification) error {
	start := time.Now()
	log := w.logger.With(
		zap.String("notification_id", n.ID),
		zap.String("product_type", n.ProductType),
		zap.String("callback_url", callbackURL),
	)

	err := w.attempt(ctx, callbackURL, n)
	elapsed := time.Since(start)

	if err != nil {
		log.Warn("callback delivery failed", zap.Error(err), zap.Duration("latency", elapsed))
		w.onFailed(n.ProductType, elapsed)
		return fmt.Errorf("%w: %w", domain.ErrDeliveryFailure, err)
	}

	w.onDelivered(n.ProductType, elapsed)
	log.Debug("callback delivered", zap.Duration("latency", elapsed))
	return nil
}

func (w *Worker) attempt(ctx context.Context, callbackURL string, n *domain.Notification) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during delivery: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	// The limiter wait counts against the same deadline as the call itself.
	if w.limiter != nil {
		if err := w.limiter.Wait(ctx, callbackURL); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}

	return w.prov.Deliver(ctx, callbackURL, n)
}
