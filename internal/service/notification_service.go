package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/notifyhub/receiver/internal/domain"
	"github.com/notifyhub/receiver/internal/repository"
	"github.com/notifyhub/receiver/internal/worker"
)

// NotificationService coordinates the subscriber repository and the delivery pool.
// All business rules (validation, uniqueness, fan-out semantics) live here.
// HTTP handlers depend on this service, never on the repository directly.
type NotificationService struct {
	repo   repository.SubscriberRepository
	pool   *worker.Pool
	logger *zap.Logger

	onSubscriptionChange func(action string)
}

// Option customises a NotificationService.
type Option func(*NotificationService)

// WithSubscriptionHook registers a callback invoked after every accepted
// subscribe ("subscribe") and unsubscribe ("unsubscribe").
func WithSubscriptionHook(fn func(action string)) Option {
	return func(s *NotificationService) { s.onSubscriptionChange = fn }
}

func NewNotificationService(
	repo repository.SubscriberRepository,
	pool *worker.Pool,
	logger *zap.Logger,
	opts ...Option,
) *NotificationService {
	s := &NotificationService{
		repo:                 repo,
		pool:                 pool,
		logger:               logger,
		onSubscriptionChange: func(string) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers req.URL for req.ProductType.
func (s *NotificationService) Subscribe(ctx context.Context, req domain.SubscriberRequest) (*domain.Subscriber, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sub := req.Subscriber()
	if err := s.repo.Add(ctx, sub); err != nil {
		return nil, err
	}

	s.onSubscriptionChange("subscribe")
	s.logger.Info("subscriber registered",
		zap.String("product_type", sub.ProductType), zap.String("url", sub.URL))
	return &sub, nil
}

// Unsubscribe removes the registration, or returns domain.ErrNotFound.
func (s *NotificationService) Unsubscribe(ctx context.Context, req domain.SubscriberRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	sub := req.Subscriber()
	if err := s.repo.Remove(ctx, sub.ProductType, sub.URL); err != nil {
		return err
	}

	s.onSubscriptionChange("unsubscribe")
	s.logger.Info("subscriber removed",
		zap.String("product_type", sub.ProductType), zap.String("url", sub.URL))
	return nil
}

// Notify delivers n to every current subscriber of n.ProductType and reports
// the per-subscriber outcomes. Delivery failures are collected in the report
// and never fail the call; only invalid input or a store error does.
//
// Deliveries are detached from ctx cancellation: once started they run to
// completion or to their own timeout even if the caller goes away.
func (s *NotificationService) Notify(ctx context.Context, n domain.Notification) (*domain.DeliveryReport, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}

	// Work on a private copy; the caller's value is never modified.
	note := n
	note.ProductType = strings.TrimSpace(note.ProductType)
	if note.ID == "" {
		note.ID = uuid.New().String()
	}

	subscribers, err := s.repo.List(ctx, note.ProductType)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}

	report := domain.NewDeliveryReport()
	if len(subscribers) == 0 {
		return report, nil
	}

	results := s.pool.Dispatch(context.WithoutCancel(ctx), &note, subscribers)
	for _, r := range results {
		if r.Err != nil {
			report.Failed = append(report.Failed, domain.DeliveryFailure{URL: r.URL, Reason: r.Err.Error()})
			continue
		}
		report.Delivered++
	}

	s.logger.Info("notification fanned out",
		zap.String("notification_id", note.ID),
		zap.String("product_type", note.ProductType),
		zap.String("status", note.Status.String()),
		zap.Int("subscribers", len(subscribers)),
		zap.Int("delivered", report.Delivered),
		zap.Int("failed", len(report.Failed)),
	)
	return report, nil
}

// ListSubscribers returns the subscribers registered for productType.
func (s *NotificationService) ListSubscribers(ctx context.Context, productType string) ([]domain.Subscriber, error) {
	productType = strings.TrimSpace(productType)
	if productType == "" {
		return nil, fmt.Errorf("%w: product_type must not be empty", domain.ErrInvalidRequest)
	}
	return s.repo.List(ctx, productType)
}

// Counts returns the number of subscribers per product type.
func (s *NotificationService) Counts(ctx context.Context) (map[string]int, error) {
	return s.repo.Counts(ctx)
}
