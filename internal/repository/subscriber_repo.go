package repository

import (
	"context"

	"github.com/notifyhub/receiver/internal/domain"
)

// SubscriberRepository owns every subscriber registration.
// The pgx implementation is in pg_subscriber_repo.go; the in-memory one is used
// when no database is configured and in tests.
type SubscriberRepository interface {
	Add(ctx context.Context, s domain.Subscriber) error
	Remove(ctx context.Context, productType, url string) error
	List(ctx context.Context, productType string) ([]domain.Subscriber, error)
	Counts(ctx context.Context) (map[string]int, error)
}
