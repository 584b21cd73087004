package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/notifyhub/receiver/internal/domain"
)

type pgSubscriberRepository struct {
	pool *pgxpool.Pool
}

// NewPgSubscriberRepository returns a SubscriberRepository backed by PostgreSQL.
// Uniqueness of (product_type, url) is enforced by the table's primary key.
func NewPgSubscriberRepository(pool *pgxpool.Pool) SubscriberRepository {
	return &pgSubscriberRepository{pool: pool}
}

func (r *pgSubscriberRepository) Add(ctx context.Context, s domain.Subscriber) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO subscribers (product_type, url, created_at)
		VALUES ($1, $2, NOW())`,
		s.ProductType, s.URL,
	)
	if err != nil {
		return translateInsertError(err)
	}
	return nil
}

func (r *pgSubscriberRepository) Remove(ctx context.Context, productType, url string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM subscribers WHERE product_type = $1 AND url = $2`, productType, url)
	if err != nil {
		return fmt.Errorf("delete subscriber: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *pgSubscriberRepository) List(ctx context.Context, productType string) ([]domain.Subscriber, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT url, product_type
		FROM subscribers
		WHERE product_type = $1
		ORDER BY created_at ASC, url ASC`, productType)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	defer rows.Close()
	return scanSubscribers(rows)
}

func (r *pgSubscriberRepository) Counts(ctx context.Context) (map[string]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT product_type, COUNT(*) FROM subscribers GROUP BY product_type`)
	if err != nil {
		return nil, fmt.Errorf("count subscribers: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var pt string
		var n int
		if err := rows.Scan(&pt, &n); err != nil {
			return nil, err
		}
		counts[pt] = n
	}
	return counts, rows.Err()
}

// ---- helpers ----

// translateInsertError maps a primary key violation to ErrDuplicateSubscriber.
func translateInsertError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return domain.ErrDuplicateSubscriber
	}
	return fmt.Errorf("insert subscriber: %w", err)
}

func scanSubscribers(rows pgx.Rows) ([]domain.Subscriber, error) {
	result := make([]domain.Subscriber, 0)
	for rows.Next() {
		var s domain.Subscriber
		if err := rows.Scan(&s.URL, &s.ProductType); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}
