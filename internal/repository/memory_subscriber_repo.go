package repository

import (
	"context"
	"sync"

	"github.com/notifyhub/receiver/internal/domain"
)

// MemorySubscriberRepository keeps subscribers in process memory.
// A single RWMutex serialises writers, so concurrent subscribe calls for the
// same pair can never both succeed.
type MemorySubscriberRepository struct {
	mu sync.RWMutex
	// product type -> ordered callback URLs
	byType map[string][]string
}

func NewMemorySubscriberRepository() *MemorySubscriberRepository {
	return &MemorySubscriberRepository{byType: make(map[string][]string)}
}

func (m *MemorySubscriberRepository) Add(_ context.Context, s domain.Subscriber) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byType[s.ProductType] {
		if u == s.URL {
			return domain.ErrDuplicateSubscriber
		}
	}
	m.byType[s.ProductType] = append(m.byType[s.ProductType], s.URL)
	return nil
}

func (m *MemorySubscriberRepository) Remove(_ context.Context, productType, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	urls := m.byType[productType]
	for i, u := range urls {
		if u != url {
			continue
		}
		rest := append(urls[:i:i], urls[i+1:]...)
		if len(rest) == 0 {
			delete(m.byType, productType)
		} else {
			m.byType[productType] = rest
		}
		return nil
	}
	return domain.ErrNotFound
}

// List returns a copy; callers may hold it while the store keeps changing.
func (m *MemorySubscriberRepository) List(_ context.Context, productType string) ([]domain.Subscriber, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	urls := m.byType[productType]
	result := make([]domain.Subscriber, 0, len(urls))
	for _, u := range urls {
		result = append(result, domain.Subscriber{URL: u, ProductType: productType})
	}
	return result, nil
}

func (m *MemorySubscriberRepository) Counts(_ context.Context) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[string]int, len(m.byType))
	for pt, urls := range m.byType {
		counts[pt] = len(urls)
	}
	return counts, nil
}

// compile-time check that MemorySubscriberRepository implements SubscriberRepository
var _ SubscriberRepository = (*MemorySubscriberRepository)(nil)
