package cache

import (
	"context"
	"sync"
	"time"

	"github.com/inkwell/backend/internal/domain/shared"
)

type claim struct {
	expiresAt time.Time
}

// InMemoryIdempotencyStore implements shared.IdempotencyStore with a local
// map. Suitable for single-instance deployments and tests; claims are not
// shared across processes.
type InMemoryIdempotencyStore struct {
	mu        sync.RWMutex
	claims    map[string]claim
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryIdempotencyStore creates an in-memory idempotency store and
// starts a goroutine that evicts expired claims
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	store := &InMemoryIdempotencyStore{
		claims:   make(map[string]claim),
		stopChan: make(chan struct{}),
	}

	store.wg.Add(1)
	go store.evictLoop()

	return store
}

// MarkProcessed claims the key for the given TTL. Returns true when the key
// was newly claimed, false when a previous claim is still live.
func (s *InMemoryIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, exists := s.claims[key]; exists && time.Now().Before(c.expiresAt) {
		return false, nil
	}

	s.claims[key] = claim{expiresAt: time.Now().Add(ttl)}
	return true, nil
}

// IsProcessed reports whether the key has a live claim
func (s *InMemoryIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, exists := s.claims[key]
	if !exists || time.Now().After(c.expiresAt) {
		return false, nil
	}

	return true, nil
}

// Close stops the eviction goroutine. Safe to call multiple times.
func (s *InMemoryIdempotencyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemoryIdempotencyStore) evictLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.evictExpired()
		}
	}
}

func (s *InMemoryIdempotencyStore) evictExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, c := range s.claims {
		if now.After(c.expiresAt) {
			delete(s.claims, key)
		}
	}
}

// Size returns the number of live and expired claims held by the store
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.claims)
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
