package repository

import (
	"context"
	"sync"

	"botonic-backend/internal/models"
)

// MemoryQuotaStore keeps counters in process memory for single-instance deployments.
// Only the newest day seen and the day before it are retained.
type MemoryQuotaStore struct {
	mu     sync.Mutex
	counts map[models.QuotaKey]int
	latest string
	prior  string
}

func NewMemoryQuotaStore() *MemoryQuotaStore {
	return &MemoryQuotaStore{counts: make(map[models.QuotaKey]int)}
}

func (s *MemoryQuotaStore) Consume(_ context.Context, key models.QuotaKey, limit int, enforce bool) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rollDay(key.Day)

	n := s.counts[key]
	if enforce && n >= limit {
		return n, false, nil
	}
	n++
	s.counts[key] = n
	return n, true, nil
}

func (s *MemoryQuotaStore) Count(_ context.Context, key models.QuotaKey) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[key], nil
}

// Len is the number of live counters.
func (s *MemoryQuotaStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.counts)
}

// rollDay evicts counters older than the prior day once a newer day shows up.
// Days are ISO dates, so string order is calendar order. Caller holds mu.
func (s *MemoryQuotaStore) rollDay(day string) {
	if day <= s.latest {
		return
	}
	s.prior, s.latest = s.latest, day
	for k := range s.counts {
		if k.Day != s.latest && k.Day != s.prior {
			delete(s.counts, k)
		}
	}
}
