package services

import (
	"context"
	"fmt"
	"time"

	"botonic-backend/internal/models"
)

// QuotaStore holds the per-key request counters. Consume must check and increment
// as one atomic step per key.
type QuotaStore interface {
	// Consume increments the counter for key unless enforce is set and the stored
	// count is already >= limit. It returns the count after the call.
	Consume(ctx context.Context, key models.QuotaKey, limit int, enforce bool) (count int, allowed bool, err error)
	// Count returns the current counter without changing it.
	Count(ctx context.Context, key models.QuotaKey) (int, error)
}

type QuotaDecision struct {
	Key     models.QuotaKey
	Count   int
	Allowed bool
}

// QuotaTracker decides whether an identity may make another chat request today.
type QuotaTracker struct {
	store QuotaStore
	limit int
	now   func() time.Time
}

func NewQuotaTracker(store QuotaStore, dailyLimit int) *QuotaTracker {
	if dailyLimit < 0 {
		dailyLimit = 0
	}
	return &QuotaTracker{store: store, limit: dailyLimit, now: time.Now}
}

// Today is the tracker's own calendar day. Callers never supply it.
func (t *QuotaTracker) Today() string {
	return t.now().Format("2006-01-02")
}

func (t *QuotaTracker) Limit() int { return t.limit }

func (t *QuotaTracker) KeyFor(id Identity) models.QuotaKey {
	return models.QuotaKey{Identity: id.Key(), Day: t.Today()}
}

// CheckAndConsume records one request for id. Authenticated identities are never
// denied but are still counted.
func (t *QuotaTracker) CheckAndConsume(ctx context.Context, id Identity) (QuotaDecision, error) {
	key := t.KeyFor(id)
	count, allowed, err := t.store.Consume(ctx, key, t.limit, !id.Authenticated())
	if err != nil {
		return QuotaDecision{Key: key}, fmt.Errorf("quota consume %s: %w", key, err)
	}
	return QuotaDecision{Key: key, Count: count, Allowed: allowed}, nil
}

// Status reports today's usage for id without consuming anything.
func (t *QuotaTracker) Status(ctx context.Context, id Identity) (models.UsageStatus, error) {
	key := t.KeyFor(id)
	used, err := t.store.Count(ctx, key)
	if err != nil {
		return models.UsageStatus{}, fmt.Errorf("quota count %s: %w", key, err)
	}
	st := models.UsageStatus{
		Identity:  key.Identity,
		Day:       key.Day,
		Used:      used,
		Limit:     t.limit,
		Unlimited: id.Authenticated(),
	}
	if !st.Unlimited && used < t.limit {
		st.Remaining = t.limit - used
	}
	return st, nil
}
