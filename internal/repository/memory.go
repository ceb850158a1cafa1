package repository

import (
	"context"
	"sync"
	"time"
)

// MemorySessionStore is the single-process SessionStore used when Redis
// is not configured or unreachable.
type MemorySessionStore struct {
	mu         sync.Mutex
	rateLimits map[string]*rateLimitEntry
	revoked    map[string]revocation
	now        func() time.Time
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

type revocation struct {
	at        time.Time
	expiresAt time.Time
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		rateLimits: make(map[string]*rateLimitEntry),
		revoked:    make(map[string]revocation),
		now:        time.Now,
	}
}

func (r *MemorySessionStore) CheckRateLimit(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	entry, ok := r.rateLimits[key]
	if !ok || now.After(entry.expiresAt) {
		entry = &rateLimitEntry{expiresAt: now.Add(window)}
		r.rateLimits[key] = entry
	}
	entry.count++

	return entry.count <= limit, nil
}

func (r *MemorySessionStore) ResetRateLimit(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rateLimits, key)
	return nil
}

func (r *MemorySessionStore) RevokeTokens(_ context.Context, subject string, at time.Time, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked[subject] = revocation{at: at.Truncate(time.Second), expiresAt: r.now().Add(ttl)}
	return nil
}

func (r *MemorySessionStore) RevokedAt(_ context.Context, subject string) (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rev, ok := r.revoked[subject]
	if !ok {
		return time.Time{}, nil
	}
	if r.now().After(rev.expiresAt) {
		delete(r.revoked, subject)
		return time.Time{}, nil
	}
	return rev.at, nil
}
