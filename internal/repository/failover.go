package repository

import (
	"context"
	"sync/atomic"
	"time"

	"meetmed/internal/domain"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverSessionStore routes calls to the primary store and switches to
// the fallback when the primary errors. The primary is retried once per
// recoveryInterval.
type FailoverSessionStore struct {
	primary   domain.SessionStore
	fallback  domain.SessionStore
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
	now       func() time.Time
}

func NewFailoverSessionStore(primary, fallback domain.SessionStore, logger *zerolog.Logger) *FailoverSessionStore {
	return &FailoverSessionStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

// usePrimary reports whether the next call should try the primary store.
func (r *FailoverSessionStore) usePrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	return r.now().Sub(time.Unix(0, r.lastCheck.Load())) > recoveryInterval
}

func (r *FailoverSessionStore) markDown(err error) {
	if !r.isDown.Swap(true) {
		r.logger.Error().Err(err).Msg("Primary session store failed, falling back to memory")
	}
	r.lastCheck.Store(r.now().UnixNano())
}

func (r *FailoverSessionStore) markUp() {
	if r.isDown.Swap(false) {
		r.logger.Info().Msg("Primary session store recovered")
	}
}

func (r *FailoverSessionStore) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.usePrimary() {
		allowed, err := r.primary.CheckRateLimit(ctx, key, limit, window)
		if err == nil {
			r.markUp()
			return allowed, nil
		}
		r.markDown(err)
	}
	return r.fallback.CheckRateLimit(ctx, key, limit, window)
}

func (r *FailoverSessionStore) ResetRateLimit(ctx context.Context, key string) error {
	// Clear both so a stale fallback counter never outlives a recovery.
	_ = r.fallback.ResetRateLimit(ctx, key)
	if r.usePrimary() {
		err := r.primary.ResetRateLimit(ctx, key)
		if err == nil {
			r.markUp()
			return nil
		}
		r.markDown(err)
	}
	return nil
}

// RevokeTokens always records the mark in the fallback too, so a later
// primary outage cannot resurrect revoked tokens on this instance.
func (r *FailoverSessionStore) RevokeTokens(ctx context.Context, subject string, at time.Time, ttl time.Duration) error {
	if err := r.fallback.RevokeTokens(ctx, subject, at, ttl); err != nil {
		return err
	}
	if r.usePrimary() {
		err := r.primary.RevokeTokens(ctx, subject, at, ttl)
		if err == nil {
			r.markUp()
			return nil
		}
		r.markDown(err)
	}
	return nil
}

// RevokedAt returns the latest mark known to either store.
func (r *FailoverSessionStore) RevokedAt(ctx context.Context, subject string) (time.Time, error) {
	local, err := r.fallback.RevokedAt(ctx, subject)
	if err != nil {
		return time.Time{}, err
	}
	if r.usePrimary() {
		remote, err := r.primary.RevokedAt(ctx, subject)
		if err == nil {
			r.markUp()
			if remote.After(local) {
				return remote, nil
			}
			return local, nil
		}
		r.markDown(err)
	}
	return local, nil
}
