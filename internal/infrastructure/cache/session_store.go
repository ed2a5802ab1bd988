package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"honeytrap/internal/domain/models"
	"honeytrap/internal/domain/services"
)

// SessionStore keeps honeypot sessions in Redis as JSON. Every save
// refreshes the TTL.
type SessionStore struct {
	cache *RedisCache
	ttl   time.Duration
}

// NewSessionStore creates a Redis-backed session store
func NewSessionStore(cache *RedisCache, ttl time.Duration) *SessionStore {
	return &SessionStore{cache: cache, ttl: ttl}
}

func (s *SessionStore) Get(ctx context.Context, id string) (*models.Session, error) {
	var session models.Session
	err := s.cache.GetJSON(ctx, KeySessionPrefix+id, &session)
	if errors.Is(err, ErrCacheMiss) {
		return nil, models.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}
	return &session, nil
}

func (s *SessionStore) Save(ctx context.Context, session *models.Session) error {
	if session == nil || session.ID == "" {
		return errors.New("session without id")
	}
	if err := s.cache.SetJSON(ctx, KeySessionPrefix+session.ID, session, s.ttl); err != nil {
		return fmt.Errorf("failed to save session %s: %w", session.ID, err)
	}
	return nil
}

// SessionLocker is a SETNX lock per session. Lock polls until the lock is
// free, the wait expires or the context ends.
type SessionLocker struct {
	cache *RedisCache
	ttl   time.Duration
	wait  time.Duration
	poll  time.Duration
}

// NewSessionLocker creates a locker. ttl bounds how long a crashed holder
// can block a session; wait bounds how long Lock retries.
func NewSessionLocker(cache *RedisCache, ttl, wait time.Duration) *SessionLocker {
	return &SessionLocker{cache: cache, ttl: ttl, wait: wait, poll: 25 * time.Millisecond}
}

func (l *SessionLocker) Lock(ctx context.Context, id string) (func(), error) {
	token := uuid.NewString()

	if l.wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.wait)
		defer cancel()
	}

	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()

	for {
		ok, err := l.cache.AcquireLock(ctx, id, token, l.ttl)
		if err != nil && ctx.Err() == nil {
			return nil, fmt.Errorf("failed to acquire session lock: %w", err)
		}
		if ok {
			return func() {
				// the caller's context may already be done
				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				if err := l.cache.ReleaseLock(ctx, id, token); err != nil {
					l.cache.logger.Warn().Err(err).Str("session_id", id).Msg("failed to release session lock")
				}
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, services.ErrLockNotAcquired
		case <-ticker.C:
		}
	}
}
