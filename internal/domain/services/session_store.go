package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"honeytrap/internal/domain/models"
)

// ErrLockNotAcquired is returned when a session lock could not be taken
// within the configured wait.
var ErrLockNotAcquired = errors.New("session lock not acquired")

// SessionStore persists honeypot sessions.
type SessionStore interface {
	// Get returns models.ErrSessionNotFound for unknown ids.
	Get(ctx context.Context, id string) (*models.Session, error)
	Save(ctx context.Context, session *models.Session) error
}

// SessionLocker serializes turns of the same session so that concurrent
// requests cannot lose each other's merges.
type SessionLocker interface {
	Lock(ctx context.Context, id string) (unlock func(), err error)
}

// MemorySessionStore keeps sessions in process memory. Sessions are copied
// on the way in and out so callers never share state with the store.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
}

// NewMemorySessionStore creates an empty in-memory store
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]*models.Session)}
}

func (s *MemorySessionStore) Get(_ context.Context, id string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, models.ErrSessionNotFound
	}
	return sess.Clone(), nil
}

func (s *MemorySessionStore) Save(_ context.Context, session *models.Session) error {
	if session == nil || session.ID == "" {
		return errors.New("session without id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.ID] = session.Clone()
	return nil
}

// Len returns the number of stored sessions.
func (s *MemorySessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// MemoryLocker is a keyed mutex. Entries are reference counted and removed
// once no caller holds or waits for them.
type MemoryLocker struct {
	wait time.Duration

	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	sem  chan struct{}
	refs int
}

// NewMemoryLocker creates a locker whose Lock gives up after wait. A zero
// wait blocks until the context ends.
func NewMemoryLocker(wait time.Duration) *MemoryLocker {
	return &MemoryLocker{wait: wait, locks: make(map[string]*keyedLock)}
}

func (l *MemoryLocker) Lock(ctx context.Context, id string) (func(), error) {
	entry := l.acquire(id)

	if l.wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.wait)
		defer cancel()
	}

	select {
	case entry.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(id)
		return nil, ErrLockNotAcquired
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-entry.sem
			l.release(id)
		})
	}, nil
}

func (l *MemoryLocker) acquire(id string) *keyedLock {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.locks[id]
	if !ok {
		entry = &keyedLock{sem: make(chan struct{}, 1)}
		l.locks[id] = entry
	}
	entry.refs++
	return entry
}

func (l *MemoryLocker) release(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.locks[id]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, id)
	}
}
