package chat

import (
	"context"
	"sync"
)

// sessionLocks serializes turns per session id. Entries are dropped once no
// caller holds or waits on them.
type sessionLocks struct {
	mu   sync.Mutex
	held map[string]*sessionLock
}

type sessionLock struct {
	sem  chan struct{}
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{held: make(map[string]*sessionLock)}
}

// acquire blocks until the session is free or ctx ends.
func (l *sessionLocks) acquire(ctx context.Context, sessionID string) (func(), error) {
	l.mu.Lock()
	lock, ok := l.held[sessionID]
	if !ok {
		lock = &sessionLock{sem: make(chan struct{}, 1)}
		l.held[sessionID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	select {
	case lock.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(sessionID, lock)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-lock.sem
			l.release(sessionID, lock)
		})
	}, nil
}

func (l *sessionLocks) release(sessionID string, lock *sessionLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock.refs--
	if lock.refs == 0 {
		delete(l.held, sessionID)
	}
}
