// In file: internal/session/registry.go
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned for an unknown session ID.
var ErrSessionNotFound = errors.New("session not found")

type entry struct {
	sess     *Session
	lock     chan struct{}
	lastUsed time.Time
}

// Registry keeps live sessions in memory and hands out exclusive leases, so
// overlapping requests against one session run one after another.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*entry
	now      func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*entry),
		now:      time.Now,
	}
}

// Create registers a new, empty session under a fresh ID.
func (r *Registry) Create() *Session {
	sess := New(uuid.NewString())
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sess.ID()] = &entry{sess: sess, lock: make(chan struct{}, 1), lastUsed: r.now()}
	return sess
}

// Acquire waits for exclusive use of the session. The returned release func
// must be called exactly once.
func (r *Registry) Acquire(ctx context.Context, id string) (*Session, func(), error) {
	r.mu.Lock()
	e, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok {
		return nil, nil, ErrSessionNotFound
	}

	select {
	case e.lock <- struct{}{}:
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			r.mu.Lock()
			e.lastUsed = r.now()
			r.mu.Unlock()
			<-e.lock
		})
	}
	return e.sess, release, nil
}

// Delete forgets a session. It reports whether the session existed.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	return ok
}

// Len is the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Expire removes sessions idle for longer than ttl and returns how many were dropped.
// A session that is currently leased is never expired.
func (r *Registry) Expire(ttl time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.now().Add(-ttl)
	dropped := 0
	for id, e := range r.sessions {
		if len(e.lock) > 0 || e.lastUsed.After(cutoff) {
			continue
		}
		delete(r.sessions, id)
		dropped++
	}
	return dropped
}
