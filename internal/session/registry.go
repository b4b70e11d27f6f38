package session

import (
	"sync"
	"time"
)

const sweepInterval = time.Minute

// Registry tracks every active session by ID. Sessions are created on first
// use (always starting in simulation mode) and evicted once idle for longer
// than the TTL, stopping any live monitor they still own.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	deps     Deps
	ttl      time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewRegistry creates a registry; ttl <= 0 disables idle eviction.
func NewRegistry(deps Deps, ttl time.Duration) *Registry {
	r := &Registry{
		sessions: make(map[string]*Session),
		deps:     deps,
		ttl:      ttl,
		stopCh:   make(chan struct{}),
	}
	if ttl > 0 {
		go r.sweepLoop()
	}
	return r
}

// Get returns the session for id, creating it if absent.
func (r *Registry) Get(id string) *Session {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		return s
	}
	s = newSession(id, r.deps)
	r.sessions[id] = s
	return s
}

// Len reports the number of tracked sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.evictIdle()
		case <-r.stopCh:
			return
		}
	}
}

func (r *Registry) evictIdle() {
	cutoff := time.Now().Add(-r.ttl)

	r.mu.Lock()
	var expired []*Session
	for id, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		s.Close()
	}
}

// Stop halts the sweeper and closes every session.
func (r *Registry) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })

	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for id, s := range r.sessions {
		sessions = append(sessions, s)
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
