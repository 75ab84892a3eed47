package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process memory. It is the default backend:
// the conversation contract does not require state to survive a restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	onEvict  EvictionHook
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithEvictionHook registers a callback fired for every expired session.
func WithEvictionHook(hook EvictionHook) MemoryOption {
	return func(s *MemoryStore) {
		s.onEvict = hook
	}
}

// NewMemoryStore builds an in-memory store. Sessions idle longer than ttl
// are removed by Sweep; ttl <= 0 disables expiry.
func NewMemoryStore(ttl time.Duration, opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnEvict sets the eviction hook after construction, for callers whose
// hook target does not exist yet when the store is built.
func (s *MemoryStore) OnEvict(hook EvictionHook) {
	s.mu.Lock()
	s.onEvict = hook
	s.mu.Unlock()
}

// Get returns the live session for userID, creating an empty one on first
// access.
func (s *MemoryStore) Get(_ context.Context, userID string) (*Session, error) {
	s.mu.RLock()
	sess := s.sessions[userID]
	s.mu.RUnlock()

	if sess != nil {
		return sess, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sess = s.sessions[userID]; sess == nil {
		sess = New(userID)
		s.sessions[userID] = sess
	}
	return sess, nil
}

// Save refreshes the session's activity timestamp. The store hands out live
// pointers, so the caller's mutations are already visible.
func (s *MemoryStore) Save(_ context.Context, sess *Session) error {
	if sess == nil {
		return nil
	}

	sess.UpdatedAt = time.Now().UTC()

	s.mu.Lock()
	s.sessions[sess.UserID] = sess
	s.mu.Unlock()
	return nil
}

// Delete removes the session for userID.
func (s *MemoryStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	delete(s.sessions, userID)
	s.mu.Unlock()
	return nil
}

// FlowCounts reports session occupancy per flow; sessions outside any flow
// are counted under the empty key.
func (s *MemoryStore) FlowCounts(_ context.Context) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, sess := range s.sessions {
		flow := ""
		if sess.Position != nil {
			flow = sess.Position.Flow
		}
		counts[flow]++
	}
	return counts, nil
}

// Sweep removes sessions idle longer than the configured TTL and fires the
// eviction hook for each.
func (s *MemoryStore) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}

	cutoff := time.Now().UTC().Add(-s.ttl)
	var evicted []string

	s.mu.Lock()
	for userID, sess := range s.sessions {
		if sess.UpdatedAt.Before(cutoff) {
			delete(s.sessions, userID)
			evicted = append(evicted, userID)
		}
	}
	hook := s.onEvict
	s.mu.Unlock()

	if hook != nil {
		for _, userID := range evicted {
			hook(userID)
		}
	}
	return len(evicted)
}
