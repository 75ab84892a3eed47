package session

import "context"

// Store defines the persistence contract for conversation sessions.
// Get creates an empty session on first access and must be safe to call
// repeatedly without resetting existing state.
type Store interface {
	// Get returns the session for userID, creating it when absent.
	Get(ctx context.Context, userID string) (*Session, error)
	// Save persists the session.
	Save(ctx context.Context, sess *Session) error
	// Delete removes the session entirely.
	Delete(ctx context.Context, userID string) error
	// FlowCounts reports how many sessions currently sit in each flow.
	FlowCounts(ctx context.Context) (map[string]int, error)
}

// EvictionHook is invoked when a backend expires a session.
type EvictionHook func(userID string)
