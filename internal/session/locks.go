package session

import "sync"

// Locks serializes dispatches per user identifier. Two messages from the
// same user arriving close together (a double-tapped button) must not
// interleave mutations on one session; messages from different users run
// concurrently.
type Locks struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

// lockEntry tracks how many dispatches hold or wait on the user mutex, so
// eviction never removes an entry that is in use.
type lockEntry struct {
	mu      sync.Mutex
	holders int
}

// NewLocks creates an empty lock table.
func NewLocks() *Locks {
	return &Locks{locks: make(map[string]*lockEntry)}
}

// Lock acquires the per-user mutex, blocking while another dispatch for the
// same user is in flight. The returned func releases exactly the mutex that
// was acquired; a concurrent Release for the same user cannot swap it out
// underneath the holder.
func (l *Locks) Lock(userID string) func() {
	l.mu.Lock()
	entry, ok := l.locks[userID]
	if !ok {
		entry = &lockEntry{}
		l.locks[userID] = entry
	}
	entry.holders++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.holders--
		l.mu.Unlock()
	}
}

// Release drops the lock entry for an idle user. Called from eviction hooks
// so the table does not grow beyond the live session set. An entry someone
// holds or waits on stays until a later sweep finds it idle.
func (l *Locks) Release(userID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry, ok := l.locks[userID]; ok && entry.holders == 0 {
		delete(l.locks, userID)
	}
}
