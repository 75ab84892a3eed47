// Package session manages per-user conversation state: the scratch value
// bag, the current flow position, and the storage backends that hold them.
package session

import (
	"encoding/json"
	"time"

	"github.com/kinoscout/movie-bot/internal/domain"
)

// Position is the session's current place in the conversation graph.
// A nil *Position means the session is outside of any flow.
type Position struct {
	Flow string `json:"flow"`
	Step int    `json:"step"`
}

// Session is the mutable conversation state of a single user. A session
// belongs to exactly one user identifier; the stage serializes all access,
// so methods are not internally synchronized.
type Session struct {
	UserID    string         `json:"user_id"`
	Position  *Position      `json:"position,omitempty"`
	Values    map[string]any `json:"values"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// New returns an empty session for the given user.
func New(userID string) *Session {
	return &Session{
		UserID: userID,
		Values: make(map[string]any),
	}
}

// Set stores a scratch value under key.
func (s *Session) Set(key string, value any) {
	if s.Values == nil {
		s.Values = make(map[string]any)
	}
	s.Values[key] = value
}

// Get returns the raw scratch value for key.
func (s *Session) Get(key string) (any, bool) {
	if s.Values == nil {
		return nil, false
	}
	v, ok := s.Values[key]
	return v, ok
}

// GetString returns the scratch value for key as a string.
func (s *Session) GetString(key string) (string, bool) {
	v, ok := s.Get(key)
	if !ok {
		return "", false
	}
	str, ok := v.(string)
	return str, ok
}

// GetBool returns the scratch value for key as a bool.
func (s *Session) GetBool(key string) bool {
	v, ok := s.Get(key)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// GetInt returns the scratch value for key as an int. Values loaded from a
// JSON backend arrive as float64 and are converted.
func (s *Session) GetInt(key string) (int, bool) {
	v, ok := s.Get(key)
	if !ok {
		return 0, false
	}

	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

// GetStrings returns the scratch value for key as a string slice, accepting
// the []any form produced by a JSON round trip.
func (s *Session) GetStrings(key string) ([]string, bool) {
	v, ok := s.Get(key)
	if !ok {
		return nil, false
	}

	switch list := v.(type) {
	case []string:
		return list, true
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			str, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, str)
		}
		return out, true
	default:
		return nil, false
	}
}

// GetMovies returns the scratch value for key as a movie list. Values that
// went through a JSON backend are re-decoded into the typed form.
func (s *Session) GetMovies(key string) ([]domain.Movie, bool) {
	v, ok := s.Get(key)
	if !ok {
		return nil, false
	}

	if movies, ok := v.([]domain.Movie); ok {
		return movies, true
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}

	var movies []domain.Movie
	if err := json.Unmarshal(raw, &movies); err != nil {
		return nil, false
	}
	return movies, true
}

// Reset deletes the given scratch keys, leaving everything else intact.
// Used when re-entering the root flow to avoid stale cross-flow leakage.
func (s *Session) Reset(keys ...string) {
	if s.Values == nil {
		return
	}
	for _, key := range keys {
		delete(s.Values, key)
	}
}
