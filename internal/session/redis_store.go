package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPattern  = "session:%s"
	sessionScanPattern = "session:*"
	sessionScanBatch   = 100
)

// RedisStore persists sessions in Redis with a rolling TTL. It is an
// optional backend; losing the data only resets conversations.
type RedisStore struct {
	client *redis.Client
	log    *slog.Logger
	ttl    time.Duration
}

// NewRedisStore initializes a Redis-backed Store implementation.
func NewRedisStore(client *redis.Client, log *slog.Logger, ttl time.Duration) *RedisStore {
	if log == nil {
		log = slog.Default()
	}
	if ttl <= 0 {
		ttl = time.Hour
	}

	return &RedisStore{
		client: client,
		log:    log,
		ttl:    ttl,
	}
}

// Get loads the stored session or creates an empty one when absent.
func (s *RedisStore) Get(ctx context.Context, userID string) (*Session, error) {
	key := redisSessionKey(userID)

	data, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return New(userID), nil
		}

		s.log.Error("failed to get session from redis", "user_id", userID, "error", err)
		return nil, err
	}

	var sess Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		s.log.Error("failed to decode session", "user_id", userID, "error", err)
		return nil, err
	}
	if sess.Values == nil {
		sess.Values = make(map[string]any)
	}

	return &sess, nil
}

// Save stores the session, refreshing the TTL.
func (s *RedisStore) Save(ctx context.Context, sess *Session) error {
	if sess == nil {
		return nil
	}

	sess.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(sess)
	if err != nil {
		s.log.Error("failed to encode session", "user_id", sess.UserID, "error", err)
		return err
	}

	key := redisSessionKey(sess.UserID)
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		s.log.Error("failed to save session in redis", "user_id", sess.UserID, "error", err)
		return err
	}

	return nil
}

// Delete removes the stored session.
func (s *RedisStore) Delete(ctx context.Context, userID string) error {
	key := redisSessionKey(userID)
	if err := s.client.Del(ctx, key).Err(); err != nil {
		s.log.Error("failed to delete session", "user_id", userID, "error", err)
		return err
	}

	return nil
}

// FlowCounts scans stored sessions and reports occupancy per flow.
func (s *RedisStore) FlowCounts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int)

	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, sessionScanPattern, sessionScanBatch).Result()
		if err != nil {
			return nil, fmt.Errorf("scan sessions: %w", err)
		}

		for _, key := range keys {
			data, err := s.client.Get(ctx, key).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}
				return nil, err
			}

			var sess Session
			if err := json.Unmarshal([]byte(data), &sess); err != nil {
				s.log.Warn("skipping undecodable session", "key", key, "error", err)
				continue
			}

			flow := ""
			if sess.Position != nil {
				flow = sess.Position.Flow
			}
			counts[flow]++
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return counts, nil
}

func redisSessionKey(userID string) string {
	return fmt.Sprintf(sessionKeyPattern, userID)
}
