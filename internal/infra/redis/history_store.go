package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"codequiz-session-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// HistoryStore persists completed-attempt records as a capped Redis list
// per user: LPUSH history:{userID} <json>, trimmed to maxEntries, TTL'd.
type HistoryStore struct {
	client     *redis.Client
	ttl        time.Duration
	maxEntries int64
}

func NewHistoryStore(client *redis.Client, ttl time.Duration, maxEntries int64) *HistoryStore {
	if maxEntries <= 0 {
		maxEntries = 100
	}
	return &HistoryStore{client: client, ttl: ttl, maxEntries: maxEntries}
}

func (s *HistoryStore) RecordAttempt(ctx context.Context, attempt domain.Attempt) error {
	raw, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("marshal attempt: %w", err)
	}

	key := s.key(attempt.UserID)
	pipe := s.client.Pipeline()
	pipe.LPush(ctx, key, raw)
	pipe.LTrim(ctx, key, 0, s.maxEntries-1)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

// RecentAttempts returns up to n newest attempts for the user.
func (s *HistoryStore) RecentAttempts(ctx context.Context, userID string, n int) ([]domain.Attempt, error) {
	if n <= 0 {
		n = int(s.maxEntries)
	}
	raws, err := s.client.LRange(ctx, s.key(userID), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("load attempts: %w", err)
	}

	attempts := make([]domain.Attempt, 0, len(raws))
	for _, raw := range raws {
		var attempt domain.Attempt
		if err := json.Unmarshal([]byte(raw), &attempt); err != nil {
			continue
		}
		attempts = append(attempts, attempt)
	}
	return attempts, nil
}

func (s *HistoryStore) key(userID string) string {
	return "history:" + userID
}
