package memory

import (
	"context"
	"sync"

	"codequiz-session-service/internal/domain"
)

// HistoryStore keeps completed-attempt records in memory, newest first.
type HistoryStore struct {
	mu       sync.RWMutex
	attempts map[string][]domain.Attempt
	limit    int
}

func NewHistoryStore(limit int) *HistoryStore {
	if limit <= 0 {
		limit = 100
	}
	return &HistoryStore{
		attempts: make(map[string][]domain.Attempt),
		limit:    limit,
	}
}

func (s *HistoryStore) RecordAttempt(_ context.Context, attempt domain.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := append([]domain.Attempt{attempt}, s.attempts[attempt.UserID]...)
	if len(list) > s.limit {
		list = list[:s.limit]
	}
	s.attempts[attempt.UserID] = list
	return nil
}

// RecentAttempts returns up to n newest attempts for the user.
func (s *HistoryStore) RecentAttempts(_ context.Context, userID string, n int) ([]domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.attempts[userID]
	if n <= 0 || n > len(list) {
		n = len(list)
	}
	out := make([]domain.Attempt, n)
	copy(out, list[:n])
	return out, nil
}
