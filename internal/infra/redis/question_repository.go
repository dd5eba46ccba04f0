package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"codequiz-session-service/internal/app"
	"codequiz-session-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuestionLoader fetches question content from a backing store (e.g.,
// Postgres).
type QuestionLoader interface {
	LoadQuestions(ctx context.Context, categoryID, language string) ([]domain.Question, error)
}

// QuestionRepository caches category question lists in Redis and falls
// back to a loader on cache miss. Lists are stored as one JSON blob per
// category+language: SET questions:{categoryID}:{language} <json> EX ttl.
type QuestionRepository struct {
	client *redis.Client
	loader QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuestionRepository(client *redis.Client, loader QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuestionRepository) ListQuestions(ctx context.Context, categoryID string, filter app.QuestionFilter) ([]domain.Question, error) {
	key := r.key(categoryID, filter.Language)

	if raw, err := r.client.Get(ctx, key).Bytes(); err == nil {
		if questions, ok := decodeQuestions(raw); ok {
			return limitQuestions(questions, filter.Limit), nil
		}
	}

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if raw, err := r.client.Get(ctx, key).Bytes(); err == nil {
			if questions, ok := decodeQuestions(raw); ok {
				return questions, nil
			}
		}

		questions, err := r.loader.LoadQuestions(ctx, categoryID, filter.Language)
		if err != nil {
			return nil, err
		}

		if raw, err := json.Marshal(questions); err == nil {
			_ = r.client.Set(ctx, key, raw, r.ttlWithJitter()).Err()
		}
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return limitQuestions(result.([]domain.Question), filter.Limit), nil
}

func (r *QuestionRepository) key(categoryID, language string) string {
	return "questions:" + categoryID + ":" + language
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

func decodeQuestions(raw []byte) ([]domain.Question, bool) {
	var questions []domain.Question
	if err := json.Unmarshal(raw, &questions); err != nil {
		return nil, false
	}
	return questions, true
}

func limitQuestions(questions []domain.Question, limit int) []domain.Question {
	if limit <= 0 || limit >= len(questions) {
		return questions
	}
	return questions[:limit]
}
