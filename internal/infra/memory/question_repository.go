package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"codequiz-session-service/internal/app"
	"codequiz-session-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// QuestionLoader fetches question content from a backing store (e.g.,
// Postgres). Language filtering happens in the loader; limits are applied
// by the repository so cached lists stay reusable.
type QuestionLoader interface {
	LoadQuestions(ctx context.Context, categoryID, language string) ([]domain.Question, error)
}

// QuestionRepository caches category question lists with TTL to avoid
// repeated backing-store hits.
type QuestionRepository struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedQuestions
}

type cachedQuestions struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionRepository(loader QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedQuestions),
	}
}

func (r *QuestionRepository) ListQuestions(ctx context.Context, categoryID string, filter app.QuestionFilter) ([]domain.Question, error) {
	key := categoryID + "|" + filter.Language
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[key]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return limitQuestions(entry.questions, filter.Limit), nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[key]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.questions, nil
		}
		r.mu.RUnlock()

		questions, err := r.loader.LoadQuestions(ctx, categoryID, filter.Language)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.cache[key] = cachedQuestions{
			questions: questions,
			expiresAt: now.Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return limitQuestions(result.([]domain.Question), filter.Limit), nil
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

func limitQuestions(questions []domain.Question, limit int) []domain.Question {
	if limit <= 0 || limit >= len(questions) {
		out := make([]domain.Question, len(questions))
		copy(out, questions)
		return out
	}
	out := make([]domain.Question, limit)
	copy(out, questions[:limit])
	return out
}

// StaticQuestionLoader serves questions from an in-memory map (useful for
// tests/demos).
type StaticQuestionLoader struct {
	questions map[string][]domain.Question
}

func NewStaticQuestionLoader(questions map[string][]domain.Question) *StaticQuestionLoader {
	return &StaticQuestionLoader{questions: questions}
}

func (l *StaticQuestionLoader) LoadQuestions(_ context.Context, categoryID, language string) ([]domain.Question, error) {
	all, ok := l.questions[categoryID]
	if !ok {
		return nil, nil
	}
	if language == "" {
		return all, nil
	}
	var filtered []domain.Question
	for _, q := range all {
		if q.Language == language {
			filtered = append(filtered, q)
		}
	}
	return filtered, nil
}
