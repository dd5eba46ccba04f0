package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	"codequiz-session-service/internal/domain"
	"github.com/google/uuid"
)

// QuestionFilter narrows a category question fetch.
type QuestionFilter struct {
	Limit    int
	Language string
}

// QuestionRepository loads question content for a category (from
// cache/backing store).
type QuestionRepository interface {
	ListQuestions(ctx context.Context, categoryID string, filter QuestionFilter) ([]domain.Question, error)
}

// CategoryRepository loads category metadata.
type CategoryRepository interface {
	GetCategory(ctx context.Context, id string) (domain.Category, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
}

// StartRequest is the payload for creating a remote session.
type StartRequest struct {
	CategoryID       string
	Language         string
	QuestionCount    int
	TimeLimitSeconds int
}

// AnswerSubmission is the payload for syncing an answer to a remote session.
type AnswerSubmission struct {
	QuestionID       string
	SelectedValue    string
	TimeSpentSeconds int
}

// SessionService is the external, best-effort remote session backend.
// Implementations return domain.ErrNoActiveSession when no resumable
// session exists and domain.ErrRemoteUnavailable on transport failures.
type SessionService interface {
	StartSession(ctx context.Context, req StartRequest) (*domain.Session, error)
	ActiveSession(ctx context.Context, categoryID string) (*domain.Session, error)
	SubmitAnswer(ctx context.Context, sessionID string, sub AnswerSubmission) (domain.Answer, error)
	FinalizeSession(ctx context.Context, sessionID string) (domain.ScoreSummary, error)
}

// HistoryStore persists completed-attempt records for later analytics.
// Failures are logged by callers and never block finalization.
type HistoryStore interface {
	RecordAttempt(ctx context.Context, attempt domain.Attempt) error
}

// StartOptions configures session creation. Zero values fall back to the
// provider defaults.
type StartOptions struct {
	Language         string
	QuestionCount    int
	TimeLimitSeconds int
}

// Provider resolves a session for a category: resume a remote session if
// one exists, otherwise create one remotely, otherwise synthesize a local
// session from a raw question fetch.
type Provider struct {
	questions QuestionRepository
	remote    SessionService // nil when no remote backend is configured

	defaultCount     int
	defaultTimeLimit int
	newID            func() string
}

// NewProvider builds a provider. remote may be nil.
func NewProvider(questions QuestionRepository, remote SessionService, defaultCount, defaultTimeLimit int) *Provider {
	if defaultCount <= 0 {
		defaultCount = 10
	}
	if defaultTimeLimit <= 0 {
		defaultTimeLimit = 1800
	}
	return &Provider{
		questions:        questions,
		remote:           remote,
		defaultCount:     defaultCount,
		defaultTimeLimit: defaultTimeLimit,
		newID:            func() string { return domain.LocalSessionPrefix + uuid.NewString() },
	}
}

// Resolve produces a session for the category. The returned session's
// question list is fixed for its lifetime regardless of which path
// produced it.
func (p *Provider) Resolve(ctx context.Context, category domain.Category, opts StartOptions) (*domain.Session, error) {
	if opts.QuestionCount <= 0 {
		opts.QuestionCount = p.defaultCount
	}
	if opts.TimeLimitSeconds <= 0 {
		opts.TimeLimitSeconds = p.defaultTimeLimit
	}

	if p.remote != nil {
		session, err := p.resolveRemote(ctx, category, opts)
		if err == nil {
			return session, nil
		}
		// Remote declined or unreachable; recover via the local path.
		log.Printf("remote session path failed for category %s: %v", category.ID, err)
	}

	return p.resolveLocal(ctx, category, opts)
}

func (p *Provider) resolveRemote(ctx context.Context, category domain.Category, opts StartOptions) (*domain.Session, error) {
	// Resume path first: an in-flight remote session survives page reloads.
	session, err := p.remote.ActiveSession(ctx, category.ID)
	if err != nil {
		if !errors.Is(err, domain.ErrNoActiveSession) {
			return nil, fmt.Errorf("resume session: %w", err)
		}
		session, err = p.remote.StartSession(ctx, StartRequest{
			CategoryID:       category.ID,
			Language:         opts.Language,
			QuestionCount:    opts.QuestionCount,
			TimeLimitSeconds: opts.TimeLimitSeconds,
		})
		if err != nil {
			return nil, fmt.Errorf("start remote session: %w", err)
		}
	}
	if len(session.Questions) == 0 {
		return nil, fmt.Errorf("remote session %s: %w", session.ID, domain.ErrRemoteUnavailable)
	}
	if session.TimeRemainingSeconds <= 0 {
		session.TimeRemainingSeconds = session.TimeLimitSeconds
	}
	if session.Ledger == nil {
		session.Ledger = domain.NewLedger(session.Questions)
	}
	return session, nil
}

func (p *Provider) resolveLocal(ctx context.Context, category domain.Category, opts StartOptions) (*domain.Session, error) {
	filter := QuestionFilter{Limit: opts.QuestionCount, Language: opts.Language}
	questions, err := p.questions.ListQuestions(ctx, category.ID, filter)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	fallbackUsed := false
	if len(questions) == 0 && opts.Language != "" {
		// The language filter can empty out sparse categories; retry
		// unfiltered and flag the session.
		questions, err = p.questions.ListQuestions(ctx, category.ID, QuestionFilter{Limit: opts.QuestionCount})
		if err != nil {
			return nil, fmt.Errorf("list questions unfiltered: %w", err)
		}
		fallbackUsed = true
	}
	if len(questions) == 0 {
		return nil, domain.ErrNoQuestions
	}

	session := &domain.Session{
		ID:                   p.newID(),
		CategoryID:           category.ID,
		Language:             opts.Language,
		Questions:            questions,
		TimeLimitSeconds:     opts.TimeLimitSeconds,
		TimeRemainingSeconds: opts.TimeLimitSeconds,
		LanguageFallbackUsed: fallbackUsed,
	}
	session.Ledger = domain.NewLedger(session.Questions)
	return session, nil
}
