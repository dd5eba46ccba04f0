package app

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"codequiz-session-service/internal/domain"
	"codequiz-session-service/internal/timer"
)

// State is the session controller lifecycle state.
type State int

const (
	StateIdle State = iota
	StateAwaitingLanguage
	StateStarting
	StateActive
	StateFinalizing
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingLanguage:
		return "awaitingLanguage"
	case StateStarting:
		return "starting"
	case StateActive:
		return "active"
	case StateFinalizing:
		return "finalizing"
	case StateCompleted:
		return "completed"
	}
	return "unknown"
}

// Event types pushed to controller subscribers.
const (
	EventState     = "state"
	EventTick      = "tick"
	EventCompleted = "completed"
	EventSyncError = "syncError"
)

// Event is a controller notification for the presentation layer.
type Event struct {
	Type             string               `json:"type"`
	State            string               `json:"state,omitempty"`
	RemainingSeconds int                  `json:"remainingSeconds,omitempty"`
	Summary          *domain.ScoreSummary `json:"summary,omitempty"`
	Message          string               `json:"message,omitempty"`
}

// Controller drives one user's timed attempt at one category. It owns the
// session exclusively, serializes all interaction behind its mutex, and
// guarantees the session finalizes exactly once no matter how many
// triggers race (explicit submit, auto-submit, timer expiry).
type Controller struct {
	userID   string
	category domain.Category

	provider  *Provider
	remote    SessionService // nil in local-only deployments
	history   HistoryStore   // nil disables attempt records
	countdown *timer.Countdown
	clock     func() time.Time

	mu          sync.Mutex
	state       State
	language    string
	session     *domain.Session
	cursor      int
	summary     *domain.ScoreSummary
	subscribers map[chan Event]struct{}
}

// NewController builds a controller in StateIdle.
func NewController(userID string, category domain.Category, provider *Provider, remote SessionService, history HistoryStore) *Controller {
	return NewControllerWithCountdown(userID, category, provider, remote, history, timer.New())
}

// NewControllerWithCountdown injects the countdown, letting tests run at
// millisecond resolution.
func NewControllerWithCountdown(userID string, category domain.Category, provider *Provider, remote SessionService, history HistoryStore, countdown *timer.Countdown) *Controller {
	return &Controller{
		userID:      userID,
		category:    category,
		provider:    provider,
		remote:      remote,
		history:     history,
		countdown:   countdown,
		clock:       time.Now,
		subscribers: make(map[chan Event]struct{}),
	}
}

// SelectLanguage records the language choice for a language-partitioned
// category. For non-partitioned categories it is a no-op beyond storing
// the preference.
func (c *Controller) SelectLanguage(language string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateIdle && c.state != StateAwaitingLanguage {
		return fmt.Errorf("selectLanguage in %s: %w", c.state, domain.ErrInvalidTransition)
	}
	c.language = language
	if c.category.LanguagePartitioned && c.state == StateIdle {
		c.setStateLocked(StateAwaitingLanguage)
	}
	return nil
}

// Start resolves a session via the question provider and begins the
// countdown. For a language-partitioned category with no language chosen
// it parks in StateAwaitingLanguage instead; the caller selects a
// language and starts again.
func (c *Controller) Start(ctx context.Context, opts StartOptions) error {
	c.mu.Lock()
	if c.state != StateIdle && c.state != StateAwaitingLanguage {
		c.mu.Unlock()
		return fmt.Errorf("start in %s: %w", c.state, domain.ErrInvalidTransition)
	}
	if opts.Language != "" {
		c.language = opts.Language
	}
	if c.category.LanguagePartitioned && c.language == "" {
		c.setStateLocked(StateAwaitingLanguage)
		c.mu.Unlock()
		return nil
	}
	opts.Language = c.language
	c.setStateLocked(StateStarting)
	c.mu.Unlock()

	session, err := c.provider.Resolve(ctx, c.category, opts)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateStarting {
		// Finalized or reset underneath us; drop the late result.
		return fmt.Errorf("start superseded in %s: %w", c.state, domain.ErrInvalidTransition)
	}
	if err != nil {
		c.setStateLocked(StateIdle)
		return err
	}

	c.session = session
	c.cursor = 0
	c.setStateLocked(StateActive)
	if err := c.countdown.Start(session.TimeRemainingSeconds, c.handleTick, c.handleExpire); err != nil {
		c.setStateLocked(StateIdle)
		c.session = nil
		return fmt.Errorf("start countdown: %w", err)
	}
	return nil
}

// SubmitAnswer records an answer in the ledger (local-first), then syncs
// it to the remote session best-effort. If the answer completes the set
// while the cursor sits on the final question, the session auto-submits.
func (c *Controller) SubmitAnswer(ctx context.Context, questionID, selectedValue string, timeSpentSeconds int) (domain.Answer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateActive {
		return domain.Answer{}, fmt.Errorf("submitAnswer in %s: %w", c.state, domain.ErrInvalidTransition)
	}

	entry, err := c.session.Ledger.Record(questionID, selectedValue, timeSpentSeconds)
	if err != nil {
		return domain.Answer{}, err
	}

	if c.remote != nil && !c.session.Local() {
		// Local entry is already written; remote failure never rolls it
		// back. The sync runs off the lock so a slow remote cannot stall
		// ticks or other callers.
		sessionID := c.session.ID
		submission := AnswerSubmission{
			QuestionID:       questionID,
			SelectedValue:    selectedValue,
			TimeSpentSeconds: timeSpentSeconds,
		}
		go func() {
			if _, err := c.remote.SubmitAnswer(context.Background(), sessionID, submission); err != nil {
				log.Printf("answer sync failed for session %s question %s: %v", sessionID, questionID, err)
				c.broadcast(Event{Type: EventSyncError, Message: domain.ErrAnswerSync.Error()})
			}
		}()
	}

	if c.session.Ledger.Size() == len(c.session.Questions) && c.cursor == len(c.session.Questions)-1 {
		c.finalizeLocked(ctx)
	}
	return entry, nil
}

// GoToQuestion moves the current-question cursor. The cursor moves freely
// within bounds while the session is active.
func (c *Controller) GoToQuestion(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateActive {
		return fmt.Errorf("goToQuestion in %s: %w", c.state, domain.ErrInvalidTransition)
	}
	if index < 0 || index >= len(c.session.Questions) {
		return fmt.Errorf("question index %d out of range", index)
	}
	c.cursor = index
	return nil
}

// SubmitQuiz finalizes the session on the user's request, regardless of
// how many questions are answered.
func (c *Controller) SubmitQuiz(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateActive {
		return fmt.Errorf("submitQuiz in %s: %w", c.state, domain.ErrInvalidTransition)
	}
	c.finalizeLocked(ctx)
	return nil
}

func (c *Controller) handleTick(remaining int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateActive {
		return
	}
	c.session.TimeRemainingSeconds = remaining
	c.broadcastLocked(Event{Type: EventTick, RemainingSeconds: remaining})
}

func (c *Controller) handleExpire() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateActive {
		// Explicit submit won the race; expiry is a no-op.
		return
	}
	c.finalizeLocked(context.Background())
}

// finalizeLocked runs the Finalizing -> Completed transition exactly once.
// Callers hold c.mu and have verified state is Active. The lock is
// dropped around the remote finalize call and reacquired before return.
func (c *Controller) finalizeLocked(ctx context.Context) {
	c.setStateLocked(StateFinalizing)
	c.countdown.Cancel()

	local := domain.Score(c.session)
	summary := local
	if c.remote != nil && !c.session.Local() {
		// Finalizing fences off every other transition, so the lock can be
		// released while the remote call is in flight. Observers stay
		// responsive and re-entrant finalize triggers see Finalizing and
		// bail out.
		sessionID := c.session.ID
		c.mu.Unlock()
		remote, err := c.remote.FinalizeSession(ctx, sessionID)
		c.mu.Lock()
		if err != nil {
			// Finalization never fails: the local ledger always yields a result.
			log.Printf("remote finalize failed for session %s, using local score: %v", sessionID, err)
		} else {
			summary = remote
		}
	}
	c.summary = &summary
	c.setStateLocked(StateCompleted)
	c.broadcastLocked(Event{Type: EventCompleted, Summary: c.summary})

	if c.history != nil {
		attempt := domain.Attempt{
			SessionID:            c.session.ID,
			UserID:               c.userID,
			CategoryID:           c.category.ID,
			Language:             c.session.Language,
			Local:                c.session.Local(),
			LanguageFallbackUsed: c.session.LanguageFallbackUsed,
			Summary:              summary,
			CompletedAt:          c.clock(),
		}
		go func() {
			if err := c.history.RecordAttempt(context.Background(), attempt); err != nil {
				log.Printf("record attempt for session %s: %v", attempt.SessionID, err)
			}
		}()
	}
}

func (c *Controller) setStateLocked(next State) {
	c.state = next
	c.broadcastLocked(Event{Type: EventState, State: next.String()})
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// TimeRemaining returns the remaining seconds, 0 when no session is active.
func (c *Controller) TimeRemaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return 0
	}
	return c.session.TimeRemainingSeconds
}

// AnsweredCount returns how many questions have recorded answers.
func (c *Controller) AnsweredCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return 0
	}
	return c.session.Ledger.Size()
}

// CurrentIndex returns the question cursor.
func (c *Controller) CurrentIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor
}

// CurrentQuestion returns the question under the cursor.
func (c *Controller) CurrentQuestion() (domain.Question, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil || c.cursor >= len(c.session.Questions) {
		return domain.Question{}, false
	}
	return c.session.Questions[c.cursor], true
}

// Session exposes the active session for read-only use by the transport
// layer. Nil until Start succeeds.
func (c *Controller) Session() *domain.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Summary returns the frozen score summary once the session completes.
func (c *Controller) Summary() (domain.ScoreSummary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.summary == nil {
		return domain.ScoreSummary{}, false
	}
	return *c.summary, true
}

// Subscribe returns a channel of controller events. The caller must invoke
// the returned cancel function to avoid leaks.
func (c *Controller) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)

	c.mu.Lock()
	c.subscribers[ch] = struct{}{}
	// The snapshot goes out under the lock so no broadcast can slip in
	// ahead of it. The fresh buffered channel cannot block here.
	ch <- Event{Type: EventState, State: c.state.String()}
	c.mu.Unlock()

	cancel := func() {
		c.mu.Lock()
		if _, ok := c.subscribers[ch]; ok {
			delete(c.subscribers, ch)
			close(ch)
		}
		c.mu.Unlock()
	}
	return ch, cancel
}

func (c *Controller) broadcast(event Event) {
	c.mu.Lock()
	c.broadcastLocked(event)
	c.mu.Unlock()
}

func (c *Controller) broadcastLocked(event Event) {
	for ch := range c.subscribers {
		select {
		case ch <- event:
		default:
			// Drop the oldest pending event so slow consumers never block
			// the controller.
			select {
			case <-ch:
			default:
			}
			ch <- event
		}
	}
}
