package http

import (
	"codequiz-session-service/internal/app"
	"codequiz-session-service/internal/domain"
)

// Sanitized views: correct answers never leave the server while a session
// is in flight.

type optionView struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type questionView struct {
	ID          string       `json:"id"`
	Prompt      string       `json:"prompt"`
	Options     []optionView `json:"options,omitempty"`
	Points      int          `json:"points"`
	Difficulty  string       `json:"difficulty,omitempty"`
	Language    string       `json:"language,omitempty"`
	CodeSnippet string       `json:"codeSnippet,omitempty"`
}

type sessionView struct {
	ID                   string         `json:"id"`
	CategoryID           string         `json:"categoryId"`
	Language             string         `json:"language,omitempty"`
	Local                bool           `json:"local"`
	LanguageFallbackUsed bool           `json:"languageFallbackUsed"`
	TimeLimitSeconds     int            `json:"timeLimitSeconds"`
	TimeRemainingSeconds int            `json:"timeRemainingSeconds"`
	State                string         `json:"state"`
	CurrentIndex         int            `json:"currentIndex"`
	Questions            []questionView `json:"questions"`
}

func newQuestionView(q domain.Question) questionView {
	view := questionView{
		ID:          q.ID,
		Prompt:      q.Prompt,
		Points:      q.PointValue(),
		Difficulty:  q.Difficulty,
		Language:    q.Language,
		CodeSnippet: q.CodeSnippet,
	}
	for _, opt := range q.Options {
		view.Options = append(view.Options, optionView{ID: opt.ID, Text: opt.Text})
	}
	return view
}

func newSessionView(session *domain.Session, state app.State, cursor int) sessionView {
	view := sessionView{
		ID:                   session.ID,
		CategoryID:           session.CategoryID,
		Language:             session.Language,
		Local:                session.Local(),
		LanguageFallbackUsed: session.LanguageFallbackUsed,
		TimeLimitSeconds:     session.TimeLimitSeconds,
		TimeRemainingSeconds: session.TimeRemainingSeconds,
		State:                state.String(),
		CurrentIndex:         cursor,
	}
	for _, q := range session.Questions {
		view.Questions = append(view.Questions, newQuestionView(q))
	}
	return view
}
