package domain

import (
	"strings"
	"time"
)

// LocalSessionPrefix tags session IDs synthesized client-side when the
// remote session service is unavailable. Remote IDs are opaque and never
// carry it.
const LocalSessionPrefix = "local-"

// Category describes a question category. Owned by the external category
// service; read-only here.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Difficulty  string `json:"difficulty"`
	// LanguagePartitioned marks categories whose questions are split by
	// programming language (program-analysis categories).
	LanguagePartitioned bool `json:"languagePartitioned"`
}

// Option represents a selectable answer for a question.
type Option struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Question models a quiz question. Either Options carries exactly one
// correct option, or CorrectAnswer holds the expected free-text value.
// Immutable once fetched for a session.
type Question struct {
	ID            string   `json:"id"`
	Prompt        string   `json:"prompt"`
	Options       []Option `json:"options,omitempty"`
	CorrectAnswer string   `json:"correctAnswer,omitempty"`
	Points        int      `json:"points"` // defaults to 1 if zero
	Difficulty    string   `json:"difficulty,omitempty"`
	Language      string   `json:"language,omitempty"`
	CodeSnippet   string   `json:"codeSnippet,omitempty"`
}

// CorrectValue resolves the value a submission must match exactly: the
// correct option's ID for option questions, CorrectAnswer otherwise.
func (q Question) CorrectValue() string {
	for _, opt := range q.Options {
		if opt.Correct {
			return opt.ID
		}
	}
	return q.CorrectAnswer
}

// PointValue returns the question's point value, defaulting to 1.
func (q Question) PointValue() int {
	if q.Points > 0 {
		return q.Points
	}
	return 1
}

// Answer is one recorded submission for a question.
type Answer struct {
	QuestionID       string `json:"questionId"`
	SelectedValue    string `json:"selectedValue"`
	Correct          bool   `json:"correct"`
	PointsAwarded    int    `json:"pointsAwarded"`
	TimeSpentSeconds int    `json:"timeSpentSeconds"`
}

// Session is one timed attempt at a category's question set. The question
// list is fixed at creation and never changes length or order.
type Session struct {
	ID                   string     `json:"id"`
	CategoryID           string     `json:"categoryId"`
	Language             string     `json:"language,omitempty"`
	Questions            []Question `json:"questions"`
	TimeLimitSeconds     int        `json:"timeLimitSeconds"`
	TimeRemainingSeconds int        `json:"timeRemainingSeconds"`
	LanguageFallbackUsed bool       `json:"languageFallbackUsed"`
	Ledger               *Ledger    `json:"-"`
}

// Local reports whether the session was synthesized client-side.
func (s *Session) Local() bool {
	return strings.HasPrefix(s.ID, LocalSessionPrefix)
}

// ScoreSummary freezes the outcome of a finalized session.
type ScoreSummary struct {
	TotalQuestions    int `json:"totalQuestions"`
	AnsweredQuestions int `json:"answeredQuestions"`
	CorrectAnswers    int `json:"correctAnswers"`
	TotalPoints       int `json:"totalPoints"`
	EarnedPoints      int `json:"earnedPoints"`
	Percentage        int `json:"percentage"`
	TimeSpentSeconds  int `json:"timeSpentSeconds"`
}

// Attempt is the lightweight record persisted to the history store when a
// session finalizes.
type Attempt struct {
	SessionID            string       `json:"sessionId"`
	UserID               string       `json:"userId"`
	CategoryID           string       `json:"categoryId"`
	Language             string       `json:"language,omitempty"`
	Local                bool         `json:"local"`
	LanguageFallbackUsed bool         `json:"languageFallbackUsed"`
	Summary              ScoreSummary `json:"summary"`
	CompletedAt          time.Time    `json:"completedAt"`
}
