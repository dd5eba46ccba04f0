package domain

// Ledger records one answer per question for a session. A resubmission for
// the same question replaces the earlier entry; it never appends a
// duplicate, so a user can revisit a question and change their answer
// before final submission. Lookup is by question ID; insertion order is
// irrelevant to scoring.
type Ledger struct {
	questions map[string]Question
	entries   map[string]Answer
}

// NewLedger builds a ledger over the session's fixed question list.
func NewLedger(questions []Question) *Ledger {
	index := make(map[string]Question, len(questions))
	for _, q := range questions {
		index[q.ID] = q
	}
	return &Ledger{
		questions: index,
		entries:   make(map[string]Answer, len(questions)),
	}
}

// Record writes the answer for questionID, deriving correctness by exact
// match against the question's correct value and awarding the question's
// points when correct. An existing entry for the question is overwritten.
func (l *Ledger) Record(questionID, selectedValue string, timeSpentSeconds int) (Answer, error) {
	question, ok := l.questions[questionID]
	if !ok {
		return Answer{}, ErrQuestionNotFound
	}
	if timeSpentSeconds < 0 {
		timeSpentSeconds = 0
	}

	correct := selectedValue == question.CorrectValue()
	awarded := 0
	if correct {
		awarded = question.PointValue()
	}

	entry := Answer{
		QuestionID:       questionID,
		SelectedValue:    selectedValue,
		Correct:          correct,
		PointsAwarded:    awarded,
		TimeSpentSeconds: timeSpentSeconds,
	}
	l.entries[questionID] = entry
	return entry, nil
}

// Get returns the recorded answer for questionID, if any.
func (l *Ledger) Get(questionID string) (Answer, bool) {
	entry, ok := l.entries[questionID]
	return entry, ok
}

// Size returns the number of answered questions.
func (l *Ledger) Size() int {
	return len(l.entries)
}

// Entries returns a copy of all recorded answers.
func (l *Ledger) Entries() []Answer {
	out := make([]Answer, 0, len(l.entries))
	for _, entry := range l.entries {
		out = append(out, entry)
	}
	return out
}
