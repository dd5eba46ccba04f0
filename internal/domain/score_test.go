package domain

import "testing"

func TestScorePartialAnswers(t *testing.T) {
	session := &Session{
		CategoryID:           "arrays",
		Questions:            arrayQuestions(),
		TimeLimitSeconds:     1800,
		TimeRemainingSeconds: 1700,
	}
	session.Ledger = NewLedger(session.Questions)
	if _, err := session.Ledger.Record("q1", "4", 30); err != nil {
		t.Fatalf("record: %v", err)
	}

	summary := Score(session)
	want := ScoreSummary{
		TotalQuestions:    2,
		AnsweredQuestions: 1,
		CorrectAnswers:    1,
		TotalPoints:       10,
		EarnedPoints:      5,
		Percentage:        50,
		TimeSpentSeconds:  100,
	}
	if summary != want {
		t.Fatalf("summary mismatch:\n got %+v\nwant %+v", summary, want)
	}
}

func TestScoreNoAnswers(t *testing.T) {
	session := &Session{
		Questions:            arrayQuestions(),
		TimeLimitSeconds:     5,
		TimeRemainingSeconds: 0,
	}
	session.Ledger = NewLedger(session.Questions)

	summary := Score(session)
	if summary.AnsweredQuestions != 0 || summary.Percentage != 0 {
		t.Fatalf("expected zeroed summary, got %+v", summary)
	}
	if summary.TimeSpentSeconds != 5 {
		t.Fatalf("expected full time spent, got %d", summary.TimeSpentSeconds)
	}
}

func TestScoreEmptySession(t *testing.T) {
	session := &Session{}
	summary := Score(session)
	if summary.Percentage != 0 || summary.TotalQuestions != 0 {
		t.Fatalf("expected zero percentage on empty session, got %+v", summary)
	}
}

func TestScoreBounds(t *testing.T) {
	session := &Session{Questions: arrayQuestions(), TimeLimitSeconds: 60}
	session.Ledger = NewLedger(session.Questions)
	_, _ = session.Ledger.Record("q1", "4", 1)
	_, _ = session.Ledger.Record("q2", "B", 1)

	summary := Score(session)
	if summary.CorrectAnswers > summary.TotalQuestions {
		t.Fatalf("correct answers exceed total: %+v", summary)
	}
	if summary.EarnedPoints > summary.TotalPoints {
		t.Fatalf("earned points exceed total: %+v", summary)
	}
	if summary.Percentage != 100 {
		t.Fatalf("expected 100%%, got %d", summary.Percentage)
	}
}

func TestScoreIsRepeatable(t *testing.T) {
	session := &Session{Questions: arrayQuestions(), TimeLimitSeconds: 60, TimeRemainingSeconds: 10}
	session.Ledger = NewLedger(session.Questions)
	_, _ = session.Ledger.Record("q1", "4", 1)

	first := Score(session)
	second := Score(session)
	if first != second {
		t.Fatalf("score not deterministic: %+v vs %+v", first, second)
	}
}
