package domain

import "testing"

func TestRecordDerivesCorrectnessAndPoints(t *testing.T) {
	ledger := NewLedger(arrayQuestions())

	entry, err := ledger.Record("q1", "4", 12)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if !entry.Correct || entry.PointsAwarded != 5 {
		t.Fatalf("expected correct answer worth 5 points, got %+v", entry)
	}

	entry, err = ledger.Record("q2", "A", 3)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if entry.Correct || entry.PointsAwarded != 0 {
		t.Fatalf("expected wrong answer worth 0 points, got %+v", entry)
	}
}

func TestRecordReplacesEarlierEntry(t *testing.T) {
	ledger := NewLedger(arrayQuestions())

	if _, err := ledger.Record("q1", "A", 5); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := ledger.Record("q1", "B", 9); err != nil {
		t.Fatalf("record again: %v", err)
	}

	if ledger.Size() != 1 {
		t.Fatalf("expected exactly one entry, got %d", ledger.Size())
	}
	entry, ok := ledger.Get("q1")
	if !ok || entry.SelectedValue != "B" {
		t.Fatalf("expected latest answer B, got %+v", entry)
	}
}

func TestRecordUnknownQuestion(t *testing.T) {
	ledger := NewLedger(arrayQuestions())
	if _, err := ledger.Record("q99", "4", 1); err != ErrQuestionNotFound {
		t.Fatalf("expected ErrQuestionNotFound, got %v", err)
	}
}

func TestRecordExactMatchOnly(t *testing.T) {
	ledger := NewLedger([]Question{
		{ID: "q1", Prompt: "Output?", CorrectAnswer: "42", Points: 2},
	})

	entry, _ := ledger.Record("q1", " 42", 1)
	if entry.Correct {
		t.Fatalf("expected no normalization, got correct for %q", entry.SelectedValue)
	}
	entry, _ = ledger.Record("q1", "42", 1)
	if !entry.Correct || entry.PointsAwarded != 2 {
		t.Fatalf("expected exact match to score, got %+v", entry)
	}
}

func arrayQuestions() []Question {
	return []Question{
		{ID: "q1", Prompt: "len([1,2,3,4])?", CorrectAnswer: "4", Points: 5},
		{
			ID:     "q2",
			Prompt: "Pick B",
			Options: []Option{
				{ID: "A", Text: "no", Correct: false},
				{ID: "B", Text: "yes", Correct: true},
			},
			Points: 5,
		},
	}
}
