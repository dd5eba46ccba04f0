package domain

import "math"

// Score computes the score summary for a session from its question list
// and answer ledger. Pure: no side effects, safe to call repeatedly.
// Unanswered questions count as incorrect with zero points.
func Score(session *Session) ScoreSummary {
	summary := ScoreSummary{
		TotalQuestions:   len(session.Questions),
		TimeSpentSeconds: session.TimeLimitSeconds - session.TimeRemainingSeconds,
	}

	for _, q := range session.Questions {
		summary.TotalPoints += q.PointValue()
	}

	if session.Ledger != nil {
		summary.AnsweredQuestions = session.Ledger.Size()
		for _, entry := range session.Ledger.Entries() {
			if entry.Correct {
				summary.CorrectAnswers++
			}
			summary.EarnedPoints += entry.PointsAwarded
		}
	}

	if summary.TotalQuestions > 0 {
		summary.Percentage = int(math.Round(float64(summary.CorrectAnswers) / float64(summary.TotalQuestions) * 100))
	}
	return summary
}
