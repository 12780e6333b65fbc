package app

import (
	"fmt"

	"daily-trivia-service/internal/domain"
)

// ScoringMode selects how correct answers are converted into points.
type ScoringMode string

const (
	// ScoringUniform awards one point per correct answer.
	ScoringUniform ScoringMode = "uniform"
	// ScoringWeighted awards each question's point value.
	ScoringWeighted ScoringMode = "weighted"
)

// ParseScoringMode accepts "" as uniform.
func ParseScoringMode(raw string) (ScoringMode, error) {
	switch ScoringMode(raw) {
	case "", ScoringUniform:
		return ScoringUniform, nil
	case ScoringWeighted:
		return ScoringWeighted, nil
	}
	return "", fmt.Errorf("unknown scoring mode %q", raw)
}

// Scorer computes correctness and totals for an answer sheet. It holds no state
// besides its configuration, so Score is a pure function of its inputs.
type Scorer struct {
	Mode          ScoringMode
	DefaultPoints int
}

// Score grades responses against the session's questions. Responses naming
// unknown questions are skipped. When a question is answered more than once the
// last answer is graded, matching the overwrite semantics of stored responses.
// Correctness is exact string equality.
func (s Scorer) Score(questions []domain.Question, responses []domain.AnswerSubmission) domain.ScoreResult {
	byID := make(map[string]domain.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	order := make([]string, 0, len(responses))
	answers := make(map[string]string, len(responses))
	for _, r := range responses {
		if _, ok := byID[r.QuestionID]; !ok {
			continue
		}
		if _, seen := answers[r.QuestionID]; !seen {
			order = append(order, r.QuestionID)
		}
		answers[r.QuestionID] = r.UserAnswer
	}

	result := domain.ScoreResult{Feedback: make([]domain.Feedback, 0, len(order))}
	for _, id := range order {
		q := byID[id]
		answer := answers[id]
		fb := domain.Feedback{
			QuestionID:    id,
			IsCorrect:     answer == q.CorrectAnswer,
			CorrectAnswer: q.CorrectAnswer,
			UserAnswer:    answer,
		}
		if fb.IsCorrect {
			fb.Awarded = s.points(q)
			result.CorrectCount++
			result.TotalScore += fb.Awarded
		}
		result.Feedback = append(result.Feedback, fb)
	}
	return result
}

func (s Scorer) points(q domain.Question) int {
	if s.Mode != ScoringWeighted {
		return 1
	}
	if q.Points > 0 {
		return q.Points
	}
	if s.DefaultPoints > 0 {
		return s.DefaultPoints
	}
	return 1
}
