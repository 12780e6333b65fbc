package app

import (
	"testing"

	"daily-trivia-service/internal/domain"
)

func TestScoreUniform(t *testing.T) {
	questions := []domain.Question{
		{ID: "q1", CorrectAnswer: "Paris"},
		{ID: "q2", CorrectAnswer: "42"},
	}
	scorer := Scorer{Mode: ScoringUniform}

	result := scorer.Score(questions, []domain.AnswerSubmission{
		{QuestionID: "q1", UserAnswer: "Paris"},
		{QuestionID: "q2", UserAnswer: "7"},
	})
	if result.CorrectCount != 1 || result.TotalScore != 1 {
		t.Fatalf("expected 1/1, got %d/%d", result.CorrectCount, result.TotalScore)
	}
	if len(result.Feedback) != 2 || !result.Feedback[0].IsCorrect || result.Feedback[1].IsCorrect {
		t.Fatalf("unexpected feedback %+v", result.Feedback)
	}
	if result.Feedback[1].CorrectAnswer != "42" {
		t.Fatalf("expected correct answer in feedback, got %+v", result.Feedback[1])
	}
}

func TestScoreSkipsUnknownQuestions(t *testing.T) {
	questions := []domain.Question{{ID: "q1", CorrectAnswer: "a"}}
	result := Scorer{}.Score(questions, []domain.AnswerSubmission{
		{QuestionID: "stale", UserAnswer: "a"},
		{QuestionID: "q1", UserAnswer: "a"},
	})
	if result.CorrectCount != 1 || len(result.Feedback) != 1 {
		t.Fatalf("expected unknown id skipped, got %+v", result)
	}
}

func TestScoreIsExactMatch(t *testing.T) {
	questions := []domain.Question{{ID: "q1", CorrectAnswer: "Paris"}}
	for _, answer := range []string{"paris", "Paris ", " Paris", "PARIS"} {
		result := Scorer{}.Score(questions, []domain.AnswerSubmission{{QuestionID: "q1", UserAnswer: answer}})
		if result.CorrectCount != 0 {
			t.Fatalf("answer %q should not match", answer)
		}
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	questions := []domain.Question{{ID: "q1", CorrectAnswer: "a"}, {ID: "q2", CorrectAnswer: "b"}}
	responses := []domain.AnswerSubmission{{QuestionID: "q1", UserAnswer: "a"}, {QuestionID: "q2", UserAnswer: "b"}}
	scorer := Scorer{Mode: ScoringWeighted, DefaultPoints: 20}

	first := scorer.Score(questions, responses)
	second := scorer.Score(questions, responses)
	if first.CorrectCount != second.CorrectCount || first.TotalScore != second.TotalScore {
		t.Fatalf("expected identical results, got %+v and %+v", first, second)
	}
}

func TestScoreWeighted(t *testing.T) {
	questions := []domain.Question{
		{ID: "q1", CorrectAnswer: "a", Points: 30},
		{ID: "q2", CorrectAnswer: "b"},
		{ID: "q3", CorrectAnswer: "c"},
	}
	scorer := Scorer{Mode: ScoringWeighted, DefaultPoints: 20}
	result := scorer.Score(questions, []domain.AnswerSubmission{
		{QuestionID: "q1", UserAnswer: "a"},
		{QuestionID: "q2", UserAnswer: "b"},
		{QuestionID: "q3", UserAnswer: "x"},
	})
	if result.CorrectCount != 2 || result.TotalScore != 50 {
		t.Fatalf("expected 2 correct worth 50, got %d worth %d", result.CorrectCount, result.TotalScore)
	}
}

func TestScoreRepeatedQuestionGradesLastAnswer(t *testing.T) {
	questions := []domain.Question{{ID: "q1", CorrectAnswer: "a"}}
	result := Scorer{}.Score(questions, []domain.AnswerSubmission{
		{QuestionID: "q1", UserAnswer: "a"},
		{QuestionID: "q1", UserAnswer: "a"},
		{QuestionID: "q1", UserAnswer: "b"},
	})
	if result.CorrectCount != 0 || len(result.Feedback) != 1 {
		t.Fatalf("expected one graded answer, got %+v", result)
	}
}

func TestParseScoringMode(t *testing.T) {
	tests := []struct {
		raw     string
		want    ScoringMode
		wantErr bool
	}{
		{"", ScoringUniform, false},
		{"uniform", ScoringUniform, false},
		{"weighted", ScoringWeighted, false},
		{"fuzzy", "", true},
	}
	for _, tt := range tests {
		got, err := ParseScoringMode(tt.raw)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Fatalf("ParseScoringMode(%q) = %q, %v", tt.raw, got, err)
		}
	}
}
