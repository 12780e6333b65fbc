package memory

import (
	"context"
	"fmt"

	"daily-trivia-service/internal/domain"
)

// StaticGenerator serves a fixed question set (useful for tests/demos and when
// no LLM key is configured).
type StaticGenerator struct {
	questions []domain.GeneratedQuestion
	err       error
}

func NewStaticGenerator(questions []domain.GeneratedQuestion) *StaticGenerator {
	return &StaticGenerator{questions: questions}
}

// FailingGenerator always returns err.
func FailingGenerator(err error) *StaticGenerator {
	return &StaticGenerator{err: err}
}

func (g *StaticGenerator) Generate(_ context.Context, count int) ([]domain.GeneratedQuestion, error) {
	if g.err != nil {
		return nil, g.err
	}
	if count > len(g.questions) {
		return nil, fmt.Errorf("static generator holds %d questions, %d requested", len(g.questions), count)
	}
	out := make([]domain.GeneratedQuestion, count)
	copy(out, g.questions[:count])
	return out, nil
}

// SampleQuestions is a minimal demo set. Points only matter in weighted mode.
func SampleQuestions() []domain.GeneratedQuestion {
	return []domain.GeneratedQuestion{
		{
			Question:      "What programming concept allows a function to call itself?",
			Options:       []string{"Recursion", "Iteration", "Polymorphism", "Encapsulation"},
			CorrectAnswer: "Recursion",
			Category:      "Science & Technology",
			Points:        10,
		},
		{
			Question:      "Which treaty ended the Thirty Years' War in 1648?",
			Options:       []string{"Peace of Westphalia", "Treaty of Utrecht", "Treaty of Paris", "Peace of Augsburg"},
			CorrectAnswer: "Peace of Westphalia",
			Category:      "History & Politics",
			Points:        30,
		},
		{
			Question:      "What gas in Neptune's atmosphere absorbs red light and helps give the planet its blue color?",
			Options:       []string{"Methane", "Ammonia", "Helium", "Nitrogen"},
			CorrectAnswer: "Methane",
			Category:      "Science & Technology",
			Points:        20,
		},
		{
			Question:      "In economics, what term describes the point where supply equals demand?",
			Options:       []string{"Market equilibrium", "Marginal utility", "Price ceiling", "Elasticity"},
			CorrectAnswer: "Market equilibrium",
			Category:      "Current Events & Society",
			Points:        20,
		},
		{
			Question:      "Which art movement did Salvador Dali belong to?",
			Options:       []string{"Surrealism", "Cubism", "Impressionism", "Fauvism"},
			CorrectAnswer: "Surrealism",
			Category:      "Arts & Culture",
			Points:        10,
		},
	}
}
