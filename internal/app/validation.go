package app

import (
	"errors"
	"fmt"
	"strings"

	"daily-trivia-service/internal/domain"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateSubmission checks the shape of an answer sheet.
func ValidateSubmission(sub domain.Submission) error {
	return structError(validate.Struct(sub))
}

// ValidateGenerated checks a generator payload all-or-nothing: exactly count
// questions, each with non-empty text and category and exactly optionCount
// non-empty options containing the correct answer. Any defect rejects the set.
func ValidateGenerated(questions []domain.GeneratedQuestion, count, optionCount int) error {
	if len(questions) != count {
		return domain.NewValidationError("questions", "expected exactly %d questions, got %d", count, len(questions))
	}
	for i, q := range questions {
		if err := structError(validate.Struct(q)); err != nil {
			return fmt.Errorf("question %d: %w", i, err)
		}
		if len(q.Options) != optionCount {
			return domain.NewValidationError(fmt.Sprintf("questions[%d].options", i), "must have exactly %d options, got %d", optionCount, len(q.Options))
		}
		if !contains(q.Options, q.CorrectAnswer) {
			return domain.NewValidationError(fmt.Sprintf("questions[%d].correctAnswer", i), "correct answer not found in options")
		}
	}
	return nil
}

func structError(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		return domain.NewValidationError(field, "failed %q check", fe.Tag())
	}
	return domain.NewValidationError("", "%v", err)
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
