package validator

import (
	"fmt"

	"github.com/openexam/exam-engine/internal/models"
)

// ExamValidator enforces the exam and question data-model invariants that
// struct tags cannot express.
type ExamValidator struct{}

// NewExamValidator creates a new exam validator
func NewExamValidator() *ExamValidator {
	return &ExamValidator{}
}

// ValidateExam validates a complete exam definition for attemptability.
func (v *ExamValidator) ValidateExam(exam *models.Exam) error {
	if exam.DurationSeconds <= 0 {
		return fmt.Errorf("exam duration must be positive, got %d", exam.DurationSeconds)
	}

	if len(exam.Questions) == 0 {
		return fmt.Errorf("exam must contain at least one question")
	}

	for i := range exam.Questions {
		if err := v.ValidateQuestion(&exam.Questions[i]); err != nil {
			return fmt.Errorf("question %d: %w", i+1, err)
		}
	}

	return nil
}

// ValidateQuestion checks a single question against its kind's invariants.
func (v *ExamValidator) ValidateQuestion(question *models.Question) error {
	if question.Prompt == "" {
		return fmt.Errorf("question prompt is required")
	}

	if len(question.CorrectAnswers) == 0 {
		return fmt.Errorf("question must have at least one correct answer")
	}

	switch question.Kind {
	case models.SingleChoice:
		if len(question.CorrectAnswers) != 1 {
			return fmt.Errorf("single-choice question must have exactly one correct answer, got %d", len(question.CorrectAnswers))
		}
		return v.validateChoiceAnswers(question)
	case models.MultipleChoice:
		return v.validateChoiceAnswers(question)
	case models.FreeText:
		if len(question.Options) != 0 {
			return fmt.Errorf("free-text question must not define options")
		}
		return nil
	default:
		return fmt.Errorf("unsupported question kind: %s", question.Kind)
	}
}

// validateChoiceAnswers checks that every correct answer is one of the
// question's options.
func (v *ExamValidator) validateChoiceAnswers(question *models.Question) error {
	if len(question.Options) < 2 {
		return fmt.Errorf("choice question must define at least two options")
	}

	options := make(map[string]bool, len(question.Options))
	for _, option := range question.Options {
		options[option] = true
	}

	for _, answer := range question.CorrectAnswers {
		if !options[answer] {
			return fmt.Errorf("correct answer %q is not among the question options", answer)
		}
	}

	return nil
}
