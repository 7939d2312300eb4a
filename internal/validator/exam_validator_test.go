package validator

import (
	"testing"

	"github.com/openexam/exam-engine/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validExam() *models.Exam {
	return &models.Exam{
		ID:              "exam-1",
		Title:           "Geography 101",
		DurationSeconds: 1800,
		Questions: []models.Question{
			{
				ID:             "q1",
				Prompt:         "Which continent is Kenya in?",
				Kind:           models.SingleChoice,
				Options:        []string{"Africa", "Asia"},
				CorrectAnswers: []string{"Africa"},
				Weight:         1,
			},
		},
	}
}

func TestValidateExam_Valid(t *testing.T) {
	v := NewExamValidator()
	assert.NoError(t, v.ValidateExam(validExam()))
}

func TestValidateExam_NonPositiveDuration(t *testing.T) {
	v := NewExamValidator()

	exam := validExam()
	exam.DurationSeconds = 0
	assert.Error(t, v.ValidateExam(exam))

	exam.DurationSeconds = -60
	assert.Error(t, v.ValidateExam(exam))
}

func TestValidateExam_NoQuestions(t *testing.T) {
	v := NewExamValidator()

	exam := validExam()
	exam.Questions = nil
	assert.Error(t, v.ValidateExam(exam))
}

func TestValidateQuestion_KindInvariants(t *testing.T) {
	v := NewExamValidator()

	tests := []struct {
		name     string
		question models.Question
		wantErr  bool
	}{
		{
			name: "single-choice with one answer",
			question: models.Question{
				Prompt: "p", Kind: models.SingleChoice,
				Options:        []string{"A", "B"},
				CorrectAnswers: []string{"A"},
			},
		},
		{
			name: "single-choice with two answers",
			question: models.Question{
				Prompt: "p", Kind: models.SingleChoice,
				Options:        []string{"A", "B"},
				CorrectAnswers: []string{"A", "B"},
			},
			wantErr: true,
		},
		{
			name: "multiple-choice with several answers",
			question: models.Question{
				Prompt: "p", Kind: models.MultipleChoice,
				Options:        []string{"A", "B", "C"},
				CorrectAnswers: []string{"A", "C"},
			},
		},
		{
			name: "choice answer outside options",
			question: models.Question{
				Prompt: "p", Kind: models.MultipleChoice,
				Options:        []string{"A", "B"},
				CorrectAnswers: []string{"C"},
			},
			wantErr: true,
		},
		{
			name: "choice with a single option",
			question: models.Question{
				Prompt: "p", Kind: models.SingleChoice,
				Options:        []string{"A"},
				CorrectAnswers: []string{"A"},
			},
			wantErr: true,
		},
		{
			name: "free-text",
			question: models.Question{
				Prompt: "p", Kind: models.FreeText,
				CorrectAnswers: []string{"Paris"},
			},
		},
		{
			name: "free-text with options",
			question: models.Question{
				Prompt: "p", Kind: models.FreeText,
				Options:        []string{"Paris"},
				CorrectAnswers: []string{"Paris"},
			},
			wantErr: true,
		},
		{
			name: "missing prompt",
			question: models.Question{
				Kind:           models.FreeText,
				CorrectAnswers: []string{"Paris"},
			},
			wantErr: true,
		},
		{
			name: "no correct answers",
			question: models.Question{
				Prompt: "p", Kind: models.FreeText,
			},
			wantErr: true,
		},
		{
			name: "unknown kind",
			question: models.Question{
				Prompt: "p", Kind: "essay",
				CorrectAnswers: []string{"x"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateQuestion(&tt.question)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_CustomTags(t *testing.T) {
	v := New()

	type payload struct {
		Kind     models.QuestionKind `json:"kind" validate:"question_kind"`
		Duration int                 `json:"duration_seconds" validate:"exam_duration"`
	}

	require.NoError(t, v.Validate(&payload{Kind: models.MultipleChoice, Duration: 60}))

	err := v.Validate(&payload{Kind: "essay", Duration: 0})
	require.Error(t, err)
}
