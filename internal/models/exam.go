package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuestionKind string

const (
	SingleChoice   QuestionKind = "single-choice"
	MultipleChoice QuestionKind = "multiple-choice"
	FreeText       QuestionKind = "free-text"
)

// Question is one gradable item of an exam. Options are ordered and only
// present for choice kinds; CorrectAnswers must be a subset of Options for
// choice kinds and a single canonical string for free-text.
type Question struct {
	ID     string       `json:"id" gorm:"primaryKey;size:64"`
	ExamID string       `json:"exam_id" gorm:"not null;index;size:64"`
	Prompt string       `json:"prompt" gorm:"type:text;not null" validate:"required"`
	Kind   QuestionKind `json:"kind" gorm:"not null;size:20" validate:"required,question_kind"`

	Options        datatypes.JSONSlice[string] `json:"options" gorm:"type:jsonb"`
	CorrectAnswers datatypes.JSONSlice[string] `json:"correct_answers" gorm:"type:jsonb" validate:"required,min=1"`

	// Point value; defaults to 1 when the exam definition leaves it unset.
	Weight float64 `json:"weight" gorm:"not null;default:1" validate:"omitempty,gt=0"`

	// Position within the exam, significant for display only.
	Position int `json:"position" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EffectiveWeight normalizes unset weights to the default point value of 1.
func (q *Question) EffectiveWeight() float64 {
	if q.Weight <= 0 {
		return 1
	}
	return q.Weight
}

type Exam struct {
	ID              string  `json:"id" gorm:"primaryKey;size:64"`
	Title           string  `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description     *string `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`
	DurationSeconds int     `json:"duration_seconds" gorm:"not null" validate:"required,gt=0"`

	CreatedBy string         `json:"created_by" gorm:"not null;index;size:64"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Questions []Question `json:"questions" gorm:"foreignKey:ExamID"`
}

// MaxScore is the sum of all question weights.
func (e *Exam) MaxScore() float64 {
	var total float64
	for i := range e.Questions {
		total += e.Questions[i].EffectiveWeight()
	}
	return total
}

// Attemptable reports whether the exam satisfies the start invariants:
// a positive duration and at least one question.
func (e *Exam) Attemptable() bool {
	return e.DurationSeconds > 0 && len(e.Questions) > 0
}

func (Exam) TableName() string {
	return "exams"
}

func (Question) TableName() string {
	return "questions"
}
