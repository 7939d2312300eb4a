package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentage(t *testing.T) {
	result := &Result{Score: 1, MaxScore: 3}
	assert.InDelta(t, 1.0/3.0, result.Percentage(), 1e-9)

	result = &Result{Score: 3, MaxScore: 3}
	assert.Equal(t, 1.0, result.Percentage())

	result = &Result{Score: 0, MaxScore: 0}
	assert.Equal(t, 0.0, result.Percentage(), "no division by zero")
}

func TestExamMaxScore(t *testing.T) {
	exam := &Exam{Questions: []Question{
		{Weight: 1},
		{Weight: 2},
		{Weight: 0}, // unset weight counts as 1
	}}
	assert.Equal(t, 4.0, exam.MaxScore())
}

func TestExamAttemptable(t *testing.T) {
	exam := &Exam{DurationSeconds: 60, Questions: []Question{{Weight: 1}}}
	assert.True(t, exam.Attemptable())

	assert.False(t, (&Exam{DurationSeconds: 0, Questions: []Question{{}}}).Attemptable())
	assert.False(t, (&Exam{DurationSeconds: 60}).Attemptable())
}
