package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRemainingTime(t *testing.T) {
	startedAt := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	attempt := &Attempt{
		StartedAt:       startedAt,
		DurationSeconds: 1800,
		Status:          AttemptStatusOpen,
	}

	assert.Equal(t, 30*time.Minute, attempt.RemainingTime(startedAt))
	assert.Equal(t, 20*time.Minute, attempt.RemainingTime(startedAt.Add(10*time.Minute)))
	assert.Equal(t, time.Duration(0), attempt.RemainingTime(startedAt.Add(30*time.Minute)))
	assert.Equal(t, time.Duration(0), attempt.RemainingTime(startedAt.Add(2*time.Hour)),
		"remaining time clamps at zero, never negative")
}

func TestClosed(t *testing.T) {
	attempt := &Attempt{Status: AttemptStatusOpen}
	assert.False(t, attempt.Closed())

	attempt.Status = AttemptStatusSubmitted
	assert.True(t, attempt.Closed())

	attempt.Status = AttemptStatusExpired
	assert.True(t, attempt.Closed())
}

func TestAnswerMapClone(t *testing.T) {
	original := AnswerMap{"q1": {"A", "B"}}
	clone := original.Clone()

	clone["q1"][0] = "changed"
	clone["q2"] = []string{"C"}

	assert.Equal(t, "A", original["q1"][0], "clone must not share selection slices")
	assert.NotContains(t, original, "q2")
}
