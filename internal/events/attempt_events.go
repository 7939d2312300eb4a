package events

import (
	"time"

	"github.com/openexam/exam-engine/internal/models"
)

// EventType represents the attempt lifecycle events the engine publishes
type EventType string

const (
	EventAttemptStarted   EventType = "attempt.started"
	EventAttemptSubmitted EventType = "attempt.submitted"
	EventAttemptExpired   EventType = "attempt.expired"
	EventAttemptGraded    EventType = "attempt.graded"
)

// AttemptEvent is the base event structure for all attempt lifecycle events
type AttemptEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Attempt lifecycle event payloads

type AttemptStartedEvent struct {
	AttemptID       string    `json:"attempt_id"`
	ExamID          string    `json:"exam_id"`
	ExamTitle       string    `json:"exam_title"`
	ExamineeID      string    `json:"examinee_id"`
	StartedAt       time.Time `json:"started_at"`
	DurationSeconds int       `json:"duration_seconds"`
}

type AttemptClosedEvent struct {
	AttemptID  string             `json:"attempt_id"`
	ExamID     string             `json:"exam_id"`
	ExamineeID string             `json:"examinee_id"`
	Reason     models.CloseReason `json:"reason"`
	ClosedAt   time.Time          `json:"closed_at"`
}

type AttemptGradedEvent struct {
	AttemptID  string    `json:"attempt_id"`
	ExamID     string    `json:"exam_id"`
	ExamineeID string    `json:"examinee_id"`
	Score      float64   `json:"score"`
	MaxScore   float64   `json:"max_score"`
	Percentage float64   `json:"percentage"`
	GradedAt   time.Time `json:"graded_at"`
}
