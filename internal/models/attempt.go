package models

import (
	"time"
)

type AttemptStatus string

const (
	AttemptStatusOpen      AttemptStatus = "open"
	AttemptStatusSubmitted AttemptStatus = "submitted"
	AttemptStatusExpired   AttemptStatus = "expired"
)

// CloseReason records which path closed the attempt. Time exhaustion always
// wins the race against a manual submit.
type CloseReason string

const (
	CloseReasonManual  CloseReason = "manual"
	CloseReasonTimeout CloseReason = "timeout"
)

// Attempt is one examinee's timed engagement with one exam. Answers are
// mutable while status is open and frozen once the attempt reaches a
// terminal status.
type Attempt struct {
	ID         string `json:"id" gorm:"primaryKey;size:64"`
	ExamID     string `json:"exam_id" gorm:"not null;index;size:64" validate:"required"`
	ExamineeID string `json:"examinee_id" gorm:"not null;index;size:64" validate:"required"`

	Status          AttemptStatus `json:"status" gorm:"not null;default:open;index"`
	StartedAt       time.Time     `json:"started_at" gorm:"not null"`
	DurationSeconds int           `json:"duration_seconds" gorm:"not null"`
	ClosedAt        *time.Time    `json:"closed_at"`
	CloseReason     *CloseReason  `json:"close_reason"`

	Answers AnswerMap `json:"answers" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Closed reports whether the attempt has reached a terminal status.
func (a *Attempt) Closed() bool {
	return a.Status != AttemptStatusOpen
}

// RemainingTime derives the time left at the given instant. It is never
// stored; recomputing from StartedAt keeps the countdown free of drift
// between a stored counter and wall-clock reality.
func (a *Attempt) RemainingTime(now time.Time) time.Duration {
	deadline := a.StartedAt.Add(time.Duration(a.DurationSeconds) * time.Second)
	remaining := deadline.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (Attempt) TableName() string {
	return "attempts"
}
