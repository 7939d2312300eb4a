package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// QuestionScore is the per-question line of a result breakdown.
type QuestionScore struct {
	QuestionID string  `json:"question_id"`
	Correct    bool    `json:"correct"`
	Awarded    float64 `json:"awarded"`
	Weight     float64 `json:"weight"`
}

// Breakdown stores the per-question scores of a result as jsonb.
type Breakdown []QuestionScore

func (b Breakdown) Value() (driver.Value, error) {
	if b == nil {
		b = Breakdown{}
	}
	return json.Marshal(b)
}

func (b *Breakdown) Scan(value interface{}) error {
	if value == nil {
		*b = Breakdown{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, b)
	case string:
		return json.Unmarshal([]byte(v), b)
	default:
		return fmt.Errorf("unsupported type %T for Breakdown", value)
	}
}

// Result is the immutable grading outcome of one closed attempt. The unique
// index on AttemptID is what makes grading at-most-once at the store level.
type Result struct {
	ID         string `json:"id" gorm:"primaryKey;size:64"`
	AttemptID  string `json:"attempt_id" gorm:"not null;uniqueIndex;size:64"`
	ExamID     string `json:"exam_id" gorm:"not null;index;size:64"`
	ExamineeID string `json:"examinee_id" gorm:"not null;index;size:64"`

	Score    float64 `json:"score" gorm:"not null"`
	MaxScore float64 `json:"max_score" gorm:"not null"`

	Breakdown Breakdown `json:"breakdown" gorm:"type:jsonb"`

	GradedAt  time.Time `json:"graded_at" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

// Percentage is the score as a fraction of the maximum, in [0, 1].
func (r *Result) Percentage() float64 {
	if r.MaxScore == 0 {
		return 0
	}
	return r.Score / r.MaxScore
}

func (Result) TableName() string {
	return "results"
}

// Summary aggregates many results for one exam. Averages are nil when no
// attempts exist so callers never see a divide-by-zero artifact.
type Summary struct {
	ExamID            string    `json:"exam_id"`
	AttemptCount      int       `json:"attempt_count"`
	AverageScore      *float64  `json:"average_score,omitempty"`
	AveragePercentage *float64  `json:"average_percentage,omitempty"`
	GeneratedAt       time.Time `json:"generated_at"`
}
