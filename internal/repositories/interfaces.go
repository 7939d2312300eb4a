package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/openexam/exam-engine/internal/models"
	"gorm.io/gorm"
)

// Repository aggregates the per-entity repositories behind one injection
// point, so services stay free of any notion of storage technology.
type Repository interface {
	Exam() ExamRepository
	Attempt() AttemptRepository
	Result() ResultRepository

	WithTransaction(ctx context.Context, fn func(Repository) error) error
	Ping(ctx context.Context) error
	Close() error
}

// ExamRepository supplies exam definitions; read-only from the engine's
// perspective apart from authoring support.
type ExamRepository interface {
	Create(ctx context.Context, exam *models.Exam) error
	GetByID(ctx context.Context, id string) (*models.Exam, error)
	GetByIDWithQuestions(ctx context.Context, id string) (*models.Exam, error)
	List(ctx context.Context, filters ExamFilters) ([]*models.Exam, int64, error)
	Delete(ctx context.Context, id string) error
}

type AttemptRepository interface {
	Create(ctx context.Context, attempt *models.Attempt) error
	GetByID(ctx context.Context, id string) (*models.Attempt, error)
	List(ctx context.Context, filters AttemptFilters) ([]*models.Attempt, int64, error)

	// GetActiveAttempt returns the examinee's open attempt for the exam, if any.
	GetActiveAttempt(ctx context.Context, examineeID, examID string) (*models.Attempt, error)

	// GetOpenAttempts returns every attempt still in open status, used to
	// rebuild the in-memory session registry after a restart.
	GetOpenAttempts(ctx context.Context) ([]*models.Attempt, error)

	// UpdateAnswers persists the answer map, guarded on open status so a
	// write racing with close fails instead of mutating a frozen attempt.
	// Returns false when the attempt was no longer open.
	UpdateAnswers(ctx context.Context, id string, answers models.AnswerMap) (bool, error)

	// CloseIfOpen transitions the attempt to a terminal status exactly once.
	// Returns false when the attempt was already closed, which makes a
	// retried close call idempotent at the store.
	CloseIfOpen(ctx context.Context, id string, status models.AttemptStatus, reason models.CloseReason, closedAt time.Time) (bool, error)
}

type ResultRepository interface {
	// Create fails on a duplicate attempt ID; the unique index is the
	// at-most-once grading guarantee.
	Create(ctx context.Context, result *models.Result) error
	GetByAttempt(ctx context.Context, attemptID string) (*models.Result, error)
	GetByExam(ctx context.Context, examID string, filters ResultFilters) ([]*models.Result, int64, error)
	GetByExaminee(ctx context.Context, examineeID string, filters ResultFilters) ([]*models.Result, int64, error)
	ExistsForAttempt(ctx context.Context, attemptID string) (bool, error)
}

// ===== SHARED FILTER STRUCTS =====

type ExamFilters struct {
	CreatedBy *string    `json:"created_by"`
	DateFrom  *time.Time `json:"date_from"`
	DateTo    *time.Time `json:"date_to"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
	SortBy    string     `json:"sort_by"`    // "created_at", "title"
	SortOrder string     `json:"sort_order"` // "asc", "desc"
}

type AttemptFilters struct {
	Status     *models.AttemptStatus `json:"status"`
	ExamID     *string               `json:"exam_id"`
	ExamineeID *string               `json:"examinee_id"`
	DateFrom   *time.Time            `json:"date_from"`
	DateTo     *time.Time            `json:"date_to"`
	Limit      int                   `json:"limit"`
	Offset     int                   `json:"offset"`
	SortBy     string                `json:"sort_by"`
	SortOrder  string                `json:"sort_order"`
}

type ResultFilters struct {
	ExamineeID *string    `json:"examinee_id"`
	DateFrom   *time.Time `json:"date_from"`
	DateTo     *time.Time `json:"date_to"`
	Limit      int        `json:"limit"`
	Offset     int        `json:"offset"`
	SortBy     string     `json:"sort_by"`
	SortOrder  string     `json:"sort_order"`
}

// ===== ERROR HELPERS =====

// IsNotFoundError reports whether err is the storage layer's record-missing
// condition, keeping gorm out of the service packages.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateError reports whether err came from a unique-constraint
// violation, e.g. grading the same attempt twice.
func IsDuplicateError(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
