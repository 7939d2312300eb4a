package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/openexam/exam-engine/internal/models"
	"github.com/openexam/exam-engine/internal/repositories"
	"github.com/stretchr/testify/mock"
)

// MockRepository aggregates the per-entity mocks behind the Repository
// interface used by the services.
type MockRepository struct {
	mock.Mock
	exam    *MockExamRepository
	attempt *MockAttemptRepository
	result  *MockResultRepository
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		exam:    &MockExamRepository{},
		attempt: &MockAttemptRepository{},
		result:  &MockResultRepository{},
	}
}

func (m *MockRepository) Exam() repositories.ExamRepository       { return m.exam }
func (m *MockRepository) Attempt() repositories.AttemptRepository { return m.attempt }
func (m *MockRepository) Result() repositories.ResultRepository   { return m.result }

func (m *MockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}

func (m *MockRepository) Ping(ctx context.Context) error { return nil }
func (m *MockRepository) Close() error                   { return nil }

// MockExamRepository is a mock implementation of ExamRepository
type MockExamRepository struct {
	mock.Mock
}

func (m *MockExamRepository) Create(ctx context.Context, exam *models.Exam) error {
	args := m.Called(ctx, exam)
	return args.Error(0)
}

func (m *MockExamRepository) GetByID(ctx context.Context, id string) (*models.Exam, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Exam), args.Error(1)
}

func (m *MockExamRepository) GetByIDWithQuestions(ctx context.Context, id string) (*models.Exam, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Exam), args.Error(1)
}

func (m *MockExamRepository) List(ctx context.Context, filters repositories.ExamFilters) ([]*models.Exam, int64, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*models.Exam), args.Get(1).(int64), args.Error(2)
}

func (m *MockExamRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockAttemptRepository is a mock implementation of AttemptRepository
type MockAttemptRepository struct {
	mock.Mock
}

func (m *MockAttemptRepository) Create(ctx context.Context, attempt *models.Attempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

func (m *MockAttemptRepository) GetByID(ctx context.Context, id string) (*models.Attempt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Attempt), args.Error(1)
}

func (m *MockAttemptRepository) List(ctx context.Context, filters repositories.AttemptFilters) ([]*models.Attempt, int64, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*models.Attempt), args.Get(1).(int64), args.Error(2)
}

func (m *MockAttemptRepository) GetActiveAttempt(ctx context.Context, examineeID, examID string) (*models.Attempt, error) {
	args := m.Called(ctx, examineeID, examID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Attempt), args.Error(1)
}

func (m *MockAttemptRepository) GetOpenAttempts(ctx context.Context) ([]*models.Attempt, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.Attempt), args.Error(1)
}

func (m *MockAttemptRepository) UpdateAnswers(ctx context.Context, id string, answers models.AnswerMap) (bool, error) {
	args := m.Called(ctx, id, answers)
	return args.Bool(0), args.Error(1)
}

func (m *MockAttemptRepository) CloseIfOpen(ctx context.Context, id string, status models.AttemptStatus, reason models.CloseReason, closedAt time.Time) (bool, error) {
	args := m.Called(ctx, id, status, reason, closedAt)
	return args.Bool(0), args.Error(1)
}

// MockResultRepository is a mock implementation of ResultRepository
type MockResultRepository struct {
	mock.Mock
}

func (m *MockResultRepository) Create(ctx context.Context, result *models.Result) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

func (m *MockResultRepository) GetByAttempt(ctx context.Context, attemptID string) (*models.Result, error) {
	args := m.Called(ctx, attemptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Result), args.Error(1)
}

func (m *MockResultRepository) GetByExam(ctx context.Context, examID string, filters repositories.ResultFilters) ([]*models.Result, int64, error) {
	args := m.Called(ctx, examID, filters)
	return args.Get(0).([]*models.Result), args.Get(1).(int64), args.Error(2)
}

func (m *MockResultRepository) GetByExaminee(ctx context.Context, examineeID string, filters repositories.ResultFilters) ([]*models.Result, int64, error) {
	args := m.Called(ctx, examineeID, filters)
	return args.Get(0).([]*models.Result), args.Get(1).(int64), args.Error(2)
}

func (m *MockResultRepository) ExistsForAttempt(ctx context.Context, attemptID string) (bool, error) {
	args := m.Called(ctx, attemptID)
	return args.Bool(0), args.Error(1)
}

// ===== TEST FIXTURES =====

func testLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

// geographyExam builds a three-question exam covering every question kind.
// Weights: single-choice 1, multiple-choice 2, free-text 1.
func geographyExam() *models.Exam {
	return &models.Exam{
		ID:              "exam-1",
		Title:           "Geography 101",
		DurationSeconds: 1800,
		CreatedBy:       "instructor-1",
		Questions: []models.Question{
			{
				ID:             "q1",
				ExamID:         "exam-1",
				Prompt:         "Which continent is Kenya in?",
				Kind:           models.SingleChoice,
				Options:        []string{"Africa", "Asia", "Europe"},
				CorrectAnswers: []string{"Africa"},
				Weight:         1,
				Position:       0,
			},
			{
				ID:             "q2",
				ExamID:         "exam-1",
				Prompt:         "Which of these are EU members?",
				Kind:           models.MultipleChoice,
				Options:        []string{"France", "Norway", "Spain", "Switzerland"},
				CorrectAnswers: []string{"France", "Spain"},
				Weight:         2,
				Position:       1,
			},
			{
				ID:             "q3",
				ExamID:         "exam-1",
				Prompt:         "What is the capital of France?",
				Kind:           models.FreeText,
				CorrectAnswers: []string{"Paris"},
				Weight:         1,
				Position:       2,
			},
		},
	}
}

func closedAttempt(examID string, answers models.AnswerMap) *models.Attempt {
	startedAt := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	closedAt := startedAt.Add(20 * time.Minute)
	reason := models.CloseReasonManual
	return &models.Attempt{
		ID:              "attempt-1",
		ExamID:          examID,
		ExamineeID:      "examinee-1",
		Status:          models.AttemptStatusSubmitted,
		StartedAt:       startedAt,
		DurationSeconds: 1800,
		ClosedAt:        &closedAt,
		CloseReason:     &reason,
		Answers:         answers,
	}
}
