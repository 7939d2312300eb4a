package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/openexam/exam-engine/internal/models"
	"github.com/openexam/exam-engine/internal/repositories"
	"github.com/openexam/exam-engine/internal/validator"
)

// ExamService manages exam definitions. Attempt-facing reads strip the
// correct answers; only the owning instructor sees the full definition.
type ExamService interface {
	Create(ctx context.Context, req *CreateExamRequest, creatorID string) (*models.Exam, error)
	GetByID(ctx context.Context, examID string) (*models.Exam, error)
	GetForExaminee(ctx context.Context, examID string) (*ExamView, error)
	List(ctx context.Context, filters repositories.ExamFilters) ([]*models.Exam, int64, error)
	Delete(ctx context.Context, examID, callerID string) error
}

type CreateExamRequest struct {
	Title           string                  `json:"title" validate:"required,max=255"`
	Description     string                  `json:"description" validate:"max=2000"`
	DurationSeconds int                     `json:"duration_seconds" validate:"required,exam_duration"`
	Questions       []CreateQuestionRequest `json:"questions" validate:"required,min=1,dive"`
}

type CreateQuestionRequest struct {
	Prompt         string              `json:"prompt" validate:"required"`
	Kind           models.QuestionKind `json:"kind" validate:"required,question_kind"`
	Options        []string            `json:"options"`
	CorrectAnswers []string            `json:"correct_answers" validate:"required,min=1"`
	Weight         float64             `json:"weight" validate:"omitempty,gt=0"`
}

// ExamView is the attempt-facing projection of an exam. Correct answers
// never leave the service through this type.
type ExamView struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	DurationSeconds int            `json:"duration_seconds"`
	Questions       []QuestionView `json:"questions"`
}

type QuestionView struct {
	ID      string              `json:"id"`
	Prompt  string              `json:"prompt"`
	Kind    models.QuestionKind `json:"kind"`
	Options []string            `json:"options,omitempty"`
	Weight  float64             `json:"weight"`
}

type examService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewExamService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator) ExamService {
	return &examService{
		repo:      repo,
		logger:    logger,
		validator: v,
	}
}

func (s *examService) Create(ctx context.Context, req *CreateExamRequest, creatorID string) (*models.Exam, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	exam := &models.Exam{
		ID:              uuid.NewString(),
		Title:           req.Title,
		DurationSeconds: req.DurationSeconds,
		CreatedBy:       creatorID,
		Questions:       make([]models.Question, len(req.Questions)),
	}
	if req.Description != "" {
		exam.Description = &req.Description
	}

	for i, q := range req.Questions {
		weight := q.Weight
		if weight == 0 {
			weight = 1
		}
		exam.Questions[i] = models.Question{
			ID:             uuid.NewString(),
			ExamID:         exam.ID,
			Prompt:         q.Prompt,
			Kind:           q.Kind,
			Options:        q.Options,
			CorrectAnswers: q.CorrectAnswers,
			Weight:         weight,
			Position:       i,
		}
	}

	if err := s.validator.Exam().ValidateExam(exam); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExam, err)
	}

	if err := s.repo.Exam().Create(ctx, exam); err != nil {
		return nil, fmt.Errorf("failed to create exam: %w", err)
	}

	s.logger.Info("Exam created",
		"exam_id", exam.ID,
		"title", exam.Title,
		"question_count", len(exam.Questions),
		"created_by", creatorID)

	return exam, nil
}

func (s *examService) GetByID(ctx context.Context, examID string) (*models.Exam, error) {
	exam, err := s.repo.Exam().GetByIDWithQuestions(ctx, examID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}
	return exam, nil
}

func (s *examService) GetForExaminee(ctx context.Context, examID string) (*ExamView, error) {
	exam, err := s.GetByID(ctx, examID)
	if err != nil {
		return nil, err
	}

	view := &ExamView{
		ID:              exam.ID,
		Title:           exam.Title,
		DurationSeconds: exam.DurationSeconds,
		Questions:       make([]QuestionView, len(exam.Questions)),
	}
	if exam.Description != nil {
		view.Description = *exam.Description
	}
	for i, q := range exam.Questions {
		view.Questions[i] = QuestionView{
			ID:      q.ID,
			Prompt:  q.Prompt,
			Kind:    q.Kind,
			Options: q.Options,
			Weight:  q.EffectiveWeight(),
		}
	}
	return view, nil
}

func (s *examService) List(ctx context.Context, filters repositories.ExamFilters) ([]*models.Exam, int64, error) {
	exams, total, err := s.repo.Exam().List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list exams: %w", err)
	}
	return exams, total, nil
}

func (s *examService) Delete(ctx context.Context, examID, callerID string) error {
	exam, err := s.GetByID(ctx, examID)
	if err != nil {
		return err
	}

	if exam.CreatedBy != callerID {
		return NewPermissionError(callerID, examID, "exam", "delete", "not the exam creator")
	}

	if err := s.repo.Exam().Delete(ctx, examID); err != nil {
		return fmt.Errorf("failed to delete exam: %w", err)
	}

	s.logger.Info("Exam deleted", "exam_id", examID, "deleted_by", callerID)
	return nil
}
