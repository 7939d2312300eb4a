package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/openexam/exam-engine/internal/events"
	"github.com/openexam/exam-engine/internal/models"
	"github.com/openexam/exam-engine/internal/repositories"
	"github.com/openexam/exam-engine/internal/validator"
)

// AttemptService owns the lifecycle of attempts: start, answer mutation,
// and the single transition into a terminal status. Closing re-checks the
// remaining time at the instant of the transition, so a manual submit and
// the timeout tick racing each other still produce one well-defined state.
type AttemptService interface {
	Start(ctx context.Context, examID, examineeID string) (*AttemptResponse, error)
	RecordAnswer(ctx context.Context, attemptID, examineeID string, req *RecordAnswerRequest) error
	Submit(ctx context.Context, attemptID, examineeID string) (*AttemptResponse, error)
	HandleTimeout(ctx context.Context, attemptID string) error
	GetTimeRemaining(ctx context.Context, attemptID, examineeID string) (time.Duration, error)
	GetByID(ctx context.Context, attemptID, examineeID string) (*AttemptResponse, error)
	List(ctx context.Context, filters repositories.AttemptFilters) ([]*models.Attempt, int64, error)
}

// RecordAnswerRequest replaces the answer set of one question.
type RecordAnswerRequest struct {
	QuestionID string   `json:"question_id" validate:"required"`
	Selection  []string `json:"selection"`
}

// AttemptResponse is the attempt as surfaced to callers, with the derived
// countdown and, once graded, the result.
type AttemptResponse struct {
	*models.Attempt
	RemainingSeconds int            `json:"remaining_seconds"`
	Result           *models.Result `json:"result,omitempty"`
}

type attemptService struct {
	repo      repositories.Repository
	scoring   ScoringService
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
	now       func() time.Time
}

func NewAttemptService(
	repo repositories.Repository,
	scoring ScoringService,
	publisher events.EventPublisher,
	logger *slog.Logger,
	v *validator.Validator,
) AttemptService {
	return &attemptService{
		repo:      repo,
		scoring:   scoring,
		publisher: publisher,
		logger:    logger,
		validator: v,
		now:       time.Now,
	}
}

// ===== CORE ATTEMPT OPERATIONS =====

func (s *attemptService) Start(ctx context.Context, examID, examineeID string) (*AttemptResponse, error) {
	s.logger.Info("Starting exam attempt",
		"exam_id", examID,
		"examinee_id", examineeID)

	exam, err := s.repo.Exam().GetByIDWithQuestions(ctx, examID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}

	if err := s.validator.Exam().ValidateExam(exam); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExam, err)
	}

	if current, err := s.repo.Attempt().GetActiveAttempt(ctx, examineeID, examID); err == nil {
		s.logger.Info("Examinee already has an open attempt",
			"attempt_id", current.ID, "exam_id", examID)
		return nil, ErrAttemptInProgress
	} else if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check active attempt: %w", err)
	}

	now := s.now()
	attempt := &models.Attempt{
		ID:              uuid.NewString(),
		ExamID:          exam.ID,
		ExamineeID:      examineeID,
		Status:          models.AttemptStatusOpen,
		StartedAt:       now,
		DurationSeconds: exam.DurationSeconds,
		Answers:         emptyAnswers(exam),
	}

	if err := s.repo.Attempt().Create(ctx, attempt); err != nil {
		return nil, fmt.Errorf("failed to create attempt: %w", err)
	}

	s.logger.Info("Exam attempt started",
		"attempt_id", attempt.ID,
		"exam_id", exam.ID,
		"examinee_id", examineeID,
		"duration_seconds", exam.DurationSeconds)

	event := events.NewAttemptEvent(events.EventAttemptStarted, events.AttemptStartedEvent{
		AttemptID:       attempt.ID,
		ExamID:          exam.ID,
		ExamTitle:       exam.Title,
		ExamineeID:      examineeID,
		StartedAt:       attempt.StartedAt,
		DurationSeconds: attempt.DurationSeconds,
	})
	if err := s.publisher.PublishAttemptEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish started event", "attempt_id", attempt.ID, "error", err)
	}

	return s.buildResponse(attempt, nil), nil
}

func (s *attemptService) RecordAnswer(ctx context.Context, attemptID, examineeID string, req *RecordAnswerRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}

	attempt, err := s.getOwnedAttempt(ctx, attemptID, examineeID, "record_answer")
	if err != nil {
		return err
	}

	if attempt.Closed() {
		return ErrAttemptClosed
	}

	// Replace-set semantics, no validation against options here; the
	// scoring engine judges the selection at grading time.
	answers := attempt.Answers.Clone()
	selection := make([]string, len(req.Selection))
	copy(selection, req.Selection)
	answers[req.QuestionID] = selection

	updated, err := s.repo.Attempt().UpdateAnswers(ctx, attemptID, answers)
	if err != nil {
		return fmt.Errorf("failed to update answers: %w", err)
	}
	if !updated {
		// Lost the race against close; the frozen answer set stays intact.
		return ErrAttemptClosed
	}

	s.logger.Debug("Answer recorded",
		"attempt_id", attemptID,
		"question_id", req.QuestionID,
		"selection_size", len(req.Selection))

	return nil
}

func (s *attemptService) Submit(ctx context.Context, attemptID, examineeID string) (*AttemptResponse, error) {
	attempt, err := s.getOwnedAttempt(ctx, attemptID, examineeID, "submit")
	if err != nil {
		return nil, err
	}

	attempt, err = s.close(ctx, attempt, models.CloseReasonManual)
	if err != nil {
		return nil, err
	}

	result, err := s.scoring.GradeAttempt(ctx, attempt.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to grade attempt: %w", err)
	}

	return s.buildResponse(attempt, result), nil
}

func (s *attemptService) HandleTimeout(ctx context.Context, attemptID string) error {
	s.logger.Info("Handling attempt timeout", "attempt_id", attemptID)

	attempt, err := s.repo.Attempt().GetByID(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrAttemptNotFound
		}
		return fmt.Errorf("failed to get attempt: %w", err)
	}

	if attempt.Closed() {
		// A previous close may have failed between the status transition
		// and storing the result; grade now if the result is missing.
		return s.gradeIfMissing(ctx, attempt.ID)
	}

	attempt, err = s.close(ctx, attempt, models.CloseReasonTimeout)
	if err != nil {
		if IsConflict(err) {
			return nil // manual submit won the race and the attempt is terminal
		}
		return err
	}

	if _, err := s.scoring.GradeAttempt(ctx, attempt.ID); err != nil {
		return fmt.Errorf("failed to grade timed-out attempt: %w", err)
	}
	return nil
}

// gradeIfMissing repairs a terminal attempt that never got its result, for
// example when the process crashed right after the close. The unique index
// on results.attempt_id makes the retry safe against concurrent repairs.
func (s *attemptService) gradeIfMissing(ctx context.Context, attemptID string) error {
	exists, err := s.repo.Result().ExistsForAttempt(ctx, attemptID)
	if err != nil {
		return fmt.Errorf("failed to check result: %w", err)
	}
	if exists {
		return nil
	}

	s.logger.Warn("Closed attempt has no result, grading now", "attempt_id", attemptID)
	if _, err := s.scoring.GradeAttempt(ctx, attemptID); err != nil {
		return fmt.Errorf("failed to grade closed attempt: %w", err)
	}
	return nil
}

// close performs the single transition to a terminal status. The remaining
// time is re-checked here, at the instant of closing: time exhaustion always
// wins, so a manual submit arriving at or after the deadline is reclassified
// as a timeout.
func (s *attemptService) close(ctx context.Context, attempt *models.Attempt, reason models.CloseReason) (*models.Attempt, error) {
	if attempt.Closed() {
		return nil, ErrAttemptClosed
	}

	now := s.now()
	if attempt.RemainingTime(now) == 0 {
		reason = models.CloseReasonTimeout
	}

	status := models.AttemptStatusSubmitted
	eventType := events.EventAttemptSubmitted
	if reason == models.CloseReasonTimeout {
		status = models.AttemptStatusExpired
		eventType = events.EventAttemptExpired
	}

	closed, err := s.repo.Attempt().CloseIfOpen(ctx, attempt.ID, status, reason, now)
	if err != nil {
		return nil, fmt.Errorf("failed to close attempt: %w", err)
	}
	if !closed {
		return nil, ErrAttemptClosed
	}

	attempt.Status = status
	attempt.CloseReason = &reason
	attempt.ClosedAt = &now

	s.logger.Info("Attempt closed",
		"attempt_id", attempt.ID,
		"status", status,
		"reason", reason)

	event := events.NewAttemptEvent(eventType, events.AttemptClosedEvent{
		AttemptID:  attempt.ID,
		ExamID:     attempt.ExamID,
		ExamineeID: attempt.ExamineeID,
		Reason:     reason,
		ClosedAt:   now,
	})
	if err := s.publisher.PublishAttemptEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish close event", "attempt_id", attempt.ID, "error", err)
	}

	return attempt, nil
}

// ===== GET OPERATIONS =====

func (s *attemptService) GetTimeRemaining(ctx context.Context, attemptID, examineeID string) (time.Duration, error) {
	attempt, err := s.getOwnedAttempt(ctx, attemptID, examineeID, "get_time_remaining")
	if err != nil {
		return 0, err
	}

	if attempt.Closed() {
		return 0, nil
	}
	return attempt.RemainingTime(s.now()), nil
}

func (s *attemptService) GetByID(ctx context.Context, attemptID, examineeID string) (*AttemptResponse, error) {
	attempt, err := s.getOwnedAttempt(ctx, attemptID, examineeID, "read")
	if err != nil {
		return nil, err
	}

	var result *models.Result
	if attempt.Closed() {
		existing, err := s.repo.Result().GetByAttempt(ctx, attempt.ID)
		switch {
		case err == nil:
			result = existing
		case repositories.IsNotFoundError(err):
			// The close went through but grading never did; repair on read.
			result, err = s.scoring.GradeAttempt(ctx, attempt.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to grade closed attempt: %w", err)
			}
		default:
			return nil, fmt.Errorf("failed to get result: %w", err)
		}
	}

	return s.buildResponse(attempt, result), nil
}

func (s *attemptService) List(ctx context.Context, filters repositories.AttemptFilters) ([]*models.Attempt, int64, error) {
	attempts, total, err := s.repo.Attempt().List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list attempts: %w", err)
	}
	return attempts, total, nil
}

// ===== HELPER FUNCTIONS =====

func (s *attemptService) getOwnedAttempt(ctx context.Context, attemptID, examineeID, action string) (*models.Attempt, error) {
	attempt, err := s.repo.Attempt().GetByID(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}

	if attempt.ExamineeID != examineeID {
		return nil, NewPermissionError(examineeID, attemptID, "attempt", action, "not owned by examinee")
	}

	return attempt, nil
}

func (s *attemptService) buildResponse(attempt *models.Attempt, result *models.Result) *AttemptResponse {
	remaining := 0
	if !attempt.Closed() {
		remaining = int(attempt.RemainingTime(s.now()).Seconds())
	}
	return &AttemptResponse{
		Attempt:          attempt,
		RemainingSeconds: remaining,
		Result:           result,
	}
}

// emptyAnswers initializes an unanswered entry for every question so the
// frozen answer map always covers the full exam.
func emptyAnswers(exam *models.Exam) models.AnswerMap {
	answers := make(models.AnswerMap, len(exam.Questions))
	for i := range exam.Questions {
		answers[exam.Questions[i].ID] = []string{}
	}
	return answers
}
