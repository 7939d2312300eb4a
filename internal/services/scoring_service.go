package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/openexam/exam-engine/internal/cache"
	"github.com/openexam/exam-engine/internal/events"
	"github.com/openexam/exam-engine/internal/models"
	"github.com/openexam/exam-engine/internal/repositories"
)

// ScoringService turns a closed attempt plus its exam into an immutable
// Result. Grade is deterministic and side-effect free; GradeAttempt adds
// loading, the at-most-once persistence step and the graded event.
type ScoringService interface {
	Grade(exam *models.Exam, attempt *models.Attempt) (*models.Result, error)
	GradeAttempt(ctx context.Context, attemptID string) (*models.Result, error)
}

type scoringService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	publisher events.EventPublisher
	cache     cache.CacheService
	now       func() time.Time
}

func NewScoringService(repo repositories.Repository, logger *slog.Logger, publisher events.EventPublisher, cacheService cache.CacheService) ScoringService {
	return &scoringService{
		repo:      repo,
		logger:    logger,
		publisher: publisher,
		cache:     cacheService,
		now:       time.Now,
	}
}

// Grade computes the result for a closed attempt. It never mutates its
// inputs; calling it twice on the same attempt and exam yields identical
// scores and breakdowns.
func (s *scoringService) Grade(exam *models.Exam, attempt *models.Attempt) (*models.Result, error) {
	if !attempt.Closed() {
		return nil, ErrAttemptNotClosed
	}
	if attempt.ExamID != exam.ID {
		return nil, fmt.Errorf("%w: attempt %s references exam %s, got exam %s",
			ErrExamMismatch, attempt.ID, attempt.ExamID, exam.ID)
	}

	var score float64
	var maxScore float64
	breakdown := make(models.Breakdown, 0, len(exam.Questions))

	for i := range exam.Questions {
		question := &exam.Questions[i]
		weight := question.EffectiveWeight()
		maxScore += weight

		correct := questionCorrect(question, attempt.Answers[question.ID])
		awarded := 0.0
		if correct {
			awarded = weight
			score += weight
		}

		breakdown = append(breakdown, models.QuestionScore{
			QuestionID: question.ID,
			Correct:    correct,
			Awarded:    awarded,
			Weight:     weight,
		})
	}

	return &models.Result{
		AttemptID:  attempt.ID,
		ExamID:     exam.ID,
		ExamineeID: attempt.ExamineeID,
		Score:      score,
		MaxScore:   maxScore,
		Breakdown:  breakdown,
		GradedAt:   s.now(),
	}, nil
}

// GradeAttempt loads the attempt and exam, grades, and persists the result.
// The unique index on results.attempt_id keeps grading at-most-once even
// when a close is retried over the network.
func (s *scoringService) GradeAttempt(ctx context.Context, attemptID string) (*models.Result, error) {
	attempt, err := s.repo.Attempt().GetByID(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}

	exam, err := s.repo.Exam().GetByIDWithQuestions(ctx, attempt.ExamID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}

	result, err := s.Grade(exam, attempt)
	if err != nil {
		return nil, err
	}
	result.ID = uuid.NewString()

	if err := s.repo.Result().Create(ctx, result); err != nil {
		if repositories.IsDuplicateError(err) {
			s.logger.Warn("Attempt already graded, keeping existing result",
				"attempt_id", attemptID)
			return s.getExistingResult(ctx, attemptID)
		}
		return nil, fmt.Errorf("failed to store result: %w", err)
	}

	s.logger.Info("Attempt graded",
		"attempt_id", attemptID,
		"exam_id", exam.ID,
		"score", result.Score,
		"max_score", result.MaxScore)

	// A new result changes the exam aggregates.
	if err := s.cache.Delete(ctx, summaryCacheKey(exam.ID)); err != nil {
		s.logger.Warn("Failed to invalidate summary cache", "exam_id", exam.ID, "error", err)
	}

	event := events.NewAttemptEvent(events.EventAttemptGraded, events.AttemptGradedEvent{
		AttemptID:  result.AttemptID,
		ExamID:     result.ExamID,
		ExamineeID: result.ExamineeID,
		Score:      result.Score,
		MaxScore:   result.MaxScore,
		Percentage: result.Percentage(),
		GradedAt:   result.GradedAt,
	})
	if err := s.publisher.PublishAttemptEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish graded event", "attempt_id", attemptID, "error", err)
	}

	return result, nil
}

func (s *scoringService) getExistingResult(ctx context.Context, attemptID string) (*models.Result, error) {
	existing, err := s.repo.Result().GetByAttempt(ctx, attemptID)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing result: %w", err)
	}
	return existing, nil
}

// ===== CORRECTNESS RULES =====

// questionCorrect applies the uniform all-or-nothing rule: the normalized
// submitted set must equal the normalized correct set. An empty submission
// is never correct because a gradable question always has correct answers.
func questionCorrect(question *models.Question, submitted []string) bool {
	if len(submitted) == 0 {
		return false
	}

	caseFold := question.Kind == models.FreeText
	want := normalizeSet(question.CorrectAnswers, caseFold)
	got := normalizeSet(submitted, caseFold)

	if len(want) != len(got) {
		return false
	}
	for value := range want {
		if !got[value] {
			return false
		}
	}
	return true
}

// normalizeSet trims surrounding whitespace on every value and, for
// free-text comparisons, additionally case-folds. Choice options are
// platform-controlled, so their case is significant. Punctuation is kept
// as-is; "Paris." does not match "Paris".
func normalizeSet(values []string, caseFold bool) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, value := range values {
		normalized := strings.TrimSpace(value)
		if caseFold {
			normalized = strings.ToLower(normalized)
		}
		set[normalized] = true
	}
	return set
}
