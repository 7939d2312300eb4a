package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openexam/exam-engine/internal/cache"
	"github.com/openexam/exam-engine/internal/models"
	"github.com/openexam/exam-engine/internal/repositories"
)

const summaryCacheTTL = 30 * time.Second

// ReportService aggregates graded results into summaries for instructor
// reporting and per-examinee "my results" views. Both views read the same
// result rows through the same computation, so they can never disagree on
// an individual score.
type ReportService interface {
	GetExamSummary(ctx context.Context, examID string) (*models.Summary, error)
	GetExamResults(ctx context.Context, examID string, filters repositories.ResultFilters) ([]*models.Result, int64, error)
	GetExamineeResults(ctx context.Context, examineeID string, filters repositories.ResultFilters) ([]*models.Result, int64, error)
	GetExamineeSummary(ctx context.Context, examID, examineeID string) (*models.Summary, error)
	InvalidateExamSummary(ctx context.Context, examID string) error
}

type reportService struct {
	repo   repositories.Repository
	cache  cache.CacheService
	logger *slog.Logger
	now    func() time.Time
}

func NewReportService(repo repositories.Repository, cacheService cache.CacheService, logger *slog.Logger) ReportService {
	return &reportService{
		repo:   repo,
		cache:  cacheService,
		logger: logger,
		now:    time.Now,
	}
}

func (s *reportService) GetExamSummary(ctx context.Context, examID string) (*models.Summary, error) {
	cacheKey := summaryCacheKey(examID)

	var cached models.Summary
	if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
		return &cached, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("Summary cache read failed", "exam_id", examID, "error", err)
	}

	results, _, err := s.repo.Result().GetByExam(ctx, examID, repositories.ResultFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to get results: %w", err)
	}

	summary := s.Summarize(examID, results)

	if err := s.cache.Set(ctx, cacheKey, summary, summaryCacheTTL); err != nil {
		s.logger.Warn("Summary cache write failed", "exam_id", examID, "error", err)
	}

	return summary, nil
}

func (s *reportService) GetExamResults(ctx context.Context, examID string, filters repositories.ResultFilters) ([]*models.Result, int64, error) {
	results, total, err := s.repo.Result().GetByExam(ctx, examID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get exam results: %w", err)
	}
	return results, total, nil
}

func (s *reportService) GetExamineeResults(ctx context.Context, examineeID string, filters repositories.ResultFilters) ([]*models.Result, int64, error) {
	results, total, err := s.repo.Result().GetByExaminee(ctx, examineeID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get examinee results: %w", err)
	}
	return results, total, nil
}

// GetExamineeSummary is a strict filter of the exam's results by examinee,
// fed through the same Summarize path as the instructor view.
func (s *reportService) GetExamineeSummary(ctx context.Context, examID, examineeID string) (*models.Summary, error) {
	results, _, err := s.repo.Result().GetByExam(ctx, examID, repositories.ResultFilters{
		ExamineeID: &examineeID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get results: %w", err)
	}
	return s.Summarize(examID, results), nil
}

func (s *reportService) InvalidateExamSummary(ctx context.Context, examID string) error {
	return s.cache.Delete(ctx, summaryCacheKey(examID))
}

// Summarize computes summary statistics over a result collection. With zero
// attempts the averages stay nil rather than risking a division by zero.
func (s *reportService) Summarize(examID string, results []*models.Result) *models.Summary {
	summary := &models.Summary{
		ExamID:       examID,
		AttemptCount: len(results),
		GeneratedAt:  s.now(),
	}

	if len(results) == 0 {
		return summary
	}

	var scoreSum, percentageSum float64
	for _, result := range results {
		scoreSum += result.Score
		percentageSum += result.Percentage()
	}

	averageScore := scoreSum / float64(len(results))
	averagePercentage := percentageSum / float64(len(results))
	summary.AverageScore = &averageScore
	summary.AveragePercentage = &averagePercentage

	return summary
}

func summaryCacheKey(examID string) string {
	return "exam-engine:summary:" + examID
}
