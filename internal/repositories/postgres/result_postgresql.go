package postgres

import (
	"context"

	"github.com/openexam/exam-engine/internal/models"
	"github.com/openexam/exam-engine/internal/repositories"
	"gorm.io/gorm"
)

type ResultPostgreSQL struct {
	db *gorm.DB
}

func NewResultPostgreSQL(db *gorm.DB) repositories.ResultRepository {
	return &ResultPostgreSQL{db: db}
}

func (r ResultPostgreSQL) Create(ctx context.Context, result *models.Result) error {
	// The unique index on attempt_id turns a double-grade into a
	// duplicated-key error instead of a second row.
	return r.db.WithContext(ctx).Create(result).Error
}

func (r ResultPostgreSQL) GetByAttempt(ctx context.Context, attemptID string) (*models.Result, error) {
	var result models.Result
	if err := r.db.WithContext(ctx).First(&result, "attempt_id = ?", attemptID).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r ResultPostgreSQL) GetByExam(ctx context.Context, examID string, filters repositories.ResultFilters) ([]*models.Result, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Result{}).Where("exam_id = ?", examID)
	return r.list(query, filters)
}

func (r ResultPostgreSQL) GetByExaminee(ctx context.Context, examineeID string, filters repositories.ResultFilters) ([]*models.Result, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Result{}).Where("examinee_id = ?", examineeID)
	return r.list(query, filters)
}

func (r ResultPostgreSQL) ExistsForAttempt(ctx context.Context, attemptID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Result{}).Where("attempt_id = ?", attemptID).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r ResultPostgreSQL) list(query *gorm.DB, filters repositories.ResultFilters) ([]*models.Result, int64, error) {
	var results []*models.Result
	var total int64

	if filters.ExamineeID != nil {
		query = query.Where("examinee_id = ?", *filters.ExamineeID)
	}
	if filters.DateFrom != nil {
		query = query.Where("graded_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("graded_at <= ?", *filters.DateTo)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPaginationAndSort(query, filters.Limit, filters.Offset, filters.SortBy, filters.SortOrder, "graded_at")

	if err := query.Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}
