package postgres

import (
	"context"
	"time"

	"github.com/openexam/exam-engine/internal/models"
	"github.com/openexam/exam-engine/internal/repositories"
	"gorm.io/gorm"
)

type AttemptPostgreSQL struct {
	db *gorm.DB
}

func NewAttemptPostgreSQL(db *gorm.DB) repositories.AttemptRepository {
	return &AttemptPostgreSQL{db: db}
}

func (a AttemptPostgreSQL) Create(ctx context.Context, attempt *models.Attempt) error {
	return a.db.WithContext(ctx).Create(attempt).Error
}

func (a AttemptPostgreSQL) GetByID(ctx context.Context, id string) (*models.Attempt, error) {
	var attempt models.Attempt
	if err := a.db.WithContext(ctx).First(&attempt, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a AttemptPostgreSQL) List(ctx context.Context, filters repositories.AttemptFilters) ([]*models.Attempt, int64, error) {
	var attempts []*models.Attempt
	var total int64

	query := a.db.WithContext(ctx).Model(&models.Attempt{})
	query = a.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPaginationAndSort(query, filters.Limit, filters.Offset, filters.SortBy, filters.SortOrder, "started_at")

	if err := query.Find(&attempts).Error; err != nil {
		return nil, 0, err
	}
	return attempts, total, nil
}

func (a AttemptPostgreSQL) GetActiveAttempt(ctx context.Context, examineeID, examID string) (*models.Attempt, error) {
	var attempt models.Attempt
	err := a.db.WithContext(ctx).
		Where("examinee_id = ? AND exam_id = ? AND status = ?", examineeID, examID, models.AttemptStatusOpen).
		Order("started_at DESC").
		First(&attempt).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a AttemptPostgreSQL) GetOpenAttempts(ctx context.Context) ([]*models.Attempt, error) {
	var attempts []*models.Attempt
	err := a.db.WithContext(ctx).
		Where("status = ?", models.AttemptStatusOpen).
		Find(&attempts).Error
	if err != nil {
		return nil, err
	}
	return attempts, nil
}

func (a AttemptPostgreSQL) UpdateAnswers(ctx context.Context, id string, answers models.AnswerMap) (bool, error) {
	res := a.db.WithContext(ctx).
		Model(&models.Attempt{}).
		Where("id = ? AND status = ?", id, models.AttemptStatusOpen).
		Updates(map[string]interface{}{
			"answers":    answers,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (a AttemptPostgreSQL) CloseIfOpen(ctx context.Context, id string, status models.AttemptStatus, reason models.CloseReason, closedAt time.Time) (bool, error) {
	res := a.db.WithContext(ctx).
		Model(&models.Attempt{}).
		Where("id = ? AND status = ?", id, models.AttemptStatusOpen).
		Updates(map[string]interface{}{
			"status":       status,
			"close_reason": reason,
			"closed_at":    closedAt,
			"updated_at":   time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (a AttemptPostgreSQL) applyFilters(query *gorm.DB, filters repositories.AttemptFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.ExamID != nil {
		query = query.Where("exam_id = ?", *filters.ExamID)
	}
	if filters.ExamineeID != nil {
		query = query.Where("examinee_id = ?", *filters.ExamineeID)
	}
	if filters.DateFrom != nil {
		query = query.Where("started_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("started_at <= ?", *filters.DateTo)
	}
	return query
}
