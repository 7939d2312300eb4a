package postgres

import (
	"context"

	"github.com/openexam/exam-engine/internal/repositories"
	"gorm.io/gorm"
)

type Repository struct {
	db          *gorm.DB
	examRepo    repositories.ExamRepository
	attemptRepo repositories.AttemptRepository
	resultRepo  repositories.ResultRepository
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:          db,
		examRepo:    NewExamPostgreSQL(db),
		attemptRepo: NewAttemptPostgreSQL(db),
		resultRepo:  NewResultPostgreSQL(db),
	}
}

func (r *Repository) Exam() repositories.ExamRepository       { return r.examRepo }
func (r *Repository) Attempt() repositories.AttemptRepository { return r.attemptRepo }
func (r *Repository) Result() repositories.ResultRepository   { return r.resultRepo }

func (r *Repository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}

func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
