package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openexam/exam-engine/internal/repositories"
	"github.com/xuri/excelize/v2"
)

// ExportService renders the graded results of an exam as a spreadsheet for
// instructor download.
type ExportService interface {
	ExportExamResults(ctx context.Context, examID string) ([]byte, error)
}

type exportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewExportService(repo repositories.Repository, logger *slog.Logger) ExportService {
	return &exportService{
		repo:   repo,
		logger: logger,
	}
}

func (s *exportService) ExportExamResults(ctx context.Context, examID string) ([]byte, error) {
	exam, err := s.repo.Exam().GetByID(ctx, examID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}

	results, _, err := s.repo.Result().GetByExam(ctx, examID, repositories.ResultFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to get results: %w", err)
	}

	f := excelize.NewFile()
	sheetName := "Results"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{
		"Attempt ID", "Examinee ID", "Score", "Max Score", "Percentage", "Graded At",
	}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIndex, result := range results {
		row := []interface{}{
			result.AttemptID,
			result.ExamineeID,
			result.Score,
			result.MaxScore,
			result.Percentage(),
			result.GradedAt.Format("2006-01-02 15:04:05"),
		}
		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.Info("Exported exam results",
		"exam_id", examID,
		"exam_title", exam.Title,
		"result_count", len(results))

	return buf.Bytes(), nil
}
