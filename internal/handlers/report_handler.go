package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/openexam/exam-engine/internal/repositories"
	"github.com/openexam/exam-engine/internal/services"
	"github.com/openexam/exam-engine/internal/utils"
)

type ReportHandler struct {
	BaseHandler
	reportService services.ReportService
	exportService services.ExportService
}

func NewReportHandler(
	reportService services.ReportService,
	exportService services.ExportService,
	logger utils.Logger,
) *ReportHandler {
	return &ReportHandler{
		BaseHandler:   NewBaseHandler(logger),
		reportService: reportService,
		exportService: exportService,
	}
}

// GetExamSummary returns aggregate statistics for an exam
// @Summary Exam summary
// @Description Returns attempt count and average score/percentage for an exam
// @Tags reports
// @Produce json
// @Param exam_id path string true "Exam ID"
// @Success 200 {object} models.Summary
// @Router /reports/exams/{exam_id}/summary [get]
func (h *ReportHandler) GetExamSummary(c *gin.Context) {
	examID := ParseStringIDParam(c, "exam_id")
	if examID == "" {
		return
	}

	summary, err := h.reportService.GetExamSummary(c.Request.Context(), examID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetExamResults lists graded results for an exam
// @Summary Exam results
// @Description Lists every graded result of an exam
// @Tags reports
// @Produce json
// @Param exam_id path string true "Exam ID"
// @Success 200 {object} ListResponse
// @Router /reports/exams/{exam_id}/results [get]
func (h *ReportHandler) GetExamResults(c *gin.Context) {
	examID := ParseStringIDParam(c, "exam_id")
	if examID == "" {
		return
	}

	filters := repositories.ResultFilters{}
	if examineeID := c.Query("examinee_id"); examineeID != "" {
		filters.ExamineeID = &examineeID
	}

	results, total, err := h.reportService.GetExamResults(c.Request.Context(), examID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Items: results, Total: total})
}

// GetMyResults lists the authenticated examinee's own graded results
// @Summary My results
// @Description Lists the caller's graded results across exams
// @Tags reports
// @Produce json
// @Success 200 {object} ListResponse
// @Router /reports/my-results [get]
func (h *ReportHandler) GetMyResults(c *gin.Context) {
	examineeID, ok := CurrentUserID(c)
	if !ok {
		return
	}

	results, total, err := h.reportService.GetExamineeResults(c.Request.Context(), examineeID, repositories.ResultFilters{})
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Items: results, Total: total})
}

// GetMyExamSummary returns the caller's personal summary for one exam
// @Summary My exam summary
// @Description Returns the caller's attempt count and averages for an exam
// @Tags reports
// @Produce json
// @Param exam_id path string true "Exam ID"
// @Success 200 {object} models.Summary
// @Router /reports/exams/{exam_id}/my-summary [get]
func (h *ReportHandler) GetMyExamSummary(c *gin.Context) {
	examID := ParseStringIDParam(c, "exam_id")
	if examID == "" {
		return
	}

	examineeID, ok := CurrentUserID(c)
	if !ok {
		return
	}

	summary, err := h.reportService.GetExamineeSummary(c.Request.Context(), examID, examineeID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// ExportExamResults downloads exam results as an Excel file
// @Summary Export results
// @Description Streams the exam's graded results as an xlsx spreadsheet
// @Tags reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param exam_id path string true "Exam ID"
// @Success 200 {file} binary
// @Failure 404 {object} ErrorResponse
// @Router /reports/exams/{exam_id}/export [get]
func (h *ReportHandler) ExportExamResults(c *gin.Context) {
	examID := ParseStringIDParam(c, "exam_id")
	if examID == "" {
		return
	}

	h.LogRequest(c, "Exporting exam results", "exam_id", examID)

	data, err := h.exportService.ExportExamResults(c.Request.Context(), examID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("exam-%s-results.xlsx", examID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		data)
}
