package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/openexam/exam-engine/internal/repositories"
	"github.com/openexam/exam-engine/internal/services"
	"github.com/openexam/exam-engine/internal/utils"
)

type ExamHandler struct {
	BaseHandler
	examService services.ExamService
}

func NewExamHandler(examService services.ExamService, logger utils.Logger) *ExamHandler {
	return &ExamHandler{
		BaseHandler: NewBaseHandler(logger),
		examService: examService,
	}
}

// CreateExam creates a new exam definition
// @Summary Create exam
// @Description Creates an exam with its questions and answer key
// @Tags exams
// @Accept json
// @Produce json
// @Param request body services.CreateExamRequest true "Exam definition"
// @Success 201 {object} models.Exam
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /exams [post]
func (h *ExamHandler) CreateExam(c *gin.Context) {
	creatorID, ok := CurrentUserID(c)
	if !ok {
		return
	}

	var req services.CreateExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Creating exam", "title", req.Title)

	exam, err := h.examService.Create(c.Request.Context(), &req, creatorID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, exam)
}

// GetExam returns the attempt-facing view of an exam, without answer keys
// @Summary Get exam
// @Description Returns the exam as presented to examinees
// @Tags exams
// @Produce json
// @Param id path string true "Exam ID"
// @Success 200 {object} services.ExamView
// @Failure 404 {object} ErrorResponse
// @Router /exams/{id} [get]
func (h *ExamHandler) GetExam(c *gin.Context) {
	examID := ParseStringIDParam(c, "id")
	if examID == "" {
		return
	}

	view, err := h.examService.GetForExaminee(c.Request.Context(), examID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// ListExams lists exam definitions
// @Summary List exams
// @Description Lists exams, optionally filtered by creator
// @Tags exams
// @Produce json
// @Param created_by query string false "Creator ID"
// @Success 200 {object} ListResponse
// @Router /exams [get]
func (h *ExamHandler) ListExams(c *gin.Context) {
	filters := repositories.ExamFilters{}
	if createdBy := c.Query("created_by"); createdBy != "" {
		filters.CreatedBy = &createdBy
	}

	exams, total, err := h.examService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Items: exams, Total: total})
}

// DeleteExam removes an exam definition
// @Summary Delete exam
// @Description Soft-deletes an exam; only its creator may do this
// @Tags exams
// @Produce json
// @Param id path string true "Exam ID"
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /exams/{id} [delete]
func (h *ExamHandler) DeleteExam(c *gin.Context) {
	examID := ParseStringIDParam(c, "id")
	if examID == "" {
		return
	}

	callerID, ok := CurrentUserID(c)
	if !ok {
		return
	}

	if err := h.examService.Delete(c.Request.Context(), examID, callerID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
