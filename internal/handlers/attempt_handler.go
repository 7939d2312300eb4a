package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/openexam/exam-engine/internal/models"
	"github.com/openexam/exam-engine/internal/repositories"
	"github.com/openexam/exam-engine/internal/services"
	"github.com/openexam/exam-engine/internal/session"
	"github.com/openexam/exam-engine/internal/utils"
	"github.com/openexam/exam-engine/internal/validator"
)

type AttemptHandler struct {
	BaseHandler
	attemptService services.AttemptService
	sessions       *session.Manager
	validator      *validator.Validator
}

type StartAttemptRequest struct {
	ExamID string `json:"exam_id" validate:"required"`
}

func NewAttemptHandler(
	attemptService services.AttemptService,
	sessions *session.Manager,
	v *validator.Validator,
	logger utils.Logger,
) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:    NewBaseHandler(logger),
		attemptService: attemptService,
		sessions:       sessions,
		validator:      v,
	}
}

// StartAttempt opens a new timed attempt for the authenticated examinee
// @Summary Start attempt
// @Description Opens a new attempt against an exam and starts its countdown
// @Tags attempts
// @Accept json
// @Produce json
// @Param request body StartAttemptRequest true "Exam to attempt"
// @Success 201 {object} services.AttemptResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /attempts/start [post]
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	examineeID, ok := CurrentUserID(c)
	if !ok {
		return
	}

	var req StartAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Starting attempt", "exam_id", req.ExamID)

	resp, err := h.attemptService.Start(c.Request.Context(), req.ExamID, examineeID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	// The countdown runs on the session manager's own lifecycle, not on
	// this request's context.
	h.sessions.Track(resp.Attempt)

	c.JSON(http.StatusCreated, resp)
}

// RecordAnswer replaces the answer set for one question of an open attempt
// @Summary Record answer
// @Description Stores the selection for a question, replacing any previous one
// @Tags attempts
// @Accept json
// @Produce json
// @Param id path string true "Attempt ID"
// @Param request body services.RecordAnswerRequest true "Answer selection"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /attempts/{id}/answer [post]
func (h *AttemptHandler) RecordAnswer(c *gin.Context) {
	attemptID := ParseStringIDParam(c, "id")
	if attemptID == "" {
		return
	}

	examineeID, ok := CurrentUserID(c)
	if !ok {
		return
	}

	var req services.RecordAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.attemptService.RecordAnswer(c.Request.Context(), attemptID, examineeID, &req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// SubmitAttempt closes the attempt and grades it
// @Summary Submit attempt
// @Description Submits an open attempt, freezing its answers and grading it
// @Tags attempts
// @Produce json
// @Param id path string true "Attempt ID"
// @Success 200 {object} services.AttemptResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /attempts/{id}/submit [post]
func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	attemptID := ParseStringIDParam(c, "id")
	if attemptID == "" {
		return
	}

	examineeID, ok := CurrentUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Submitting attempt", "attempt_id", attemptID)

	resp, err := h.attemptService.Submit(c.Request.Context(), attemptID, examineeID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.sessions.Untrack(attemptID)

	c.JSON(http.StatusOK, resp)
}

// GetTimeRemaining reports the derived countdown of an attempt
// @Summary Time remaining
// @Description Returns the seconds left before the attempt expires
// @Tags attempts
// @Produce json
// @Param id path string true "Attempt ID"
// @Success 200 {object} map[string]int
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id}/time-remaining [get]
func (h *AttemptHandler) GetTimeRemaining(c *gin.Context) {
	attemptID := ParseStringIDParam(c, "id")
	if attemptID == "" {
		return
	}

	examineeID, ok := CurrentUserID(c)
	if !ok {
		return
	}

	remaining, err := h.attemptService.GetTimeRemaining(c.Request.Context(), attemptID, examineeID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"remaining_seconds": int(remaining.Seconds()),
	})
}

// GetAttempt returns one attempt owned by the caller
// @Summary Get attempt
// @Description Returns the attempt with its countdown and, once graded, its result
// @Tags attempts
// @Produce json
// @Param id path string true "Attempt ID"
// @Success 200 {object} services.AttemptResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id} [get]
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	attemptID := ParseStringIDParam(c, "id")
	if attemptID == "" {
		return
	}

	examineeID, ok := CurrentUserID(c)
	if !ok {
		return
	}

	resp, err := h.attemptService.GetByID(c.Request.Context(), attemptID, examineeID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListAttempts lists attempts for an exam, for instructors
// @Summary List attempts
// @Description Lists attempts filtered by exam, examinee or status
// @Tags attempts
// @Produce json
// @Param exam_id query string false "Exam ID"
// @Param status query string false "Attempt status"
// @Success 200 {object} ListResponse
// @Router /attempts [get]
func (h *AttemptHandler) ListAttempts(c *gin.Context) {
	filters := repositories.AttemptFilters{}
	if examID := c.Query("exam_id"); examID != "" {
		filters.ExamID = &examID
	}
	if examineeID := c.Query("examinee_id"); examineeID != "" {
		filters.ExamineeID = &examineeID
	}
	if status := c.Query("status"); status != "" {
		attemptStatus := models.AttemptStatus(status)
		filters.Status = &attemptStatus
	}

	attempts, total, err := h.attemptService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Items: attempts, Total: total})
}
