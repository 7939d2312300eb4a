package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/openexam/exam-engine/internal/identity"
	"github.com/openexam/exam-engine/internal/services"
	"github.com/openexam/exam-engine/internal/session"
	"github.com/openexam/exam-engine/internal/utils"
	"github.com/openexam/exam-engine/internal/validator"
)

type HandlerManager struct {
	examHandler    *ExamHandler
	attemptHandler *AttemptHandler
	reportHandler  *ReportHandler
	provider       identity.Provider
}

func NewHandlerManager(
	examService services.ExamService,
	attemptService services.AttemptService,
	reportService services.ReportService,
	exportService services.ExportService,
	sessions *session.Manager,
	provider identity.Provider,
	v *validator.Validator,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		examHandler:    NewExamHandler(examService, logger),
		attemptHandler: NewAttemptHandler(attemptService, sessions, v, logger),
		reportHandler:  NewReportHandler(reportService, exportService, logger),
		provider:       provider,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "exam-engine",
		})
	})

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(AuthMiddleware(hm.provider))
	{
		// Exam routes
		exams := v1.Group("/exams")
		{
			exams.GET("/:id", hm.examHandler.GetExam)

			exams.POST("", RequireInstructor(), hm.examHandler.CreateExam)
			exams.GET("", RequireInstructor(), hm.examHandler.ListExams)
			exams.DELETE("/:id", RequireInstructor(), hm.examHandler.DeleteExam)
		}

		// Attempt routes
		attempts := v1.Group("/attempts")
		{
			attempts.POST("/start", hm.attemptHandler.StartAttempt)
			attempts.GET("/:id", hm.attemptHandler.GetAttempt)
			attempts.POST("/:id/answer", hm.attemptHandler.RecordAnswer)
			attempts.POST("/:id/submit", hm.attemptHandler.SubmitAttempt)
			attempts.GET("/:id/time-remaining", hm.attemptHandler.GetTimeRemaining)

			attempts.GET("", RequireInstructor(), hm.attemptHandler.ListAttempts)
		}

		// Report routes
		reports := v1.Group("/reports")
		{
			reports.GET("/my-results", hm.reportHandler.GetMyResults)
			reports.GET("/exams/:exam_id/my-summary", hm.reportHandler.GetMyExamSummary)

			reports.GET("/exams/:exam_id/summary", RequireInstructor(), hm.reportHandler.GetExamSummary)
			reports.GET("/exams/:exam_id/results", RequireInstructor(), hm.reportHandler.GetExamResults)
			reports.GET("/exams/:exam_id/export", RequireInstructor(), hm.reportHandler.ExportExamResults)
		}
	}
}
