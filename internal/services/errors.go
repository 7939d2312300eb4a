package services

import (
	"errors"
	"fmt"

	apperrors "github.com/openexam/exam-engine/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrForbidden        = errors.New("forbidden - insufficient permissions")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")

	// Exam specific errors
	ErrExamNotFound = errors.New("exam not found")

	// ErrInvalidExam marks an exam definition that cannot be attempted:
	// no questions or a non-positive duration. Never recoverable by retry
	// without fixing the exam definition.
	ErrInvalidExam = errors.New("exam is not attemptable")

	// Attempt specific errors
	ErrAttemptNotFound = errors.New("attempt not found")

	// ErrAttemptClosed is returned for any mutation of an attempt that has
	// already reached a terminal status. Surfaced to the examinee as "this
	// exam has already been submitted".
	ErrAttemptClosed = errors.New("attempt already closed")

	// ErrAttemptNotClosed marks grading attempted before closure. This is a
	// caller ordering bug, not a user-facing condition.
	ErrAttemptNotClosed = errors.New("attempt is not closed")

	// ErrExamMismatch marks an exam/attempt pairing inconsistency - a
	// data-integrity failure, never graded through silently.
	ErrExamMismatch = errors.New("attempt does not belong to exam")

	// ErrAttemptInProgress is returned when a new attempt is started while
	// the examinee already has an open one for the same exam.
	ErrAttemptInProgress = errors.New("examinee already has an open attempt")

	// Grading specific errors
	ErrAlreadyGraded = errors.New("attempt already graded")

	// Reporting errors
	ErrResultNotFound = errors.New("result not found")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type PermissionError struct {
	UserID     string `json:"user_id"`
	ResourceID string `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (pe *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s %s - %s",
		pe.UserID, pe.Action, pe.Resource, pe.ResourceID, pe.Reason)
}

// ===== ERROR HELPERS =====

func NewPermissionError(userID, resourceID, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrExamNotFound) ||
		errors.Is(err, ErrAttemptNotFound) ||
		errors.Is(err, ErrResultNotFound)
}

// IsUnauthorized checks if error represents an "unauthorized" condition
func IsUnauthorized(err error) bool {
	if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrForbidden) {
		return true
	}
	var pe *PermissionError
	return errors.As(err, &pe)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) || errors.Is(err, ErrInvalidExam) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}

// IsConflict checks if error represents a resource conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrAttemptClosed) ||
		errors.Is(err, ErrAttemptInProgress) ||
		errors.Is(err, ErrAlreadyGraded)
}
