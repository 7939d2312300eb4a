package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/openexam/exam-engine/internal/models"
)

// Validator combines struct-tag validation with the exam invariant checks.
type Validator struct {
	structValidator *validator.Validate
	examValidator   *ExamValidator
}

// New creates a new centralized validator instance
func New() *Validator {
	structValidator := validator.New()
	registerCustomValidators(structValidator)

	return &Validator{
		structValidator: structValidator,
		examValidator:   NewExamValidator(),
	}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.structValidator.Struct(s)
}

// Validate performs struct-tag validation and returns the converted errors.
func (v *Validator) Validate(s interface{}) error {
	if err := v.structValidator.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// Exam returns the exam invariant validator
func (v *Validator) Exam() *ExamValidator {
	return v.examValidator
}

func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("question_kind", validateQuestionKind)
	validate.RegisterValidation("exam_duration", validateExamDuration)

	// Custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validateExamDuration(fl validator.FieldLevel) bool {
	return fl.Field().Int() > 0
}

func validateQuestionKind(fl validator.FieldLevel) bool {
	validKinds := []models.QuestionKind{
		models.SingleChoice,
		models.MultipleChoice,
		models.FreeText,
	}

	value := fl.Field().String()
	for _, validKind := range validKinds {
		if string(validKind) == value {
			return true
		}
	}
	return false
}
