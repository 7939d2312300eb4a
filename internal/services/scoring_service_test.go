package services

import (
	"context"
	"testing"
	"time"

	"github.com/openexam/exam-engine/internal/cache"
	"github.com/openexam/exam-engine/internal/events"
	"github.com/openexam/exam-engine/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newScoringService(repo *MockRepository, t *testing.T) (*scoringService, *events.MockEventPublisher) {
	logger := testLogger(t)
	publisher := events.NewMockEventPublisher(logger)
	svc := &scoringService{
		repo:      repo,
		logger:    logger,
		publisher: publisher,
		cache:     cache.NoopCache{},
		now:       func() time.Time { return time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC) },
	}
	return svc, publisher
}

func TestGrade_AllCorrect(t *testing.T) {
	svc, _ := newScoringService(NewMockRepository(), t)
	exam := geographyExam()
	attempt := closedAttempt(exam.ID, models.AnswerMap{
		"q1": {"Africa"},
		"q2": {"France", "Spain"},
		"q3": {"Paris"},
	})

	result, err := svc.Grade(exam, attempt)
	require.NoError(t, err)

	assert.Equal(t, 4.0, result.Score)
	assert.Equal(t, 4.0, result.MaxScore)
	assert.Equal(t, 1.0, result.Percentage())
	assert.Len(t, result.Breakdown, 3)
	for _, qs := range result.Breakdown {
		assert.True(t, qs.Correct, "question %s should be correct", qs.QuestionID)
		assert.Equal(t, qs.Weight, qs.Awarded)
	}
}

func TestGrade_MultipleChoiceIsAllOrNothing(t *testing.T) {
	svc, _ := newScoringService(NewMockRepository(), t)
	exam := geographyExam()

	tests := []struct {
		name      string
		selection []string
		correct   bool
	}{
		{"exact set", []string{"France", "Spain"}, true},
		{"order does not matter", []string{"Spain", "France"}, true},
		{"subset", []string{"France"}, false},
		{"superset", []string{"France", "Spain", "Norway"}, false},
		{"empty selection", []string{}, false},
		{"duplicates collapse", []string{"France", "France", "Spain"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempt := closedAttempt(exam.ID, models.AnswerMap{"q2": tt.selection})

			result, err := svc.Grade(exam, attempt)
			require.NoError(t, err)

			var q2 *models.QuestionScore
			for i := range result.Breakdown {
				if result.Breakdown[i].QuestionID == "q2" {
					q2 = &result.Breakdown[i]
				}
			}
			require.NotNil(t, q2)
			assert.Equal(t, tt.correct, q2.Correct)
			if tt.correct {
				assert.Equal(t, 2.0, q2.Awarded)
			} else {
				assert.Equal(t, 0.0, q2.Awarded)
			}
		})
	}
}

func TestGrade_FreeTextNormalization(t *testing.T) {
	svc, _ := newScoringService(NewMockRepository(), t)
	exam := geographyExam()

	tests := []struct {
		name    string
		answer  string
		correct bool
	}{
		{"exact", "Paris", true},
		{"lower case", "paris", true},
		{"upper case", "PARIS", true},
		{"surrounding whitespace", "  Paris ", true},
		{"trailing punctuation", "Paris.", false},
		{"different answer", "Lyon", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempt := closedAttempt(exam.ID, models.AnswerMap{"q3": {tt.answer}})

			result, err := svc.Grade(exam, attempt)
			require.NoError(t, err)

			var q3 *models.QuestionScore
			for i := range result.Breakdown {
				if result.Breakdown[i].QuestionID == "q3" {
					q3 = &result.Breakdown[i]
				}
			}
			require.NotNil(t, q3)
			assert.Equal(t, tt.correct, q3.Correct)
		})
	}
}

func TestGrade_ChoiceCaseIsSignificant(t *testing.T) {
	svc, _ := newScoringService(NewMockRepository(), t)
	exam := geographyExam()
	attempt := closedAttempt(exam.ID, models.AnswerMap{"q1": {"africa"}})

	result, err := svc.Grade(exam, attempt)
	require.NoError(t, err)

	assert.Equal(t, 0.0, result.Score)
}

func TestGrade_WeightedPartialScore(t *testing.T) {
	// Two questions with weights 1 and 2: only the weight-1 question answered
	// correctly yields score 1 of 3.
	svc, _ := newScoringService(NewMockRepository(), t)
	exam := &models.Exam{
		ID:              "exam-w",
		Title:           "Weighted",
		DurationSeconds: 600,
		Questions: []models.Question{
			{
				ID: "w1", ExamID: "exam-w", Prompt: "1+1?",
				Kind:           models.SingleChoice,
				Options:        []string{"1", "2"},
				CorrectAnswers: []string{"2"},
				Weight:         1,
			},
			{
				ID: "w2", ExamID: "exam-w", Prompt: "Primes below 5?",
				Kind:           models.MultipleChoice,
				Options:        []string{"2", "3", "4"},
				CorrectAnswers: []string{"2", "3"},
				Weight:         2,
			},
		},
	}
	attempt := closedAttempt(exam.ID, models.AnswerMap{
		"w1": {"2"},
		"w2": {"2", "4"},
	})

	result, err := svc.Grade(exam, attempt)
	require.NoError(t, err)

	assert.Equal(t, 1.0, result.Score)
	assert.Equal(t, 3.0, result.MaxScore)
}

func TestGrade_UnansweredQuestionsScoreZero(t *testing.T) {
	svc, _ := newScoringService(NewMockRepository(), t)
	exam := geographyExam()
	attempt := closedAttempt(exam.ID, models.AnswerMap{})

	result, err := svc.Grade(exam, attempt)
	require.NoError(t, err)

	assert.Equal(t, 0.0, result.Score)
	assert.Equal(t, 4.0, result.MaxScore)
	assert.Equal(t, 0.0, result.Percentage())
	assert.Len(t, result.Breakdown, 3)
}

func TestGrade_IsDeterministic(t *testing.T) {
	svc, _ := newScoringService(NewMockRepository(), t)
	exam := geographyExam()
	attempt := closedAttempt(exam.ID, models.AnswerMap{
		"q1": {"Africa"},
		"q2": {"Spain", "France"},
		"q3": {" PARIS "},
	})

	first, err := svc.Grade(exam, attempt)
	require.NoError(t, err)
	second, err := svc.Grade(exam, attempt)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGrade_OpenAttemptIsRejected(t *testing.T) {
	svc, _ := newScoringService(NewMockRepository(), t)
	exam := geographyExam()
	attempt := &models.Attempt{
		ID:              "attempt-open",
		ExamID:          exam.ID,
		ExamineeID:      "examinee-1",
		Status:          models.AttemptStatusOpen,
		StartedAt:       time.Now(),
		DurationSeconds: 1800,
		Answers:         models.AnswerMap{},
	}

	_, err := svc.Grade(exam, attempt)
	assert.ErrorIs(t, err, ErrAttemptNotClosed)
}

func TestGrade_ExamMismatchIsRejected(t *testing.T) {
	svc, _ := newScoringService(NewMockRepository(), t)
	exam := geographyExam()
	attempt := closedAttempt("some-other-exam", models.AnswerMap{})

	_, err := svc.Grade(exam, attempt)
	assert.ErrorIs(t, err, ErrExamMismatch)
}

func TestGradeAttempt_PersistsAndPublishes(t *testing.T) {
	repo := NewMockRepository()
	svc, publisher := newScoringService(repo, t)
	exam := geographyExam()
	attempt := closedAttempt(exam.ID, models.AnswerMap{
		"q1": {"Africa"},
		"q2": {"France", "Spain"},
		"q3": {"paris"},
	})

	repo.attempt.On("GetByID", mock.Anything, attempt.ID).Return(attempt, nil)
	repo.exam.On("GetByIDWithQuestions", mock.Anything, exam.ID).Return(exam, nil)
	repo.result.On("Create", mock.Anything, mock.AnythingOfType("*models.Result")).Return(nil)

	result, err := svc.GradeAttempt(context.Background(), attempt.ID)
	require.NoError(t, err)

	assert.NotEmpty(t, result.ID)
	assert.Equal(t, attempt.ID, result.AttemptID)
	assert.Equal(t, 4.0, result.Score)

	published := publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventAttemptGraded, published[0].Type)

	repo.attempt.AssertExpectations(t)
	repo.result.AssertExpectations(t)
}

func TestGradeAttempt_DuplicateReturnsExistingResult(t *testing.T) {
	repo := NewMockRepository()
	svc, publisher := newScoringService(repo, t)
	exam := geographyExam()
	attempt := closedAttempt(exam.ID, models.AnswerMap{"q1": {"Africa"}})
	existing := &models.Result{
		ID:        "result-1",
		AttemptID: attempt.ID,
		ExamID:    exam.ID,
		Score:     1,
		MaxScore:  4,
	}

	repo.attempt.On("GetByID", mock.Anything, attempt.ID).Return(attempt, nil)
	repo.exam.On("GetByIDWithQuestions", mock.Anything, exam.ID).Return(exam, nil)
	repo.result.On("Create", mock.Anything, mock.Anything).Return(gorm.ErrDuplicatedKey)
	repo.result.On("GetByAttempt", mock.Anything, attempt.ID).Return(existing, nil)

	result, err := svc.GradeAttempt(context.Background(), attempt.ID)
	require.NoError(t, err)

	assert.Equal(t, existing, result)
	assert.Empty(t, publisher.GetPublishedEvents(), "no graded event for a replayed grade")
}
