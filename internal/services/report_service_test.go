package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/openexam/exam-engine/internal/cache"
	"github.com/openexam/exam-engine/internal/models"
	"github.com/openexam/exam-engine/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fakeCache is an in-memory CacheService for exercising the summary cache path.
type fakeCache struct {
	store map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{store: make(map[string][]byte)}
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.store[key] = data
	return nil
}

func (f *fakeCache) Get(ctx context.Context, key string, dest interface{}) error {
	data, ok := f.store[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (f *fakeCache) Delete(ctx context.Context, key string) error {
	delete(f.store, key)
	return nil
}

func (f *fakeCache) DeletePattern(ctx context.Context, pattern string) error { return nil }

func newReportService(repo *MockRepository, cacheService cache.CacheService, t *testing.T) *reportService {
	return &reportService{
		repo:   repo,
		cache:  cacheService,
		logger: testLogger(t),
		now:    func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) },
	}
}

func gradedResult(id, examineeID string, score, maxScore float64) *models.Result {
	return &models.Result{
		ID:         id,
		AttemptID:  "attempt-" + id,
		ExamID:     "exam-1",
		ExamineeID: examineeID,
		Score:      score,
		MaxScore:   maxScore,
		GradedAt:   time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC),
	}
}

func TestGetExamSummary_NoAttempts(t *testing.T) {
	repo := NewMockRepository()
	svc := newReportService(repo, cache.NoopCache{}, t)

	repo.result.On("GetByExam", mock.Anything, "exam-1", repositories.ResultFilters{}).
		Return([]*models.Result{}, int64(0), nil)

	summary, err := svc.GetExamSummary(context.Background(), "exam-1")
	require.NoError(t, err)

	assert.Equal(t, "exam-1", summary.ExamID)
	assert.Equal(t, 0, summary.AttemptCount)
	assert.Nil(t, summary.AverageScore, "no average over zero attempts")
	assert.Nil(t, summary.AveragePercentage)
}

func TestGetExamSummary_AveragesOverAllResults(t *testing.T) {
	// Three graded attempts of a max-score-3 exam scoring 3, 0 and 0:
	// average score 1, average percentage 1/3.
	repo := NewMockRepository()
	svc := newReportService(repo, cache.NoopCache{}, t)

	results := []*models.Result{
		gradedResult("r1", "examinee-1", 3, 3),
		gradedResult("r2", "examinee-2", 0, 3),
		gradedResult("r3", "examinee-3", 0, 3),
	}
	repo.result.On("GetByExam", mock.Anything, "exam-1", repositories.ResultFilters{}).
		Return(results, int64(3), nil)

	summary, err := svc.GetExamSummary(context.Background(), "exam-1")
	require.NoError(t, err)

	assert.Equal(t, 3, summary.AttemptCount)
	require.NotNil(t, summary.AverageScore)
	assert.InDelta(t, 1.0, *summary.AverageScore, 1e-9)
	require.NotNil(t, summary.AveragePercentage)
	assert.InDelta(t, 1.0/3.0, *summary.AveragePercentage, 1e-9)
}

func TestGetExamSummary_UsesCache(t *testing.T) {
	repo := NewMockRepository()
	fc := newFakeCache()
	svc := newReportService(repo, fc, t)

	repo.result.On("GetByExam", mock.Anything, "exam-1", repositories.ResultFilters{}).
		Return([]*models.Result{gradedResult("r1", "examinee-1", 2, 4)}, int64(1), nil).
		Once()

	first, err := svc.GetExamSummary(context.Background(), "exam-1")
	require.NoError(t, err)

	// Second read is served from the cache; the repository is not consulted.
	second, err := svc.GetExamSummary(context.Background(), "exam-1")
	require.NoError(t, err)

	assert.Equal(t, first.AttemptCount, second.AttemptCount)
	repo.result.AssertNumberOfCalls(t, "GetByExam", 1)
}

func TestInvalidateExamSummary(t *testing.T) {
	repo := NewMockRepository()
	fc := newFakeCache()
	svc := newReportService(repo, fc, t)

	repo.result.On("GetByExam", mock.Anything, "exam-1", repositories.ResultFilters{}).
		Return([]*models.Result{}, int64(0), nil).Twice()

	_, err := svc.GetExamSummary(context.Background(), "exam-1")
	require.NoError(t, err)

	require.NoError(t, svc.InvalidateExamSummary(context.Background(), "exam-1"))

	_, err = svc.GetExamSummary(context.Background(), "exam-1")
	require.NoError(t, err)

	repo.result.AssertNumberOfCalls(t, "GetByExam", 2)
}

func TestGetExamineeSummary_FiltersStrictly(t *testing.T) {
	repo := NewMockRepository()
	svc := newReportService(repo, cache.NoopCache{}, t)

	examineeID := "examinee-1"
	repo.result.On("GetByExam", mock.Anything, "exam-1",
		mock.MatchedBy(func(f repositories.ResultFilters) bool {
			return f.ExamineeID != nil && *f.ExamineeID == examineeID
		})).
		Return([]*models.Result{gradedResult("r1", examineeID, 2, 4)}, int64(1), nil)

	summary, err := svc.GetExamineeSummary(context.Background(), "exam-1", examineeID)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.AttemptCount)
	require.NotNil(t, summary.AveragePercentage)
	assert.InDelta(t, 0.5, *summary.AveragePercentage, 1e-9)
}

func TestGetExamineeSummary_NoResultsForExaminee(t *testing.T) {
	repo := NewMockRepository()
	svc := newReportService(repo, cache.NoopCache{}, t)

	examineeID := "examinee-unseen"
	repo.result.On("GetByExam", mock.Anything, "exam-1", mock.Anything).
		Return([]*models.Result{}, int64(0), nil)

	summary, err := svc.GetExamineeSummary(context.Background(), "exam-1", examineeID)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.AttemptCount)
	assert.Nil(t, summary.AverageScore)
	assert.Nil(t, summary.AveragePercentage)
}
