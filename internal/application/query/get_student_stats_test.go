package query

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizhub/progress-hub/internal/domain/answer"
	"github.com/quizhub/progress-hub/internal/domain/shared"
)

func TestGetStudentStats_InvalidID(t *testing.T) {
	h := NewGetStudentStatsHandler(&fakeEventStore{}, nil, nil)

	_, err := h.Handle(context.Background(), GetStudentStatsQuery{StudentID: "not-a-uuid"})

	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
}

func TestGetStudentStats_MixedCaseIDNormalized(t *testing.T) {
	store := &fakeEventStore{
		overall: answer.CountAccuracy{Total: 1, Correct: 1, Accuracy: shared.Accuracy(1.0)},
	}
	h := NewGetStudentStatsHandler(store, nil, nil)

	result, err := h.Handle(context.Background(), GetStudentStatsQuery{StudentID: strings.ToUpper(testStudentID)})

	// События хранятся под каноническим нижним регистром: запрос в верхнем
	// регистре должен читать те же строки.
	require.NoError(t, err)
	assert.Equal(t, shared.StudentID(testStudentID), store.lastStudent)
	assert.Equal(t, testStudentID, result.StudentID)
	assert.Equal(t, 1, result.TotalAnswered)
}

func TestGetStudentStats_NegativeWindow(t *testing.T) {
	h := NewGetStudentStatsHandler(&fakeEventStore{}, nil, nil)

	_, err := h.Handle(context.Background(), GetStudentStatsQuery{StudentID: testStudentID, WindowDays: -1})

	assert.True(t, shared.IsValidation(err))
}

func TestGetStudentStats_EmptyStudentZeroValues(t *testing.T) {
	h := NewGetStudentStatsHandler(&fakeEventStore{}, nil, nil)

	result, err := h.Handle(context.Background(), GetStudentStatsQuery{StudentID: testStudentID})

	require.NoError(t, err)
	assert.Zero(t, result.TotalAnswered)
	assert.Zero(t, result.Accuracy)
	assert.Empty(t, result.Subjects)
	assert.Empty(t, result.WeakSubjects)
}

func TestGetStudentStats_AggregatesAndWeakSubjects(t *testing.T) {
	store := &fakeEventStore{
		overall: answer.CountAccuracy{Total: 30, Correct: 18, Accuracy: shared.Accuracy(0.6), MeanResponseTime: 40},
		subjects: []answer.SubjectAggregate{
			{Subject: "algebra", Total: 20, Correct: 16, Accuracy: shared.Accuracy(0.8), MeanDifficulty: 2.1, MeanResponseTime: 35},
			{Subject: "geography", Total: 10, Correct: 2, Accuracy: shared.Accuracy(0.2), MeanDifficulty: 1.4, MeanResponseTime: 50},
		},
	}
	h := NewGetStudentStatsHandler(store, nil, nil)

	result, err := h.Handle(context.Background(), GetStudentStatsQuery{StudentID: testStudentID})

	require.NoError(t, err)
	assert.Equal(t, 30, result.TotalAnswered)
	assert.Equal(t, 18, result.Corrects)
	assert.Equal(t, 12, result.Incorrects)
	require.Len(t, result.Subjects, 2)
	assert.Equal(t, "algebra", result.Subjects[0].Subject)
	assert.Equal(t, []string{"geography"}, result.WeakSubjects)
}

func TestGetStudentStats_CacheRoundTrip(t *testing.T) {
	store := &fakeEventStore{
		overall: answer.CountAccuracy{Total: 10, Correct: 5, Accuracy: shared.Accuracy(0.5)},
	}
	cache := newFakeCache()
	h := NewGetStudentStatsHandler(store, cache, nil)

	first, err := h.Handle(context.Background(), GetStudentStatsQuery{StudentID: testStudentID})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.setCalls)

	// Хранилище изменилось, но второй запрос обслуживается из кэша.
	store.overall = answer.CountAccuracy{Total: 999}
	second, err := h.Handle(context.Background(), GetStudentStatsQuery{StudentID: testStudentID})
	require.NoError(t, err)
	assert.Equal(t, first.TotalAnswered, second.TotalAnswered)
}

func TestGetStudentStats_CacheKeyIncludesWindow(t *testing.T) {
	store := &fakeEventStore{
		overall: answer.CountAccuracy{Total: 10, Correct: 5, Accuracy: shared.Accuracy(0.5)},
		week:    answer.CountAccuracy{Total: 3, Correct: 3, Accuracy: shared.Accuracy(1.0)},
	}
	cache := newFakeCache()
	h := NewGetStudentStatsHandler(store, cache, nil)

	all, err := h.Handle(context.Background(), GetStudentStatsQuery{StudentID: testStudentID})
	require.NoError(t, err)
	windowed, err := h.Handle(context.Background(), GetStudentStatsQuery{StudentID: testStudentID, WindowDays: 7})
	require.NoError(t, err)

	assert.Equal(t, 10, all.TotalAnswered)
	assert.Equal(t, 3, windowed.TotalAnswered)
	assert.Equal(t, 2, cache.setCalls)
}

func TestGetStudentStats_CacheFailureDegradesToRecompute(t *testing.T) {
	store := &fakeEventStore{
		overall: answer.CountAccuracy{Total: 10, Correct: 5, Accuracy: shared.Accuracy(0.5)},
	}
	cache := newFakeCache()
	cache.getErr = errors.New("redis down")
	cache.setErr = errors.New("redis down")
	h := NewGetStudentStatsHandler(store, cache, nil)

	result, err := h.Handle(context.Background(), GetStudentStatsQuery{StudentID: testStudentID})

	require.NoError(t, err)
	assert.Equal(t, 10, result.TotalAnswered)
}

func TestGetStudentStats_StoreFailure(t *testing.T) {
	store := &fakeEventStore{err: errors.New("connection refused")}
	h := NewGetStudentStatsHandler(store, nil, nil)

	_, err := h.Handle(context.Background(), GetStudentStatsQuery{StudentID: testStudentID})

	require.Error(t, err)
	assert.True(t, shared.IsStoreUnavailable(err))
}
