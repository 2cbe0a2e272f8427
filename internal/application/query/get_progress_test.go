package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizhub/progress-hub/internal/domain/answer"
	"github.com/quizhub/progress-hub/internal/domain/shared"
	"github.com/quizhub/progress-hub/pkg/timeutil"
)

func TestGetProgress_InvalidID(t *testing.T) {
	h := NewGetProgressHandler(&fakeEventStore{}, nil, nil)

	_, err := h.Handle(context.Background(), GetProgressQuery{StudentID: "nope"})

	assert.True(t, shared.IsValidation(err))
}

func TestGetProgress_EmptyStudent(t *testing.T) {
	h := NewGetProgressHandler(&fakeEventStore{}, nil, nil)

	result, err := h.Handle(context.Background(), GetProgressQuery{StudentID: testStudentID})

	require.NoError(t, err)
	assert.Zero(t, result.Streak.CurrentLength)
	assert.Empty(t, result.Streak.LastActiveDay)
	assert.Zero(t, result.Level.Level)
	assert.Equal(t, 10.0, result.Level.XPNext)
}

func TestGetProgress_StreakAndLevel(t *testing.T) {
	today := timeutil.StartOfDay(time.Now().UTC())
	store := &fakeEventStore{
		overall: answer.CountAccuracy{Total: 100, Correct: 80, Accuracy: shared.Accuracy(0.8)},
		activeDays: []time.Time{
			today.AddDate(0, 0, -2),
			today.AddDate(0, 0, -1),
			today,
		},
	}
	h := NewGetProgressHandler(store, nil, nil)

	result, err := h.Handle(context.Background(), GetProgressQuery{StudentID: testStudentID})

	require.NoError(t, err)
	assert.Equal(t, 3, result.Streak.CurrentLength)
	assert.False(t, result.Streak.IsBroken)
	assert.Equal(t, timeutil.FormatDateStr(today), result.Streak.LastActiveDay)

	// 100*0.8*100 + 100*0.1 = 8010 очков -> уровень 10.
	assert.Equal(t, 10, result.Level.Level)
	assert.Equal(t, 8010.0, result.Level.XPCurrent)
}

func TestGetProgress_BrokenStreak(t *testing.T) {
	today := timeutil.StartOfDay(time.Now().UTC())
	store := &fakeEventStore{
		activeDays: []time.Time{
			today.AddDate(0, 0, -5),
			today.AddDate(0, 0, -4),
		},
	}
	h := NewGetProgressHandler(store, nil, nil)

	result, err := h.Handle(context.Background(), GetProgressQuery{StudentID: testStudentID})

	require.NoError(t, err)
	assert.Equal(t, 2, result.Streak.CurrentLength)
	assert.True(t, result.Streak.IsBroken)
}

func TestGetProgress_CachedResult(t *testing.T) {
	store := &fakeEventStore{
		overall: answer.CountAccuracy{Total: 10, Correct: 5, Accuracy: shared.Accuracy(0.5)},
	}
	cache := newFakeCache()
	h := NewGetProgressHandler(store, cache, nil)

	_, err := h.Handle(context.Background(), GetProgressQuery{StudentID: testStudentID})
	require.NoError(t, err)

	store.overall = answer.CountAccuracy{Total: 500}
	result, err := h.Handle(context.Background(), GetProgressQuery{StudentID: testStudentID})
	require.NoError(t, err)
	assert.Equal(t, 10, result.TotalAnswered)
}
