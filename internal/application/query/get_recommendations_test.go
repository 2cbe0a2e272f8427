package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizhub/progress-hub/config"
	"github.com/quizhub/progress-hub/internal/domain/answer"
	"github.com/quizhub/progress-hub/internal/domain/shared"
)

func recommendationKinds(result *GetRecommendationsResult) []string {
	out := make([]string, 0, len(result.Recommendations))
	for _, r := range result.Recommendations {
		out = append(out, r.Kind)
	}
	return out
}

func TestGetRecommendations_InvalidID(t *testing.T) {
	h := NewGetRecommendationsHandler(&fakeEventStore{}, nil, nil, nil, nil)

	_, err := h.Handle(context.Background(), GetRecommendationsQuery{StudentID: "xyz"})

	assert.True(t, shared.IsValidation(err))
}

func TestGetRecommendations_WeakSubjectReinforced(t *testing.T) {
	now := time.Now().UTC()
	store := &fakeEventStore{
		overall: answer.CountAccuracy{Total: 55},
		subjects: []answer.SubjectAggregate{
			{Subject: "algebra", Total: 30, Accuracy: shared.Accuracy(0.9), MeanDifficulty: 2.0, MeanResponseTime: 40},
			{Subject: "geography", Total: 25, Accuracy: shared.Accuracy(0.4), MeanDifficulty: 1.5, MeanResponseTime: 50},
		},
		activeDays: []time.Time{now, now.AddDate(0, 0, -1), now.AddDate(0, 0, -2), now.AddDate(0, 0, -3), now.AddDate(0, 0, -4)},
	}
	h := NewGetRecommendationsHandler(store, nil, nil, nil, nil)

	result, err := h.Handle(context.Background(), GetRecommendationsQuery{StudentID: testStudentID})

	require.NoError(t, err)
	require.NotEmpty(t, result.Recommendations)
	assert.Equal(t, "reinforce", result.Recommendations[0].Kind)
	assert.Equal(t, shared.Subject("geography"), result.Recommendations[0].Targets.Subject)
}

func TestGetRecommendations_BaselineFailureDegrades(t *testing.T) {
	store := &fakeEventStore{
		overall: answer.CountAccuracy{Total: 30},
		subjects: []answer.SubjectAggregate{
			{Subject: "algebra", Total: 30, Accuracy: shared.Accuracy(0.8), MeanDifficulty: 2.0, MeanResponseTime: 120},
		},
	}
	baseline := &fakeBaseline{err: errors.New("redis down")}
	h := NewGetRecommendationsHandler(store, baseline, nil, nil, nil)

	result, err := h.Handle(context.Background(), GetRecommendationsQuery{StudentID: testStudentID})

	// Сбой базлайна не роняет запрос: пропадает только accelerate.
	require.NoError(t, err)
	assert.NotContains(t, recommendationKinds(result), "accelerate")
}

func TestGetRecommendations_AccelerateWithBaseline(t *testing.T) {
	store := &fakeEventStore{
		overall: answer.CountAccuracy{Total: 60},
		subjects: []answer.SubjectAggregate{
			{Subject: "algebra", Total: 30, Accuracy: shared.Accuracy(0.9), MeanDifficulty: 2.0, MeanResponseTime: 60},
			{Subject: "history", Total: 30, Accuracy: shared.Accuracy(0.7), MeanDifficulty: 2.0, MeanResponseTime: 40},
		},
	}
	baseline := &fakeBaseline{rows: []answer.BaselineAggregate{
		{Subject: "algebra", MeanResponseTime: 45},
	}}
	h := NewGetRecommendationsHandler(store, baseline, nil, nil, nil)

	result, err := h.Handle(context.Background(), GetRecommendationsQuery{StudentID: testStudentID})

	require.NoError(t, err)
	assert.Contains(t, recommendationKinds(result), "accelerate")
}

func TestGetRecommendations_FlagsDropGatedKinds(t *testing.T) {
	store := &fakeEventStore{
		overall: answer.CountAccuracy{Total: 60},
		subjects: []answer.SubjectAggregate{
			{Subject: "algebra", Total: 30, Accuracy: shared.Accuracy(0.9), MeanDifficulty: 2.0, MeanResponseTime: 60},
			{Subject: "history", Total: 30, Accuracy: shared.Accuracy(0.7), MeanDifficulty: 2.0, MeanResponseTime: 40},
		},
		hours: []answer.HourAccuracy{
			{Hour: 9, Total: 25, Accuracy: shared.Accuracy(0.95)},
			{Hour: 21, Total: 25, Accuracy: shared.Accuracy(0.5)},
		},
	}
	baseline := &fakeBaseline{rows: []answer.BaselineAggregate{
		{Subject: "algebra", MeanResponseTime: 45},
	}}

	flags := config.LoadFeatureFlags()
	flags.SetRolloutPercent(config.FeatureRecommendAccelerate, 0)
	flags.SetRolloutPercent(config.FeatureRecommendSchedule, 0)
	h := NewGetRecommendationsHandler(store, baseline, nil, flags, nil)

	result, err := h.Handle(context.Background(), GetRecommendationsQuery{StudentID: testStudentID})

	require.NoError(t, err)
	kinds := recommendationKinds(result)
	assert.NotContains(t, kinds, "accelerate")
	assert.NotContains(t, kinds, "schedule")
	// Негейтируемые виды продолжают работать.
	assert.Contains(t, kinds, "habit")
}

func TestGetRecommendations_Cached(t *testing.T) {
	store := &fakeEventStore{overall: answer.CountAccuracy{Total: 5}}
	cache := newFakeCache()
	h := NewGetRecommendationsHandler(store, nil, cache, nil, nil)

	first, err := h.Handle(context.Background(), GetRecommendationsQuery{StudentID: testStudentID})
	require.NoError(t, err)
	require.Equal(t, 1, cache.setCalls)

	store.subjects = []answer.SubjectAggregate{
		{Subject: "algebra", Total: 30, Accuracy: shared.Accuracy(0.3), MeanDifficulty: 2.0},
	}
	second, err := h.Handle(context.Background(), GetRecommendationsQuery{StudentID: testStudentID})
	require.NoError(t, err)
	assert.Equal(t, len(first.Recommendations), len(second.Recommendations))
}

func TestGetRecommendations_StoreFailure(t *testing.T) {
	h := NewGetRecommendationsHandler(&fakeEventStore{err: errors.New("boom")}, nil, nil, nil, nil)

	_, err := h.Handle(context.Background(), GetRecommendationsQuery{StudentID: testStudentID})

	assert.True(t, shared.IsStoreUnavailable(err))
}
