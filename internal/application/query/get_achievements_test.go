package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizhub/progress-hub/config"
	"github.com/quizhub/progress-hub/internal/domain/achievement"
	"github.com/quizhub/progress-hub/internal/domain/shared"
)

func TestGetAchievements_InvalidID(t *testing.T) {
	h := NewGetAchievementsHandler(&fakeLedger{}, nil)

	_, err := h.Handle(context.Background(), GetAchievementsQuery{StudentID: "???"})

	assert.True(t, shared.IsValidation(err))
}

func TestGetAchievements_Empty(t *testing.T) {
	h := NewGetAchievementsHandler(&fakeLedger{}, nil)

	result, err := h.Handle(context.Background(), GetAchievementsQuery{StudentID: testStudentID})

	require.NoError(t, err)
	assert.Empty(t, result.Achievements)
	assert.Zero(t, result.TotalUnlocked)
	assert.Equal(t, 6, result.CatalogSize)
}

func TestGetAchievements_MapsLedgerRows(t *testing.T) {
	unlockedAt := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	ledger := &fakeLedger{rows: []achievement.Achievement{
		{Type: achievement.TypeFirstCorrect, Title: "First blood", XPAwarded: 5, UnlockedAt: unlockedAt},
		{Type: achievement.TypeLevelUp, Level: 3, Title: "Level 3", XPAwarded: 10, UnlockedAt: unlockedAt.Add(time.Hour)},
	}}
	h := NewGetAchievementsHandler(ledger, nil)

	result, err := h.Handle(context.Background(), GetAchievementsQuery{StudentID: testStudentID})

	require.NoError(t, err)
	require.Len(t, result.Achievements, 2)
	assert.Equal(t, 2, result.TotalUnlocked)

	first := result.Achievements[0]
	assert.Equal(t, "first_correct", first.Type)
	assert.Zero(t, first.Level)
	assert.Equal(t, 5, first.XPAwarded)
	assert.Equal(t, unlockedAt, first.UnlockedAt)

	levelUp := result.Achievements[1]
	assert.Equal(t, "level_up", levelUp.Type)
	assert.Equal(t, 3, levelUp.Level)
}

func TestGetAchievements_LedgerFailure(t *testing.T) {
	h := NewGetAchievementsHandler(&fakeLedger{err: errors.New("down")}, nil)

	_, err := h.Handle(context.Background(), GetAchievementsQuery{StudentID: testStudentID})

	assert.True(t, shared.IsStoreUnavailable(err))
}

func TestGetCohortComparison_NotImplemented(t *testing.T) {
	h := NewGetCohortComparisonHandler(nil)

	err := h.Handle(context.Background(), GetCohortComparisonQuery{StudentID: testStudentID, CohortID: "group-7"})

	assert.ErrorIs(t, err, shared.ErrCohortNotImplemented)
}

func TestGetCohortComparison_FlagGatesVisibility(t *testing.T) {
	flags := config.LoadFeatureFlags()
	h := NewGetCohortComparisonHandler(flags)

	// Экспериментальный флаг выключен по умолчанию: операция "не найдена".
	err := h.Handle(context.Background(), GetCohortComparisonQuery{StudentID: testStudentID, CohortID: "group-7"})
	assert.ErrorIs(t, err, shared.ErrCohortDisabled)
	assert.True(t, shared.IsNotFound(err))

	// Для студента с оверрайдом операция видна и честно отвечает "не реализовано".
	flags.SetStudentOverride(testStudentID, config.FeatureCohortComparison, true)
	err = h.Handle(context.Background(), GetCohortComparisonQuery{StudentID: testStudentID, CohortID: "group-7"})
	assert.ErrorIs(t, err, shared.ErrCohortNotImplemented)
}

func TestGetCohortComparison_InvalidID(t *testing.T) {
	h := NewGetCohortComparisonHandler(nil)

	err := h.Handle(context.Background(), GetCohortComparisonQuery{StudentID: ""})

	assert.True(t, shared.IsValidation(err))
}
