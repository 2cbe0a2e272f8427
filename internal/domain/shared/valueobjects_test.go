package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStudentID(t *testing.T) {
	id, err := NewStudentID("A1B2C3D4-0000-0000-0000-000000000001")
	require.NoError(t, err)
	// UUID нормализуется к нижнему регистру.
	assert.Equal(t, StudentID("a1b2c3d4-0000-0000-0000-000000000001"), id)

	_, err = NewStudentID("not-a-uuid")
	assert.Error(t, err)
	assert.True(t, IsValidation(err))

	_, err = NewStudentID("")
	assert.Error(t, err)
}

func TestNewQuestionID(t *testing.T) {
	id, err := NewQuestionID("  q-42  ")
	require.NoError(t, err)
	assert.Equal(t, QuestionID("q-42"), id)

	_, err = NewQuestionID("   ")
	assert.Error(t, err)
}

func TestNewSubject(t *testing.T) {
	s, err := NewSubject("  Geography ")
	require.NoError(t, err)
	assert.Equal(t, Subject("Geography"), s)

	_, err = NewSubject("")
	assert.Error(t, err)
}

func TestParseDifficultyTier(t *testing.T) {
	tests := []struct {
		in   string
		want DifficultyTier
	}{
		{"easy", TierEasy},
		{"MEDIUM", TierMedium},
		{" hard ", TierHard},
	}
	for _, tt := range tests {
		got, err := ParseDifficultyTier(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseDifficultyTier("impossible")
	assert.Error(t, err)
}

func TestDifficultyTier_RoundTrip(t *testing.T) {
	for _, tier := range []DifficultyTier{TierEasy, TierMedium, TierHard} {
		parsed, err := ParseDifficultyTier(tier.String())
		require.NoError(t, err)
		assert.Equal(t, tier, parsed)
	}
}

func TestNewAccuracy(t *testing.T) {
	assert.Equal(t, Accuracy(0.75), NewAccuracy(3, 4))
	assert.Zero(t, NewAccuracy(0, 0))
	assert.Zero(t, NewAccuracy(5, 0))
	assert.Equal(t, 75.0, NewAccuracy(3, 4).Percent())
}

func TestTimeWindow_ZeroMeansAllTime(t *testing.T) {
	assert.True(t, TimeWindow{}.IsZero())
	assert.False(t, LastNDays(7).IsZero())
}

func TestNewTimeWindow_Validation(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)

	w, err := NewTimeWindow(from, to)
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, w.Duration())

	_, err = NewTimeWindow(to, from)
	assert.Error(t, err)
}

func TestTrailingAndPreviousWeekAreAdjacent(t *testing.T) {
	trailing := TrailingWeek()
	previous := PreviousWeek()

	assert.WithinDuration(t, trailing.From, previous.To, time.Second)
	assert.InDelta(t, (7 * 24 * time.Hour).Seconds(), previous.Duration().Seconds(), 1)
}

func TestTimeWindow_Contains(t *testing.T) {
	w, err := NewTimeWindow(
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	// Полуоткрытый интервал [From, To): граница From входит, граница To - нет.
	// Так же трактуют окно SQL-выборки (answered_at >= From AND answered_at < To).
	assert.True(t, w.Contains(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, w.Contains(time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)))
	assert.True(t, w.Contains(time.Date(2026, 3, 7, 23, 59, 59, 0, time.UTC)))
	assert.False(t, w.Contains(time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)))
	assert.False(t, w.Contains(time.Date(2026, 2, 28, 23, 59, 59, 0, time.UTC)))
}
