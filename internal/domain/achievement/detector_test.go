package achievement

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizhub/progress-hub/internal/domain/answer"
	"github.com/quizhub/progress-hub/internal/domain/shared"
)

const testStudentID = shared.StudentID("a1b2c3d4-0000-0000-0000-000000000001")

// fakeEventStore отдаёт заранее заданные агрегаты.
type fakeEventStore struct {
	overall       answer.CountAccuracy
	overallErr    error
	activeDays    []time.Time
	activeDaysErr error
}

func (f *fakeEventStore) Append(ctx context.Context, event *answer.Event) error { return nil }

func (f *fakeEventStore) CountAndAccuracy(ctx context.Context, studentID shared.StudentID, window shared.TimeWindow) (answer.CountAccuracy, error) {
	return f.overall, f.overallErr
}

func (f *fakeEventStore) PerSubjectAggregates(ctx context.Context, studentID shared.StudentID, window shared.TimeWindow) ([]answer.SubjectAggregate, error) {
	return nil, nil
}

func (f *fakeEventStore) DistinctActiveDays(ctx context.Context, studentID shared.StudentID, window shared.TimeWindow) ([]time.Time, error) {
	return f.activeDays, f.activeDaysErr
}

func (f *fakeEventStore) GlobalPerSubjectAggregates(ctx context.Context, window shared.TimeWindow) ([]answer.BaselineAggregate, error) {
	return nil, nil
}

func (f *fakeEventStore) HourOfDayAccuracy(ctx context.Context, studentID shared.StudentID) ([]answer.HourAccuracy, error) {
	return nil, nil
}

func (f *fakeEventStore) ResetEvents(ctx context.Context, studentID shared.StudentID, questionIDs []shared.QuestionID) (int, error) {
	return 0, nil
}

// fakeLedger хранит бейджи в памяти с той же идемпотентностью, что и
// уникальные индексы реального хранилища.
type fakeLedger struct {
	rows      map[string]Achievement
	failTypes map[Type]error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{rows: make(map[string]Achievement), failTypes: make(map[Type]error)}
}

func ledgerKey(studentID shared.StudentID, t Type, level int) string {
	if t == TypeLevelUp {
		return fmt.Sprintf("%s:%s:%d", studentID, t, level)
	}
	return fmt.Sprintf("%s:%s", studentID, t)
}

func (f *fakeLedger) Exists(ctx context.Context, studentID shared.StudentID, t Type, level int) (bool, error) {
	_, ok := f.rows[ledgerKey(studentID, t, level)]
	return ok, nil
}

func (f *fakeLedger) InsertIfAbsent(ctx context.Context, a *Achievement) (bool, error) {
	if err, ok := f.failTypes[a.Type]; ok {
		return false, err
	}
	key := ledgerKey(a.StudentID, a.Type, a.Level)
	if _, ok := f.rows[key]; ok {
		return false, nil
	}
	f.rows[key] = *a
	return true, nil
}

func (f *fakeLedger) ListByStudent(ctx context.Context, studentID shared.StudentID) ([]Achievement, error) {
	var out []Achievement
	for _, a := range f.rows {
		if a.StudentID == studentID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeLedger) ListUnlockedSince(ctx context.Context, studentID shared.StudentID, since time.Time) ([]Achievement, error) {
	var out []Achievement
	for _, a := range f.rows {
		if a.StudentID == studentID && a.UnlockedAt.After(since) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeLedger) Reset(ctx context.Context, studentID shared.StudentID) (int, error) {
	n := 0
	for key, a := range f.rows {
		if a.StudentID == studentID {
			delete(f.rows, key)
			n++
		}
	}
	return n, nil
}

func unlockedTypes(unlocked []Achievement) map[Type]int {
	out := make(map[Type]int)
	for _, a := range unlocked {
		out[a.Type]++
	}
	return out
}

func TestEvaluate_NoActivityNoBadges(t *testing.T) {
	detector := NewDetector(&fakeEventStore{}, newFakeLedger(), nil)

	unlocked, err := detector.Evaluate(context.Background(), testStudentID)

	require.NoError(t, err)
	assert.Empty(t, unlocked)
}

func TestEvaluate_FirstCorrect(t *testing.T) {
	store := &fakeEventStore{
		overall: answer.CountAccuracy{Total: 1, Correct: 1, Accuracy: shared.Accuracy(1.0)},
		activeDays: []time.Time{
			time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		},
	}
	detector := NewDetector(store, newFakeLedger(), nil)

	unlocked, err := detector.Evaluate(context.Background(), testStudentID)

	require.NoError(t, err)
	got := unlockedTypes(unlocked)
	assert.Equal(t, 1, got[TypeFirstCorrect])
	// 1 ответ с точностью 1.0 = 100.1 очка -> уровень 3: бейджи уровней 1-3.
	assert.Equal(t, 3, got[TypeLevelUp])
	assert.Zero(t, got[TypeAnswered10])
	assert.Zero(t, got[TypeSharpshooter])
}

func TestEvaluate_VolumeAndAccuracyThresholds(t *testing.T) {
	store := &fakeEventStore{
		overall: answer.CountAccuracy{Total: 50, Correct: 45, Accuracy: shared.Accuracy(0.9)},
	}
	detector := NewDetector(store, newFakeLedger(), nil)

	unlocked, err := detector.Evaluate(context.Background(), testStudentID)

	require.NoError(t, err)
	got := unlockedTypes(unlocked)
	assert.Equal(t, 1, got[TypeFirstCorrect])
	assert.Equal(t, 1, got[TypeAnswered10])
	assert.Equal(t, 1, got[TypeAnswered50])
	assert.Equal(t, 1, got[TypeSharpshooter])
	assert.Zero(t, got[TypeStreak7])
}

func TestEvaluate_SharpshooterNeedsSample(t *testing.T) {
	// Точность 1.0, но всего 9 ответов: порог выборки не взят.
	store := &fakeEventStore{
		overall: answer.CountAccuracy{Total: 9, Correct: 9, Accuracy: shared.Accuracy(1.0)},
	}
	detector := NewDetector(store, newFakeLedger(), nil)

	unlocked, err := detector.Evaluate(context.Background(), testStudentID)

	require.NoError(t, err)
	assert.Zero(t, unlockedTypes(unlocked)[TypeSharpshooter])
}

func TestEvaluate_StreakBadge(t *testing.T) {
	days := make([]time.Time, 0, 7)
	for i := 0; i < 7; i++ {
		days = append(days, time.Date(2026, 3, 1+i, 0, 0, 0, 0, time.UTC))
	}
	store := &fakeEventStore{
		overall:    answer.CountAccuracy{Total: 7, Correct: 5, Accuracy: shared.Accuracy(0.71)},
		activeDays: days,
	}
	detector := NewDetector(store, newFakeLedger(), nil)

	unlocked, err := detector.Evaluate(context.Background(), testStudentID)

	require.NoError(t, err)
	assert.Equal(t, 1, unlockedTypes(unlocked)[TypeStreak7])
}

func TestEvaluate_Idempotent(t *testing.T) {
	store := &fakeEventStore{
		overall: answer.CountAccuracy{Total: 10, Correct: 9, Accuracy: shared.Accuracy(0.9)},
	}
	ledger := newFakeLedger()
	detector := NewDetector(store, ledger, nil)

	first, err := detector.Evaluate(context.Background(), testStudentID)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	// Повторная оценка того же снимка не дарит бейджи второй раз.
	second, err := detector.Evaluate(context.Background(), testStudentID)
	require.NoError(t, err)
	assert.Empty(t, second)
}

func TestEvaluate_NewThresholdAfterProgress(t *testing.T) {
	store := &fakeEventStore{
		overall: answer.CountAccuracy{Total: 10, Correct: 7, Accuracy: shared.Accuracy(0.7)},
	}
	ledger := newFakeLedger()
	detector := NewDetector(store, ledger, nil)

	_, err := detector.Evaluate(context.Background(), testStudentID)
	require.NoError(t, err)

	// Студент дорос до 50 ответов: добавляется только новый бейдж.
	store.overall = answer.CountAccuracy{Total: 50, Correct: 35, Accuracy: shared.Accuracy(0.7)}
	unlocked, err := detector.Evaluate(context.Background(), testStudentID)
	require.NoError(t, err)

	got := unlockedTypes(unlocked)
	assert.Equal(t, 1, got[TypeAnswered50])
	assert.Zero(t, got[TypeAnswered10])
	assert.Zero(t, got[TypeFirstCorrect])
}

func TestEvaluate_AggregateReadFailureAborts(t *testing.T) {
	store := &fakeEventStore{overallErr: errors.New("connection refused")}
	detector := NewDetector(store, newFakeLedger(), nil)

	unlocked, err := detector.Evaluate(context.Background(), testStudentID)

	assert.Error(t, err)
	assert.True(t, shared.IsStoreUnavailable(err))
	assert.Empty(t, unlocked)
}

func TestEvaluate_PerBadgeInsertFailureContinues(t *testing.T) {
	store := &fakeEventStore{
		overall: answer.CountAccuracy{Total: 10, Correct: 9, Accuracy: shared.Accuracy(0.9)},
	}
	ledger := newFakeLedger()
	ledger.failTypes[TypeAnswered10] = errors.New("constraint timeout")
	detector := NewDetector(store, ledger, nil)

	unlocked, err := detector.Evaluate(context.Background(), testStudentID)

	// Сбой одной вставки не роняет оценку и не блокирует остальные бейджи.
	require.NoError(t, err)
	got := unlockedTypes(unlocked)
	assert.Zero(t, got[TypeAnswered10])
	assert.Equal(t, 1, got[TypeFirstCorrect])
	assert.Equal(t, 1, got[TypeSharpshooter])
}

func TestEvaluate_StampsStudentID(t *testing.T) {
	store := &fakeEventStore{
		overall: answer.CountAccuracy{Total: 1, Correct: 1, Accuracy: shared.Accuracy(1.0)},
	}
	detector := NewDetector(store, newFakeLedger(), nil)

	unlocked, err := detector.Evaluate(context.Background(), testStudentID)

	require.NoError(t, err)
	for _, a := range unlocked {
		assert.Equal(t, testStudentID, a.StudentID)
	}
}

func TestDefinitions_CatalogComplete(t *testing.T) {
	defs := Definitions()
	require.Len(t, defs, 6)

	for _, def := range defs {
		assert.True(t, def.Type.IsValid())
		assert.NotEmpty(t, def.Title)
		assert.Positive(t, def.XPBonus)
	}
}
