package query

import (
	"context"
	"encoding/json"
	"time"

	"github.com/quizhub/progress-hub/internal/domain/achievement"
	"github.com/quizhub/progress-hub/internal/domain/answer"
	"github.com/quizhub/progress-hub/internal/domain/shared"
)

const testStudentID = "a1b2c3d4-0000-0000-0000-000000000001"

// fakeEventStore отдаёт заранее заданные агрегаты, различая окна запросов:
// нулевое окно - всё время, скользящая неделя, предыдущая неделя.
type fakeEventStore struct {
	overall  answer.CountAccuracy
	week     answer.CountAccuracy
	prevWeek answer.CountAccuracy

	subjects   []answer.SubjectAggregate
	activeDays []time.Time
	hours      []answer.HourAccuracy
	baseline   []answer.BaselineAggregate

	err error

	countCalls  int
	lastStudent shared.StudentID
}

func (f *fakeEventStore) Append(ctx context.Context, event *answer.Event) error {
	return f.err
}

func (f *fakeEventStore) CountAndAccuracy(ctx context.Context, studentID shared.StudentID, window shared.TimeWindow) (answer.CountAccuracy, error) {
	f.countCalls++
	f.lastStudent = studentID
	if f.err != nil {
		return answer.CountAccuracy{}, f.err
	}
	if window.IsZero() {
		return f.overall, nil
	}
	// Скользящая неделя заканчивается "сейчас"; у предыдущей недели To
	// отстоит примерно на 7 дней назад.
	if time.Since(window.To) > 24*time.Hour {
		return f.prevWeek, nil
	}
	return f.week, nil
}

func (f *fakeEventStore) PerSubjectAggregates(ctx context.Context, studentID shared.StudentID, window shared.TimeWindow) ([]answer.SubjectAggregate, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.subjects, nil
}

func (f *fakeEventStore) DistinctActiveDays(ctx context.Context, studentID shared.StudentID, window shared.TimeWindow) ([]time.Time, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.activeDays, nil
}

func (f *fakeEventStore) GlobalPerSubjectAggregates(ctx context.Context, window shared.TimeWindow) ([]answer.BaselineAggregate, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.baseline, nil
}

func (f *fakeEventStore) HourOfDayAccuracy(ctx context.Context, studentID shared.StudentID) ([]answer.HourAccuracy, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.hours, nil
}

func (f *fakeEventStore) ResetEvents(ctx context.Context, studentID shared.StudentID, questionIDs []shared.QuestionID) (int, error) {
	return 0, f.err
}

// fakeCache - DerivedCache в памяти поверх json, как настоящий.
type fakeCache struct {
	data        map[string][]byte
	setCalls    int
	invalidated []shared.StudentID
	getErr      error
	setErr      error
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (f *fakeCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	if f.getErr != nil {
		return false, f.getErr
	}
	raw, ok := f.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (f *fakeCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	f.setCalls++
	if f.setErr != nil {
		return f.setErr
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.data[key] = raw
	return nil
}

func (f *fakeCache) InvalidateStudent(ctx context.Context, studentID shared.StudentID) error {
	f.invalidated = append(f.invalidated, studentID)
	f.data = make(map[string][]byte)
	return nil
}

// fakeLedger - реестр достижений в памяти.
type fakeLedger struct {
	rows []achievement.Achievement
	err  error
}

func (f *fakeLedger) Exists(ctx context.Context, studentID shared.StudentID, t achievement.Type, level int) (bool, error) {
	return false, f.err
}

func (f *fakeLedger) InsertIfAbsent(ctx context.Context, a *achievement.Achievement) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.rows = append(f.rows, *a)
	return true, nil
}

func (f *fakeLedger) ListByStudent(ctx context.Context, studentID shared.StudentID) ([]achievement.Achievement, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func (f *fakeLedger) ListUnlockedSince(ctx context.Context, studentID shared.StudentID, since time.Time) ([]achievement.Achievement, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []achievement.Achievement
	for _, a := range f.rows {
		if a.UnlockedAt.After(since) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeLedger) Reset(ctx context.Context, studentID shared.StudentID) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	n := len(f.rows)
	f.rows = nil
	return n, nil
}

// fakeBaseline - управляемый BaselineProvider.
type fakeBaseline struct {
	rows []answer.BaselineAggregate
	err  error
}

func (f *fakeBaseline) Baseline(ctx context.Context) ([]answer.BaselineAggregate, error) {
	return f.rows, f.err
}
