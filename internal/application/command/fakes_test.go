package command

import (
	"context"
	"time"

	"github.com/quizhub/progress-hub/internal/domain/achievement"
	"github.com/quizhub/progress-hub/internal/domain/answer"
	"github.com/quizhub/progress-hub/internal/domain/shared"
)

const testStudentID = "a1b2c3d4-0000-0000-0000-000000000002"

// fakeEventStore накапливает дописанные события и отдаёт заранее заданные
// агрегаты; достаточно для путей записи и детекции достижений.
type fakeEventStore struct {
	appended []answer.Event
	overall  answer.CountAccuracy

	removed int

	appendErr error
	countErr  error
	resetErr  error

	resetStudent   shared.StudentID
	resetQuestions []shared.QuestionID
}

func (f *fakeEventStore) Append(ctx context.Context, event *answer.Event) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, *event)
	return nil
}

func (f *fakeEventStore) CountAndAccuracy(ctx context.Context, studentID shared.StudentID, window shared.TimeWindow) (answer.CountAccuracy, error) {
	if f.countErr != nil {
		return answer.CountAccuracy{}, f.countErr
	}
	return f.overall, nil
}

func (f *fakeEventStore) PerSubjectAggregates(ctx context.Context, studentID shared.StudentID, window shared.TimeWindow) ([]answer.SubjectAggregate, error) {
	return nil, nil
}

func (f *fakeEventStore) DistinctActiveDays(ctx context.Context, studentID shared.StudentID, window shared.TimeWindow) ([]time.Time, error) {
	return nil, nil
}

func (f *fakeEventStore) GlobalPerSubjectAggregates(ctx context.Context, window shared.TimeWindow) ([]answer.BaselineAggregate, error) {
	return nil, nil
}

func (f *fakeEventStore) HourOfDayAccuracy(ctx context.Context, studentID shared.StudentID) ([]answer.HourAccuracy, error) {
	return nil, nil
}

func (f *fakeEventStore) ResetEvents(ctx context.Context, studentID shared.StudentID, questionIDs []shared.QuestionID) (int, error) {
	if f.resetErr != nil {
		return 0, f.resetErr
	}
	f.resetStudent = studentID
	f.resetQuestions = questionIDs
	return f.removed, nil
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
	return f.rows, f.err
}

func (f *fakeLedger) ListUnlockedSince(ctx context.Context, studentID shared.StudentID, since time.Time) ([]achievement.Achievement, error) {
	return f.rows, f.err
}

func (f *fakeLedger) Reset(ctx context.Context, studentID shared.StudentID) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	n := len(f.rows)
	f.rows = nil
	return n, nil
}

// fakeCache фиксирует только инвалидации - командам больше ничего не нужно.
type fakeCache struct {
	invalidated   []shared.StudentID
	invalidateErr error
}

func (f *fakeCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	return false, nil
}

func (f *fakeCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return nil
}

func (f *fakeCache) InvalidateStudent(ctx context.Context, studentID shared.StudentID) error {
	if f.invalidateErr != nil {
		return f.invalidateErr
	}
	f.invalidated = append(f.invalidated, studentID)
	return nil
}
