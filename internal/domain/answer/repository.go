// Package answer contains the answer-event entity and the event store boundary.
package answer

import (
	"context"
	"time"

	"github.com/quizhub/progress-hub/internal/domain/shared"
)

// EventStore defines the abstract query capability over the append-only
// answer-event log. Implemented by the infrastructure layer; the domain has
// no knowledge of the actual storage mechanism.
//
// All reads are bounded aggregates. A zero TimeWindow means "all time".
type EventStore interface {
	// Append writes a new answer event. Events are immutable once written.
	Append(ctx context.Context, event *Event) error

	// CountAndAccuracy returns total/correct counts, accuracy and mean
	// response time for one student within the window.
	CountAndAccuracy(ctx context.Context, studentID shared.StudentID, window shared.TimeWindow) (CountAccuracy, error)

	// PerSubjectAggregates returns per-subject rows for one student,
	// ordered by subject name for deterministic downstream scoring.
	PerSubjectAggregates(ctx context.Context, studentID shared.StudentID, window shared.TimeWindow) ([]SubjectAggregate, error)

	// DistinctActiveDays returns the distinct calendar days (UTC, truncated
	// to midnight) on which the student has at least one event, ascending.
	DistinctActiveDays(ctx context.Context, studentID shared.StudentID, window shared.TimeWindow) ([]time.Time, error)

	// GlobalPerSubjectAggregates returns per-subject rows computed across
	// all students. Used as the baseline for relative scoring.
	GlobalPerSubjectAggregates(ctx context.Context, window shared.TimeWindow) ([]BaselineAggregate, error)

	// HourOfDayAccuracy returns accuracy grouped by hour of day for one
	// student, ascending by hour.
	HourOfDayAccuracy(ctx context.Context, studentID shared.StudentID) ([]HourAccuracy, error)

	// ResetEvents removes all events for the given student and question set.
	// This is the only deletion path; it exists for administrative resets.
	// Returns the number of events removed.
	ResetEvents(ctx context.Context, studentID shared.StudentID, questionIDs []shared.QuestionID) (int, error)
}
