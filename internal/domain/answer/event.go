// Package answer contains the answer-event entity and the event store
// boundary. Answer events are the sole source of truth for every derived
// progress view; they are immutable once written.
// This is a pure domain layer with zero external dependencies.
package answer

import (
	"time"

	"github.com/quizhub/progress-hub/internal/domain/shared"
)

// Event represents one immutable record of a student answering one question.
// Created by the answer-submission flow, never mutated, never deleted except
// by an explicit administrative reset.
type Event struct {
	// ID - unique event identifier (UUID).
	ID string

	// StudentID - who answered.
	StudentID shared.StudentID

	// QuestionID - which question was answered.
	QuestionID shared.QuestionID

	// Subject - the question's subject ("Geography", "Algebra", ...).
	Subject shared.Subject

	// DifficultyTier - easy/medium/hard, encoded 1..3.
	DifficultyTier shared.DifficultyTier

	// Correct - whether the answer was correct.
	Correct bool

	// ResponseTimeSeconds - time taken to answer.
	ResponseTimeSeconds float64

	// AttemptNumber - 1 for the first attempt on this question.
	AttemptNumber int

	// AnsweredAt - when the answer was submitted.
	AnsweredAt time.Time
}

// Validate checks the event invariants before it is appended to the store.
func (e *Event) Validate() error {
	if e.StudentID.IsEmpty() {
		return shared.ErrInvalidStudentID
	}
	if !e.QuestionID.IsValid() {
		return shared.ErrInvalidQuestion
	}
	if !e.Subject.IsValid() {
		return shared.ErrInvalidSubject
	}
	if !e.DifficultyTier.IsValid() {
		return shared.ErrInvalidTier
	}
	if e.ResponseTimeSeconds < 0 {
		return shared.NewDomainError("answer", "Validate", shared.ErrNegativeValue, "response time cannot be negative")
	}
	if e.AttemptNumber < 1 {
		return shared.NewDomainError("answer", "Validate", shared.ErrValueOutOfRange, "attempt number must be >= 1")
	}
	if e.AnsweredAt.IsZero() {
		return shared.NewDomainError("answer", "Validate", shared.ErrEmptyValue, "answered_at must be set")
	}
	return nil
}

// CountAccuracy is the result of a count-and-accuracy aggregate query.
type CountAccuracy struct {
	// Total - number of answer events.
	Total int

	// Correct - number of correct answers.
	Correct int

	// Accuracy - fraction of correct answers in [0,1]; 0 when Total is 0.
	Accuracy shared.Accuracy

	// MeanResponseTime - mean response time in seconds; 0 when Total is 0.
	MeanResponseTime float64
}

// SubjectAggregate is a per-subject aggregate row for one student.
type SubjectAggregate struct {
	// Subject - the subject name.
	Subject shared.Subject

	// Total - answers in this subject.
	Total int

	// Correct - correct answers in this subject.
	Correct int

	// Accuracy - fraction of correct answers in [0,1].
	Accuracy shared.Accuracy

	// MeanDifficulty - mean difficulty tier (1.0 .. 3.0).
	MeanDifficulty float64

	// MeanResponseTime - mean response time in seconds.
	MeanResponseTime float64
}

// BaselineAggregate is a per-subject aggregate computed across all students.
type BaselineAggregate struct {
	// Subject - the subject name.
	Subject shared.Subject

	// Accuracy - global fraction of correct answers in [0,1].
	Accuracy shared.Accuracy

	// MeanResponseTime - global mean response time in seconds.
	MeanResponseTime float64
}

// HourAccuracy is an hour-of-day aggregate row for one student.
type HourAccuracy struct {
	// Hour - hour of day, 0..23 (UTC).
	Hour int

	// Total - answers submitted during this hour of day.
	Total int

	// Accuracy - fraction of correct answers in [0,1].
	Accuracy shared.Accuracy
}
