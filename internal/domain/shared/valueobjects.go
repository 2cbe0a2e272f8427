// Package shared contains common domain types, errors, and value objects
// that are used across all domain packages.
package shared

import (
	"regexp"
	"strings"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// StudentID represents a unique student identifier (UUID format).
type StudentID string

// UUID validation regex (simple version).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// IsValid checks if the student ID is a valid UUID.
func (s StudentID) IsValid() bool {
	return uuidRegex.MatchString(string(s))
}

// String returns the string representation.
func (s StudentID) String() string {
	return string(s)
}

// IsEmpty checks if the ID is empty.
func (s StudentID) IsEmpty() bool {
	return s == ""
}

// NewStudentID creates a new StudentID with validation.
func NewStudentID(id string) (StudentID, error) {
	sid := StudentID(strings.ToLower(strings.TrimSpace(id)))
	if !sid.IsValid() {
		return "", NewDomainError("shared", "NewStudentID", ErrInvalidID, "invalid student ID format")
	}
	return sid, nil
}

// QuestionID represents a unique question identifier.
type QuestionID string

// IsValid checks if the question ID is non-empty.
func (q QuestionID) IsValid() bool {
	return strings.TrimSpace(string(q)) != ""
}

// String returns the string representation.
func (q QuestionID) String() string {
	return string(q)
}

// NewQuestionID creates a new QuestionID with validation.
func NewQuestionID(id string) (QuestionID, error) {
	qid := QuestionID(strings.TrimSpace(id))
	if !qid.IsValid() {
		return "", NewDomainError("shared", "NewQuestionID", ErrInvalidID, "question ID cannot be empty")
	}
	return qid, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Subject Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Subject represents a question-bank subject ("Geography", "Algebra", ...).
type Subject string

// IsValid checks if the subject is non-empty.
func (s Subject) IsValid() bool {
	return strings.TrimSpace(string(s)) != ""
}

// String returns the string representation.
func (s Subject) String() string {
	return string(s)
}

// Normalize trims surrounding whitespace.
func (s Subject) Normalize() Subject {
	return Subject(strings.TrimSpace(string(s)))
}

// NewSubject creates a new Subject with validation.
func NewSubject(name string) (Subject, error) {
	s := Subject(name).Normalize()
	if !s.IsValid() {
		return "", NewDomainError("shared", "NewSubject", ErrEmptyValue, "subject cannot be empty")
	}
	return s, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// DifficultyTier Value Object
// ═══════════════════════════════════════════════════════════════════════════

// DifficultyTier represents the difficulty of a question, encoded 1..3.
type DifficultyTier int

const (
	TierEasy   DifficultyTier = 1
	TierMedium DifficultyTier = 2
	TierHard   DifficultyTier = 3
)

// IsValid checks if the tier is within the encoded range.
func (d DifficultyTier) IsValid() bool {
	return d >= TierEasy && d <= TierHard
}

// Int returns the underlying int value.
func (d DifficultyTier) Int() int {
	return int(d)
}

// String returns the wire representation used by the question bank.
func (d DifficultyTier) String() string {
	switch d {
	case TierEasy:
		return "easy"
	case TierMedium:
		return "medium"
	case TierHard:
		return "hard"
	default:
		return "unknown"
	}
}

// ParseDifficultyTier parses the wire representation into a tier.
func ParseDifficultyTier(s string) (DifficultyTier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return TierEasy, nil
	case "medium":
		return TierMedium, nil
	case "hard":
		return TierHard, nil
	default:
		return 0, NewDomainError("shared", "ParseDifficultyTier", ErrValueOutOfRange, "difficulty tier must be easy, medium or hard")
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Accuracy Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Accuracy is a fraction of correct answers in [0,1].
type Accuracy float64

// IsValid checks if the accuracy is within [0,1].
func (a Accuracy) IsValid() bool {
	return a >= 0 && a <= 1
}

// Float64 returns the underlying float value.
func (a Accuracy) Float64() float64 {
	return float64(a)
}

// Percent returns the accuracy as a 0-100 value.
func (a Accuracy) Percent() float64 {
	return float64(a) * 100
}

// NewAccuracy computes accuracy from counts, guarding division by zero.
func NewAccuracy(correct, total int) Accuracy {
	if total <= 0 {
		return 0
	}
	return Accuracy(float64(correct) / float64(total))
}

// ═══════════════════════════════════════════════════════════════════════════
// TimeWindow Value Object
// ═══════════════════════════════════════════════════════════════════════════

// TimeWindow represents a bounded time period for aggregate queries.
type TimeWindow struct {
	From time.Time
	To   time.Time
}

// IsValid checks if the window is valid.
func (w TimeWindow) IsValid() bool {
	return !w.From.IsZero() && !w.To.IsZero() && !w.From.After(w.To)
}

// IsZero reports whether the window is unset (meaning "all time").
func (w TimeWindow) IsZero() bool {
	return w.From.IsZero() && w.To.IsZero()
}

// Duration returns the duration of the window.
func (w TimeWindow) Duration() time.Duration {
	return w.To.Sub(w.From)
}

// Contains checks if a time falls within the half-open window [From, To).
// Matches the SQL window predicate (answered_at >= From AND answered_at < To),
// so adjacent windows never double-count a boundary event.
func (w TimeWindow) Contains(t time.Time) bool {
	return (t.Equal(w.From) || t.After(w.From)) && t.Before(w.To)
}

// NewTimeWindow creates a new TimeWindow with validation.
func NewTimeWindow(from, to time.Time) (TimeWindow, error) {
	w := TimeWindow{From: from, To: to}
	if !w.IsValid() {
		return TimeWindow{}, NewDomainError("shared", "NewTimeWindow", ErrInvalidWindow, "'from' must be before 'to'")
	}
	return w, nil
}

// LastNDays returns a window covering the last N calendar days up to now.
func LastNDays(n int) TimeWindow {
	now := time.Now().UTC()
	return TimeWindow{
		From: now.AddDate(0, 0, -n),
		To:   now,
	}
}

// TrailingWeek returns the trailing 7-day window.
func TrailingWeek() TimeWindow {
	return LastNDays(7)
}

// PreviousWeek returns the 7-day window preceding the trailing week.
func PreviousWeek() TimeWindow {
	now := time.Now().UTC()
	return TimeWindow{
		From: now.AddDate(0, 0, -14),
		To:   now.AddDate(0, 0, -7),
	}
}
