// Package achievement contains the badge catalog, the append-only ledger
// boundary and the threshold detector. Achievements are the one entity the
// progress engine writes; every write is idempotent per (student, type),
// and per (student, level) for level-ups.
package achievement

import (
	"time"

	"github.com/quizhub/progress-hub/internal/domain/shared"
)

// Type represents an achievement type.
type Type string

const (
	// TypeFirstCorrect - first correct answer.
	TypeFirstCorrect Type = "first_correct"
	// TypeAnswered10 - 10th answered question.
	TypeAnswered10 Type = "answered_10"
	// TypeAnswered50 - 50th answered question.
	TypeAnswered50 Type = "answered_50"
	// TypeSharpshooter - accuracy >= 0.80 with at least 10 answers.
	TypeSharpshooter Type = "sharpshooter"
	// TypeStreak7 - 7 consecutive active days.
	TypeStreak7 Type = "streak_7"
	// TypeLevelUp - a new level reached. Idempotent per (student, level).
	TypeLevelUp Type = "level_up"
)

// IsValid checks if the type is part of the catalog.
func (t Type) IsValid() bool {
	switch t {
	case TypeFirstCorrect, TypeAnswered10, TypeAnswered50, TypeSharpshooter, TypeStreak7, TypeLevelUp:
		return true
	}
	return false
}

// String returns the string representation.
func (t Type) String() string {
	return string(t)
}

// Achievement represents one unlocked badge - a row in the append-only ledger.
type Achievement struct {
	// StudentID - who unlocked it.
	StudentID shared.StudentID

	// Type - achievement type.
	Type Type

	// Level - the level reached, for TypeLevelUp only (0 otherwise).
	Level int

	// Title - human-readable title from the catalog.
	Title string

	// Description - human-readable description from the catalog.
	Description string

	// XPAwarded - bonus XP granted on unlock.
	XPAwarded int

	// UnlockedAt - when the badge was unlocked.
	UnlockedAt time.Time
}

// Definition describes one catalog entry.
type Definition struct {
	Type        Type
	Title       string
	Description string
	Emoji       string
	XPBonus     int
}

// Definitions returns the full badge catalog.
func Definitions() []Definition {
	return []Definition{
		{TypeFirstCorrect, "First win", "First correct answer", "🎯", 50},
		{TypeAnswered10, "Getting started", "10 questions answered", "📝", 50},
		{TypeAnswered50, "Committed", "50 questions answered", "📚", 150},
		{TypeSharpshooter, "Sharpshooter", "80% accuracy over 10+ answers", "🎯", 200},
		{TypeStreak7, "Week of fire", "7 active days in a row", "🔥", 100},
		{TypeLevelUp, "Level up", "New level reached", "⭐", 25},
	}
}

// DefinitionFor returns the catalog entry for a type.
func DefinitionFor(t Type) (Definition, bool) {
	for _, def := range Definitions() {
		if def.Type == t {
			return def, true
		}
	}
	return Definition{}, false
}
