// Package achievement contains the badge catalog, the ledger boundary and the detector.
package achievement

import (
	"context"
	"time"

	"github.com/quizhub/progress-hub/internal/domain/shared"
)

// Ledger defines the append-only achievement store. Implemented by the
// infrastructure layer on top of a uniqueness constraint over
// (student_id, type) and (student_id, 'level_up', level).
type Ledger interface {
	// Exists reports whether the badge is already in the ledger.
	// For TypeLevelUp the level participates in the identity.
	Exists(ctx context.Context, studentID shared.StudentID, t Type, level int) (bool, error)

	// InsertIfAbsent appends a ledger row unless one already exists for the
	// same identity. Returns false when the row was already present - a
	// store-level uniqueness violation is the expected "already awarded"
	// outcome under concurrent detection, never an error.
	InsertIfAbsent(ctx context.Context, a *Achievement) (bool, error)

	// ListByStudent returns all ledger rows for a student, oldest first.
	ListByStudent(ctx context.Context, studentID shared.StudentID) ([]Achievement, error)

	// ListUnlockedSince returns ledger rows unlocked after the given time,
	// oldest first. Feeds the notification composer.
	ListUnlockedSince(ctx context.Context, studentID shared.StudentID, since time.Time) ([]Achievement, error)

	// Reset removes all ledger rows for a student (administrative operation).
	// Returns the number of rows removed.
	Reset(ctx context.Context, studentID shared.StudentID) (int, error)
}
