package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/quizhub/progress-hub/internal/domain/achievement"
	"github.com/quizhub/progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT LEDGER (PostgreSQL)
// Append-only реестр наград. Идемпотентность не в коде, а в схеме:
// уникальные индексы (student_id, type) и (student_id, type, level) делают
// повторную вставку при гонке невозможной, ON CONFLICT DO NOTHING превращает
// её в штатный исход "уже выдано".
// ══════════════════════════════════════════════════════════════════════════════

// AchievementRepo implements achievement.Ledger on PostgreSQL.
type AchievementRepo struct {
	conn *Connection
}

// NewAchievementRepo creates a PostgreSQL-backed achievement ledger.
func NewAchievementRepo(conn *Connection) *AchievementRepo {
	return &AchievementRepo{conn: conn}
}

var _ achievement.Ledger = (*AchievementRepo)(nil)

// Exists reports whether the badge is already in the ledger.
func (r *AchievementRepo) Exists(ctx context.Context, studentID shared.StudentID, t achievement.Type, level int) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM achievements
			WHERE student_id = $1 AND type = $2 AND (type <> 'level_up' OR level = $3)
		)
	`
	var exists bool
	err := r.conn.QueryRow(ctx, query, studentID.String(), t.String(), level).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("postgres: achievement exists: %w", err)
	}
	return exists, nil
}

// InsertIfAbsent appends a ledger row unless one already exists for the same
// identity. Returns false when the badge was already awarded.
func (r *AchievementRepo) InsertIfAbsent(ctx context.Context, a *achievement.Achievement) (bool, error) {
	query := `
		INSERT INTO achievements (student_id, type, level, title, description, xp_awarded, unlocked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT DO NOTHING
	`
	tag, err := r.conn.Exec(ctx, query,
		a.StudentID.String(),
		a.Type.String(),
		a.Level,
		a.Title,
		a.Description,
		a.XPAwarded,
		a.UnlockedAt.UTC(),
	)
	if err != nil {
		// Гонка двух вставок может проскочить мимо ON CONFLICT только при
		// нестандартных настройках; уникальный индекс всё равно держит строй.
		if IsUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("postgres: insert achievement: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListByStudent returns all ledger rows for a student, oldest first.
func (r *AchievementRepo) ListByStudent(ctx context.Context, studentID shared.StudentID) ([]achievement.Achievement, error) {
	query := `
		SELECT type, level, title, description, xp_awarded, unlocked_at
		FROM achievements
		WHERE student_id = $1
		ORDER BY unlocked_at, id
	`
	return r.list(ctx, query, studentID, studentID.String())
}

// ListUnlockedSince returns ledger rows unlocked after the given time.
func (r *AchievementRepo) ListUnlockedSince(ctx context.Context, studentID shared.StudentID, since time.Time) ([]achievement.Achievement, error) {
	query := `
		SELECT type, level, title, description, xp_awarded, unlocked_at
		FROM achievements
		WHERE student_id = $1 AND unlocked_at > $2
		ORDER BY unlocked_at, id
	`
	return r.list(ctx, query, studentID, studentID.String(), since.UTC())
}

func (r *AchievementRepo) list(ctx context.Context, query string, studentID shared.StudentID, args ...any) ([]achievement.Achievement, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list achievements: %w", err)
	}
	defer rows.Close()

	var out []achievement.Achievement
	for rows.Next() {
		var (
			a achievement.Achievement
			t string
		)
		if err := rows.Scan(&t, &a.Level, &a.Title, &a.Description, &a.XPAwarded, &a.UnlockedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan achievement: %w", err)
		}
		a.StudentID = studentID
		a.Type = achievement.Type(t)
		out = append(out, a)
	}
	return out, rows.Err()
}

// Reset removes all ledger rows for a student.
func (r *AchievementRepo) Reset(ctx context.Context, studentID shared.StudentID) (int, error) {
	tag, err := r.conn.Exec(ctx, `DELETE FROM achievements WHERE student_id = $1`, studentID.String())
	if err != nil {
		return 0, fmt.Errorf("postgres: reset achievements: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
