// Package sqlite implements the event store and achievement ledger on an
// embedded SQLite database. Intended for local development and tests: the
// same contracts as the PostgreSQL layer without a running server.
// Uses the pure-Go driver, so no CGO.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/quizhub/progress-hub/internal/domain/achievement"
	"github.com/quizhub/progress-hub/internal/domain/answer"
	"github.com/quizhub/progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STORE
// Время хранится как unix-секунды (UTC): календарный день - answered_at/86400,
// час суток - (answered_at%86400)/3600. Целочисленно и без таймзонных сюрпризов.
// ══════════════════════════════════════════════════════════════════════════════

const schema = `
CREATE TABLE IF NOT EXISTS answer_events (
	id TEXT PRIMARY KEY,
	student_id TEXT NOT NULL,
	question_id TEXT NOT NULL,
	subject TEXT NOT NULL,
	difficulty_tier INTEGER NOT NULL CHECK (difficulty_tier BETWEEN 1 AND 3),
	correct INTEGER NOT NULL,
	response_time_seconds REAL NOT NULL CHECK (response_time_seconds >= 0),
	attempt_number INTEGER NOT NULL CHECK (attempt_number >= 1),
	answered_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_answer_events_student
	ON answer_events (student_id, answered_at);

CREATE TABLE IF NOT EXISTS achievements (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	student_id TEXT NOT NULL,
	type TEXT NOT NULL,
	level INTEGER NOT NULL DEFAULT 0,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	xp_awarded INTEGER NOT NULL DEFAULT 0,
	unlocked_at INTEGER NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS uq_achievements_student_type
	ON achievements (student_id, type)
	WHERE type <> 'level_up';

CREATE UNIQUE INDEX IF NOT EXISTS uq_achievements_student_level
	ON achievements (student_id, type, level)
	WHERE type = 'level_up';
`

// Store implements answer.EventStore and achievement.Ledger on SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database and applies the schema.
// Path ":memory:" gives a fresh in-memory database - handy in tests.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	// Одно соединение: in-memory база живёт per-connection, а для файловой
	// это снимает busy-ошибки при конкурентной записи.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

var (
	_ answer.EventStore  = (*Store)(nil)
	_ achievement.Ledger = (*Store)(nil)
)

// ══════════════════════════════════════════════════════════════════════════════
// EVENT STORE
// ══════════════════════════════════════════════════════════════════════════════

// Append writes a new answer event.
func (s *Store) Append(ctx context.Context, event *answer.Event) error {
	if err := event.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO answer_events (
			id, student_id, question_id, subject, difficulty_tier,
			correct, response_time_seconds, attempt_number, answered_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID,
		event.StudentID.String(),
		event.QuestionID.String(),
		event.Subject.String(),
		event.DifficultyTier.Int(),
		boolToInt(event.Correct),
		event.ResponseTimeSeconds,
		event.AttemptNumber,
		event.AnsweredAt.UTC().Unix(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: append event: %w", err)
	}
	return nil
}

// CountAndAccuracy returns counts, accuracy and mean response time.
func (s *Store) CountAndAccuracy(ctx context.Context, studentID shared.StudentID, window shared.TimeWindow) (answer.CountAccuracy, error) {
	query := `
		SELECT COUNT(*), COALESCE(SUM(correct), 0), COALESCE(AVG(response_time_seconds), 0)
		FROM answer_events
		WHERE student_id = ?` + windowClause(window)

	args := windowArgs([]any{studentID.String()}, window)

	var out answer.CountAccuracy
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&out.Total, &out.Correct, &out.MeanResponseTime)
	if err != nil {
		return answer.CountAccuracy{}, fmt.Errorf("sqlite: count and accuracy: %w", err)
	}
	out.Accuracy = shared.NewAccuracy(out.Correct, out.Total)
	return out, nil
}

// PerSubjectAggregates returns per-subject rows ordered by subject name.
func (s *Store) PerSubjectAggregates(ctx context.Context, studentID shared.StudentID, window shared.TimeWindow) ([]answer.SubjectAggregate, error) {
	query := `
		SELECT subject, COUNT(*), SUM(correct),
			AVG(CAST(difficulty_tier AS REAL)), AVG(response_time_seconds)
		FROM answer_events
		WHERE student_id = ?` + windowClause(window) + `
		GROUP BY subject
		ORDER BY subject`

	args := windowArgs([]any{studentID.String()}, window)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: subject aggregates: %w", err)
	}
	defer rows.Close()

	var out []answer.SubjectAggregate
	for rows.Next() {
		var (
			agg     answer.SubjectAggregate
			subject string
		)
		if err := rows.Scan(&subject, &agg.Total, &agg.Correct, &agg.MeanDifficulty, &agg.MeanResponseTime); err != nil {
			return nil, fmt.Errorf("sqlite: scan subject aggregate: %w", err)
		}
		agg.Subject = shared.Subject(subject)
		agg.Accuracy = shared.NewAccuracy(agg.Correct, agg.Total)
		out = append(out, agg)
	}
	return out, rows.Err()
}

// DistinctActiveDays returns distinct UTC calendar days, ascending.
func (s *Store) DistinctActiveDays(ctx context.Context, studentID shared.StudentID, window shared.TimeWindow) ([]time.Time, error) {
	query := `
		SELECT DISTINCT answered_at / 86400
		FROM answer_events
		WHERE student_id = ?` + windowClause(window) + `
		ORDER BY 1`

	args := windowArgs([]any{studentID.String()}, window)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: distinct active days: %w", err)
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var dayNum int64
		if err := rows.Scan(&dayNum); err != nil {
			return nil, fmt.Errorf("sqlite: scan active day: %w", err)
		}
		out = append(out, time.Unix(dayNum*86400, 0).UTC())
	}
	return out, rows.Err()
}

// GlobalPerSubjectAggregates returns per-subject rows across all students.
func (s *Store) GlobalPerSubjectAggregates(ctx context.Context, window shared.TimeWindow) ([]answer.BaselineAggregate, error) {
	query := `
		SELECT subject, COUNT(*), SUM(correct), AVG(response_time_seconds)
		FROM answer_events
		WHERE 1 = 1` + windowClause(window) + `
		GROUP BY subject
		ORDER BY subject`

	args := windowArgs(nil, window)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: global aggregates: %w", err)
	}
	defer rows.Close()

	var out []answer.BaselineAggregate
	for rows.Next() {
		var (
			agg     answer.BaselineAggregate
			subject string
			total   int
			correct int
		)
		if err := rows.Scan(&subject, &total, &correct, &agg.MeanResponseTime); err != nil {
			return nil, fmt.Errorf("sqlite: scan global aggregate: %w", err)
		}
		agg.Subject = shared.Subject(subject)
		agg.Accuracy = shared.NewAccuracy(correct, total)
		out = append(out, agg)
	}
	return out, rows.Err()
}

// HourOfDayAccuracy returns accuracy grouped by UTC hour of day.
func (s *Store) HourOfDayAccuracy(ctx context.Context, studentID shared.StudentID) ([]answer.HourAccuracy, error) {
	query := `
		SELECT (answered_at % 86400) / 3600, COUNT(*), SUM(correct)
		FROM answer_events
		WHERE student_id = ?
		GROUP BY 1
		ORDER BY 1`

	rows, err := s.db.QueryContext(ctx, query, studentID.String())
	if err != nil {
		return nil, fmt.Errorf("sqlite: hour accuracy: %w", err)
	}
	defer rows.Close()

	var out []answer.HourAccuracy
	for rows.Next() {
		var (
			row     answer.HourAccuracy
			correct int
		)
		if err := rows.Scan(&row.Hour, &row.Total, &correct); err != nil {
			return nil, fmt.Errorf("sqlite: scan hour accuracy: %w", err)
		}
		row.Accuracy = shared.NewAccuracy(correct, row.Total)
		out = append(out, row)
	}
	return out, rows.Err()
}

// ResetEvents removes events for the student, optionally limited to the
// given question set.
func (s *Store) ResetEvents(ctx context.Context, studentID shared.StudentID, questionIDs []shared.QuestionID) (int, error) {
	var (
		query string
		args  []any
	)
	if len(questionIDs) == 0 {
		query = `DELETE FROM answer_events WHERE student_id = ?`
		args = []any{studentID.String()}
	} else {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(questionIDs)), ",")
		query = `DELETE FROM answer_events WHERE student_id = ? AND question_id IN (` + placeholders + `)`
		args = append(args, studentID.String())
		for _, q := range questionIDs {
			args = append(args, q.String())
		}
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("sqlite: reset events: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT LEDGER
// ══════════════════════════════════════════════════════════════════════════════

// Exists reports whether the badge is already in the ledger.
func (s *Store) Exists(ctx context.Context, studentID shared.StudentID, t achievement.Type, level int) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM achievements
		WHERE student_id = ? AND type = ? AND (type <> 'level_up' OR level = ?)`,
		studentID.String(), t.String(), level,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("sqlite: achievement exists: %w", err)
	}
	return count > 0, nil
}

// InsertIfAbsent appends a ledger row unless one already exists.
// INSERT OR IGNORE rides the unique indexes, so a concurrent duplicate is
// the expected "already awarded" outcome.
func (s *Store) InsertIfAbsent(ctx context.Context, a *achievement.Achievement) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO achievements
			(student_id, type, level, title, description, xp_awarded, unlocked_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.StudentID.String(),
		a.Type.String(),
		a.Level,
		a.Title,
		a.Description,
		a.XPAwarded,
		a.UnlockedAt.UTC().Unix(),
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: insert achievement: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ListByStudent returns all ledger rows for a student, oldest first.
func (s *Store) ListByStudent(ctx context.Context, studentID shared.StudentID) ([]achievement.Achievement, error) {
	return s.listAchievements(ctx, studentID, `
		SELECT type, level, title, description, xp_awarded, unlocked_at
		FROM achievements
		WHERE student_id = ?
		ORDER BY unlocked_at, id`,
		studentID.String())
}

// ListUnlockedSince returns ledger rows unlocked after the given time.
func (s *Store) ListUnlockedSince(ctx context.Context, studentID shared.StudentID, since time.Time) ([]achievement.Achievement, error) {
	return s.listAchievements(ctx, studentID, `
		SELECT type, level, title, description, xp_awarded, unlocked_at
		FROM achievements
		WHERE student_id = ? AND unlocked_at > ?
		ORDER BY unlocked_at, id`,
		studentID.String(), since.UTC().Unix())
}

func (s *Store) listAchievements(ctx context.Context, studentID shared.StudentID, query string, args ...any) ([]achievement.Achievement, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list achievements: %w", err)
	}
	defer rows.Close()

	var out []achievement.Achievement
	for rows.Next() {
		var (
			a        achievement.Achievement
			t        string
			unlocked int64
		)
		if err := rows.Scan(&t, &a.Level, &a.Title, &a.Description, &a.XPAwarded, &unlocked); err != nil {
			return nil, fmt.Errorf("sqlite: scan achievement: %w", err)
		}
		a.StudentID = studentID
		a.Type = achievement.Type(t)
		a.UnlockedAt = time.Unix(unlocked, 0).UTC()
		out = append(out, a)
	}
	return out, rows.Err()
}

// Reset removes all ledger rows for a student.
func (s *Store) Reset(ctx context.Context, studentID shared.StudentID) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM achievements WHERE student_id = ?`, studentID.String())
	if err != nil {
		return 0, fmt.Errorf("sqlite: reset achievements: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// windowClause возвращает фрагмент фильтра по окну; нулевое окно = всё время.
func windowClause(window shared.TimeWindow) string {
	if window.IsZero() {
		return ""
	}
	return " AND answered_at >= ? AND answered_at < ?"
}

// windowArgs дописывает границы окна (unix-секунды) к аргументам.
func windowArgs(args []any, window shared.TimeWindow) []any {
	if window.IsZero() {
		return args
	}
	return append(args, window.From.UTC().Unix(), window.To.UTC().Unix())
}
