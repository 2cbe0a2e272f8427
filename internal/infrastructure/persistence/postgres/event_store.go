package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/quizhub/progress-hub/internal/domain/answer"
	"github.com/quizhub/progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// EVENT STORE (PostgreSQL)
// Реализация answer.EventStore поверх таблицы answer_events. Всё чтение -
// ограниченные агрегаты: ни один запрос не вытаскивает сырые события в
// память, свёртка происходит в SQL.
// ══════════════════════════════════════════════════════════════════════════════

// EventStore implements answer.EventStore on PostgreSQL.
type EventStore struct {
	conn *Connection
}

// NewEventStore creates a PostgreSQL-backed event store.
func NewEventStore(conn *Connection) *EventStore {
	return &EventStore{conn: conn}
}

var _ answer.EventStore = (*EventStore)(nil)

// Append writes a new answer event.
func (s *EventStore) Append(ctx context.Context, event *answer.Event) error {
	if err := event.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO answer_events (
			id, student_id, question_id, subject, difficulty_tier,
			correct, response_time_seconds, attempt_number, answered_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.conn.Exec(ctx, query,
		event.ID,
		event.StudentID.String(),
		event.QuestionID.String(),
		event.Subject.String(),
		event.DifficultyTier.Int(),
		event.Correct,
		event.ResponseTimeSeconds,
		event.AttemptNumber,
		event.AnsweredAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("postgres: append event: %w", err)
	}
	return nil
}

// CountAndAccuracy returns counts, accuracy and mean response time for one
// student within the window.
func (s *EventStore) CountAndAccuracy(ctx context.Context, studentID shared.StudentID, window shared.TimeWindow) (answer.CountAccuracy, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE correct),
			COALESCE(AVG(response_time_seconds), 0)
		FROM answer_events
		WHERE student_id = $1
	` + windowClause(window, 2)

	args := windowArgs([]any{studentID.String()}, window)

	var out answer.CountAccuracy
	var meanRT float64
	err := s.conn.QueryRow(ctx, query, args...).Scan(&out.Total, &out.Correct, &meanRT)
	if err != nil {
		return answer.CountAccuracy{}, fmt.Errorf("postgres: count and accuracy: %w", err)
	}

	out.Accuracy = shared.NewAccuracy(out.Correct, out.Total)
	out.MeanResponseTime = meanRT
	return out, nil
}

// PerSubjectAggregates returns per-subject rows for one student, ordered by
// subject name.
func (s *EventStore) PerSubjectAggregates(ctx context.Context, studentID shared.StudentID, window shared.TimeWindow) ([]answer.SubjectAggregate, error) {
	query := `
		SELECT
			subject,
			COUNT(*),
			COUNT(*) FILTER (WHERE correct),
			AVG(difficulty_tier::float8),
			AVG(response_time_seconds)
		FROM answer_events
		WHERE student_id = $1
	` + windowClause(window, 2) + `
		GROUP BY subject
		ORDER BY subject
	`

	args := windowArgs([]any{studentID.String()}, window)

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: subject aggregates: %w", err)
	}
	defer rows.Close()

	var out []answer.SubjectAggregate
	for rows.Next() {
		var (
			agg     answer.SubjectAggregate
			subject string
		)
		if err := rows.Scan(&subject, &agg.Total, &agg.Correct, &agg.MeanDifficulty, &agg.MeanResponseTime); err != nil {
			return nil, fmt.Errorf("postgres: scan subject aggregate: %w", err)
		}
		agg.Subject = shared.Subject(subject)
		agg.Accuracy = shared.NewAccuracy(agg.Correct, agg.Total)
		out = append(out, agg)
	}
	return out, rows.Err()
}

// DistinctActiveDays returns the distinct UTC calendar days with at least one
// event, ascending.
func (s *EventStore) DistinctActiveDays(ctx context.Context, studentID shared.StudentID, window shared.TimeWindow) ([]time.Time, error) {
	query := `
		SELECT DISTINCT date_trunc('day', answered_at AT TIME ZONE 'UTC')
		FROM answer_events
		WHERE student_id = $1
	` + windowClause(window, 2) + `
		ORDER BY 1
	`

	args := windowArgs([]any{studentID.String()}, window)

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: distinct active days: %w", err)
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var day time.Time
		if err := rows.Scan(&day); err != nil {
			return nil, fmt.Errorf("postgres: scan active day: %w", err)
		}
		out = append(out, time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC))
	}
	return out, rows.Err()
}

// GlobalPerSubjectAggregates returns per-subject rows across all students.
func (s *EventStore) GlobalPerSubjectAggregates(ctx context.Context, window shared.TimeWindow) ([]answer.BaselineAggregate, error) {
	query := `
		SELECT
			subject,
			COUNT(*),
			COUNT(*) FILTER (WHERE correct),
			AVG(response_time_seconds)
		FROM answer_events
		WHERE TRUE
	` + windowClause(window, 1) + `
		GROUP BY subject
		ORDER BY subject
	`

	args := windowArgs(nil, window)

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: global aggregates: %w", err)
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
			return nil, fmt.Errorf("postgres: scan global aggregate: %w", err)
		}
		agg.Subject = shared.Subject(subject)
		agg.Accuracy = shared.NewAccuracy(correct, total)
		out = append(out, agg)
	}
	return out, rows.Err()
}

// HourOfDayAccuracy returns accuracy grouped by UTC hour of day for one
// student, ascending by hour.
func (s *EventStore) HourOfDayAccuracy(ctx context.Context, studentID shared.StudentID) ([]answer.HourAccuracy, error) {
	query := `
		SELECT
			EXTRACT(HOUR FROM answered_at AT TIME ZONE 'UTC')::int,
			COUNT(*),
			COUNT(*) FILTER (WHERE correct)
		FROM answer_events
		WHERE student_id = $1
		GROUP BY 1
		ORDER BY 1
	`

	rows, err := s.conn.Query(ctx, query, studentID.String())
	if err != nil {
		return nil, fmt.Errorf("postgres: hour accuracy: %w", err)
	}
	defer rows.Close()

	var out []answer.HourAccuracy
	for rows.Next() {
		var (
			row     answer.HourAccuracy
			correct int
		)
		if err := rows.Scan(&row.Hour, &row.Total, &correct); err != nil {
			return nil, fmt.Errorf("postgres: scan hour accuracy: %w", err)
		}
		row.Accuracy = shared.NewAccuracy(correct, row.Total)
		out = append(out, row)
	}
	return out, rows.Err()
}

// ResetEvents removes all events for the student, optionally limited to the
// given question set. Returns the number of events removed.
func (s *EventStore) ResetEvents(ctx context.Context, studentID shared.StudentID, questionIDs []shared.QuestionID) (int, error) {
	var (
		query string
		args  []any
	)
	if len(questionIDs) == 0 {
		query = `DELETE FROM answer_events WHERE student_id = $1`
		args = []any{studentID.String()}
	} else {
		ids := make([]string, 0, len(questionIDs))
		for _, q := range questionIDs {
			ids = append(ids, q.String())
		}
		query = `DELETE FROM answer_events WHERE student_id = $1 AND question_id = ANY($2)`
		args = []any{studentID.String(), ids}
	}

	tag, err := s.conn.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("postgres: reset events: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// windowClause возвращает фрагмент фильтра по окну; нулевое окно = всё время.
// nextArg - номер первого свободного плейсхолдера.
func windowClause(window shared.TimeWindow, nextArg int) string {
	if window.IsZero() {
		return ""
	}
	return fmt.Sprintf(" AND answered_at >= $%d AND answered_at < $%d", nextArg, nextArg+1)
}

// windowArgs дописывает границы окна к аргументам запроса.
func windowArgs(args []any, window shared.TimeWindow) []any {
	if window.IsZero() {
		return args
	}
	return append(args, window.From.UTC(), window.To.UTC())
}
