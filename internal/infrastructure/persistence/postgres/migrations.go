package postgres

// ══════════════════════════════════════════════════════════════════════════════
// EMBEDDED MIGRATIONS
// Две таблицы: append-only лог событий ответов и append-only реестр
// достижений. Уникальные индексы реестра - это и есть гарантия
// идемпотентности наград: гонка двух детекций даёт ровно одну строку.
// ══════════════════════════════════════════════════════════════════════════════

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_answer_events",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_achievements",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
	}
}

const migration001Up = `
CREATE TABLE IF NOT EXISTS answer_events (
	id UUID PRIMARY KEY,
	student_id UUID NOT NULL,
	question_id TEXT NOT NULL,
	subject TEXT NOT NULL,
	difficulty_tier SMALLINT NOT NULL CHECK (difficulty_tier BETWEEN 1 AND 3),
	correct BOOLEAN NOT NULL,
	response_time_seconds DOUBLE PRECISION NOT NULL CHECK (response_time_seconds >= 0),
	attempt_number INTEGER NOT NULL CHECK (attempt_number >= 1),
	answered_at TIMESTAMP WITH TIME ZONE NOT NULL,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_answer_events_student
	ON answer_events (student_id, answered_at);

CREATE INDEX IF NOT EXISTS idx_answer_events_student_subject
	ON answer_events (student_id, subject);

CREATE INDEX IF NOT EXISTS idx_answer_events_subject
	ON answer_events (subject);
`

const migration001Down = `
DROP TABLE IF EXISTS answer_events;
`

const migration002Up = `
CREATE TABLE IF NOT EXISTS achievements (
	id BIGSERIAL PRIMARY KEY,
	student_id UUID NOT NULL,
	type TEXT NOT NULL,
	level INTEGER NOT NULL DEFAULT 0,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	xp_awarded INTEGER NOT NULL DEFAULT 0,
	unlocked_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

-- Один бейдж каждого типа на студента; для level_up уровень входит в
-- идентичность награды.
CREATE UNIQUE INDEX IF NOT EXISTS uq_achievements_student_type
	ON achievements (student_id, type)
	WHERE type <> 'level_up';

CREATE UNIQUE INDEX IF NOT EXISTS uq_achievements_student_level
	ON achievements (student_id, type, level)
	WHERE type = 'level_up';

CREATE INDEX IF NOT EXISTS idx_achievements_student_unlocked
	ON achievements (student_id, unlocked_at);
`

const migration002Down = `
DROP TABLE IF EXISTS achievements;
`
