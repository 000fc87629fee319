// Package migrations registers the schema migrations applied by `migrate`
// and at server startup.
package migrations

import (
	"context"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

var Migrations = migrate.NewMigrations()

const initSchema = `
CREATE TABLE IF NOT EXISTS users (
	id BIGSERIAL PRIMARY KEY,
	discord_id TEXT NOT NULL UNIQUE,
	username TEXT NOT NULL,
	avatar TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	last_login TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS lessons (
	id BIGSERIAL PRIMARY KEY,
	lesson_key TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	content TEXT NOT NULL DEFAULT '',
	content_type TEXT NOT NULL DEFAULT 'text',
	media_path TEXT NOT NULL DEFAULT '',
	duration TEXT NOT NULL DEFAULT '',
	order_index INT NOT NULL DEFAULT 0,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS quizzes (
	id BIGSERIAL PRIMARY KEY,
	lesson_id BIGINT NOT NULL UNIQUE REFERENCES lessons(id) ON DELETE CASCADE,
	title TEXT NOT NULL DEFAULT '',
	passing_score INT NOT NULL DEFAULT 70,
	max_attempts INT NOT NULL DEFAULT 3,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS quiz_questions (
	id BIGSERIAL PRIMARY KEY,
	quiz_id BIGINT NOT NULL REFERENCES quizzes(id) ON DELETE CASCADE,
	question_key TEXT NOT NULL,
	question_text TEXT NOT NULL,
	order_index INT NOT NULL DEFAULT 0,
	UNIQUE (quiz_id, question_key)
);

CREATE TABLE IF NOT EXISTS quiz_answers (
	id BIGSERIAL PRIMARY KEY,
	question_id BIGINT NOT NULL REFERENCES quiz_questions(id) ON DELETE CASCADE,
	answer_key TEXT NOT NULL,
	answer_text TEXT NOT NULL,
	is_correct BOOLEAN NOT NULL DEFAULT FALSE,
	order_index INT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS quiz_attempts (
	id BIGSERIAL PRIMARY KEY,
	user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	quiz_id BIGINT NOT NULL REFERENCES quizzes(id) ON DELETE CASCADE,
	lesson_id BIGINT NOT NULL REFERENCES lessons(id) ON DELETE CASCADE,
	attempt_number INT NOT NULL,
	answers JSONB NOT NULL DEFAULT '{}',
	score INT NOT NULL DEFAULT 0,
	percentage INT NOT NULL DEFAULT 0,
	passed BOOLEAN NOT NULL DEFAULT FALSE,
	completed_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (user_id, quiz_id, attempt_number)
);

CREATE INDEX IF NOT EXISTS idx_quiz_attempts_user_quiz ON quiz_attempts (user_id, quiz_id);

CREATE TABLE IF NOT EXISTS user_quiz_completions (
	user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	quiz_id BIGINT NOT NULL REFERENCES quizzes(id) ON DELETE CASCADE,
	lesson_id BIGINT NOT NULL REFERENCES lessons(id) ON DELETE CASCADE,
	score INT NOT NULL DEFAULT 0,
	total_questions INT NOT NULL DEFAULT 0,
	percentage INT NOT NULL DEFAULT 0,
	points_earned INT NOT NULL DEFAULT 0,
	completed_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (user_id, quiz_id)
);

CREATE TABLE IF NOT EXISTS user_lesson_progress (
	user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	lesson_id BIGINT NOT NULL REFERENCES lessons(id) ON DELETE CASCADE,
	status TEXT NOT NULL DEFAULT 'in_progress',
	started_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at TIMESTAMPTZ,
	PRIMARY KEY (user_id, lesson_id)
);

CREATE TABLE IF NOT EXISTS user_points (
	user_id BIGINT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
	rep_points INT NOT NULL DEFAULT 0,
	level INT NOT NULL DEFAULT 1,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

const dropSchema = `
DROP TABLE IF EXISTS user_points;
DROP TABLE IF EXISTS user_lesson_progress;
DROP TABLE IF EXISTS user_quiz_completions;
DROP TABLE IF EXISTS quiz_attempts;
DROP TABLE IF EXISTS quiz_answers;
DROP TABLE IF EXISTS quiz_questions;
DROP TABLE IF EXISTS quizzes;
DROP TABLE IF EXISTS lessons;
DROP TABLE IF EXISTS users;
`

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, initSchema)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, dropSchema)
			return err
		},
	)
}
