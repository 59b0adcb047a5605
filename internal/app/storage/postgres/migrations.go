package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations is applied in order on startup. Statements are idempotent so
// re-running against an existing database is safe.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS app_users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		name TEXT NOT NULL,
		role TEXT NOT NULL,
		profile JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS app_sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES app_users(id),
		token_hash TEXT NOT NULL UNIQUE,
		expires_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_app_sessions_user ON app_sessions(user_id)`,
	`CREATE TABLE IF NOT EXISTS app_conversations (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES app_users(id),
		title TEXT NOT NULL,
		language TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_app_conversations_user ON app_conversations(user_id)`,
	`CREATE TABLE IF NOT EXISTS app_messages (
		id TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL REFERENCES app_conversations(id),
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		language TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_app_messages_conversation ON app_messages(conversation_id)`,
	`CREATE TABLE IF NOT EXISTS app_budgets (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES app_users(id),
		month TEXT NOT NULL,
		monthly_income DOUBLE PRECISION NOT NULL,
		limits JSONB NOT NULL DEFAULT '{}',
		spent JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		UNIQUE (user_id, month)
	)`,
	`CREATE TABLE IF NOT EXISTS app_goals (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES app_users(id),
		name TEXT NOT NULL,
		target_amount DOUBLE PRECISION NOT NULL,
		saved_amount DOUBLE PRECISION NOT NULL,
		target_date TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_app_goals_user ON app_goals(user_id)`,
	`CREATE TABLE IF NOT EXISTS app_posts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES app_users(id),
		topic TEXT NOT NULL,
		title TEXT NOT NULL,
		body TEXT NOT NULL,
		language TEXT NOT NULL,
		flags INTEGER NOT NULL DEFAULT 0,
		hidden BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS app_replies (
		id TEXT PRIMARY KEY,
		post_id TEXT NOT NULL REFERENCES app_posts(id),
		user_id TEXT NOT NULL REFERENCES app_users(id),
		body TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_app_replies_post ON app_replies(post_id)`,
	`CREATE TABLE IF NOT EXISTS app_alerts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES app_users(id),
		kind TEXT NOT NULL,
		message TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_app_alerts_user ON app_alerts(user_id)`,
}

// Apply runs all migrations in order against db.
func Apply(ctx context.Context, db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
