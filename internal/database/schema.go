package database

import "fmt"

// schemaStatements create the tables the application needs. They are
// idempotent and run on every boot.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		username TEXT UNIQUE NOT NULL,
		email TEXT UNIQUE NOT NULL,
		password_hash TEXT,
		role TEXT NOT NULL DEFAULT 'member',
		discord_id TEXT UNIQUE,
		avatar_url TEXT,
		playfab_id TEXT,
		steam64_id TEXT,
		recruitment_date TIMESTAMPTZ,
		notes TEXT,
		status TEXT NOT NULL DEFAULT 'active',
		staff_status TEXT NOT NULL DEFAULT 'Active',
		last_login TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`ALTER TABLE users ADD COLUMN IF NOT EXISTS staff_status TEXT NOT NULL DEFAULT 'Active'`,

	`CREATE TABLE IF NOT EXISTS past_staff (
		id BIGSERIAL PRIMARY KEY,
		discord_id TEXT NOT NULL,
		username TEXT NOT NULL,
		display_name TEXT NOT NULL,
		rank TEXT NOT NULL,
		playfab_id TEXT,
		recruitment_date TIMESTAMPTZ,
		removal_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		removal_reason TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS staff_documents (
		id BIGSERIAL PRIMARY KEY,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT 'general',
		access_level INTEGER NOT NULL DEFAULT 1,
		author_id TEXT,
		author_name TEXT,
		published BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS posts (
		id BIGSERIAL PRIMARY KEY,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		category TEXT DEFAULT 'general',
		image_url TEXT,
		author_id BIGINT REFERENCES users(id) ON DELETE SET NULL,
		published BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS events (
		id BIGSERIAL PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		location TEXT,
		starts_at TIMESTAMPTZ NOT NULL,
		ends_at TIMESTAMPTZ,
		image_url TEXT,
		author_id BIGINT REFERENCES users(id) ON DELETE SET NULL,
		published BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_users_discord_id ON users (discord_id)`,
	`CREATE INDEX IF NOT EXISTS idx_past_staff_discord_id ON past_staff (discord_id)`,
	`CREATE INDEX IF NOT EXISTS idx_staff_documents_category ON staff_documents (category)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts (created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_events_starts_at ON events (starts_at)`,
}

// EnsureSchema creates any missing tables and indexes
func EnsureSchema(db DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
