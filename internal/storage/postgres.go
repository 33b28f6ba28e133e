package storage

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		referral_code TEXT NOT NULL UNIQUE,
		referred_by TEXT NOT NULL DEFAULT '',
		profile_json JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS courses (id TEXT PRIMARY KEY, body JSONB NOT NULL, updated_at TIMESTAMPTZ NOT NULL);
	CREATE TABLE IF NOT EXISTS content (id TEXT PRIMARY KEY, body JSONB NOT NULL, updated_at TIMESTAMPTZ NOT NULL);
	CREATE TABLE IF NOT EXISTS ctas (id TEXT PRIMARY KEY, body JSONB NOT NULL, updated_at TIMESTAMPTZ NOT NULL);
	CREATE TABLE IF NOT EXISTS series (id TEXT PRIMARY KEY, body JSONB NOT NULL, updated_at TIMESTAMPTZ NOT NULL);
	CREATE TABLE IF NOT EXISTS funnels (id TEXT PRIMARY KEY, body JSONB NOT NULL, updated_at TIMESTAMPTZ NOT NULL);

	CREATE TABLE IF NOT EXISTS activities (
		id TEXT PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL,
		body JSONB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_activities_created_at ON activities(created_at);

	CREATE TABLE IF NOT EXISTS referral_links (
		code TEXT PRIMARY KEY,
		id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		campaign TEXT NOT NULL,
		destination TEXT NOT NULL,
		visits INTEGER NOT NULL DEFAULT 0,
		signups INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_referral_user_id ON referral_links(user_id);
`

func NewPostgresRepository(connStr string) (*SQLRepository, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	return newSQLRepository(db, dialect{
		name:     "postgres",
		schema:   postgresSchema,
		numbered: true,
		isUnique: isPostgresUnique,
	})
}

func isPostgresUnique(err error) bool {
	var perr *pq.Error
	if !errors.As(err, &perr) {
		return false
	}
	return perr.Code == "23505"
}
