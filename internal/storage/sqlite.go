package storage

import (
	"database/sql"
	"errors"

	"github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		referral_code TEXT NOT NULL UNIQUE,
		referred_by TEXT NOT NULL DEFAULT '',
		profile_json TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS courses (id TEXT PRIMARY KEY, body TEXT NOT NULL, updated_at DATETIME NOT NULL);
	CREATE TABLE IF NOT EXISTS content (id TEXT PRIMARY KEY, body TEXT NOT NULL, updated_at DATETIME NOT NULL);
	CREATE TABLE IF NOT EXISTS ctas (id TEXT PRIMARY KEY, body TEXT NOT NULL, updated_at DATETIME NOT NULL);
	CREATE TABLE IF NOT EXISTS series (id TEXT PRIMARY KEY, body TEXT NOT NULL, updated_at DATETIME NOT NULL);
	CREATE TABLE IF NOT EXISTS funnels (id TEXT PRIMARY KEY, body TEXT NOT NULL, updated_at DATETIME NOT NULL);

	CREATE TABLE IF NOT EXISTS activities (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		body TEXT NOT NULL
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
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_referral_user_id ON referral_links(user_id);
`

func NewSQLiteRepository(dbPath string) (*SQLRepository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	// sqlite serializes writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	return newSQLRepository(db, dialect{
		name:     "sqlite",
		schema:   sqliteSchema,
		isUnique: isSQLiteUnique,
	})
}

func isSQLiteUnique(err error) bool {
	var serr sqlite3.Error
	if !errors.As(err, &serr) {
		return false
	}
	return serr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		serr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
