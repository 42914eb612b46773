// Package sqlite implements the store driver on modernc's pure-Go SQLite.
package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	// Registers the "sqlite" database/sql driver.
	_ "modernc.org/sqlite"

	"github.com/studysense/studysense/internal/profile"
	"github.com/studysense/studysense/store"
)

// DB is the SQLite implementation of store.Driver.
type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

var _ store.Driver = (*DB)(nil)

// NewDB opens the database at profile.DSN.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn is required")
	}
	db, err := sql.Open("sqlite", profile.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database %q", profile.DSN)
	}
	// SQLite serializes writes anyway; a single connection avoids
	// SQLITE_BUSY under concurrent handlers.
	db.SetMaxOpenConns(1)

	return &DB{db: db, profile: profile}, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS user (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	picture TEXT NOT NULL DEFAULT '',
	role TEXT NOT NULL DEFAULT '',
	department TEXT NOT NULL DEFAULT '',
	password_salt TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	created_at TEXT NOT NULL,
	last_login_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
`

// Migrate creates the schema when missing.
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "failed to apply schema")
	}
	return nil
}
