package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id         INTEGER  PRIMARY KEY AUTOINCREMENT,
    name       TEXT     NOT NULL,
    email      TEXT     NOT NULL,
    age        INTEGER  NOT NULL CHECK (age >= 0),
    created_at DATETIME NOT NULL,
    CONSTRAINT users_email_key UNIQUE (email)
);
`

// MemoryPath opens a private in-memory database
const MemoryPath = ":memory:"

// Open opens (creating if needed) the database at path and ensures the schema.
// SQLite serialises writers, so the pool is limited to one connection; this
// also keeps an in-memory database alive for the lifetime of the handle.
func Open(ctx context.Context, path string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return db, nil
}

func dsn(path string) string {
	if path == "" || path == MemoryPath {
		return MemoryPath
	}
	if strings.HasPrefix(path, "file:") {
		return path
	}
	return "file:" + path + "?_busy_timeout=5000&_journal_mode=WAL"
}
