package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/kislikjeka/userregistry/migrations"
)

// Migrate applies pending schema migrations through a database/sql view of
// the pool. Each migration runs in its own transaction.
func Migrate(ctx context.Context, db *DB) ([]string, error) {
	sqlDB := stdlib.OpenDBFromPool(db.Pool)
	defer sqlDB.Close()

	return migrations.Up(ctx, sqlDB)
}
