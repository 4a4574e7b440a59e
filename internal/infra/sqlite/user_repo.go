package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"github.com/kislikjeka/userregistry/internal/platform/user"
)

var userColumns = []string{"id", "name", "email", "age", "created_at"}

// UserRepository implements user.Repository on an embedded SQLite database
type UserRepository struct {
	db *sqlx.DB
	qb sq.StatementBuilderType
}

// NewUserRepository creates a repository on an opened database
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{
		db: db,
		qb: sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}
}

// Create inserts a user and sets the generated ID
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	query, args, err := r.qb.Insert("users").
		Columns("name", "email", "age", "created_at").
		Values(u.Name, u.Email, u.Age, u.CreatedAt.UTC()).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}

	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			if isUniqueViolation(err) {
				return user.ErrEmailAlreadyExists
			}
			return fmt.Errorf("failed to create user: %w", err)
		}

		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read user id: %w", err)
		}
		u.ID = id
		return nil
	})
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	return r.getOne(ctx, sq.Eq{"id": id})
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.getOne(ctx, sq.Eq{"email": email})
}

// List retrieves all users ordered by ID
func (r *UserRepository) List(ctx context.Context) ([]*user.User, error) {
	query, args, err := r.qb.Select(userColumns...).From("users").OrderBy("id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	users := make([]*user.User, 0)
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	for _, u := range users {
		u.CreatedAt = u.CreatedAt.UTC()
	}
	return users, nil
}

// Update writes name, email and age
func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	query, args, err := r.qb.Update("users").
		Set("name", u.Name).
		Set("email", u.Email).
		Set("age", u.Age).
		Where(sq.Eq{"id": u.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update: %w", err)
	}

	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			if isUniqueViolation(err) {
				return user.ErrEmailAlreadyExists
			}
			return fmt.Errorf("failed to update user: %w", err)
		}
		return requireRow(res)
	})
}

// Delete deletes a user
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	query, args, err := r.qb.Delete("users").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete: %w", err)
	}

	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return requireRow(res)
	})
}

// Ping checks the database handle
func (r *UserRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *UserRepository) getOne(ctx context.Context, where sq.Eq) (*user.User, error) {
	query, args, err := r.qb.Select(userColumns...).From("users").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	var u user.User
	if err := r.db.GetContext(ctx, &u, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

// withTx runs fn inside a transaction scoped to one call.
// fn must use tx only: the pool holds a single connection.
func (r *UserRepository) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
