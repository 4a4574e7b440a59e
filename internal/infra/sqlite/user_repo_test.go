package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kislikjeka/userregistry/internal/platform/user"
	"github.com/kislikjeka/userregistry/internal/platform/user/usertest"
)

func newTestRepository(t *testing.T) *UserRepository {
	t.Helper()

	db, err := Open(context.Background(), MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewUserRepository(db)
}

func TestUserRepository_Contract(t *testing.T) {
	usertest.RunRepositoryContract(t, func(t *testing.T) user.Repository {
		return newTestRepository(t)
	})
}

func TestUserRepository_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "users.db")

	db, err := Open(ctx, path)
	require.NoError(t, err)
	u := &user.User{Name: "John Doe", Email: "john@example.com", Age: 30}
	require.NoError(t, NewUserRepository(db).Create(ctx, u))
	require.NoError(t, db.Close())

	db, err = Open(ctx, path)
	require.NoError(t, err)
	defer db.Close()

	got, err := NewUserRepository(db).GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "john@example.com", got.Email)
}

func TestUserRepository_Ping(t *testing.T) {
	repo := newTestRepository(t)
	assert.NoError(t, repo.Ping(context.Background()))
}

func TestDSN(t *testing.T) {
	assert.Equal(t, MemoryPath, dsn(""))
	assert.Equal(t, MemoryPath, dsn(MemoryPath))
	assert.Equal(t, "file:test.db?mode=ro", dsn("file:test.db?mode=ro"))
	assert.Equal(t, "file:/tmp/users.db?_busy_timeout=5000&_journal_mode=WAL", dsn("/tmp/users.db"))
}
