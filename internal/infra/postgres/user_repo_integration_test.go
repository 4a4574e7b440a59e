//go:build integration

package postgres

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kislikjeka/userregistry/internal/platform/user"
	"github.com/kislikjeka/userregistry/internal/platform/user/usertest"
	"github.com/kislikjeka/userregistry/testutil/testdb"
)

var testDB *testdb.TestDB

func TestMain(m *testing.M) {
	ctx := context.Background()

	var err error
	testDB, err = testdb.NewTestDB(ctx)
	if err != nil {
		panic("failed to create test database: " + err.Error())
	}

	code := m.Run()

	testDB.Close(ctx)
	if code != 0 {
		panic("tests failed")
	}
}

func setupTest(t *testing.T) (*UserRepository, context.Context) {
	ctx := context.Background()
	require.NoError(t, testDB.Reset(ctx))

	return NewUserRepository(testDB.Pool), ctx
}

func TestUserRepository_Contract(t *testing.T) {
	usertest.RunRepositoryContract(t, func(t *testing.T) user.Repository {
		repo, _ := setupTest(t)
		return repo
	})
}

func TestUserRepository_ConcurrentCreatesKeepEmailUnique(t *testing.T) {
	repo, ctx := setupTest(t)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.Create(ctx, &user.User{Name: "John Doe", Email: "john@example.com", Age: 30})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, user.ErrEmailAlreadyExists)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
}

func TestMigrate_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := &DB{Pool: testDB.Pool}

	// The test container was migrated at startup, so nothing is pending
	applied, err := Migrate(ctx, db)
	require.NoError(t, err)
	assert.Empty(t, applied)

	var version int64
	require.NoError(t, testDB.Pool.QueryRow(ctx,
		`SELECT max(version_id) FROM goose_db_version WHERE is_applied`).Scan(&version))
	assert.Equal(t, int64(1), version)
}

func TestNewPool_BadURL(t *testing.T) {
	_, err := NewPool(context.Background(), Config{URL: "://not-a-url"})
	assert.Error(t, err)
}
