// Package usertest holds a behavioural suite every user.Repository must pass.
package usertest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kislikjeka/userregistry/internal/platform/user"
)

// Factory returns an empty repository for a single subtest
type Factory func(t *testing.T) user.Repository

// createdAt has no sub-microsecond part so every store round-trips it exactly
var createdAt = time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

// RunRepositoryContract exercises the repository contract against newRepo
func RunRepositoryContract(t *testing.T, newRepo Factory) {
	t.Run("create assigns id and stores full record", func(t *testing.T) {
		repo, ctx := newRepo(t), context.Background()

		u := newUser("John Doe", "john@example.com", 30)
		require.NoError(t, repo.Create(ctx, u))
		assert.NotZero(t, u.ID)

		got, err := repo.GetByID(ctx, u.ID)
		require.NoError(t, err)
		assertSameUser(t, u, got)

		second := newUser("Jane Roe", "jane@example.com", 25)
		require.NoError(t, repo.Create(ctx, second))
		assert.NotEqual(t, u.ID, second.ID)
	})

	t.Run("duplicate email rejected by the store", func(t *testing.T) {
		repo, ctx := newRepo(t), context.Background()

		require.NoError(t, repo.Create(ctx, newUser("John Doe", "john@example.com", 30)))
		err := repo.Create(ctx, newUser("Other John", "john@example.com", 40))
		assert.ErrorIs(t, err, user.ErrEmailAlreadyExists)

		users, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, users, 1)
	})

	t.Run("get by email is exact and case-sensitive", func(t *testing.T) {
		repo, ctx := newRepo(t), context.Background()

		u := newUser("John Doe", "john@example.com", 30)
		require.NoError(t, repo.Create(ctx, u))

		got, err := repo.GetByEmail(ctx, "john@example.com")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)

		_, err = repo.GetByEmail(ctx, "John@example.com")
		assert.ErrorIs(t, err, user.ErrUserNotFound)
	})

	t.Run("missing id is not found", func(t *testing.T) {
		repo, ctx := newRepo(t), context.Background()

		got, err := repo.GetByID(ctx, 999999)
		assert.ErrorIs(t, err, user.ErrUserNotFound)
		assert.Nil(t, got)
	})

	t.Run("update writes mutable fields only", func(t *testing.T) {
		repo, ctx := newRepo(t), context.Background()

		u := newUser("John Doe", "john@example.com", 30)
		require.NoError(t, repo.Create(ctx, u))

		changed := u.Clone()
		changed.Name = "Jane Doe"
		changed.Email = "jane@example.com"
		changed.Age = 31
		changed.CreatedAt = createdAt.Add(72 * time.Hour)
		require.NoError(t, repo.Update(ctx, changed))

		got, err := repo.GetByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "Jane Doe", got.Name)
		assert.Equal(t, "jane@example.com", got.Email)
		assert.Equal(t, 31, got.Age)
		assert.True(t, got.CreatedAt.Equal(createdAt), "created_at must not change, got %s", got.CreatedAt)

		_, err = repo.GetByEmail(ctx, "john@example.com")
		assert.ErrorIs(t, err, user.ErrUserNotFound, "old email should be released")
	})

	t.Run("update of missing id is not found", func(t *testing.T) {
		repo, ctx := newRepo(t), context.Background()

		u := newUser("John Doe", "john@example.com", 30)
		u.ID = 999999
		assert.ErrorIs(t, repo.Update(ctx, u), user.ErrUserNotFound)
	})

	t.Run("update onto a taken email is rejected", func(t *testing.T) {
		repo, ctx := newRepo(t), context.Background()

		john := newUser("John Doe", "john@example.com", 30)
		jane := newUser("Jane Roe", "jane@example.com", 25)
		require.NoError(t, repo.Create(ctx, john))
		require.NoError(t, repo.Create(ctx, jane))

		jane.Email = "john@example.com"
		assert.ErrorIs(t, repo.Update(ctx, jane), user.ErrEmailAlreadyExists)

		got, err := repo.GetByID(ctx, jane.ID)
		require.NoError(t, err)
		assert.Equal(t, "jane@example.com", got.Email)
	})

	t.Run("delete is terminal", func(t *testing.T) {
		repo, ctx := newRepo(t), context.Background()

		u := newUser("John Doe", "john@example.com", 30)
		require.NoError(t, repo.Create(ctx, u))

		require.NoError(t, repo.Delete(ctx, u.ID))

		_, err := repo.GetByID(ctx, u.ID)
		assert.ErrorIs(t, err, user.ErrUserNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, u.ID), user.ErrUserNotFound)

		// The email becomes available again
		assert.NoError(t, repo.Create(ctx, newUser("John Again", "john@example.com", 30)))
	})

	t.Run("list is ordered and stable", func(t *testing.T) {
		repo, ctx := newRepo(t), context.Background()

		empty, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, empty)

		for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
			require.NoError(t, repo.Create(ctx, newUser("Name "+email[:1], email, 20)))
		}

		first, err := repo.List(ctx)
		require.NoError(t, err)
		second, err := repo.List(ctx)
		require.NoError(t, err)

		require.Len(t, first, 3)
		assert.Equal(t, ids(first), ids(second))
		assert.IsIncreasing(t, ids(first))
	})

	t.Run("service scenario", func(t *testing.T) {
		RunServiceScenario(t, newRepo(t))
	})
}

// RunServiceScenario drives the service through create, duplicate, rename and delete
func RunServiceScenario(t *testing.T, repo user.Repository) {
	t.Helper()
	ctx := context.Background()
	svc := user.NewService(repo, nil)

	age := 30
	created, err := svc.Create(ctx, user.CreateRequest{Name: "John Doe", Email: "john@example.com", Age: &age})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	got, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, &user.Response{ID: created.ID, Name: "John Doe", Email: "john@example.com"}, got)

	_, err = svc.Create(ctx, user.CreateRequest{Name: "Johnny", Email: "john@example.com", Age: &age})
	var dupErr *user.EmailAlreadyExistsError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, "john@example.com", dupErr.Email)

	newName := "Jane Doe"
	_, err = svc.Update(ctx, created.ID, user.UpdateRequest{Name: &newName})
	require.NoError(t, err)

	got, err = svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", got.Name)
	assert.Equal(t, "john@example.com", got.Email)

	stored, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, stored.Age)

	require.NoError(t, svc.Delete(ctx, created.ID))

	_, err = svc.GetByID(ctx, created.ID)
	var nfErr *user.UserNotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, created.ID, nfErr.ID)
}

func newUser(name, email string, age int) *user.User {
	return &user.User{Name: name, Email: email, Age: age, CreatedAt: createdAt}
}

func assertSameUser(t *testing.T, want, got *user.User) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.Email, got.Email)
	assert.Equal(t, want.Age, got.Age)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt), "created_at: want %s, got %s", want.CreatedAt, got.CreatedAt)
}

func ids(users []*user.User) []int64 {
	out := make([]int64, len(users))
	for i, u := range users {
		out[i] = u.ID
	}
	return out
}
