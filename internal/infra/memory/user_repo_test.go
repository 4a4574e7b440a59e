package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kislikjeka/userregistry/internal/platform/user"
	"github.com/kislikjeka/userregistry/internal/platform/user/usertest"
)

func TestUserRepository_Contract(t *testing.T) {
	usertest.RunRepositoryContract(t, func(t *testing.T) user.Repository {
		return NewUserRepository()
	})
}

func TestUserRepository_ReturnsCopies(t *testing.T) {
	repo, ctx := NewUserRepository(), context.Background()

	u := &user.User{Name: "John Doe", Email: "john@example.com", Age: 30}
	require.NoError(t, repo.Create(ctx, u))

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	got.Name = "Mutated"

	again, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "John Doe", again.Name)
}

func TestUserRepository_ConcurrentCreatesKeepEmailUnique(t *testing.T) {
	repo, ctx := NewUserRepository(), context.Background()

	const workers = 16
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

func TestUserRepository_CancelledContext(t *testing.T) {
	repo := NewUserRepository()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.List(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
