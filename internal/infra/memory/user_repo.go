package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/kislikjeka/userregistry/internal/platform/user"
)

// UserRepository stores users in process memory.
// Email uniqueness is enforced by an index, the same way a unique constraint would.
type UserRepository struct {
	mu      sync.RWMutex
	nextID  int64
	users   map[int64]*user.User
	byEmail map[string]int64
}

// NewUserRepository returns an empty in-memory repository
func NewUserRepository() *UserRepository {
	return &UserRepository{
		users:   make(map[int64]*user.User),
		byEmail: make(map[string]int64),
	}
}

// Create inserts a user and assigns its ID
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[u.Email]; taken {
		return user.ErrEmailAlreadyExists
	}

	r.nextID++
	u.ID = r.nextID
	r.users[u.ID] = u.Clone()
	r.byEmail[u.Email] = u.ID
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return u.Clone(), nil
}

// GetByEmail retrieves a user by exact email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return r.users[id].Clone(), nil
}

// List returns copies of all users ordered by ID
func (r *UserRepository) List(ctx context.Context) ([]*user.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]*user.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u.Clone())
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

// Update writes name, email and age; ID and CreatedAt are kept from the stored record
func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.users[u.ID]
	if !ok {
		return user.ErrUserNotFound
	}

	if owner, taken := r.byEmail[u.Email]; taken && owner != u.ID {
		return user.ErrEmailAlreadyExists
	}

	delete(r.byEmail, stored.Email)
	stored.Name = u.Name
	stored.Email = u.Email
	stored.Age = u.Age
	r.byEmail[stored.Email] = stored.ID
	return nil
}

// Delete removes a user
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return user.ErrUserNotFound
	}
	delete(r.byEmail, u.Email)
	delete(r.users, id)
	return nil
}

// Ping always succeeds
func (r *UserRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}
