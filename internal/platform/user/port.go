package user

import (
	"context"
)

// Repository defines the interface for user persistence operations.
//
// Implementations report a missing record with ErrUserNotFound and a
// store-level unique email violation with ErrEmailAlreadyExists. Any other
// failure is returned as-is. Each mutating call runs in its own transaction.
type Repository interface {
	// Create inserts a new user and assigns its ID
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id int64) (*User, error)

	// GetByEmail retrieves a user by exact email match
	GetByEmail(ctx context.Context, email string) (*User, error)

	// List returns a snapshot of all users ordered by ID
	List(ctx context.Context) ([]*User, error)

	// Update writes name, email and age of an existing user
	Update(ctx context.Context, user *User) error

	// Delete deletes a user
	Delete(ctx context.Context, id int64) error
}
