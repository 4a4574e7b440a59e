package user

import (
	"time"
)

// User represents a registered user record
type User struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Age       int       `json:"age" db:"age"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CreateRequest carries the fields accepted when registering a user.
// Age is a pointer so that a missing value can be told apart from zero.
type CreateRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Age   *int   `json:"age"`
}

// UpdateRequest carries a partial update. Nil fields are left untouched.
type UpdateRequest struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

// IsEmpty reports whether the request changes nothing
func (r UpdateRequest) IsEmpty() bool {
	return r.Name == nil && r.Email == nil
}

// Response is the projection of a user returned to callers
type Response struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ToResponse projects the user onto the response shape
func (u *User) ToResponse() *Response {
	return &Response{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
	}
}

// Clone returns a copy of the user
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
