package user

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Front doors dispatch on these with errors.Is.
var (
	ErrValidation         = errors.New("validation failed")
	ErrEmailAlreadyExists = errors.New("user with this email already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrStoreUnavailable   = errors.New("user store unavailable")
)

// Violation describes one rejected input field
type Violation struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError lists every field the caller got wrong
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Reason)
	}
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// HasField reports whether the given field was rejected
func (e *ValidationError) HasField(field string) bool {
	for _, v := range e.Violations {
		if v.Field == field {
			return true
		}
	}
	return false
}

// EmailAlreadyExistsError is returned when the email is held by another record
type EmailAlreadyExistsError struct {
	Email string
}

func (e *EmailAlreadyExistsError) Error() string {
	return fmt.Sprintf("user with email %q already exists", e.Email)
}

func (e *EmailAlreadyExistsError) Is(target error) bool {
	return target == ErrEmailAlreadyExists
}

// UserNotFoundError is returned when no record has the requested id
type UserNotFoundError struct {
	ID int64
}

func (e *UserNotFoundError) Error() string {
	return fmt.Sprintf("user %d not found", e.ID)
}

func (e *UserNotFoundError) Is(target error) bool {
	return target == ErrUserNotFound
}

// StoreUnavailableError wraps an infrastructure failure of the record store
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStoreUnavailable.Error(), e.Op, e.Err)
}

func (e *StoreUnavailableError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

func (e *StoreUnavailableError) Unwrap() error {
	return e.Err
}

// violations accumulates field failures while validating
type violations []Violation

func (v *violations) add(field string, err error) {
	if err != nil {
		*v = append(*v, Violation{Field: field, Reason: err.Error()})
	}
}

func (v violations) err() error {
	if len(v) == 0 {
		return nil
	}
	return &ValidationError{Violations: v}
}

// invalid builds a single-field validation error
func invalid(field, reason string) error {
	return &ValidationError{Violations: []Violation{{Field: field, Reason: reason}}}
}
