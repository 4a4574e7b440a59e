package user

import (
	"context"
	"errors"
	"time"

	"github.com/kislikjeka/userregistry/pkg/logger"
)

// Service handles user business logic
type Service struct {
	repo Repository
	log  *logger.Logger
	now  func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithClock overrides the clock used to stamp CreatedAt
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new user service
func NewService(repo Repository, log *logger.Logger, opts ...Option) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	s := &Service{
		repo: repo,
		log:  log.WithField("component", "user_service"),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a new user
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Response, error) {
	if err := ValidateCreate(req); err != nil {
		return nil, err
	}

	// Pre-check; the store's unique index remains the authoritative guard
	if err := s.ensureEmailFree(ctx, req.Email, 0); err != nil {
		return nil, err
	}

	u := &User{
		Name:      req.Name,
		Email:     req.Email,
		Age:       *req.Age,
		CreatedAt: s.now().UTC(),
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, s.storeError("create user", err, 0, u.Email)
	}

	s.log.Info("user created", "user_id", u.ID)
	return u.ToResponse(), nil
}

// GetByID retrieves a user by ID
func (s *Service) GetByID(ctx context.Context, id int64) (*Response, error) {
	u, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.ToResponse(), nil
}

// List retrieves all users, projected the same way as single lookups
func (s *Service) List(ctx context.Context) ([]Response, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, s.unavailable("list users", err)
	}

	result := make([]Response, 0, len(users))
	for _, u := range users {
		result = append(result, *u.ToResponse())
	}
	return result, nil
}

// Update applies a partial update. Age and CreatedAt are never changed here.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (*Response, error) {
	if err := ValidateUpdate(req); err != nil {
		return nil, err
	}

	u, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.IsEmpty() {
		return u.ToResponse(), nil
	}

	previousEmail := u.Email
	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Email != nil {
		u.Email = *req.Email
	}

	return s.save(ctx, u, previousEmail)
}

// UpdateField applies a single console edit. An unknown field leaves the
// record unchanged and is not an error.
func (s *Service) UpdateField(ctx context.Context, id int64, f FieldUpdate) (*Response, error) {
	u, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if !f.Known() {
		s.log.Warn("unknown field in update command, nothing changed",
			"user_id", id,
			"field", f.Field,
		)
		return u.ToResponse(), nil
	}

	previousEmail := u.Email
	if err := f.apply(u); err != nil {
		return nil, err
	}

	return s.save(ctx, u, previousEmail)
}

// Delete deletes a user
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.storeError("delete user", err, id, "")
	}

	s.log.Info("user deleted", "user_id", id)
	return nil
}

func (s *Service) load(ctx context.Context, id int64) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.storeError("get user", err, id, "")
	}
	return u, nil
}

func (s *Service) save(ctx context.Context, u *User, previousEmail string) (*Response, error) {
	if u.Email != previousEmail {
		if err := s.ensureEmailFree(ctx, u.Email, u.ID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, s.storeError("update user", err, u.ID, u.Email)
	}

	s.log.Info("user updated", "user_id", u.ID)
	return u.ToResponse(), nil
}

// ensureEmailFree fails if a record other than selfID holds the email
func (s *Service) ensureEmailFree(ctx context.Context, email string, selfID int64) error {
	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil
		}
		return s.unavailable("check email", err)
	}

	if existing.ID != selfID {
		return &EmailAlreadyExistsError{Email: email}
	}
	return nil
}

// storeError maps repository sentinels to the domain error kinds
func (s *Service) storeError(op string, err error, id int64, email string) error {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return &UserNotFoundError{ID: id}
	case errors.Is(err, ErrEmailAlreadyExists):
		return &EmailAlreadyExistsError{Email: email}
	}
	return s.unavailable(op, err)
}

func (s *Service) unavailable(op string, err error) error {
	s.log.WithError(err).Error("user store failure", "operation", op)
	return &StoreUnavailableError{Op: op, Err: err}
}
