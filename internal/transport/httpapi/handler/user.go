package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kislikjeka/userregistry/internal/platform/user"
	"github.com/kislikjeka/userregistry/internal/transport/httpapi/middleware"
	"github.com/kislikjeka/userregistry/pkg/logger"
)

// maxBodyBytes caps request bodies on user routes
const maxBodyBytes = 1 << 20

// UserServiceInterface defines the user operations needed by UserHandler
type UserServiceInterface interface {
	Create(ctx context.Context, req user.CreateRequest) (*user.Response, error)
	GetByID(ctx context.Context, id int64) (*user.Response, error)
	List(ctx context.Context) ([]user.Response, error)
	Update(ctx context.Context, id int64, req user.UpdateRequest) (*user.Response, error)
	Delete(ctx context.Context, id int64) error
}

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	userService UserServiceInterface
	logger      *logger.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService UserServiceInterface, log *logger.Logger) *UserHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &UserHandler{
		userService: userService,
		logger:      log.WithField("component", "user_handler"),
	}
}

// UsersListResponse represents the response for listing users
type UsersListResponse struct {
	Users []user.Response `json:"users"`
}

// CreateUser handles POST /users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req user.CreateRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	created, err := h.userService.Create(r.Context(), req)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.audit(r, "user created via API", created.ID)
	w.Header().Set("Location", fmt.Sprintf("%s/%d", strings.TrimSuffix(r.URL.Path, "/"), created.ID))
	respondJSON(w, created, http.StatusCreated)
}

// GetUser handles GET /users/{id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	found, err := h.userService.GetByID(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, found, http.StatusOK)
}

// ListUsers handles GET /users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, UsersListResponse{Users: users}, http.StatusOK)
}

// UpdateUser handles PUT /users/{id}
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	var req user.UpdateRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	updated, err := h.userService.Update(r.Context(), id, req)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.audit(r, "user updated via API", id)
	respondJSON(w, updated, http.StatusOK)
}

// DeleteUser handles DELETE /users/{id}
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	if err := h.userService.Delete(r.Context(), id); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.audit(r, "user deleted via API", id)
	w.WriteHeader(http.StatusNoContent)
}

// audit records who changed a record; the subject is present only when
// bearer auth is enabled
func (h *UserHandler) audit(r *http.Request, msg string, id int64) {
	attrs := []any{"user_id", id}
	if subject, ok := middleware.GetSubjectFromContext(r.Context()); ok {
		attrs = append(attrs, "actor", subject)
	}
	h.logger.WithContext(r.Context()).Info(msg, attrs...)
}

// respondServiceError maps domain error kinds onto HTTP statuses
func (h *UserHandler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *user.ValidationError
	switch {
	case errors.As(err, &validationErr):
		respondJSON(w, ErrorResponse{
			Error:      user.ErrValidation.Error(),
			Violations: validationErr.Violations,
		}, http.StatusBadRequest)
	case errors.Is(err, user.ErrEmailAlreadyExists):
		respondError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, user.ErrUserNotFound):
		respondError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, user.ErrStoreUnavailable):
		// The cause is logged by the service; it is not echoed to clients
		respondError(w, user.ErrStoreUnavailable.Error(), http.StatusServiceUnavailable)
	default:
		h.logger.WithContext(r.Context()).WithError(err).Error("unhandled user handler error",
			"method", r.Method,
			"path", r.URL.Path,
		)
		respondError(w, "internal server error", http.StatusInternalServerError)
	}
}

// parseID reads the {id} path parameter
func parseID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &user.ValidationError{Violations: []user.Violation{
			{Field: "id", Reason: fmt.Sprintf("must be a positive integer, got %q", raw)},
		}}
	}
	return id, nil
}

// decodeBody decodes a JSON body into dst, reporting type mismatches as
// field violations
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	err := dec.Decode(dst)
	if err == nil {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &typeErr):
		reason := "has the wrong type"
		if typeErr.Field == user.FieldAge {
			reason = "must be an integer"
		}
		return &user.ValidationError{Violations: []user.Violation{{Field: typeErr.Field, Reason: reason}}}
	case errors.As(err, &maxErr):
		return &user.ValidationError{Violations: []user.Violation{{Field: "body", Reason: "request body too large"}}}
	case errors.Is(err, io.EOF):
		return &user.ValidationError{Violations: []user.Violation{{Field: "body", Reason: "request body is required"}}}
	default:
		return &user.ValidationError{Violations: []user.Violation{{Field: "body", Reason: "invalid JSON"}}}
	}
}
