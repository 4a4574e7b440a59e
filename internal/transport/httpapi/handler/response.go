package handler

import (
	"encoding/json"
	"net/http"

	"github.com/kislikjeka/userregistry/internal/platform/user"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error      string           `json:"error"`
	Violations []user.Violation `json:"violations,omitempty"`
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	respondJSON(w, ErrorResponse{Error: message}, statusCode)
}

// NotFound answers unknown routes with a JSON body
func NotFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, "route not found", http.StatusNotFound)
}

// MethodNotAllowed answers known routes called with the wrong method
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondError(w, "method not allowed", http.StatusMethodNotAllowed)
}
