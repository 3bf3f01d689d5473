// Package httpx provides HTTP response utilities shared by both services.
package httpx

import (
	"encoding/json"
	"net/http"
	"time"
)

// ErrorBody is the structured error payload rendered to callers.
type ErrorBody struct {
	Message   string    `json:"message"`
	Context   string    `json:"context,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Error sends the structured error body with the given status code.
func Error(w http.ResponseWriter, status int, message, context string) {
	JSON(w, status, ErrorBody{
		Message:   message,
		Context:   context,
		Timestamp: time.Now().UTC(),
	})
}

// DecodeJSON decodes the JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}
