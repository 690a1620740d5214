package handlers

import (
	"encoding/json"
	"net/http"
)

// apiError is the uniform error envelope every endpoint returns. The error
// field is a stable machine-readable code; message is for humans.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(apiError{Error: errorCode, Message: message})
}

// badRequest, methodNotAllowed and internalError cover the three error shapes
// the chat surface produces.
func badRequest(w http.ResponseWriter, message string) {
	_ = ErrorResponse(w, http.StatusBadRequest, "bad_request", message)
}

func methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	_ = ErrorResponse(w, http.StatusMethodNotAllowed, "method_not_allowed", "use "+allowed)
}

func internalError(w http.ResponseWriter, message string) {
	_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", message)
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}
