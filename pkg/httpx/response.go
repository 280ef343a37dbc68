package httpx

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the uniform error body for the API.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteJSON writes a JSON response with the given status code. Token-bearing
// responses must not be cached, so no-store headers are always set.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes a uniform JSON error body.
func WriteError(w http.ResponseWriter, code int, kind, message string) {
	WriteJSON(w, code, ErrorResponse{Error: kind, Message: message})
}

// NoCache sets Cache-Control and Pragma headers to prevent caching.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}
