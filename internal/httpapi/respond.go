package httpapi

import (
	"encoding/json"
	"net/http"
)

// errorResponse is the uniform error body. Optional slices carry the
// offending values back to the caller.
type errorResponse struct {
	Error              string   `json:"error"`
	Message            string   `json:"message,omitempty"`
	Invalid            []string `json:"invalid,omitempty"`
	InvalidAttachments any      `json:"invalidAttachments,omitempty"`
	RetryAfter         int      `json:"retryAfter,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
