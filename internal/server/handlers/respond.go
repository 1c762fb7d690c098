// Package handlers implements the HTTP endpoints of the job server.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/inferbatch/inferbatch/internal/server/middleware"
)

// ErrorBody is the uniform JSON error payload.
type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

type errorEnvelope struct {
	Error ErrorBody `json:"error"`
}

// RespondJSON writes v as JSON with the given status.
func RespondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// RespondError writes a uniform JSON error envelope, carrying the request's
// correlation ID when one is present.
func RespondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	RespondJSON(w, status, errorEnvelope{Error: ErrorBody{
		Code:      code,
		Message:   message,
		RequestID: middleware.GetRequestID(r.Context()),
	}})
}
