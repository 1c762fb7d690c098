package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/inferbatch/inferbatch/internal/config"
	"github.com/inferbatch/inferbatch/internal/jobs"
)

// JobsHandler exposes the job registry over HTTP.
type JobsHandler struct {
	Manager *jobs.Manager
}

// Submit handles POST /jobs. A valid submission is accepted immediately and
// runs in the background; the response carries the job ID for polling.
func (h *JobsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req jobs.Request
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "INVALID_REQUEST", "malformed JSON body: "+err.Error())
		return
	}

	job, err := h.Manager.Submit(req)
	if err != nil {
		var cfgErr *config.ConfigError
		if errors.As(err, &cfgErr) {
			RespondError(w, r, http.StatusBadRequest, "INVALID_CONFIGURATION", cfgErr.Reason)
			return
		}
		RespondError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}

	RespondJSON(w, http.StatusAccepted, job)
}

// List handles GET /jobs.
func (h *JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, h.Manager.List())
}

// Get handles GET /jobs/{id}.
func (h *JobsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, ok := h.Manager.Get(id)
	if !ok {
		RespondError(w, r, http.StatusNotFound, "NOT_FOUND", "no job with id "+id)
		return
	}
	RespondJSON(w, http.StatusOK, job)
}
