package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"mediagw/internal/domain"
	"mediagw/internal/generation"
)

type enqueueRequest struct {
	Kind      string         `json:"kind"`
	Operation string         `json:"operation"`
	Category  string         `json:"category"`
	Input     map[string]any `json:"input"`
	Steps     int            `json:"steps"`
}

type jobResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// EnqueueJob accepts a generation request for background execution.
func (a *App) EnqueueJob(w http.ResponseWriter, r *http.Request) {
	var req enqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	category, ok := generation.ParseCategory(req.Category)
	if !ok {
		a.error(w, http.StatusBadRequest, "bad_request", "unsupported category")
		return
	}
	kind := req.Kind
	if kind == "" {
		kind = string(category)
	}
	inputJSON, err := json.Marshal(req.Input)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid input payload")
		return
	}

	job := &domain.Job{
		ID:        uuid.NewString(),
		Kind:      kind,
		Operation: req.Operation,
		Category:  string(category),
		InputJSON: inputJSON,
		Steps:     req.Steps,
	}
	if err := a.Jobs.Create(r.Context(), job); err != nil {
		a.Logger.Error().Err(err).Msg("jobs: enqueue failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to queue job")
		return
	}
	a.json(w, http.StatusAccepted, jobResponse{ID: job.ID, Status: string(domain.JobStatusQueued)})
}

// JobStatus reports a queued job's current state and, when terminal, its
// result or classified error.
func (a *App) JobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "job id required")
		return
	}
	job, err := a.Jobs.GetByID(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "job not found")
			return
		}
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("jobs: status lookup failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load job")
		return
	}
	payload := map[string]any{
		"id":         job.ID,
		"kind":       job.Kind,
		"operation":  job.Operation,
		"category":   job.Category,
		"status":     job.Status,
		"created_at": job.CreatedAt,
		"updated_at": job.UpdatedAt,
	}
	if len(job.ResultJSON) > 0 {
		payload["result"] = json.RawMessage(job.ResultJSON)
	}
	if job.ErrorMessage != "" {
		payload["error"] = job.ErrorMessage
	}
	a.json(w, http.StatusOK, payload)
}
