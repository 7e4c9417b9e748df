package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"mediagw/internal/domain"
)

func TestEnqueueJob(t *testing.T) {
	store := &stubJobStore{}
	app := newTestApp(&stubRunner{}, store)

	body := `{"kind":"video-pro","category":"video","input":{"prompt":"a storm"},"steps":45}`
	req := httptest.NewRequest(http.MethodPost, "/v1/jobs", strings.NewReader(body))
	rec := httptest.NewRecorder()
	app.EnqueueJob(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if store.created == nil {
		t.Fatalf("expected job to be persisted")
	}
	if store.created.Kind != "video-pro" || store.created.Category != "video" {
		t.Fatalf("created job = %+v", store.created)
	}
	if store.created.Steps != 45 {
		t.Fatalf("steps = %d", store.created.Steps)
	}

	var resp jobResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID == "" || resp.Status != "queued" {
		t.Fatalf("response = %+v", resp)
	}
}

func TestEnqueueJobDefaultsKindToCategory(t *testing.T) {
	store := &stubJobStore{}
	app := newTestApp(&stubRunner{}, store)

	req := httptest.NewRequest(http.MethodPost, "/v1/jobs", strings.NewReader(`{"category":"music"}`))
	rec := httptest.NewRecorder()
	app.EnqueueJob(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d", rec.Code)
	}
	if store.created.Kind != "music" {
		t.Fatalf("kind = %q, want music", store.created.Kind)
	}
}

func TestEnqueueJobRejectsUnknownCategory(t *testing.T) {
	app := newTestApp(&stubRunner{}, &stubJobStore{})
	req := httptest.NewRequest(http.MethodPost, "/v1/jobs", strings.NewReader(`{"category":"hologram"}`))
	rec := httptest.NewRecorder()
	app.EnqueueJob(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func jobStatusRouter(app *App) http.Handler {
	r := chi.NewRouter()
	r.Get("/v1/jobs/{id}", app.JobStatus)
	return r
}

func TestJobStatusSucceededJob(t *testing.T) {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	store := &stubJobStore{jobs: map[string]*domain.Job{
		"job-1": {
			ID:         "job-1",
			Kind:       "image",
			Category:   "image",
			Status:     domain.JobStatusSucceeded,
			ResultJSON: []byte(`{"task_id":"task-9","output":{"image_urls":["https://cdn.test/a.png"]}}`),
			CreatedAt:  now,
			UpdatedAt:  now,
		},
	}}
	app := newTestApp(&stubRunner{}, store)

	req := httptest.NewRequest(http.MethodGet, "/v1/jobs/job-1", nil)
	rec := httptest.NewRecorder()
	jobStatusRouter(app).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		ID     string          `json:"id"`
		Status string          `json:"status"`
		Result json.RawMessage `json:"result"`
		Error  string          `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID != "job-1" || resp.Status != "succeeded" {
		t.Fatalf("response = %+v", resp)
	}
	if !strings.Contains(string(resp.Result), "task-9") {
		t.Fatalf("result = %s", resp.Result)
	}
	if resp.Error != "" {
		t.Fatalf("unexpected error field %q", resp.Error)
	}
}

func TestJobStatusFailedJobCarriesError(t *testing.T) {
	store := &stubJobStore{jobs: map[string]*domain.Job{
		"job-2": {
			ID:           "job-2",
			Kind:         "video",
			Category:     "video",
			Status:       domain.JobStatusFailed,
			ErrorMessage: "job_timed_out: generation: task t still pending",
		},
	}}
	app := newTestApp(&stubRunner{}, store)

	req := httptest.NewRequest(http.MethodGet, "/v1/jobs/job-2", nil)
	rec := httptest.NewRecorder()
	jobStatusRouter(app).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["status"] != "failed" {
		t.Fatalf("status = %v", resp["status"])
	}
	if resp["error"] != "job_timed_out: generation: task t still pending" {
		t.Fatalf("error = %v", resp["error"])
	}
}

func TestJobStatusNotFound(t *testing.T) {
	app := newTestApp(&stubRunner{}, &stubJobStore{jobs: map[string]*domain.Job{}})
	req := httptest.NewRequest(http.MethodGet, "/v1/jobs/missing", nil)
	rec := httptest.NewRecorder()
	jobStatusRouter(app).ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
