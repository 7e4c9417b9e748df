package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"mediagw/internal/domain"
	"mediagw/internal/generation"
	"mediagw/internal/infra"
)

// Runner is the orchestration surface the handlers depend on.
type Runner interface {
	Run(ctx context.Context, apiKey string, req generation.Request) (*generation.Result, error)
}

// JobStore persists queued generation requests for the async surface.
type JobStore interface {
	Create(ctx context.Context, job *domain.Job) error
	GetByID(ctx context.Context, jobID string) (*domain.Job, error)
}

// App bundles the dependencies shared by all HTTP handlers.
type App struct {
	Logger        infra.Logger
	Runner        Runner
	Jobs          JobStore
	DefaultAPIKey string
}

// NewApp wires the handler container.
func NewApp(logger infra.Logger, runner Runner, jobs JobStore, defaultAPIKey string) *App {
	return &App{Logger: logger, Runner: runner, Jobs: jobs, DefaultAPIKey: defaultAPIKey}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, msg string) {
	a.json(w, status, map[string]string{"error": code, "message": msg})
}

// apiKey resolves the credential for one call: caller-supplied header first,
// then the server-wide default.
func (a *App) apiKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	return a.DefaultAPIKey
}
