// Package generation orchestrates one remote generation task from submission
// to a validated, extracted result: resolve the kind's profile, clamp the
// requested step count, submit, poll until terminal, validate the payload.
package generation

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"

	"mediagw/internal/infra"
	"mediagw/internal/providers/taskapi"
)

// Client is the provider surface the runner depends on.
type Client interface {
	CreateTask(ctx context.Context, apiKey string, req taskapi.CreateTaskRequest) (string, error)
	GetTask(ctx context.Context, apiKey, taskID string) (*taskapi.Task, error)
}

// Options configures a Runner.
type Options struct {
	Client   Client
	Logger   *infra.Logger
	Profiles map[string]Profile
}

// Runner is the composition root of the engine. Each Run call is an
// independent unit of work; concurrent calls share nothing mutable beyond the
// read-only profile registry.
type Runner struct {
	client   Client
	logger   *infra.Logger
	profiles map[string]Profile

	// injected for deterministic tests
	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// NewRunner constructs a runner with sane defaults and injected dependencies.
func NewRunner(opts Options) *Runner {
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	profs := opts.Profiles
	if profs == nil {
		profs = Profiles()
	}
	return &Runner{
		client:   opts.Client,
		logger:   logger,
		profiles: profs,
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// Request describes one generation to run. Input is opaque to the engine and
// meaningful only to the remote provider; the caller names the output
// category it expects, since request construction is a caller concern.
type Request struct {
	Kind      string
	Operation string
	Category  Category
	Input     map[string]any
	Steps     int
}

// Result is the outcome of a completed orchestration.
type Result struct {
	JobID    string
	Usage    string
	Attempts int
	Elapsed  time.Duration
	Output   *Output
}

// Run executes submit, poll and validate for one request. Any stage failure
// short-circuits the rest and is propagated with the task id attached when
// known; nothing here is fatal to the host process.
func (r *Runner) Run(ctx context.Context, apiKey string, req Request) (*Result, error) {
	prof, ok := r.profiles[req.Kind]
	if !ok {
		prof = DefaultProfile
		r.logger.Warn().
			Str("kind", req.Kind).
			Msg("generation: unknown kind, using default profile")
	}

	operation := req.Operation
	if operation == "" {
		operation = "generate"
	}

	steps := prof.ClampSteps(req.Steps)
	input := make(map[string]any, len(req.Input)+1)
	for k, v := range req.Input {
		input[k] = v
	}
	input["steps"] = steps

	taskID, err := r.client.CreateTask(ctx, apiKey, taskapi.CreateTaskRequest{
		Model:    req.Kind,
		TaskType: operation,
		Input:    input,
	})
	if err != nil {
		observeOutcome(req.Kind, err)
		return nil, err
	}

	r.logger.Info().
		Str("task_id", taskID).
		Str("kind", req.Kind).
		Str("operation", operation).
		Int("steps", steps).
		Str("api_key", taskapi.RedactCredential(apiKey)).
		Msg("generation: task submitted")

	task, attempts, elapsed, err := r.waitUntilTerminal(ctx, apiKey, taskID, req.Kind, prof)
	if err != nil {
		observeOutcome(req.Kind, err)
		r.logger.Error().Err(err).
			Str("task_id", taskID).
			Str("kind", req.Kind).
			Int("attempts", attempts).
			Msg("generation: task did not complete")
		return nil, err
	}

	output, err := ParseOutput(taskID, req.Category, task.Output)
	if err != nil {
		observeOutcome(req.Kind, err)
		return nil, err
	}

	observeOutcome(req.Kind, nil)
	taskDuration.WithLabelValues(req.Kind).Observe(elapsed.Seconds())
	r.logger.Info().
		Str("task_id", taskID).
		Str("kind", req.Kind).
		Int("attempts", attempts).
		Dur("elapsed", elapsed).
		Msg("generation: task completed")

	return &Result{
		JobID:    taskID,
		Usage:    task.Meta.UsageString(),
		Attempts: attempts,
		Elapsed:  elapsed,
		Output:   output,
	}, nil
}
