package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mediagw/internal/adapter/repo"
	"mediagw/internal/domain"
	"mediagw/internal/generation"
	"mediagw/internal/infra"
	"mediagw/internal/providers/taskapi"
)

type jobWorker struct {
	ctx       context.Context
	jobs      *repo.JobRepositoryPG
	runner    *generation.Runner
	logger    infra.Logger
	apiKey    string
	pollEvery time.Duration
}

func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	client := taskapi.NewClient(taskapi.Options{
		BaseURL:        cfg.ProviderBaseURL,
		Logger:         &logger,
		RequestTimeout: cfg.ProviderTimeout,
	})
	runner := generation.NewRunner(generation.Options{
		Client: client,
		Logger: &logger,
	})

	worker := &jobWorker{
		ctx:       ctx,
		jobs:      repo.NewJobRepository(pool),
		runner:    runner,
		logger:    logger,
		apiKey:    cfg.ProviderAPIKey,
		pollEvery: cfg.WorkerPollEvery,
	}

	if err := worker.Run(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

func (w *jobWorker) Run() error {
	w.logger.Info().Msg("worker: started")
	for {
		select {
		case <-w.ctx.Done():
			return w.ctx.Err()
		default:
		}

		job, err := w.jobs.Claim(w.ctx)
		if err != nil {
			if errors.Is(err, domain.ErrNoJobAvailable) {
				w.idle()
				continue
			}
			if w.ctx.Err() != nil {
				return w.ctx.Err()
			}
			w.logger.Error().Err(err).Msg("worker: failed to claim job")
			w.idle()
			continue
		}

		w.handleJob(job)
	}
}

// idle waits one poll interval, returning early on shutdown.
func (w *jobWorker) idle() {
	select {
	case <-w.ctx.Done():
	case <-time.After(w.pollEvery):
	}
}

func (w *jobWorker) handleJob(job *domain.Job) {
	w.logger.Info().
		Str("job_id", job.ID).
		Str("kind", job.Kind).
		Str("category", job.Category).
		Msg("worker: picked job")

	res, err := w.process(job)
	if err != nil {
		w.logger.Error().Err(err).Str("job_id", job.ID).Msg("worker: job failed")
		if failErr := w.jobs.Fail(w.ctx, job.ID, classifyError(err)+": "+err.Error()); failErr != nil {
			w.logger.Error().Err(failErr).Str("job_id", job.ID).Msg("worker: record failure failed")
		}
		return
	}

	payload, err := json.Marshal(res)
	if err != nil {
		w.logger.Error().Err(err).Str("job_id", job.ID).Msg("worker: encode result failed")
		if failErr := w.jobs.Fail(w.ctx, job.ID, "internal: encode result: "+err.Error()); failErr != nil {
			w.logger.Error().Err(failErr).Str("job_id", job.ID).Msg("worker: record failure failed")
		}
		return
	}
	if err := w.jobs.Complete(w.ctx, job.ID, payload); err != nil {
		w.logger.Error().Err(err).Str("job_id", job.ID).Msg("worker: record completion failed")
	}
}

type jobResult struct {
	TaskID         string  `json:"task_id"`
	Usage          string  `json:"usage,omitempty"`
	Attempts       int     `json:"attempts"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	Output         any     `json:"output"`
}

func (w *jobWorker) process(job *domain.Job) (*jobResult, error) {
	category, ok := generation.ParseCategory(job.Category)
	if !ok {
		return nil, errors.New("worker: unsupported job category " + job.Category)
	}

	input := map[string]any{}
	if len(job.InputJSON) > 0 {
		if err := json.Unmarshal(job.InputJSON, &input); err != nil {
			return nil, errors.New("worker: decode job input: " + err.Error())
		}
	}

	res, err := w.runner.Run(w.ctx, w.apiKey, generation.Request{
		Kind:      job.Kind,
		Operation: job.Operation,
		Category:  category,
		Input:     input,
		Steps:     job.Steps,
	})
	if err != nil {
		return nil, err
	}

	return &jobResult{
		TaskID:         res.JobID,
		Usage:          res.Usage,
		Attempts:       res.Attempts,
		ElapsedSeconds: res.Elapsed.Seconds(),
		Output:         resultPayload(res.Output),
	}, nil
}

// classifyError labels the stored failure message with the error family so
// operators can filter failed rows without parsing free text.
func classifyError(err error) string {
	var (
		transportErr *taskapi.TransportError
		rejectedErr  *taskapi.ProviderRejectedError
		failedErr    *generation.JobFailedError
		timedOutErr  *generation.JobTimedOutError
		unknownErr   *generation.UnknownStateError
		invalidErr   *generation.ValidationError
		noResErr     *generation.NoResourceError
	)
	switch {
	case errors.As(err, &rejectedErr):
		return "provider_rejected"
	case errors.As(err, &timedOutErr):
		return "job_timed_out"
	case errors.As(err, &failedErr):
		return "job_failed"
	case errors.As(err, &unknownErr):
		return "unknown_job_state"
	case errors.As(err, &invalidErr):
		return "invalid_output"
	case errors.As(err, &noResErr):
		return "no_resource_found"
	case errors.As(err, &transportErr):
		return "provider_unreachable"
	default:
		return "internal"
	}
}

func resultPayload(o *generation.Output) any {
	if o == nil {
		return nil
	}
	switch o.Category {
	case generation.CategoryImage:
		return map[string]any{"image_urls": o.Image.URLs}
	case generation.CategoryVideo:
		return map[string]any{"video_url": o.Video.URL}
	case generation.CategoryAudio:
		return map[string]any{"audio_url": o.Audio.URL}
	case generation.CategoryModel3D:
		return map[string]any{
			"model_file":    o.Model3D.ModelFile,
			"preview_video": o.Model3D.PreviewVideo,
			"cutout_image":  o.Model3D.CutoutImage,
		}
	case generation.CategoryMusic:
		return map[string]any{"clips": o.Music.Clips}
	default:
		return nil
	}
}
