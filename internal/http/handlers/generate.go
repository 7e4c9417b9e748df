package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"mediagw/internal/generation"
	"mediagw/internal/middleware"
	"mediagw/internal/providers/taskapi"
)

type generateRequest struct {
	Model     string         `json:"model"`
	Operation string         `json:"operation"`
	Input     map[string]any `json:"input"`
	Steps     int            `json:"steps"`
}

type generateResponse struct {
	JobID          string  `json:"job_id"`
	Usage          string  `json:"usage,omitempty"`
	Attempts       int     `json:"attempts"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	Output         any     `json:"output"`
}

func (a *App) GenerateImages(w http.ResponseWriter, r *http.Request) {
	a.generate(w, r, generation.CategoryImage)
}

func (a *App) GenerateVideos(w http.ResponseWriter, r *http.Request) {
	a.generate(w, r, generation.CategoryVideo)
}

func (a *App) GenerateAudio(w http.ResponseWriter, r *http.Request) {
	a.generate(w, r, generation.CategoryAudio)
}

func (a *App) GenerateModels3D(w http.ResponseWriter, r *http.Request) {
	a.generate(w, r, generation.CategoryModel3D)
}

func (a *App) GenerateMusic(w http.ResponseWriter, r *http.Request) {
	a.generate(w, r, generation.CategoryMusic)
}

// generate runs one submit-and-wait orchestration inline. The endpoint fixes
// the output category; the request picks the model kind within it.
func (a *App) generate(w http.ResponseWriter, r *http.Request, category generation.Category) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	apiKey := a.apiKey(r)
	if apiKey == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing api key")
		return
	}
	kind := req.Model
	if kind == "" {
		kind = string(category)
	}
	input := make(map[string]any, len(req.Input)+1)
	for k, v := range req.Input {
		input[k] = v
	}
	if _, ok := input["locale"]; !ok {
		if locale := middleware.LocaleFromContext(r.Context()); locale != "" {
			input["locale"] = locale
		}
	}

	res, err := a.Runner.Run(r.Context(), apiKey, generation.Request{
		Kind:      kind,
		Operation: req.Operation,
		Category:  category,
		Input:     input,
		Steps:     req.Steps,
	})
	if err != nil {
		a.writeRunError(w, err)
		return
	}

	a.json(w, http.StatusOK, generateResponse{
		JobID:          res.JobID,
		Usage:          res.Usage,
		Attempts:       res.Attempts,
		ElapsedSeconds: res.Elapsed.Seconds(),
		Output:         outputPayload(res.Output),
	})
}

// writeRunError maps the engine's error taxonomy to HTTP statuses. Every
// branch carries the engine's message, which already names the task id when
// one was assigned.
func (a *App) writeRunError(w http.ResponseWriter, err error) {
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
	case errors.Is(err, taskapi.ErrMissingAPIKey):
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing api key")
	case errors.As(err, &rejectedErr):
		a.error(w, http.StatusUnprocessableEntity, "provider_rejected", rejectedErr.Error())
	case errors.As(err, &timedOutErr):
		a.error(w, http.StatusGatewayTimeout, "job_timed_out", timedOutErr.Error())
	case errors.As(err, &failedErr):
		a.error(w, http.StatusBadGateway, "job_failed", failedErr.Error())
	case errors.As(err, &unknownErr):
		a.error(w, http.StatusBadGateway, "unknown_job_state", unknownErr.Error())
	case errors.As(err, &invalidErr):
		a.error(w, http.StatusBadGateway, "invalid_output", invalidErr.Error())
	case errors.As(err, &noResErr):
		a.error(w, http.StatusBadGateway, "no_resource_found", noResErr.Error())
	case errors.As(err, &transportErr):
		a.error(w, http.StatusBadGateway, "provider_unreachable", transportErr.Error())
	default:
		a.Logger.Error().Err(err).Msg("generate: unclassified failure")
		a.error(w, http.StatusInternalServerError, "internal", "generation failed")
	}
}

// outputPayload renders the category-specific result shape.
func outputPayload(o *generation.Output) any {
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
