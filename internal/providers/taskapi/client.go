// Package taskapi implements the HTTP client for the remote generation
// provider's task API: one call to create a task, one call to read its status.
package taskapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"mediagw/internal/infra"
)

// ErrMissingAPIKey indicates that a call was attempted without credentials.
var ErrMissingAPIKey = errors.New("taskapi: api key is required")

// Options configures the task API client.
type Options struct {
	BaseURL        string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client performs HTTP calls against the provider's task endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *infra.Logger
}

// CreateTaskRequest is the body of a task creation call.
type CreateTaskRequest struct {
	Model    string         `json:"model"`
	TaskType string         `json:"task_type"`
	Input    map[string]any `json:"input"`
}

// Task is the provider's view of a submitted task.
type Task struct {
	TaskID string          `json:"task_id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  *TaskError      `json:"error"`
	Meta   TaskMeta        `json:"meta"`
}

// TaskError carries the provider's failure detail for a task.
type TaskError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// TaskMeta echoes provider-side accounting for a task.
type TaskMeta struct {
	Usage     json.RawMessage `json:"usage"`
	StartedAt string          `json:"started_at"`
	EndedAt   string          `json:"ended_at"`
}

// UsageString renders the opaque usage counter for callers.
func (m TaskMeta) UsageString() string {
	if len(m.Usage) == 0 {
		return ""
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, m.Usage); err != nil {
		return strings.TrimSpace(string(m.Usage))
	}
	return strings.Trim(compact.String(), `"`)
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.goapi.ai/api/v1"
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{baseURL: baseURL, httpClient: httpClient, logger: logger}
}

// CreateTask submits one task and returns the provider-assigned task id.
// Exactly one outbound request is made; a failure here is terminal for the
// orchestration attempt.
func (c *Client) CreateTask(ctx context.Context, apiKey string, req CreateTaskRequest) (string, error) {
	if strings.TrimSpace(apiKey) == "" {
		return "", ErrMissingAPIKey
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("taskapi: encode request: %w", err)
	}
	data, err := c.do(ctx, http.MethodPost, c.baseURL+"/task", apiKey, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	var created struct {
		TaskID string `json:"task_id"`
	}
	if err := json.Unmarshal(data, &created); err != nil {
		return "", fmt.Errorf("taskapi: decode create response: %w", err)
	}
	if created.TaskID == "" {
		return "", &ProviderRejectedError{Op: "create task", Message: "response missing task_id"}
	}
	c.logger.Debug().
		Str("task_id", created.TaskID).
		Str("model", req.Model).
		Str("task_type", req.TaskType).
		Str("api_key", RedactCredential(apiKey)).
		Msg("taskapi: task created")
	return created.TaskID, nil
}

// GetTask performs a single status query for the given task id.
func (c *Client) GetTask(ctx context.Context, apiKey, taskID string) (*Task, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if strings.TrimSpace(taskID) == "" {
		return nil, fmt.Errorf("taskapi: task id is required")
	}
	data, err := c.do(ctx, http.MethodGet, c.baseURL+"/task/"+taskID, apiKey, nil)
	if err != nil {
		return nil, err
	}
	var task Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("taskapi: decode task %s: %w", taskID, err)
	}
	if task.TaskID == "" {
		task.TaskID = taskID
	}
	return &task, nil
}

// do runs one HTTP exchange and unwraps the provider envelope. Non-2xx
// responses keep status and body text for diagnostics; a 2xx envelope with a
// non-success application code is a provider rejection.
func (c *Client) do(ctx context.Context, method, url, apiKey string, body io.Reader) (json.RawMessage, error) {
	httpReq, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("taskapi: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-Key", apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Op: method + " " + url, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: method + " " + url, StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TransportError{
			Op:         method + " " + url,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(raw)),
		}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("taskapi: decode envelope: %w", err)
	}
	if env.Code != http.StatusOK {
		return nil, &ProviderRejectedError{Op: method + " " + url, Code: env.Code, Message: env.Message}
	}
	return env.Data, nil
}
