package generation

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"mediagw/internal/providers/taskapi"
)

// scriptedClient returns a fixed task id on create and replays a status
// sequence on successive polls.
type scriptedClient struct {
	mu sync.Mutex

	createTaskID string
	createErr    error
	createCalls  int
	lastCreate   taskapi.CreateTaskRequest

	tasks    []*taskapi.Task
	getErr   error
	getCalls int
}

func (c *scriptedClient) CreateTask(_ context.Context, _ string, req taskapi.CreateTaskRequest) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.createCalls++
	c.lastCreate = req
	if c.createErr != nil {
		return "", c.createErr
	}
	return c.createTaskID, nil
}

func (c *scriptedClient) GetTask(_ context.Context, _, _ string) (*taskapi.Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.getCalls++
	if c.getErr != nil {
		return nil, c.getErr
	}
	idx := c.getCalls - 1
	if idx >= len(c.tasks) {
		idx = len(c.tasks) - 1
	}
	return c.tasks[idx], nil
}

func task(status string, output string) *taskapi.Task {
	t := &taskapi.Task{TaskID: "task-1", Status: status}
	if output != "" {
		t.Output = json.RawMessage(output)
	}
	return t
}

// fakeClock advances a synthetic clock on every sleep so elapsed time is
// deterministic.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	c.sleeps = append(c.sleeps, d)
	return nil
}

func newTestRunner(client *scriptedClient, clock *fakeClock) *Runner {
	r := NewRunner(Options{Client: client})
	r.now = clock.Now
	r.sleep = clock.Sleep
	return r
}

func TestRunCompletesAfterPolling(t *testing.T) {
	client := &scriptedClient{
		createTaskID: "task-1",
		tasks: []*taskapi.Task{
			task("pending", ""),
			task("processing", ""),
			task("completed", `{"image_url":"https://cdn.test/a.png"}`),
		},
	}
	clock := newFakeClock()
	runner := newTestRunner(client, clock)

	res, err := runner.Run(context.Background(), "key-abcdef12", Request{
		Kind:     "image",
		Category: CategoryImage,
		Input:    map[string]any{"prompt": "a lighthouse"},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.JobID != "task-1" {
		t.Fatalf("job id = %q", res.JobID)
	}
	if res.Attempts != 3 {
		t.Fatalf("attempts = %d, want 3", res.Attempts)
	}
	if client.getCalls != 3 {
		t.Fatalf("status queries = %d, want 3", client.getCalls)
	}
	// image profile: 180s / 30 attempts capped at 5s, two sleeps before the
	// terminal poll.
	if want := 10 * time.Second; res.Elapsed != want {
		t.Fatalf("elapsed = %v, want %v", res.Elapsed, want)
	}
	if res.Output == nil || res.Output.Image == nil {
		t.Fatalf("expected image output, got %+v", res.Output)
	}
	if len(res.Output.Image.URLs) != 1 || res.Output.Image.URLs[0] != "https://cdn.test/a.png" {
		t.Fatalf("urls = %v", res.Output.Image.URLs)
	}
}

func TestRunClampsStepsIntoInput(t *testing.T) {
	client := &scriptedClient{
		createTaskID: "task-1",
		tasks:        []*taskapi.Task{task("completed", `{"image_url":"https://cdn.test/a.png"}`)},
	}
	runner := newTestRunner(client, newFakeClock())

	_, err := runner.Run(context.Background(), "key-abcdef12", Request{
		Kind:     "image",
		Category: CategoryImage,
		Steps:    999,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := client.lastCreate.Input["steps"]; got != 50 {
		t.Fatalf("submitted steps = %v, want 50", got)
	}
	if client.lastCreate.TaskType != "generate" {
		t.Fatalf("task type = %q, want generate", client.lastCreate.TaskType)
	}
}

func TestRunUnknownKindUsesDefaultProfile(t *testing.T) {
	client := &scriptedClient{
		createTaskID: "task-1",
		tasks:        []*taskapi.Task{task("completed", `{"image_url":"https://cdn.test/a.png"}`)},
	}
	runner := newTestRunner(client, newFakeClock())

	res, err := runner.Run(context.Background(), "key-abcdef12", Request{
		Kind:     "hologram",
		Category: CategoryImage,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := client.lastCreate.Input["steps"]; got != DefaultProfile.DefaultSteps {
		t.Fatalf("submitted steps = %v, want %d", got, DefaultProfile.DefaultSteps)
	}
	if res.Output == nil {
		t.Fatalf("expected output")
	}
}

func TestRunExhaustsAttemptBudget(t *testing.T) {
	client := &scriptedClient{
		createTaskID: "task-1",
		tasks:        []*taskapi.Task{task("pending", "")},
	}
	clock := newFakeClock()
	runner := NewRunner(Options{
		Client: client,
		Profiles: map[string]Profile{
			"image": {DefaultSteps: 25, MaxSteps: 50, MaxAttempts: 3, Timeout: time.Hour},
		},
	})
	runner.now = clock.Now
	runner.sleep = clock.Sleep

	_, err := runner.Run(context.Background(), "key-abcdef12", Request{
		Kind:     "image",
		Category: CategoryImage,
	})
	var timedOut *JobTimedOutError
	if !errors.As(err, &timedOut) {
		t.Fatalf("err = %v, want JobTimedOutError", err)
	}
	if timedOut.Attempts != 3 {
		t.Fatalf("attempts = %d, want 3", timedOut.Attempts)
	}
	if client.getCalls != 3 {
		t.Fatalf("status queries = %d, want exactly 3", client.getCalls)
	}
}

func TestRunExhaustsWallClockBudget(t *testing.T) {
	client := &scriptedClient{
		createTaskID: "task-1",
		tasks:        []*taskapi.Task{task("pending", "")},
	}
	clock := newFakeClock()
	runner := NewRunner(Options{
		Client: client,
		Profiles: map[string]Profile{
			"image": {DefaultSteps: 25, MaxSteps: 50, MaxAttempts: 1000, Timeout: 250 * time.Millisecond},
		},
	})
	runner.now = clock.Now
	runner.sleep = clock.Sleep

	_, err := runner.Run(context.Background(), "key-abcdef12", Request{
		Kind:     "image",
		Category: CategoryImage,
	})
	var timedOut *JobTimedOutError
	if !errors.As(err, &timedOut) {
		t.Fatalf("err = %v, want JobTimedOutError", err)
	}
	if timedOut.Elapsed < 250*time.Millisecond {
		t.Fatalf("elapsed = %v, want >= 250ms", timedOut.Elapsed)
	}
	if client.getCalls >= 1000 {
		t.Fatalf("wall clock must stop polling before the attempt budget, got %d queries", client.getCalls)
	}
}

func TestRunStopsOnFirstFailedState(t *testing.T) {
	client := &scriptedClient{
		createTaskID: "task-1",
		tasks: []*taskapi.Task{
			task("pending", ""),
			{TaskID: "task-1", Status: "failed", Error: &taskapi.TaskError{Code: 5001, Message: "nsfw content"}},
		},
	}
	runner := newTestRunner(client, newFakeClock())

	_, err := runner.Run(context.Background(), "key-abcdef12", Request{
		Kind:     "image",
		Category: CategoryImage,
	})
	var failed *JobFailedError
	if !errors.As(err, &failed) {
		t.Fatalf("err = %v, want JobFailedError", err)
	}
	if failed.Reason != "nsfw content" {
		t.Fatalf("reason = %q", failed.Reason)
	}
	if client.getCalls != 2 {
		t.Fatalf("status queries = %d, want 2", client.getCalls)
	}
}

func TestRunSurfacesUnknownState(t *testing.T) {
	client := &scriptedClient{
		createTaskID: "task-1",
		tasks:        []*taskapi.Task{task("archived", "")},
	}
	runner := newTestRunner(client, newFakeClock())

	_, err := runner.Run(context.Background(), "key-abcdef12", Request{
		Kind:     "image",
		Category: CategoryImage,
	})
	var unknown *UnknownStateError
	if !errors.As(err, &unknown) {
		t.Fatalf("err = %v, want UnknownStateError", err)
	}
	if unknown.State != "archived" {
		t.Fatalf("state = %q", unknown.State)
	}
}

func TestRunCancelledMidSleepStopsPolling(t *testing.T) {
	client := &scriptedClient{
		createTaskID: "task-1",
		tasks:        []*taskapi.Task{task("pending", "")},
	}
	ctx, cancel := context.WithCancel(context.Background())
	runner := NewRunner(Options{Client: client})
	runner.sleep = func(ctx context.Context, _ time.Duration) error {
		cancel()
		<-ctx.Done()
		return ctx.Err()
	}

	_, err := runner.Run(ctx, "key-abcdef12", Request{
		Kind:     "image",
		Category: CategoryImage,
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if client.getCalls != 1 {
		t.Fatalf("status queries = %d, want 1 (no query after cancellation)", client.getCalls)
	}
}

func TestRunSubmissionFailureSkipsPolling(t *testing.T) {
	client := &scriptedClient{
		createErr: &taskapi.TransportError{Op: "POST /task", StatusCode: 500, Body: "boom"},
	}
	runner := newTestRunner(client, newFakeClock())

	_, err := runner.Run(context.Background(), "key-abcdef12", Request{
		Kind:     "image",
		Category: CategoryImage,
	})
	var transportErr *taskapi.TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("err = %v, want TransportError", err)
	}
	if client.getCalls != 0 {
		t.Fatalf("status queries = %d, want 0 after failed submission", client.getCalls)
	}
}

func TestRunCompletedWithEmptyOutputIsValidationError(t *testing.T) {
	client := &scriptedClient{
		createTaskID: "task-1",
		tasks:        []*taskapi.Task{task("completed", `{}`)},
	}
	runner := newTestRunner(client, newFakeClock())

	_, err := runner.Run(context.Background(), "key-abcdef12", Request{
		Kind:     "image",
		Category: CategoryImage,
	})
	var invalid *ValidationError
	if !errors.As(err, &invalid) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func TestSleepContextHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- sleepContext(ctx, time.Minute)
	}()
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("sleep did not release on cancellation")
	}
}
