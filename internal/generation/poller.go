package generation

import (
	"context"
	"fmt"
	"time"

	"mediagw/internal/providers/taskapi"
)

const (
	// maxPollInterval caps the per-iteration sleep so a large timeout with few
	// attempts never produces one excessively long wait.
	maxPollInterval = 5 * time.Second
	// minPollInterval floors the sleep so a tiny timeout cannot busy-spin.
	minPollInterval = 100 * time.Millisecond
)

// pollInterval derives the sleep between status queries from the profile.
func pollInterval(p Profile) time.Duration {
	if p.MaxAttempts <= 0 {
		return maxPollInterval
	}
	interval := p.Timeout / time.Duration(p.MaxAttempts)
	if interval > maxPollInterval {
		return maxPollInterval
	}
	if interval < minPollInterval {
		return minPollInterval
	}
	return interval
}

// waitUntilTerminal queries task status until a terminal state is observed or
// the profile's attempt/timeout budget is exhausted. Both budgets are
// enforced: a provider that answers instantly but never converges exhausts
// the attempt counter, a slow one exhausts the wall clock. Cancellation is
// checked before each query and honored mid-sleep.
func (r *Runner) waitUntilTerminal(ctx context.Context, apiKey, taskID, kind string, prof Profile) (*taskapi.Task, int, time.Duration, error) {
	start := r.now()
	interval := pollInterval(prof)
	attempts := 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, attempts, r.now().Sub(start), fmt.Errorf("generation: wait for task %s: %w", taskID, err)
		}

		attempts++
		task, err := r.client.GetTask(ctx, apiKey, taskID)
		if err != nil {
			return nil, attempts, r.now().Sub(start), err
		}

		state, ok := taskapi.ParseState(task.Status)
		if !ok {
			return nil, attempts, r.now().Sub(start), &UnknownStateError{JobID: taskID, State: task.Status}
		}

		switch state {
		case taskapi.StateFailed:
			return nil, attempts, r.now().Sub(start), &JobFailedError{JobID: taskID, Reason: failureReason(task)}
		case taskapi.StateCompleted:
			return task, attempts, r.now().Sub(start), nil
		}

		elapsed := r.now().Sub(start)
		if attempts >= prof.MaxAttempts || elapsed >= prof.Timeout {
			return nil, attempts, elapsed, &JobTimedOutError{
				JobID:    taskID,
				Kind:     kind,
				Attempts: attempts,
				Elapsed:  elapsed,
			}
		}

		r.logger.Debug().
			Str("task_id", taskID).
			Str("state", string(state)).
			Int("attempt", attempts).
			Dur("elapsed", elapsed).
			Msg("generation: task not terminal yet")

		if err := r.sleep(ctx, interval); err != nil {
			return nil, attempts, r.now().Sub(start), fmt.Errorf("generation: wait for task %s: %w", taskID, err)
		}
	}
}

func failureReason(task *taskapi.Task) string {
	if task == nil || task.Error == nil {
		return ""
	}
	return task.Error.Message
}

// sleepContext waits for d unless the context is cancelled first, releasing
// the pending sleep immediately.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
