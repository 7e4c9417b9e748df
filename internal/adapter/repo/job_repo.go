package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mediagw/internal/domain"
)

// JobRepositoryPG persists queued generation requests in PostgreSQL.
type JobRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewJobRepository creates a new job repository backed by PostgreSQL.
func NewJobRepository(pool *pgxpool.Pool) *JobRepositoryPG {
	return &JobRepositoryPG{pool: pool}
}

// Create inserts a new queued job record.
func (r *JobRepositoryPG) Create(ctx context.Context, job *domain.Job) error {
	query := `
INSERT INTO jobs (id, kind, operation, category, input_json, steps, status)
VALUES ($1, $2, $3, $4, $5, $6, $7);
`
	_, err := r.pool.Exec(ctx, query,
		job.ID,
		job.Kind,
		job.Operation,
		job.Category,
		job.InputJSON,
		job.Steps,
		domain.JobStatusQueued,
	)
	return err
}

// Claim marks the oldest queued job as running and returns it. Concurrent
// workers skip rows already locked by another claim.
func (r *JobRepositoryPG) Claim(ctx context.Context) (*domain.Job, error) {
	query := `
UPDATE jobs
SET status = $1, updated_at = NOW()
WHERE id = (
    SELECT id FROM jobs
    WHERE status = $2
    ORDER BY created_at
    LIMIT 1
    FOR UPDATE SKIP LOCKED
)
RETURNING id, kind, operation, category, input_json, steps, status, created_at, updated_at;
`
	row := r.pool.QueryRow(ctx, query, domain.JobStatusRunning, domain.JobStatusQueued)
	var job domain.Job
	if err := row.Scan(
		&job.ID,
		&job.Kind,
		&job.Operation,
		&job.Category,
		&job.InputJSON,
		&job.Steps,
		&job.Status,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNoJobAvailable
		}
		return nil, err
	}
	job.InputJSON = append([]byte(nil), job.InputJSON...)
	return &job, nil
}

// Complete records a successful outcome.
func (r *JobRepositoryPG) Complete(ctx context.Context, jobID string, resultJSON []byte) error {
	query := `
UPDATE jobs
SET status = $2, updated_at = NOW(), result_json = $3
WHERE id = $1;
`
	_, err := r.pool.Exec(ctx, query, jobID, domain.JobStatusSucceeded, nullableBytes(resultJSON))
	return err
}

// Fail records a classified failure.
func (r *JobRepositoryPG) Fail(ctx context.Context, jobID, errMsg string) error {
	query := `
UPDATE jobs
SET status = $2, updated_at = NOW(), error_message = $3
WHERE id = $1;
`
	_, err := r.pool.Exec(ctx, query, jobID, domain.JobStatusFailed, errMsg)
	return err
}

// GetByID fetches a job by its identifier.
func (r *JobRepositoryPG) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	query := `
SELECT id, kind, operation, category, input_json, steps, status, result_json, error_message, created_at, updated_at
FROM jobs
WHERE id = $1;
`
	row := r.pool.QueryRow(ctx, query, jobID)
	var job domain.Job
	var errMsg *string
	if err := row.Scan(
		&job.ID,
		&job.Kind,
		&job.Operation,
		&job.Category,
		&job.InputJSON,
		&job.Steps,
		&job.Status,
		&job.ResultJSON,
		&errMsg,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if errMsg != nil {
		job.ErrorMessage = *errMsg
	}
	return &job, nil
}

func nullableBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}
