package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/digkill/futurepro/internal/models"
)

type JobRepository struct {
	db *sql.DB
}

func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

const jobColumns = `id, account_id, status, params, output_url, error, created_at, updated_at`

func scanJob(row rowScanner) (*models.Job, error) {
	var j models.Job
	var status, params string
	var created, updated int64
	if err := row.Scan(&j.ID, &j.AccountID, &status, &params, &j.OutputURL, &j.Error, &created, &updated); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(params), &j.Params); err != nil {
		return nil, fmt.Errorf("decode job params: %w", err)
	}
	j.Status = models.JobStatus(status)
	j.CreatedAt = fromUnix(created)
	j.UpdatedAt = fromUnix(updated)
	return &j, nil
}

func (r *JobRepository) Create(ctx context.Context, job *models.Job) error {
	const query = `
INSERT INTO jobs (account_id, status, params, output_url, error, created_at, updated_at)
VALUES (?, ?, ?, '', '', ?, ?)`
	params, err := json.Marshal(job.Params)
	if err != nil {
		return fmt.Errorf("marshal job params: %w", err)
	}
	if job.Status == "" {
		job.Status = models.JobQueued
	}
	now := unixNow()
	res, err := r.db.ExecContext(ctx, query, job.AccountID, job.Status, string(params), now, now)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	job.ID = id
	job.CreatedAt = fromUnix(now)
	job.UpdatedAt = fromUnix(now)
	return nil
}

func (r *JobRepository) GetByID(ctx context.Context, id int64) (*models.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = ?`
	job, err := scanJob(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

func (r *JobRepository) ListByAccount(ctx context.Context, accountID int64, limit int) ([]models.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE account_id = ? ORDER BY id DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]models.Job, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// ClaimNextQueued moves the oldest queued job to running and returns it, or nil when the queue is empty.
func (r *JobRepository) ClaimNextQueued(ctx context.Context) (*models.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE status = ? ORDER BY id ASC LIMIT 1`
	job, err := scanJob(r.db.QueryRowContext(ctx, query, models.JobQueued))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select queued job: %w", err)
	}

	const claim = `UPDATE jobs SET status = ?, updated_at = ? WHERE id = ? AND status = ?`
	now := unixNow()
	res, err := r.db.ExecContext(ctx, claim, models.JobRunning, now, job.ID, models.JobQueued)
	if err != nil {
		return nil, fmt.Errorf("claim job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("claim rows affected: %w", err)
	}
	if affected == 0 {
		return nil, nil
	}
	job.Status = models.JobRunning
	job.UpdatedAt = fromUnix(now)
	return job, nil
}

func (r *JobRepository) Complete(ctx context.Context, id int64, outputURL string) error {
	const query = `UPDATE jobs SET status = ?, output_url = ?, updated_at = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, models.JobCompleted, outputURL, unixNow(), id); err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	return nil
}

func (r *JobRepository) Fail(ctx context.Context, id int64, reason string) error {
	const query = `UPDATE jobs SET status = ?, error = ?, updated_at = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, models.JobFailed, reason, unixNow(), id); err != nil {
		return fmt.Errorf("fail job: %w", err)
	}
	return nil
}

// Requeue returns a running job to the queue, e.g. when the worker stops mid-generation.
func (r *JobRepository) Requeue(ctx context.Context, id int64) error {
	const query = `UPDATE jobs SET status = ?, updated_at = ? WHERE id = ? AND status = ?`
	if _, err := r.db.ExecContext(ctx, query, models.JobQueued, unixNow(), id, models.JobRunning); err != nil {
		return fmt.Errorf("requeue job: %w", err)
	}
	return nil
}
