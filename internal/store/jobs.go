package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Raghukul777/SmartHire/internal/model"
	"github.com/Raghukul777/SmartHire/internal/workflow"
)

const jobColumns = `id, title, description, requirements, salary, location,
	type, posted_by, required_skills, applicants, created_at`

// JobStore implements workflow.JobStore on pgxpool. The engine only reads
// jobs and appends to their applicant list; job CRUD lives elsewhere.
type JobStore struct {
	pool *pgxpool.Pool
}

// NewJobStore returns a configured JobStore.
func NewJobStore(pool *pgxpool.Pool) *JobStore {
	return &JobStore{pool: pool}
}

// GetByID returns a single job posting.
func (s *JobStore) GetByID(ctx context.Context, id string) (*model.Job, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id)
	return scanJob(row)
}

// ListAll returns the full job collection. Recommendation ranking scores
// every posting, so there is no filtering here.
func (s *JobStore) ListAll(ctx context.Context) ([]model.Job, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listAll query: %w", err)
	}
	defer rows.Close()

	jobs := make([]model.Job, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}

// AddApplicant registers an applicant on a job's applicant list. The append
// is idempotent: registering the same applicant twice is a no-op, which keeps
// retries of the non-transactional apply sequence safe.
func (s *JobStore) AddApplicant(ctx context.Context, jobID, applicantID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE jobs
		 SET applicants = array_append(applicants, $2)
		 WHERE id = $1 AND NOT ($2 = ANY(applicants))`,
		jobID, applicantID)
	if err != nil {
		return fmt.Errorf("addApplicant update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM jobs WHERE id = $1)`, jobID).Scan(&exists); err != nil {
			return fmt.Errorf("addApplicant existence check: %w", err)
		}
		if !exists {
			return workflow.ErrNotFound
		}
		// already registered — idempotent success
	}
	return nil
}

func scanJob(row pgx.Row) (*model.Job, error) {
	var j model.Job
	err := row.Scan(
		&j.ID, &j.Title, &j.Description, &j.Requirements, &j.Salary, &j.Location,
		&j.Type, &j.PostedBy, &j.RequiredSkills, &j.Applicants, &j.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, workflow.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan job: %w", err)
	}
	return &j, nil
}
