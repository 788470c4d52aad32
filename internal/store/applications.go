// Package store provides the pgx-backed persistence for the workflow engine.
// It owns the error mapping from PostgreSQL failures to the engine's error
// taxonomy: unique-constraint violations become ErrDuplicateApplication,
// missing rows become ErrNotFound.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Raghukul777/SmartHire/internal/workflow"
)

// pgUniqueViolation is the PostgreSQL error code for unique_violation.
const pgUniqueViolation = "23505"

const appColumns = `id, job_id, applicant_id, resume_key, current_stage,
	stage_history, interview, offer, match_score, created_at, updated_at`

// ApplicationStore implements workflow.ApplicationStore on pgxpool.
type ApplicationStore struct {
	pool *pgxpool.Pool
}

// NewApplicationStore returns a configured ApplicationStore.
func NewApplicationStore(pool *pgxpool.Pool) *ApplicationStore {
	return &ApplicationStore{pool: pool}
}

// Create inserts a new application. The unique index on
// (job_id, applicant_id) is the authoritative duplicate guard — a violation
// is mapped to workflow.ErrDuplicateApplication so races against the service
// pre-check surface as the same Conflict the pre-check produces.
func (s *ApplicationStore) Create(ctx context.Context, app *workflow.Application) error {
	history, err := json.Marshal(app.StageHistory)
	if err != nil {
		return fmt.Errorf("marshal stage history: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO applications
		   (id, job_id, applicant_id, resume_key, current_stage,
		    stage_history, match_score, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		app.ID, app.JobID, app.ApplicantID, app.ResumeKey, string(app.CurrentStage),
		history, app.MatchScore, app.CreatedAt, app.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return workflow.ErrDuplicateApplication
		}
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

// GetByID returns a single application.
func (s *ApplicationStore) GetByID(ctx context.Context, id string) (*workflow.Application, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+appColumns+` FROM applications WHERE id = $1`, id)
	return scanApplication(row)
}

// FindByJobAndApplicant looks an application up by its composite key.
func (s *ApplicationStore) FindByJobAndApplicant(ctx context.Context, jobID, applicantID string) (*workflow.Application, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+appColumns+` FROM applications WHERE job_id = $1 AND applicant_id = $2`,
		jobID, applicantID)
	return scanApplication(row)
}

// Update persists a stage transition, conditional on the stage the caller
// read. When the row moved underneath us the update matches nothing and the
// caller gets ErrStageConflict instead of a silent lost write.
func (s *ApplicationStore) Update(ctx context.Context, app *workflow.Application, expectedStage workflow.Stage) error {
	history, err := json.Marshal(app.StageHistory)
	if err != nil {
		return fmt.Errorf("marshal stage history: %w", err)
	}
	// nil payloads stay SQL NULL rather than the JSON "null" literal
	var interview, offer []byte
	if app.Interview != nil {
		if interview, err = json.Marshal(app.Interview); err != nil {
			return fmt.Errorf("marshal interview: %w", err)
		}
	}
	if app.Offer != nil {
		if offer, err = json.Marshal(app.Offer); err != nil {
			return fmt.Errorf("marshal offer: %w", err)
		}
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE applications
		 SET current_stage = $1,
		     stage_history = $2,
		     interview     = $3,
		     offer         = $4,
		     updated_at    = $5
		 WHERE id = $6 AND current_stage = $7`,
		string(app.CurrentStage), history, interview, offer, app.UpdatedAt,
		app.ID, string(expectedStage),
	)
	if err != nil {
		return fmt.Errorf("update application: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either the application vanished or a concurrent transition won.
		if _, err := s.GetByID(ctx, app.ID); errors.Is(err, workflow.ErrNotFound) {
			return workflow.ErrNotFound
		}
		return workflow.ErrStageConflict
	}
	return nil
}

// ListByJob returns every application for a job, best match first.
func (s *ApplicationStore) ListByJob(ctx context.Context, jobID string) ([]workflow.Application, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+appColumns+` FROM applications
		 WHERE job_id = $1
		 ORDER BY match_score DESC, created_at ASC`,
		jobID)
	if err != nil {
		return nil, fmt.Errorf("listByJob query: %w", err)
	}
	return collectApplications(rows)
}

// ListByApplicant returns a candidate's applications, newest first.
func (s *ApplicationStore) ListByApplicant(ctx context.Context, applicantID string) ([]workflow.Application, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+appColumns+` FROM applications
		 WHERE applicant_id = $1
		 ORDER BY created_at DESC`,
		applicantID)
	if err != nil {
		return nil, fmt.Errorf("listByApplicant query: %w", err)
	}
	return collectApplications(rows)
}

// ─── Row mapping ─────────────────────────────────────────────────────────────

func scanApplication(row pgx.Row) (*workflow.Application, error) {
	var (
		a         workflow.Application
		stage     string
		history   []byte
		interview []byte
		offer     []byte
	)
	err := row.Scan(
		&a.ID, &a.JobID, &a.ApplicantID, &a.ResumeKey, &stage,
		&history, &interview, &offer, &a.MatchScore, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, workflow.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan application: %w", err)
	}

	a.CurrentStage = workflow.Stage(stage)
	if err := json.Unmarshal(history, &a.StageHistory); err != nil {
		return nil, fmt.Errorf("decode stage history: %w", err)
	}
	if len(interview) > 0 {
		a.Interview = &workflow.Interview{}
		if err := json.Unmarshal(interview, a.Interview); err != nil {
			return nil, fmt.Errorf("decode interview: %w", err)
		}
	}
	if len(offer) > 0 {
		a.Offer = &workflow.Offer{}
		if err := json.Unmarshal(offer, a.Offer); err != nil {
			return nil, fmt.Errorf("decode offer: %w", err)
		}
	}
	return &a, nil
}

func collectApplications(rows pgx.Rows) ([]workflow.Application, error) {
	defer rows.Close()

	apps := make([]workflow.Application, 0)
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, *a)
	}
	return apps, rows.Err()
}
