// Package workflow contains the application workflow engine: creation,
// validated stage transitions and the audit trail. It is transport-agnostic —
// the HTTP layer (httpapi package) is just one caller.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Raghukul777/SmartHire/internal/matching"
	"github.com/Raghukul777/SmartHire/internal/model"
)

// ─── Collaborator contracts ──────────────────────────────────────────────────

// ApplicationStore persists the Application aggregate. Create must map a
// unique-constraint violation on (job_id, applicant_id) to
// ErrDuplicateApplication; Update must be conditional on expectedStage and
// return ErrStageConflict when the row moved underneath the caller.
type ApplicationStore interface {
	Create(ctx context.Context, app *Application) error
	GetByID(ctx context.Context, id string) (*Application, error)
	FindByJobAndApplicant(ctx context.Context, jobID, applicantID string) (*Application, error)
	Update(ctx context.Context, app *Application, expectedStage Stage) error
	ListByJob(ctx context.Context, jobID string) ([]Application, error)
	ListByApplicant(ctx context.Context, applicantID string) ([]Application, error)
}

// JobStore reads job postings and registers applicants on them. Jobs are
// owned by the job service; this engine never creates or deletes them.
type JobStore interface {
	GetByID(ctx context.Context, id string) (*model.Job, error)
	ListAll(ctx context.Context) ([]model.Job, error)
	AddApplicant(ctx context.Context, jobID, applicantID string) error
}

// UserStore reads user accounts and their declared skill profiles.
type UserStore interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// EventPublisher receives lifecycle events. Publish failures are logged by
// the engine and never fail the triggering operation.
type EventPublisher interface {
	NewApplication(ctx context.Context, jobID, recipientID, applicantName, jobTitle string) error
	StageChanged(ctx context.Context, applicationID, recipientID, newStage string) error
}

// ─── Service ─────────────────────────────────────────────────────────────────

// Service encapsulates the workflow engine and the recommendation flow.
type Service struct {
	apps   ApplicationStore
	jobs   JobStore
	users  UserStore
	events EventPublisher
}

// NewService returns a configured Service.
func NewService(apps ApplicationStore, jobs JobStore, users UserStore, events EventPublisher) *Service {
	return &Service{apps: apps, jobs: jobs, users: users, events: events}
}

// StageChange carries one transition request against an application.
type StageChange struct {
	Target    string
	ActorID   string
	Comments  string
	Interview *Interview
	Offer     *Offer
}

// Apply submits a new application for (jobID, applicantID) and snapshots the
// match score at creation time.
//
// The duplicate pre-check is an optimization only: two concurrent calls can
// both pass it, and the store's unique constraint is the authoritative guard.
// Both paths surface the same ErrDuplicateApplication.
//
// The create → register-on-job → notify sequence is not transactional. A
// failed later step is logged and not compensated; the created Application
// stands.
func (s *Service) Apply(ctx context.Context, jobID, applicantID, resumeKey string) (*Application, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("load job: %w", err)
	}
	user, err := s.users.GetByID(ctx, applicantID)
	if err != nil {
		return nil, fmt.Errorf("load applicant: %w", err)
	}

	if _, err := s.apps.FindByJobAndApplicant(ctx, jobID, applicantID); err == nil {
		return nil, ErrDuplicateApplication
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("duplicate pre-check: %w", err)
	}

	now := time.Now().UTC()
	app := &Application{
		ID:           uuid.NewString(),
		JobID:        jobID,
		ApplicantID:  applicantID,
		ResumeKey:    resumeKey,
		CurrentStage: StageApplied,
		StageHistory: []StageEntry{{
			Stage:     StageApplied,
			EnteredAt: now,
			Comments:  "Application submitted",
		}},
		MatchScore: matching.ScoreJob(*job, user.Skills),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.apps.Create(ctx, app); err != nil {
		return nil, err
	}

	if err := s.jobs.AddApplicant(ctx, jobID, applicantID); err != nil {
		slog.Warn("register applicant on job failed", "jobId", jobID, "applicantId", applicantID, "err", err)
	}
	if err := s.events.NewApplication(ctx, jobID, job.PostedBy, user.Name, job.Title); err != nil {
		slog.Warn("publish new-application event failed", "applicationId", app.ID, "err", err)
	}

	return app, nil
}

// MoveStage transitions an application to a new stage.
// Returns ErrNotFound if the application does not exist, a ValidationError
// naming the rejected (current, requested) pair if the state machine refuses,
// and ErrStageConflict if a concurrent transition won the race. On any
// failure the application is left untouched.
func (s *Service) MoveStage(ctx context.Context, appID string, change StageChange) (*Application, error) {
	target, err := ParseStage(change.Target)
	if err != nil {
		return nil, &ValidationError{Msg: err.Error()}
	}

	app, err := s.apps.GetByID(ctx, appID)
	if err != nil {
		return nil, err
	}

	if !IsTransitionAllowed(app.CurrentStage, target) {
		return nil, &ValidationError{
			Msg: fmt.Sprintf("invalid transition from %s to %s", app.CurrentStage, target),
		}
	}

	prior := app.CurrentStage
	now := time.Now().UTC()

	app.CurrentStage = target
	app.StageHistory = append(app.StageHistory, StageEntry{
		Stage:     target,
		EnteredAt: now,
		UpdatedBy: change.ActorID,
		Comments:  change.Comments,
	})

	if target == StageInterview && change.Interview != nil {
		iv := *change.Interview
		iv.ScheduledBy = change.ActorID
		app.Interview = &iv
	}
	if target == StageOffer && change.Offer != nil {
		of := *change.Offer
		of.Status = OfferPending // system-controlled, caller input ignored
		if of.Currency == "" {
			of.Currency = "USD"
		}
		app.Offer = &of
	}
	app.UpdatedAt = now

	if err := s.apps.Update(ctx, app, prior); err != nil {
		return nil, err
	}

	if err := s.events.StageChanged(ctx, app.ID, app.ApplicantID, string(target)); err != nil {
		slog.Warn("publish stage-changed event failed", "applicationId", app.ID, "err", err)
	}

	return app, nil
}

// Get returns a single application by ID.
func (s *Service) Get(ctx context.Context, appID string) (*Application, error) {
	return s.apps.GetByID(ctx, appID)
}

// ListByJob returns every application for a job, best match first.
func (s *Service) ListByJob(ctx context.Context, jobID string) ([]Application, error) {
	return s.apps.ListByJob(ctx, jobID)
}

// ListByApplicant returns a candidate's applications, newest first.
func (s *Service) ListByApplicant(ctx context.Context, applicantID string) ([]Application, error) {
	return s.apps.ListByApplicant(ctx, applicantID)
}

// Recommend ranks every job against the candidate's skills and returns the
// top matches. Explicitly supplied skills win; otherwise the stored profile
// is used. Already-applied jobs are not filtered out here — that is the
// caller's concern.
func (s *Service) Recommend(ctx context.Context, userID string, skills []string) ([]matching.ScoredJob, error) {
	if len(skills) == 0 {
		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("load skill profile: %w", err)
		}
		skills = user.Skills
	}

	jobs, err := s.jobs.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return matching.Rank(jobs, skills), nil
}
