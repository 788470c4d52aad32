package workflow

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/Raghukul777/SmartHire/internal/matching"
	"github.com/Raghukul777/SmartHire/internal/model"
)

// ─── Fakes ───────────────────────────────────────────────────────────────────

type fakeAppStore struct {
	byID      map[string]*Application
	createErr error  // overrides Create to simulate a storage-level race
	afterGet  func() // runs after GetByID, to interleave a concurrent write
}

func newFakeAppStore() *fakeAppStore {
	return &fakeAppStore{byID: make(map[string]*Application)}
}

func cloneApp(a *Application) *Application {
	c := *a
	c.StageHistory = append([]StageEntry(nil), a.StageHistory...)
	if a.Interview != nil {
		iv := *a.Interview
		c.Interview = &iv
	}
	if a.Offer != nil {
		of := *a.Offer
		c.Offer = &of
	}
	return &c
}

func (s *fakeAppStore) Create(ctx context.Context, app *Application) error {
	if s.createErr != nil {
		return s.createErr
	}
	for _, existing := range s.byID {
		if existing.JobID == app.JobID && existing.ApplicantID == app.ApplicantID {
			return ErrDuplicateApplication
		}
	}
	s.byID[app.ID] = cloneApp(app)
	return nil
}

func (s *fakeAppStore) GetByID(ctx context.Context, id string) (*Application, error) {
	a, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := cloneApp(a)
	if s.afterGet != nil {
		s.afterGet()
	}
	return c, nil
}

func (s *fakeAppStore) FindByJobAndApplicant(ctx context.Context, jobID, applicantID string) (*Application, error) {
	for _, a := range s.byID {
		if a.JobID == jobID && a.ApplicantID == applicantID {
			return cloneApp(a), nil
		}
	}
	return nil, ErrNotFound
}

func (s *fakeAppStore) Update(ctx context.Context, app *Application, expectedStage Stage) error {
	cur, ok := s.byID[app.ID]
	if !ok {
		return ErrNotFound
	}
	if cur.CurrentStage != expectedStage {
		return ErrStageConflict
	}
	s.byID[app.ID] = cloneApp(app)
	return nil
}

func (s *fakeAppStore) ListByJob(ctx context.Context, jobID string) ([]Application, error) {
	out := make([]Application, 0)
	for _, a := range s.byID {
		if a.JobID == jobID {
			out = append(out, *cloneApp(a))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MatchScore > out[j].MatchScore })
	return out, nil
}

func (s *fakeAppStore) ListByApplicant(ctx context.Context, applicantID string) ([]Application, error) {
	out := make([]Application, 0)
	for _, a := range s.byID {
		if a.ApplicantID == applicantID {
			out = append(out, *cloneApp(a))
		}
	}
	return out, nil
}

type fakeJobStore struct {
	jobs   map[string]*model.Job
	addErr error
}

func (s *fakeJobStore) GetByID(ctx context.Context, id string) (*model.Job, error) {
	j, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *j
	return &c, nil
}

func (s *fakeJobStore) ListAll(ctx context.Context) ([]model.Job, error) {
	out := make([]model.Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, *j)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeJobStore) AddApplicant(ctx context.Context, jobID, applicantID string) error {
	if s.addErr != nil {
		return s.addErr
	}
	j, ok := s.jobs[jobID]
	if !ok {
		return ErrNotFound
	}
	j.Applicants = append(j.Applicants, applicantID)
	return nil
}

type fakeUserStore struct {
	users map[string]*model.User
}

func (s *fakeUserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *u
	return &c, nil
}

type fakeEvents struct {
	newApplications []string // jobID
	stageChanges    []string // "appID:stage"
	fail            bool
}

func (e *fakeEvents) NewApplication(ctx context.Context, jobID, recipientID, applicantName, jobTitle string) error {
	if e.fail {
		return fmt.Errorf("publisher down")
	}
	e.newApplications = append(e.newApplications, jobID)
	return nil
}

func (e *fakeEvents) StageChanged(ctx context.Context, applicationID, recipientID, newStage string) error {
	if e.fail {
		return fmt.Errorf("publisher down")
	}
	e.stageChanges = append(e.stageChanges, applicationID+":"+newStage)
	return nil
}

// ─── Fixtures ────────────────────────────────────────────────────────────────

func newTestService() (*Service, *fakeAppStore, *fakeJobStore, *fakeUserStore, *fakeEvents) {
	apps := newFakeAppStore()
	jobs := &fakeJobStore{jobs: map[string]*model.Job{
		"job-1": {
			ID:             "job-1",
			Title:          "Backend Engineer",
			Description:    "Build services",
			Requirements:   "Go and SQL experience",
			PostedBy:       "rec-1",
			RequiredSkills: []string{"Go", "SQL"},
		},
		"job-2": {
			ID:          "job-2",
			Title:       "Frontend Engineer",
			Description: "React developer with Node.js experience",
			PostedBy:    "rec-1",
		},
	}}
	users := &fakeUserStore{users: map[string]*model.User{
		"cand-1": {ID: "cand-1", Name: "Asha", Email: "asha@example.com", Role: "candidate", Skills: []string{"go", "sql"}},
		"cand-2": {ID: "cand-2", Name: "Ravi", Email: "ravi@example.com", Role: "candidate"},
	}}
	events := &fakeEvents{}
	return NewService(apps, jobs, users, events), apps, jobs, users, events
}

func mustApply(t *testing.T, svc *Service) *Application {
	t.Helper()
	app, err := svc.Apply(context.Background(), "job-1", "cand-1", "resumes/r1.pdf")
	if err != nil {
		t.Fatalf("Apply returned unexpected error: %v", err)
	}
	return app
}

// ─── Apply ───────────────────────────────────────────────────────────────────

func TestApply_CreatesApplicationAtApplied(t *testing.T) {
	svc, _, jobs, _, events := newTestService()

	app := mustApply(t, svc)

	if app.CurrentStage != StageApplied {
		t.Errorf("CurrentStage = %s, want APPLIED", app.CurrentStage)
	}
	if len(app.StageHistory) != 1 {
		t.Fatalf("StageHistory length = %d, want 1", len(app.StageHistory))
	}
	first := app.StageHistory[0]
	if first.Stage != StageApplied {
		t.Errorf("first history stage = %s, want APPLIED", first.Stage)
	}
	if first.Comments != "Application submitted" {
		t.Errorf("first history comments = %q, want %q", first.Comments, "Application submitted")
	}
	if first.UpdatedBy != "" {
		t.Errorf("first history entry should be system-initiated, got actor %q", first.UpdatedBy)
	}
	if app.MatchScore != 100 {
		t.Errorf("MatchScore = %d, want 100 (both required skills covered)", app.MatchScore)
	}
	if got := jobs.jobs["job-1"].Applicants; len(got) != 1 || got[0] != "cand-1" {
		t.Errorf("applicant was not registered on job, got %v", got)
	}
	if len(events.newApplications) != 1 {
		t.Errorf("expected one new-application event, got %d", len(events.newApplications))
	}
}

func TestApply_SnapshotsMatchScoreAtCreation(t *testing.T) {
	svc, apps, _, users, _ := newTestService()

	app := mustApply(t, svc)

	// Later profile edits must not touch the snapshot.
	users.users["cand-1"].Skills = nil
	stored, err := apps.GetByID(context.Background(), app.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.MatchScore != 100 {
		t.Errorf("stored MatchScore = %d, want the creation-time snapshot 100", stored.MatchScore)
	}
}

func TestApply_DuplicateFailsWithConflict(t *testing.T) {
	svc, _, _, _, _ := newTestService()

	mustApply(t, svc)
	_, err := svc.Apply(context.Background(), "job-1", "cand-1", "resumes/r2.pdf")
	if !errors.Is(err, ErrDuplicateApplication) {
		t.Fatalf("second Apply error = %v, want ErrDuplicateApplication", err)
	}
}

// A race that slips past the pre-check must surface as the same Conflict the
// pre-check produces — the store's unique constraint is authoritative.
func TestApply_StorageRaceSurfacesSameConflict(t *testing.T) {
	svc, apps, _, _, _ := newTestService()

	apps.createErr = ErrDuplicateApplication
	_, err := svc.Apply(context.Background(), "job-1", "cand-1", "resumes/r1.pdf")
	if !errors.Is(err, ErrDuplicateApplication) {
		t.Fatalf("Apply error = %v, want ErrDuplicateApplication", err)
	}
}

func TestApply_UnknownJobOrApplicant(t *testing.T) {
	svc, _, _, _, _ := newTestService()

	if _, err := svc.Apply(context.Background(), "job-missing", "cand-1", "r.pdf"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown job: error = %v, want ErrNotFound", err)
	}
	if _, err := svc.Apply(context.Background(), "job-1", "cand-missing", "r.pdf"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown applicant: error = %v, want ErrNotFound", err)
	}
}

func TestApply_SideEffectFailuresDoNotFailCreate(t *testing.T) {
	svc, _, jobs, _, events := newTestService()
	jobs.addErr = fmt.Errorf("job service unreachable")
	events.fail = true

	app, err := svc.Apply(context.Background(), "job-1", "cand-1", "r.pdf")
	if err != nil {
		t.Fatalf("Apply should survive side-effect failures, got %v", err)
	}
	if app.CurrentStage != StageApplied {
		t.Errorf("CurrentStage = %s, want APPLIED", app.CurrentStage)
	}
}

// ─── MoveStage ───────────────────────────────────────────────────────────────

func TestMoveStage_ValidTransitionAppendsHistory(t *testing.T) {
	svc, _, _, _, events := newTestService()
	app := mustApply(t, svc)

	moved, err := svc.MoveStage(context.Background(), app.ID, StageChange{
		Target:   "SCREENING",
		ActorID:  "rec-1",
		Comments: "Looks promising",
	})
	if err != nil {
		t.Fatalf("MoveStage returned unexpected error: %v", err)
	}

	if moved.CurrentStage != StageScreening {
		t.Errorf("CurrentStage = %s, want SCREENING", moved.CurrentStage)
	}
	if len(moved.StageHistory) != 2 {
		t.Fatalf("StageHistory length = %d, want 2", len(moved.StageHistory))
	}
	last := moved.StageHistory[1]
	if last.Stage != StageScreening || last.UpdatedBy != "rec-1" || last.Comments != "Looks promising" {
		t.Errorf("unexpected history entry: %+v", last)
	}
	if len(events.stageChanges) != 1 || events.stageChanges[0] != app.ID+":SCREENING" {
		t.Errorf("unexpected stage-changed events: %v", events.stageChanges)
	}
}

func TestMoveStage_InvalidTransitionNamesPair(t *testing.T) {
	svc, apps, _, _, _ := newTestService()
	app := mustApply(t, svc)

	_, err := svc.MoveStage(context.Background(), app.ID, StageChange{Target: "TECHNICAL", ActorID: "rec-1"})

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if !strings.Contains(ve.Msg, "APPLIED") || !strings.Contains(ve.Msg, "TECHNICAL") {
		t.Errorf("validation message %q should name the rejected (APPLIED, TECHNICAL) pair", ve.Msg)
	}

	// No mutation on an invalid transition.
	stored, _ := apps.GetByID(context.Background(), app.ID)
	if stored.CurrentStage != StageApplied || len(stored.StageHistory) != 1 {
		t.Errorf("application mutated by rejected transition: stage=%s history=%d",
			stored.CurrentStage, len(stored.StageHistory))
	}
}

func TestMoveStage_TerminalStageIsAbsorbing(t *testing.T) {
	svc, _, _, _, _ := newTestService()
	app := mustApply(t, svc)

	if _, err := svc.MoveStage(context.Background(), app.ID, StageChange{Target: "REJECTED", ActorID: "rec-1"}); err != nil {
		t.Fatalf("APPLIED → REJECTED should succeed, got %v", err)
	}

	for _, target := range []string{"APPLIED", "SCREENING", "OFFER", "HIRED", "WITHDRAWN"} {
		_, err := svc.MoveStage(context.Background(), app.ID, StageChange{Target: target, ActorID: "rec-1"})
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("REJECTED → %s: error = %v, want ValidationError", target, err)
		}
	}
}

func TestMoveStage_UnknownTarget(t *testing.T) {
	svc, _, _, _, _ := newTestService()
	app := mustApply(t, svc)

	_, err := svc.MoveStage(context.Background(), app.ID, StageChange{Target: "PARTY", ActorID: "rec-1"})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v, want ValidationError for unknown stage", err)
	}
}

func TestMoveStage_MissingApplication(t *testing.T) {
	svc, _, _, _, _ := newTestService()

	_, err := svc.MoveStage(context.Background(), "nope", StageChange{Target: "SCREENING", ActorID: "rec-1"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestMoveStage_InterviewPayloadStampedWithScheduler(t *testing.T) {
	svc, _, _, _, _ := newTestService()
	app := mustApply(t, svc)

	advance(t, svc, app.ID, "SCREENING", "TECHNICAL")

	when := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)
	moved, err := svc.MoveStage(context.Background(), app.ID, StageChange{
		Target:  "INTERVIEW",
		ActorID: "rec-1",
		Interview: &Interview{
			ScheduledAt: when,
			Link:        "https://meet.example.com/abc",
			ScheduledBy: "spoofed", // caller input must be overwritten
		},
	})
	if err != nil {
		t.Fatalf("MoveStage to INTERVIEW: %v", err)
	}
	if moved.Interview == nil {
		t.Fatal("interview payload was not stored")
	}
	if moved.Interview.ScheduledBy != "rec-1" {
		t.Errorf("ScheduledBy = %q, want the acting recruiter rec-1", moved.Interview.ScheduledBy)
	}
	if !moved.Interview.ScheduledAt.Equal(when) {
		t.Errorf("ScheduledAt = %v, want %v", moved.Interview.ScheduledAt, when)
	}
}

func TestMoveStage_OfferStatusForcedToPending(t *testing.T) {
	svc, _, _, _, _ := newTestService()
	app := mustApply(t, svc)

	advance(t, svc, app.ID, "SCREENING", "TECHNICAL", "INTERVIEW", "HR")

	moved, err := svc.MoveStage(context.Background(), app.ID, StageChange{
		Target:  "OFFER",
		ActorID: "rec-1",
		Offer: &Offer{
			Salary: 120000,
			Status: OfferAccepted, // caller input must be overwritten
		},
	})
	if err != nil {
		t.Fatalf("MoveStage to OFFER: %v", err)
	}
	if moved.Offer == nil {
		t.Fatal("offer payload was not stored")
	}
	if moved.Offer.Status != OfferPending {
		t.Errorf("Offer.Status = %q, want PENDING regardless of caller input", moved.Offer.Status)
	}
	if moved.Offer.Currency != "USD" {
		t.Errorf("Offer.Currency = %q, want the USD default", moved.Offer.Currency)
	}
}

func TestMoveStage_ConcurrentTransitionSurfacesConflict(t *testing.T) {
	svc, apps, _, _, _ := newTestService()
	app := mustApply(t, svc)

	// Simulate a concurrent writer moving the row after our read.
	apps.afterGet = func() {
		apps.byID[app.ID].CurrentStage = StageScreening
	}

	_, err := svc.MoveStage(context.Background(), app.ID, StageChange{Target: "SCREENING", ActorID: "rec-1"})
	if !errors.Is(err, ErrStageConflict) {
		t.Fatalf("error = %v, want ErrStageConflict", err)
	}
}

func TestStageHistory_NeverShrinksAcrossLifecycle(t *testing.T) {
	svc, apps, _, _, _ := newTestService()
	app := mustApply(t, svc)

	prev := 1
	for _, target := range []string{"SCREENING", "TECHNICAL", "INTERVIEW", "HR", "OFFER", "HIRED"} {
		moved, err := svc.MoveStage(context.Background(), app.ID, StageChange{Target: target, ActorID: "rec-1"})
		if err != nil {
			t.Fatalf("MoveStage to %s: %v", target, err)
		}
		if len(moved.StageHistory) <= prev {
			t.Errorf("history shrank at %s: %d → %d", target, prev, len(moved.StageHistory))
		}
		prev = len(moved.StageHistory)
	}

	stored, _ := apps.GetByID(context.Background(), app.ID)
	if stored.StageHistory[0].Stage != StageApplied {
		t.Errorf("first history stage = %s, want APPLIED", stored.StageHistory[0].Stage)
	}
}

// ─── Recommend ───────────────────────────────────────────────────────────────

func TestRecommend_UsesSuppliedSkills(t *testing.T) {
	svc, _, _, _, _ := newTestService()

	ranked, err := svc.Recommend(context.Background(), "cand-2", []string{"react", "node"})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(ranked) != 2 {
		t.Fatalf("got %d results, want 2", len(ranked))
	}
	if ranked[0].Job.ID != "job-2" || ranked[0].MatchScore != 100 {
		t.Errorf("top result = %s (%d), want job-2 at 100", ranked[0].Job.ID, ranked[0].MatchScore)
	}
}

func TestRecommend_FallsBackToStoredProfile(t *testing.T) {
	svc, _, _, _, _ := newTestService()

	ranked, err := svc.Recommend(context.Background(), "cand-1", nil)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if ranked[0].Job.ID != "job-1" || ranked[0].MatchScore != 100 {
		t.Errorf("top result = %s (%d), want job-1 at 100 via profile skills", ranked[0].Job.ID, ranked[0].MatchScore)
	}
}

func TestRecommend_ScoresMatchIndependentRecomputation(t *testing.T) {
	svc, _, jobs, _, _ := newTestService()

	skills := []string{"go", "react"}
	ranked, err := svc.Recommend(context.Background(), "cand-1", skills)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	for _, r := range ranked {
		want := matching.ScoreJob(*jobs.jobs[r.Job.ID], skills)
		if r.MatchScore != want {
			t.Errorf("job %s: ranked score %d != independent recomputation %d", r.Job.ID, r.MatchScore, want)
		}
	}
}

func TestRecommend_UnknownUserWithoutSkills(t *testing.T) {
	svc, _, _, _, _ := newTestService()

	if _, err := svc.Recommend(context.Background(), "ghost", nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

// advance walks an application through the given pipeline stages.
func advance(t *testing.T, svc *Service, appID string, targets ...string) {
	t.Helper()
	for _, target := range targets {
		if _, err := svc.MoveStage(context.Background(), appID, StageChange{Target: target, ActorID: "rec-1"}); err != nil {
			t.Fatalf("advance to %s: %v", target, err)
		}
	}
}
