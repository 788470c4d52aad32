// Package httpapi implements the HTTP handlers for the SmartHire backend.
//
// All routes expect x-user-id and x-user-role headers forwarded by the
// Gateway after authentication; role checks mirror the Gateway's route
// policy (candidate vs recruiter/admin).
//
// Routes:
//
//	POST /applications/{jobId}          → apply with a resume upload (candidate)
//	PUT  /applications/{id}/stage       → workflow stage transition (recruiter/admin)
//	GET  /applications/me               → candidate's applications
//	GET  /applications/job/{jobId}      → applications for a job, best match first (recruiter/admin)
//	GET  /applications/recommendations  → ranked job list, capped at 10 (candidate)
//	GET  /stats                         → cached platform statistics
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/Raghukul777/SmartHire/internal/resume"
	"github.com/Raghukul777/SmartHire/internal/stats"
	"github.com/Raghukul777/SmartHire/internal/workflow"
)

// maxResumeBytes bounds the multipart upload size (5 MiB).
const maxResumeBytes = 5 << 20

// Handler holds shared dependencies.
type Handler struct {
	svc     *workflow.Service
	resumes *resume.Store // nil when storage is not configured
	pool    *pgxpool.Pool
	rdb     *redis.Client
}

// NewHandler returns a configured Handler.
func NewHandler(svc *workflow.Service, resumes *resume.Store, pool *pgxpool.Pool, rdb *redis.Client) *Handler {
	return &Handler{svc: svc, resumes: resumes, pool: pool, rdb: rdb}
}

// RegisterRoutes mounts all backend routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/applications/", h.handleApplications)
	mux.HandleFunc("/stats", h.getStats)
}

// ─── Route dispatch ───────────────────────────────────────────────────────────

// handleApplications dispatches everything under /applications/.
func (h *Handler) handleApplications(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

	switch {
	case len(parts) == 2 && parts[1] == "recommendations" && r.Method == http.MethodGet:
		h.getRecommendations(w, r)
	case len(parts) == 2 && parts[1] == "me" && r.Method == http.MethodGet:
		h.getMyApplications(w, r)
	case len(parts) == 3 && parts[1] == "job" && r.Method == http.MethodGet:
		h.getJobApplications(w, r, parts[2])
	case len(parts) == 2 && r.Method == http.MethodPost:
		h.applyForJob(w, r, parts[1])
	case len(parts) == 3 && parts[2] == "stage" && r.Method == http.MethodPut:
		h.updateStage(w, r, parts[1])
	default:
		jsonError(w, "not found", http.StatusNotFound)
	}
}

// ─── Individual handlers ──────────────────────────────────────────────────────

func (h *Handler) applyForJob(w http.ResponseWriter, r *http.Request, jobID string) {
	userID, ok := h.requireRole(w, r, "candidate")
	if !ok {
		return
	}
	if h.resumes == nil {
		jsonError(w, "resume uploads are not available", http.StatusServiceUnavailable)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxResumeBytes)
	file, header, err := r.FormFile("resume")
	if err != nil {
		jsonError(w, "please upload a resume (PDF)", http.StatusBadRequest)
		return
	}
	defer file.Close()

	key, err := h.resumes.Upload(r.Context(), header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		h.writeError(w, err)
		return
	}

	app, err := h.svc.Apply(r.Context(), jobID, userID, key)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, app)
}

func (h *Handler) updateStage(w http.ResponseWriter, r *http.Request, appID string) {
	actorID, ok := h.requireRole(w, r, "recruiter", "admin")
	if !ok {
		return
	}

	var body struct {
		Stage            string              `json:"stage"`
		Comments         string              `json:"comments"`
		InterviewDetails *workflow.Interview `json:"interviewDetails"`
		OfferDetails     *workflow.Offer     `json:"offerDetails"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Stage == "" {
		jsonError(w, "body must contain stage", http.StatusBadRequest)
		return
	}

	app, err := h.svc.MoveStage(r.Context(), appID, workflow.StageChange{
		Target:    body.Stage,
		ActorID:   actorID,
		Comments:  body.Comments,
		Interview: body.InterviewDetails,
		Offer:     body.OfferDetails,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, app)
}

func (h *Handler) getMyApplications(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireRole(w, r, "candidate")
	if !ok {
		return
	}

	apps, err := h.svc.ListByApplicant(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

func (h *Handler) getJobApplications(w http.ResponseWriter, r *http.Request, jobID string) {
	if _, ok := h.requireRole(w, r, "recruiter", "admin"); !ok {
		return
	}

	apps, err := h.svc.ListByJob(r.Context(), jobID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

// getRecommendations serves GET /applications/recommendations?skills=Java,SQL
// Skills from the query string win over the stored profile.
func (h *Handler) getRecommendations(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireRole(w, r, "candidate")
	if !ok {
		return
	}

	var skills []string
	if raw := strings.TrimSpace(r.URL.Query().Get("skills")); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				skills = append(skills, s)
			}
		}
	}

	ranked, err := h.svc.Recommend(r.Context(), userID, skills)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ranked)
}

func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snap, err := stats.Load(r.Context(), h.rdb, h.pool)
	if err != nil {
		log.Printf("[smarthire] stats error: %v", err)
		jsonError(w, "failed to retrieve stats", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// requireRole extracts the forwarded identity and enforces the role gate.
// Writes the error response itself when the check fails.
func (h *Handler) requireRole(w http.ResponseWriter, r *http.Request, roles ...string) (string, bool) {
	userID := r.Header.Get("x-user-id")
	if userID == "" {
		jsonError(w, "missing x-user-id header", http.StatusUnauthorized)
		return "", false
	}

	role := r.Header.Get("x-user-role")
	for _, allowed := range roles {
		if role == allowed {
			return userID, true
		}
	}
	jsonError(w, fmt.Sprintf("role %q may not perform this action", role), http.StatusForbidden)
	return "", false
}

// writeError maps engine errors onto HTTP statuses.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var ve *workflow.ValidationError
	switch {
	case errors.As(err, &ve):
		jsonError(w, ve.Msg, http.StatusBadRequest)
	case errors.Is(err, resume.ErrNotPDF):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, workflow.ErrNotFound):
		jsonError(w, "not found", http.StatusNotFound)
	case errors.Is(err, workflow.ErrDuplicateApplication):
		jsonError(w, "you have already applied for this job", http.StatusConflict)
	case errors.Is(err, workflow.ErrStageConflict):
		jsonError(w, "application was updated concurrently, please retry", http.StatusConflict)
	case errors.Is(err, workflow.ErrForbidden):
		jsonError(w, err.Error(), http.StatusForbidden)
	default:
		log.Printf("[smarthire] internal error: %v", err)
		jsonError(w, "internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// HealthHandler reports service liveness.
func HealthHandler(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "smarthire-backend",
			"version": version,
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	}
}
