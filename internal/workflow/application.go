package workflow

import "time"

// Offer acceptance statuses. New offers always start at PENDING; the engine
// overwrites whatever the caller supplied.
const (
	OfferPending  = "PENDING"
	OfferAccepted = "ACCEPTED"
	OfferRejected = "REJECTED"
)

// Application tracks one candidate's pursuit of one job. At most one
// Application exists per (job, applicant) pair — enforced by a unique index,
// not just the service-level pre-check.
type Application struct {
	ID           string       `json:"id"`
	JobID        string       `json:"jobId"`
	ApplicantID  string       `json:"applicantId"`
	ResumeKey    string       `json:"resumeKey"`
	CurrentStage Stage        `json:"currentStage"`
	StageHistory []StageEntry `json:"stageHistory"`
	Interview    *Interview   `json:"interview,omitempty"`
	Offer        *Offer       `json:"offer,omitempty"`
	MatchScore   int          `json:"matchScore"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// StageEntry is one record of the append-only audit trail. UpdatedBy is empty
// for system-initiated entries (the initial APPLIED entry).
type StageEntry struct {
	Stage     Stage     `json:"stage"`
	EnteredAt time.Time `json:"enteredAt"`
	UpdatedBy string    `json:"updatedBy,omitempty"`
	Comments  string    `json:"comments,omitempty"`
}

// Interview holds the scheduling payload attached when an application reaches
// the INTERVIEW stage.
type Interview struct {
	ScheduledAt time.Time `json:"scheduledAt"`
	Link        string    `json:"link,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	ScheduledBy string    `json:"scheduledBy,omitempty"`
}

// Offer holds the offer payload attached when an application reaches the
// OFFER stage.
type Offer struct {
	Salary      float64   `json:"salary"`
	Currency    string    `json:"currency"`
	JoiningDate time.Time `json:"joiningDate"`
	Status      string    `json:"status"`
}
