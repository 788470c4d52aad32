// Package model defines shared data structures read by the workflow and
// matching engines. Jobs and users are owned by their own services; this
// backend only reads them.
package model

import "time"

// Job is a posting a candidate can apply to. RequiredSkills is optional:
// when a recruiter filled it in, match scoring uses the structured list;
// otherwise scoring falls back to the free-text fields.
type Job struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Requirements   string    `json:"requirements"`
	Salary         float64   `json:"salary"`
	Location       string    `json:"location"`
	Type           string    `json:"type"` // Full-time, Part-time, Contract
	PostedBy       string    `json:"postedBy"`
	RequiredSkills []string  `json:"requiredSkills,omitempty"`
	Applicants     []string  `json:"applicants,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// User is the slice of the account record the engine needs: identity for
// notifications and the declared skill set for match scoring.
type User struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Email  string   `json:"email"`
	Role   string   `json:"role"` // candidate, recruiter, admin
	Skills []string `json:"skills,omitempty"`
}
