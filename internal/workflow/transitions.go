// Package workflow defines the hiring-pipeline state machine for applications.
//
// Valid stage graph:
//
//	APPLIED ──► SCREENING ──► TECHNICAL ──► INTERVIEW ──► HR ──► OFFER ──► HIRED
//	    │            │             │             │         │        │
//	    └────────────┴─────────────┴─────────────┴─────────┴────────┴──► REJECTED / WITHDRAWN
//
// HIRED, REJECTED and WITHDRAWN are terminal stages.
package workflow

import "fmt"

// Stage values mirror the current_stage enum in PostgreSQL.
type Stage string

const (
	StageApplied   Stage = "APPLIED"
	StageScreening Stage = "SCREENING"
	StageTechnical Stage = "TECHNICAL"
	StageInterview Stage = "INTERVIEW"
	StageHR        Stage = "HR"
	StageOffer     Stage = "OFFER"
	StageHired     Stage = "HIRED"
	StageRejected  Stage = "REJECTED"
	StageWithdrawn Stage = "WITHDRAWN"
)

// stageTransitions lists every allowed (from → to) pair.
var stageTransitions = map[Stage][]Stage{
	StageApplied:   {StageScreening, StageRejected, StageWithdrawn},
	StageScreening: {StageTechnical, StageRejected, StageWithdrawn},
	StageTechnical: {StageInterview, StageRejected, StageWithdrawn},
	StageInterview: {StageHR, StageRejected, StageWithdrawn},
	StageHR:        {StageOffer, StageRejected, StageWithdrawn},
	StageOffer:     {StageHired, StageRejected, StageWithdrawn},
	// HIRED, REJECTED and WITHDRAWN are terminal — no outgoing transitions
}

// ParseStage converts a raw string to a Stage, returning an error for
// unknown values.
func ParseStage(s string) (Stage, error) {
	st := Stage(s)
	switch st {
	case StageApplied, StageScreening, StageTechnical, StageInterview,
		StageHR, StageOffer, StageHired, StageRejected, StageWithdrawn:
		return st, nil
	}
	return "", fmt.Errorf("unknown application stage %q", s)
}

// IsTransitionAllowed returns true when moving from → to is permitted by the
// state machine. Unknown source stages fail closed.
func IsTransitionAllowed(from, to Stage) bool {
	allowed, ok := stageTransitions[from]
	if !ok {
		return false // terminal or unknown stage — no outgoing transitions
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal returns true for stages with no outgoing transitions.
func IsTerminal(s Stage) bool {
	switch s {
	case StageHired, StageRejected, StageWithdrawn:
		return true
	}
	return false
}
