// Package matching computes compatibility scores between jobs and candidate
// skill sets, and ranks jobs for recommendation.
//
// Two scoring strategies exist, selected once per job:
//
//   - structured: the job declares RequiredSkills — score how many of the
//     required skills the candidate covers.
//   - freeform: no structured list — score how many of the candidate's skills
//     appear anywhere in the job's combined title/description/requirements
//     text.
package matching

import (
	"math"
	"strings"

	"github.com/Raghukul777/SmartHire/internal/model"
)

// ScoreJob returns an integer match score in [0,100] for one job against one
// candidate skill set. Identical inputs always produce the identical score.
func ScoreJob(job model.Job, skills []string) int {
	candidate := normalizeSkills(skills)
	if len(candidate) == 0 {
		return 0
	}
	if required := normalizeSkills(job.RequiredSkills); len(required) > 0 {
		return scoreStructured(required, candidate)
	}
	return scoreFreeform(job, candidate)
}

// scoreStructured counts how many required skills the candidate matches.
// A required skill matches when a candidate skill equals it or either string
// contains the other.
func scoreStructured(required, candidate []string) int {
	matches := 0
	for _, req := range required {
		for _, have := range candidate {
			if have == req || strings.Contains(have, req) || strings.Contains(req, have) {
				matches++
				break
			}
		}
	}
	return percentage(matches, len(required))
}

// scoreFreeform counts how many candidate skills appear as substrings of the
// job's combined text. A job with no text at all scores 0.
func scoreFreeform(job model.Job, candidate []string) int {
	blob := strings.ToLower(job.Title + " " + job.Description + " " + job.Requirements)
	if strings.TrimSpace(blob) == "" {
		return 0
	}
	matches := 0
	for _, skill := range candidate {
		if strings.Contains(blob, skill) {
			matches++
		}
	}
	return percentage(matches, len(candidate))
}

// normalizeSkills lowercases and trims every skill, dropping empties.
func normalizeSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func percentage(matches, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(matches) / float64(total) * 100))
}
