package matching

import (
	"sort"

	"github.com/Raghukul777/SmartHire/internal/model"
)

// maxRecommendations caps the ranked result returned to candidates.
const maxRecommendations = 10

// ScoredJob pairs a job with its computed match score.
type ScoredJob struct {
	Job        model.Job `json:"job"`
	MatchScore int       `json:"matchScore"`
}

// Rank scores every job against the candidate skill set, sorts by score
// descending and truncates to the top 10. The sort is stable, so jobs with
// equal scores (including the all-zero case of an empty skill set) keep
// their input order. Scores are recomputed on every call; nothing is cached.
func Rank(jobs []model.Job, skills []string) []ScoredJob {
	scored := make([]ScoredJob, 0, len(jobs))
	for _, job := range jobs {
		scored = append(scored, ScoredJob{Job: job, MatchScore: ScoreJob(job, skills)})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].MatchScore > scored[j].MatchScore
	})

	if len(scored) > maxRecommendations {
		scored = scored[:maxRecommendations]
	}
	return scored
}
