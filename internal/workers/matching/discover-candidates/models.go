// internal/workers/matching/discover-candidates/models.go
package discovercandidates

import (
	"fundmatch-workers/internal/models"
	"fundmatch-workers/internal/quota"
)

type Input struct {
	UserID   string           `json:"userId"`
	Criteria *models.Criteria `json:"criteria,omitempty"`
}

type Output struct {
	Candidates []models.ScoredCandidate `json:"candidates"`
	Count      int                      `json:"count"`
	Usage      *UsageSnapshot           `json:"usage,omitempty"`
}

// UsageSnapshot is the wire form of the requester's remaining allowance,
// included so process models can branch on it without a second task.
type UsageSnapshot struct {
	Resource        string `json:"resource"`
	Used            int    `json:"used"`
	Limit           int    `json:"limit"`
	Remaining       int    `json:"remaining"`
	Percentage      int    `json:"percentage"`
	Unlimited       bool   `json:"unlimited"`
	ResetsInSeconds int    `json:"resetsInSeconds"`
}

func newUsageSnapshot(stats *quota.UsageStats) *UsageSnapshot {
	if stats == nil {
		return nil
	}
	return &UsageSnapshot{
		Resource:        string(stats.Resource),
		Used:            stats.Used,
		Limit:           stats.Limit,
		Remaining:       stats.Remaining,
		Percentage:      stats.Percentage,
		Unlimited:       stats.Unlimited,
		ResetsInSeconds: int(stats.ResetsIn.Seconds()),
	}
}
