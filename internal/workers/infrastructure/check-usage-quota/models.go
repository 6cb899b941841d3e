// internal/workers/infrastructure/check-usage-quota/models.go
package checkusagequota

import (
	"strings"

	"fundmatch-workers/internal/quota"
)

type Input struct {
	UserID   string `json:"userId"`
	Resource string `json:"resource,omitempty"`
}

type Output struct {
	UserID    string          `json:"userId"`
	Resources []UsageSnapshot `json:"resources"`
}

type UsageSnapshot struct {
	Resource        string `json:"resource"`
	Used            int    `json:"used"`
	Limit           int    `json:"limit"`
	Remaining       int    `json:"remaining"`
	Percentage      int    `json:"percentage"`
	Unlimited       bool   `json:"unlimited"`
	ResetsInSeconds int    `json:"resetsInSeconds"`
}

func newUsageSnapshot(stats quota.UsageStats) UsageSnapshot {
	return UsageSnapshot{
		Resource:        string(stats.Resource),
		Used:            stats.Used,
		Limit:           stats.Limit,
		Remaining:       stats.Remaining,
		Percentage:      stats.Percentage,
		Unlimited:       stats.Unlimited,
		ResetsInSeconds: int(stats.ResetsIn.Seconds()),
	}
}

// parseResource matches a raw resource name case-insensitively against the
// known quota resources.
func parseResource(raw string) (quota.Resource, bool) {
	normalized := strings.TrimSpace(raw)
	for _, resource := range quota.AllResources {
		if strings.EqualFold(normalized, string(resource)) {
			return resource, true
		}
	}
	return "", false
}
