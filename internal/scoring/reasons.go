// internal/scoring/reasons.go

package scoring

import (
	"fmt"
	"strings"

	"fundmatch-workers/internal/models"
)

// Thresholds above which a factor earns a human-readable reason.
const (
	reasonIndustryThreshold       = 0.5
	reasonInvestmentCloseLevel    = 0.7
	reasonExperienceThreshold     = 0.8
	reasonVerificationMinOrdinal  = 3
	reasonTimelineThreshold       = 0.8
	reasonMaxSharedIndustryLabels = 3
)

// buildReasons derives the reason strings for a scored pair. Reasons are
// emitted in a fixed order so identical inputs always produce identical
// output.
func buildReasons(selfIndustries []string, other models.ProfileSnapshot, factors map[string]float64) []string {
	reasons := make([]string, 0, 4)

	if factors[FactorIndustryAlignment] > reasonIndustryThreshold {
		shared := sharedIndustries(selfIndustries, other.Industries)
		if len(shared) > reasonMaxSharedIndustryLabels {
			shared = shared[:reasonMaxSharedIndustryLabels]
		}
		if len(shared) > 0 {
			reasons = append(reasons, fmt.Sprintf("Shared focus on %s", strings.Join(shared, ", ")))
		}
	}

	switch fit := factors[FactorInvestmentFit]; {
	case fit >= 1.0:
		reasons = append(reasons, "Funding request fits the investment range")
	case fit >= reasonInvestmentCloseLevel:
		reasons = append(reasons, "Funding request close to the investment range")
	}

	if factors[FactorExperienceMatch] >= reasonExperienceThreshold {
		reasons = append(reasons, "Comparable experience levels")
	}

	if other.VerificationLevel.Ordinal() >= reasonVerificationMinOrdinal {
		reasons = append(reasons, "Strongly verified counterpart")
	}

	if factors[FactorTimelineAlignment] >= reasonTimelineThreshold {
		reasons = append(reasons, "Aligned timelines")
	}

	return reasons
}
