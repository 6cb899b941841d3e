// internal/quota/tiers.go

// Package quota enforces per-tier usage limits on matching resources. Counters
// live in Redis and are consumed atomically so concurrent workers can never
// spend the same unit twice.
package quota

import "fundmatch-workers/internal/models"

// Resource identifies a quota-limited action.
type Resource string

const (
	ResourceMatchViews      Resource = "matchViews"
	ResourceSuperLikes      Resource = "superLikes"
	ResourceMonthlyMessages Resource = "monthlyMessages"
)

// AllResources lists every quota-limited resource in a stable order.
var AllResources = []Resource{
	ResourceMatchViews,
	ResourceSuperLikes,
	ResourceMonthlyMessages,
}

// Unlimited marks a tier/resource combination with no cap.
const Unlimited = -1

// tierLimits is the per-tier allowance table. matchViews and superLikes reset
// daily, monthlyMessages monthly.
var tierLimits = map[models.SubscriptionTier]map[Resource]int{
	models.TierBasic: {
		ResourceMatchViews:      10,
		ResourceSuperLikes:      1,
		ResourceMonthlyMessages: 50,
	},
	models.TierChrome: {
		ResourceMatchViews:      20,
		ResourceSuperLikes:      3,
		ResourceMonthlyMessages: 100,
	},
	models.TierBronze: {
		ResourceMatchViews:      35,
		ResourceSuperLikes:      5,
		ResourceMonthlyMessages: 250,
	},
	models.TierSilver: {
		ResourceMatchViews:      50,
		ResourceSuperLikes:      10,
		ResourceMonthlyMessages: 500,
	},
	models.TierGold: {
		ResourceMatchViews:      100,
		ResourceSuperLikes:      20,
		ResourceMonthlyMessages: 2000,
	},
	models.TierPlatinum: {
		ResourceMatchViews:      Unlimited,
		ResourceSuperLikes:      Unlimited,
		ResourceMonthlyMessages: Unlimited,
	},
}

// LimitFor returns the allowance for a tier and resource. Unknown tiers fall
// back to basic; unknown resources have no allowance.
func LimitFor(tier models.SubscriptionTier, resource Resource) int {
	limits, ok := tierLimits[tier]
	if !ok {
		limits = tierLimits[models.TierBasic]
	}
	limit, ok := limits[resource]
	if !ok {
		return 0
	}
	return limit
}
