// internal/models/snapshot.go
package models

import "strings"

// Role distinguishes the two counterparty sides of the platform.
type Role string

const (
	RoleEntrepreneur Role = "entrepreneur"
	RoleFunder       Role = "funder"
)

// Counterpart returns the opposing role.
func (r Role) Counterpart() Role {
	if r == RoleEntrepreneur {
		return RoleFunder
	}
	return RoleEntrepreneur
}

// ParseRole normalizes a raw role string. Unknown input yields an empty Role.
func ParseRole(raw string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleEntrepreneur:
		return RoleEntrepreneur
	case RoleFunder:
		return RoleFunder
	}
	return ""
}

// VerificationLevel is the ordinal document-verification ladder.
type VerificationLevel string

const (
	VerificationNone                 VerificationLevel = "none"
	VerificationBusinessPlan         VerificationLevel = "business_plan"
	VerificationUseCase              VerificationLevel = "use_case"
	VerificationDemographicAlignment VerificationLevel = "demographic_alignment"
	VerificationAppUXUI              VerificationLevel = "app_ux_ui"
	VerificationFiscalAnalysis       VerificationLevel = "fiscal_analysis"

	// VerificationMaxOrdinal is the ordinal of the highest level.
	VerificationMaxOrdinal = 5
	// VerificationLevelCount is the number of defined levels.
	VerificationLevelCount = 6
)

var verificationOrdinals = map[VerificationLevel]int{
	VerificationNone:                 0,
	VerificationBusinessPlan:         1,
	VerificationUseCase:              2,
	VerificationDemographicAlignment: 3,
	VerificationAppUXUI:              4,
	VerificationFiscalAnalysis:       5,
}

// Ordinal returns the level's position on the ladder; unknown levels count as none.
func (v VerificationLevel) Ordinal() int {
	if ord, ok := verificationOrdinals[v]; ok {
		return ord
	}
	return 0
}

// ParseVerificationLevel normalizes a raw level string, falling back to none.
func ParseVerificationLevel(raw string) VerificationLevel {
	level := VerificationLevel(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := verificationOrdinals[level]; ok {
		return level
	}
	return VerificationNone
}

// SubscriptionTier is the ordinal subscription ladder. Tier gates both usage
// quotas and cross-tier visibility during discovery.
type SubscriptionTier string

const (
	TierBasic    SubscriptionTier = "basic"
	TierChrome   SubscriptionTier = "chrome"
	TierBronze   SubscriptionTier = "bronze"
	TierSilver   SubscriptionTier = "silver"
	TierGold     SubscriptionTier = "gold"
	TierPlatinum SubscriptionTier = "platinum"
)

var tierOrdinals = map[SubscriptionTier]int{
	TierBasic:    0,
	TierChrome:   1,
	TierBronze:   2,
	TierSilver:   3,
	TierGold:     4,
	TierPlatinum: 5,
}

// AllTiers lists the tiers in ascending order.
var AllTiers = []SubscriptionTier{TierBasic, TierChrome, TierBronze, TierSilver, TierGold, TierPlatinum}

// TiersAtOrBelow returns the tiers visible to the given tier during discovery,
// ascending. Candidates on a strictly higher tier are hidden.
func TiersAtOrBelow(tier SubscriptionTier) []SubscriptionTier {
	return append([]SubscriptionTier(nil), AllTiers[:tier.Ordinal()+1]...)
}

// Ordinal returns the tier's position on the ladder; unknown tiers count as basic.
func (t SubscriptionTier) Ordinal() int {
	if ord, ok := tierOrdinals[t]; ok {
		return ord
	}
	return 0
}

// ParseSubscriptionTier normalizes a raw tier string. Unknown input falls back
// to basic, the most restrictive tier.
func ParseSubscriptionTier(raw string) SubscriptionTier {
	tier := SubscriptionTier(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := tierOrdinals[tier]; ok {
		return tier
	}
	return TierBasic
}

// MarketSize buckets the target or preferred market.
type MarketSize string

const (
	MarketSmall      MarketSize = "small"
	MarketMedium     MarketSize = "medium"
	MarketLarge      MarketSize = "large"
	MarketEnterprise MarketSize = "enterprise"
)

var marketOrdinals = map[MarketSize]int{
	MarketSmall:      0,
	MarketMedium:     1,
	MarketLarge:      2,
	MarketEnterprise: 3,
}

// Ordinal returns the bucket position, or -1 when the size is missing/unknown.
func (m MarketSize) Ordinal() int {
	if ord, ok := marketOrdinals[m]; ok {
		return ord
	}
	return -1
}

// ParseMarketSize normalizes a raw market size. Unknown input yields the empty
// value, which scoring treats as missing.
func ParseMarketSize(raw string) MarketSize {
	size := MarketSize(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := marketOrdinals[size]; ok {
		return size
	}
	return ""
}

// TimelineBucket is the normalized timeline preference.
type TimelineBucket string

const (
	TimelineImmediate         TimelineBucket = "immediate"
	TimelineZeroToSixMonths   TimelineBucket = "0-6_months"
	TimelineSixToTwelveMonths TimelineBucket = "6-12_months"
	TimelineOneToTwoYears     TimelineBucket = "1-2_years"
	TimelineTwoToThreeYears   TimelineBucket = "2-3_years"
	TimelineThreePlusYears    TimelineBucket = "3_plus_years"
)

var timelineValues = map[TimelineBucket]float64{
	TimelineImmediate:         0.0,
	TimelineZeroToSixMonths:   0.2,
	TimelineSixToTwelveMonths: 0.4,
	TimelineOneToTwoYears:     0.6,
	TimelineTwoToThreeYears:   0.8,
	TimelineThreePlusYears:    1.0,
}

// Value returns the bucket's scalar position in [0,1], or -1 when missing/unknown.
func (t TimelineBucket) Value() float64 {
	if v, ok := timelineValues[t]; ok {
		return v
	}
	return -1
}

// ParseTimelineBucket normalizes a raw timeline string. Unknown input yields
// the empty value, which scoring treats as missing.
func ParseTimelineBucket(raw string) TimelineBucket {
	bucket := TimelineBucket(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := timelineValues[bucket]; ok {
		return bucket
	}
	return ""
}

// GeoPoint is an optional geographic coordinate. Distance math is handled by
// an external collaborator; the engine only carries the point through.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// EntrepreneurAttrs holds the entrepreneur-side fields of a snapshot.
type EntrepreneurAttrs struct {
	FundingAmount int64 `json:"fundingAmount"` // desired raise, whole currency units
	FundingMonths int   `json:"fundingMonths"` // runway the raise should cover
	TeamSize      int   `json:"teamSize"`
}

// FunderAttrs holds the funder-side fields of a snapshot.
type FunderAttrs struct {
	InvestmentMin     int64 `json:"investmentMin"`
	InvestmentMax     int64 `json:"investmentMax"`
	PreferredTeamSize int   `json:"preferredTeamSize"`
}

// ProfileSnapshot is a read-only view of one party at score time, supplied by
// the profile store. Exactly one of Entrepreneur/Funder is set, depending on
// Role; the Scoring Engine switches on the role pair rather than probing loose
// fields.
type ProfileSnapshot struct {
	UserID            string             `json:"userId"`
	DisplayName       string             `json:"displayName"`
	Role              Role               `json:"role"`
	Industries        []string           `json:"industries"`
	YearsExperience   int                `json:"yearsExperience"`
	BusinessType      string             `json:"businessType"`
	MarketSize        MarketSize         `json:"marketSize,omitempty"`
	Timeline          TimelineBucket     `json:"timeline,omitempty"`
	VerificationLevel VerificationLevel  `json:"verificationLevel"`
	SubscriptionTier  SubscriptionTier   `json:"subscriptionTier"`
	Location          *GeoPoint          `json:"location,omitempty"`
	Entrepreneur      *EntrepreneurAttrs `json:"entrepreneur,omitempty"`
	Funder            *FunderAttrs       `json:"funder,omitempty"`
}

// Verified reports whether the party has cleared at least one verification step.
func (p ProfileSnapshot) Verified() bool {
	return p.VerificationLevel.Ordinal() > 0
}
