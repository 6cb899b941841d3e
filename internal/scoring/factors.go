// internal/scoring/factors.go

package scoring

import (
	"math"
	"sort"
	"strings"

	"fundmatch-workers/internal/models"
)

// industryAlignment is the size of the case-insensitive intersection divided
// by the size of the larger set. Either side empty scores 0.
func industryAlignment(a, b []string) float64 {
	setA := industrySet(a)
	setB := industrySet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0.0
	}

	shared := 0
	for key := range setA {
		if _, ok := setB[key]; ok {
			shared++
		}
	}

	larger := len(setA)
	if len(setB) > larger {
		larger = len(setB)
	}
	return float64(shared) / float64(larger)
}

// industrySet normalizes a list of industry labels into a lowercase set,
// dropping blanks and duplicates.
func industrySet(industries []string) map[string]string {
	set := make(map[string]string, len(industries))
	for _, raw := range industries {
		display := strings.TrimSpace(raw)
		if display == "" {
			continue
		}
		key := strings.ToLower(display)
		if _, ok := set[key]; !ok {
			set[key] = display
		}
	}
	return set
}

// sharedIndustries returns the display labels of the intersection, sorted for
// deterministic output.
func sharedIndustries(a, b []string) []string {
	setA := industrySet(a)
	setB := industrySet(b)

	keys := make([]string, 0, len(setA))
	for key := range setA {
		if _, ok := setB[key]; ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	labels := make([]string, 0, len(keys))
	for _, key := range keys {
		labels = append(labels, setA[key])
	}
	return labels
}

// crossRole reports whether the pair spans both sides of the marketplace.
func crossRole(self, other models.ProfileSnapshot) bool {
	switch {
	case self.Role == models.RoleEntrepreneur && other.Role == models.RoleFunder:
		return true
	case self.Role == models.RoleFunder && other.Role == models.RoleEntrepreneur:
		return true
	}
	return false
}

// orient splits a pair into its entrepreneur and funder sides. ok is false
// when the pair is same-role or a role attribute block is missing.
func orient(self, other models.ProfileSnapshot) (ent, fun models.ProfileSnapshot, ok bool) {
	switch {
	case self.Role == models.RoleEntrepreneur && other.Role == models.RoleFunder:
		ent, fun = self, other
	case self.Role == models.RoleFunder && other.Role == models.RoleEntrepreneur:
		ent, fun = other, self
	default:
		return ent, fun, false
	}
	if ent.Entrepreneur == nil || fun.Funder == nil {
		return ent, fun, false
	}
	return ent, fun, true
}

// investmentFit rates how well the entrepreneur's requested amount sits in the
// funder's investment range: 1.0 inside the range, linearly decayed toward 0
// by the relative distance outside the nearer bound. A bound of 0 or below is
// treated as open. Same-role pairs and missing amounts score neutral.
func investmentFit(self, other models.ProfileSnapshot) float64 {
	ent, fun, ok := orient(self, other)
	if !ok {
		return neutralFactor
	}

	amount := float64(ent.Entrepreneur.FundingAmount)
	lower := float64(fun.Funder.InvestmentMin)
	upper := float64(fun.Funder.InvestmentMax)
	if amount <= 0 || (lower <= 0 && upper <= 0) {
		return neutralFactor
	}

	if lower > 0 && amount < lower {
		return math.Max(0, 1.0-(lower-amount)/lower)
	}
	if upper > 0 && amount > upper {
		return math.Max(0, 1.0-(amount-upper)/upper)
	}
	return 1.0
}

// experienceMatch compares years of experience. Complementary roles tolerate a
// wider gap than same-role pairs, so the difference is normalized over 15
// years cross-role and 5 years same-role. The factor is symmetric in its
// arguments.
func experienceMatch(self, other models.ProfileSnapshot) float64 {
	gap := math.Abs(float64(self.YearsExperience - other.YearsExperience))
	span := 5.0
	if self.Role != other.Role {
		span = 15.0
	}
	return math.Max(0, 1.0-gap/span)
}

// verificationAlignment weighs the counterpart's absolute verification depth
// (70%) against how closely the two parties' depths track each other (30%).
// It is intentionally asymmetric: a well-verified counterpart is worth more
// than being well verified yourself.
func verificationAlignment(self, other models.ProfileSnapshot) float64 {
	selfOrd := float64(self.VerificationLevel.Ordinal())
	otherOrd := float64(other.VerificationLevel.Ordinal())

	depth := otherOrd / float64(models.VerificationMaxOrdinal)
	proximity := 1.0 - math.Abs(selfOrd-otherOrd)/float64(models.VerificationLevelCount)
	return 0.7*depth + 0.3*proximity
}

// teamBucket maps a head count onto a coarse size class: solo, small (2-5),
// mid (6-15), large (16+). Non-positive counts report -1.
func teamBucket(size int) int {
	switch {
	case size <= 0:
		return -1
	case size == 1:
		return 0
	case size <= 5:
		return 1
	case size <= 15:
		return 2
	default:
		return 3
	}
}

// teamAffinity scores team size bucket pairs by their distance.
var teamAffinity = [4][4]float64{
	{1.0, 0.7, 0.4, 0.2},
	{0.7, 1.0, 0.7, 0.4},
	{0.4, 0.7, 1.0, 0.7},
	{0.2, 0.4, 0.7, 1.0},
}

// teamCompatibility compares the entrepreneur's team size with the funder's
// preferred team size through the affinity table. Same-role pairs and missing
// sizes score neutral.
func teamCompatibility(self, other models.ProfileSnapshot) float64 {
	ent, fun, ok := orient(self, other)
	if !ok {
		return neutralFactor
	}

	entBucket := teamBucket(ent.Entrepreneur.TeamSize)
	funBucket := teamBucket(fun.Funder.PreferredTeamSize)
	if entBucket < 0 || funBucket < 0 {
		return neutralFactor
	}
	return teamAffinity[entBucket][funBucket]
}

// businessModelAffinity scores known business type pairs. Each pair is stored
// once; lookupAffinity checks both directions. Identical types are handled
// before the lookup, so the table only carries cross-type affinities.
var businessModelAffinity = map[string]map[string]float64{
	"b2b": {
		"saas":        0.7,
		"services":    0.7,
		"marketplace": 0.4,
		"hardware":    0.4,
		"b2c":         0.3,
	},
	"b2c": {
		"marketplace": 0.7,
		"saas":        0.4,
		"hardware":    0.4,
		"services":    0.3,
	},
	"saas": {
		"marketplace": 0.4,
		"services":    0.4,
		"hardware":    0.3,
	},
	"marketplace": {
		"hardware": 0.3,
		"services": 0.3,
	},
	"hardware": {
		"services": 0.3,
	},
}

func lookupAffinity(a, b string) (float64, bool) {
	if v, ok := businessModelAffinity[a][b]; ok {
		return v, true
	}
	if v, ok := businessModelAffinity[b][a]; ok {
		return v, true
	}
	return 0, false
}

// marketProximity scores market size ordinals by their distance.
var marketProximity = [4]float64{1.0, 0.7, 0.4, 0.2}

// businessModelFit compares business types across a complementary-role pair,
// falling back to market size proximity when the types are unknown to the
// affinity table, and to neutral when neither attribute is usable.
func businessModelFit(self, other models.ProfileSnapshot) float64 {
	if !crossRole(self, other) {
		return neutralFactor
	}

	selfType := strings.ToLower(strings.TrimSpace(self.BusinessType))
	otherType := strings.ToLower(strings.TrimSpace(other.BusinessType))
	if selfType != "" && selfType == otherType {
		return 1.0
	}
	if selfType != "" && otherType != "" {
		if affinity, ok := lookupAffinity(selfType, otherType); ok {
			return affinity
		}
	}

	selfMarket := self.MarketSize.Ordinal()
	otherMarket := other.MarketSize.Ordinal()
	if selfMarket < 0 || otherMarket < 0 {
		return neutralFactor
	}
	gap := selfMarket - otherMarket
	if gap < 0 {
		gap = -gap
	}
	return marketProximity[gap]
}

// timelineAlignment maps both timeline buckets onto [0,1] and scores their
// closeness across a complementary-role pair. Same-role pairs and missing or
// unknown buckets score neutral.
func timelineAlignment(self, other models.ProfileSnapshot) float64 {
	if !crossRole(self, other) {
		return neutralFactor
	}
	selfVal := self.Timeline.Value()
	otherVal := other.Timeline.Value()
	if selfVal < 0 || otherVal < 0 {
		return neutralFactor
	}
	return 1.0 - math.Abs(selfVal-otherVal)
}
