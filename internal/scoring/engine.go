// internal/scoring/engine.go

// Package scoring implements the pure compatibility scoring engine. Scoring a
// pair is side-effect free and deterministic: the same two snapshots always
// produce the same score, factor breakdown, and reasons.
package scoring

import (
	"math"

	"fundmatch-workers/internal/models"
)

// Factor names used in the compatibility breakdown.
const (
	FactorIndustryAlignment = "industryAlignment"
	FactorInvestmentFit     = "investmentFit"
	FactorExperienceMatch   = "experienceMatch"
	FactorVerificationLevel = "verificationLevel"
	FactorSuccessHistory    = "successHistory"
	FactorTeamCompatibility = "teamCompatibility"
	FactorBusinessModelFit  = "businessModelFit"
	FactorTimelineAlignment = "timelineAlignment"
)

// factorWeights is the fixed weighting of the eight sub-factors. The weights
// sum to 1.0; a static test guards that invariant.
var factorWeights = map[string]float64{
	FactorIndustryAlignment: 0.25,
	FactorInvestmentFit:     0.20,
	FactorExperienceMatch:   0.15,
	FactorVerificationLevel: 0.15,
	FactorSuccessHistory:    0.10,
	FactorTeamCompatibility: 0.05,
	FactorBusinessModelFit:  0.05,
	FactorTimelineAlignment: 0.05,
}

// neutralFactor is the value assigned when a factor's inputs are missing or
// the role combination does not apply.
const neutralFactor = 0.5

// HistoryProvider supplies a party's historical success rate in [0,1]. The
// second return value reports whether a rate is known.
type HistoryProvider interface {
	Rate(userID string) (float64, bool)
}

// NeutralHistory is the default HistoryProvider: no history collaborator is
// wired in, so every party scores the neutral constant.
type NeutralHistory struct{}

// Rate always reports no known history.
func (NeutralHistory) Rate(string) (float64, bool) { return 0, false }

// Engine scores counterparty pairs.
type Engine struct {
	history HistoryProvider
}

// NewEngine creates a scoring engine. A nil history provider falls back to
// NeutralHistory.
func NewEngine(history HistoryProvider) *Engine {
	if history == nil {
		history = NeutralHistory{}
	}
	return &Engine{history: history}
}

// Score computes the 0-100 compatibility score of other as seen from self,
// with the per-factor breakdown and human-readable reasons. Criteria is
// optional: when it names industries, those replace self's own set for the
// alignment factor (the user is explicitly searching them). Missing snapshot
// attributes degrade to neutral factor values; Score never panics on partial
// data.
func (e *Engine) Score(self, other models.ProfileSnapshot, criteria *models.Criteria) (int, map[string]float64, []string) {
	selfIndustries := self.Industries
	if criteria != nil && len(criteria.Industries) > 0 {
		selfIndustries = criteria.Industries
	}

	factors := map[string]float64{
		FactorIndustryAlignment: industryAlignment(selfIndustries, other.Industries),
		FactorInvestmentFit:     investmentFit(self, other),
		FactorExperienceMatch:   experienceMatch(self, other),
		FactorVerificationLevel: verificationAlignment(self, other),
		FactorSuccessHistory:    e.successHistory(other),
		FactorTeamCompatibility: teamCompatibility(self, other),
		FactorBusinessModelFit:  businessModelFit(self, other),
		FactorTimelineAlignment: timelineAlignment(self, other),
	}

	total := 0.0
	for name, weight := range factorWeights {
		total += weight * factors[name]
	}

	score := int(math.Round(total * 100))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return score, factors, buildReasons(selfIndustries, other, factors)
}

func (e *Engine) successHistory(other models.ProfileSnapshot) float64 {
	if rate, ok := e.history.Rate(other.UserID); ok {
		return clamp01(rate)
	}
	return neutralFactor
}

func clamp01(v float64) float64 {
	return math.Min(math.Max(v, 0.0), 1.0)
}
