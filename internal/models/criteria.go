// internal/models/criteria.go
package models

import (
	"fmt"
	"strings"
)

// Criteria is the optional discovery filter set. The zero value matches
// everything; individual fields narrow the candidate pool before scoring.
type Criteria struct {
	Industries         []string          `json:"industries,omitempty"`
	InvestmentMin      int64             `json:"investmentMin,omitempty"`
	InvestmentMax      int64             `json:"investmentMax,omitempty"`
	MinYearsExperience int               `json:"minYearsExperience,omitempty"`
	MaxYearsExperience int               `json:"maxYearsExperience,omitempty"`
	VerificationFloor  VerificationLevel `json:"verificationFloor,omitempty"`
	BusinessTypes      []string          `json:"businessTypes,omitempty"`
	MarketSizes        []MarketSize      `json:"marketSizes,omitempty"`
	Timelines          []TimelineBucket  `json:"timelines,omitempty"`
	VerifiedOnly       bool              `json:"verifiedOnly,omitempty"`
	Keywords           string            `json:"keywords,omitempty"`
}

// Validate rejects internally inconsistent criteria. Unknown enum values are
// rejected rather than silently dropped so callers learn about typos.
func (c *Criteria) Validate() error {
	if c == nil {
		return nil
	}
	if c.InvestmentMin < 0 || c.InvestmentMax < 0 {
		return fmt.Errorf("investment bounds must be non-negative")
	}
	if c.InvestmentMax > 0 && c.InvestmentMin > c.InvestmentMax {
		return fmt.Errorf("investmentMin %d exceeds investmentMax %d", c.InvestmentMin, c.InvestmentMax)
	}
	if c.MinYearsExperience < 0 || c.MaxYearsExperience < 0 {
		return fmt.Errorf("experience bounds must be non-negative")
	}
	if c.MaxYearsExperience > 0 && c.MinYearsExperience > c.MaxYearsExperience {
		return fmt.Errorf("minYearsExperience %d exceeds maxYearsExperience %d", c.MinYearsExperience, c.MaxYearsExperience)
	}
	if c.VerificationFloor != "" {
		if ParseVerificationLevel(string(c.VerificationFloor)) != c.VerificationFloor {
			return fmt.Errorf("unknown verification floor %q", c.VerificationFloor)
		}
	}
	for _, size := range c.MarketSizes {
		if size.Ordinal() < 0 {
			return fmt.Errorf("unknown market size %q", size)
		}
	}
	for _, bucket := range c.Timelines {
		if bucket.Value() < 0 {
			return fmt.Errorf("unknown timeline %q", bucket)
		}
	}
	return nil
}

// Matches applies the pre-score filter to one candidate snapshot.
func (c *Criteria) Matches(p ProfileSnapshot) bool {
	if c == nil {
		return true
	}
	if c.VerifiedOnly && !p.Verified() {
		return false
	}
	if c.VerificationFloor != "" && p.VerificationLevel.Ordinal() < c.VerificationFloor.Ordinal() {
		return false
	}
	if c.MinYearsExperience > 0 && p.YearsExperience < c.MinYearsExperience {
		return false
	}
	if c.MaxYearsExperience > 0 && p.YearsExperience > c.MaxYearsExperience {
		return false
	}
	if len(c.Industries) > 0 && !overlapsFold(c.Industries, p.Industries) {
		return false
	}
	if len(c.BusinessTypes) > 0 && !containsFold(c.BusinessTypes, p.BusinessType) {
		return false
	}
	if len(c.MarketSizes) > 0 && !containsMarket(c.MarketSizes, p.MarketSize) {
		return false
	}
	if len(c.Timelines) > 0 && !containsTimeline(c.Timelines, p.Timeline) {
		return false
	}
	if c.InvestmentMin > 0 || c.InvestmentMax > 0 {
		if !investmentInRange(c, p) {
			return false
		}
	}
	return true
}

// investmentInRange checks the role-appropriate investment field against the
// criteria range. Entrepreneurs are filtered on their desired amount, funders
// on overlap of their preference range with the requested one.
func investmentInRange(c *Criteria, p ProfileSnapshot) bool {
	switch p.Role {
	case RoleEntrepreneur:
		if p.Entrepreneur == nil || p.Entrepreneur.FundingAmount <= 0 {
			return false
		}
		amount := p.Entrepreneur.FundingAmount
		if c.InvestmentMin > 0 && amount < c.InvestmentMin {
			return false
		}
		if c.InvestmentMax > 0 && amount > c.InvestmentMax {
			return false
		}
		return true
	case RoleFunder:
		if p.Funder == nil {
			return false
		}
		min, max := p.Funder.InvestmentMin, p.Funder.InvestmentMax
		if c.InvestmentMax > 0 && min > c.InvestmentMax {
			return false
		}
		if c.InvestmentMin > 0 && max > 0 && max < c.InvestmentMin {
			return false
		}
		return true
	}
	return false
}

func overlapsFold(want, have []string) bool {
	for _, w := range want {
		if containsFold(have, w) {
			return true
		}
	}
	return false
}

func containsFold(list []string, value string) bool {
	for _, item := range list {
		if foldEqual(item, value) {
			return true
		}
	}
	return false
}

func foldEqual(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func containsMarket(list []MarketSize, value MarketSize) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}

func containsTimeline(list []TimelineBucket, value TimelineBucket) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
