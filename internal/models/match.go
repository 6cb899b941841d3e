// internal/models/match.go
package models

import (
	"strings"
	"time"
)

// Direction is a swipe decision.
type Direction string

const (
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
)

// ParseDirection normalizes a raw direction string. Unknown input yields an
// empty Direction.
func ParseDirection(raw string) Direction {
	switch Direction(strings.ToLower(strings.TrimSpace(raw))) {
	case DirectionLeft:
		return DirectionLeft
	case DirectionRight:
		return DirectionRight
	}
	return ""
}

// MatchStatus is the state of a MatchRecord. Pending transitions exactly once
// to a terminal state; terminal states never revert.
type MatchStatus string

const (
	StatusPending  MatchStatus = "pending"
	StatusMatched  MatchStatus = "matched"
	StatusRejected MatchStatus = "rejected"
)

// Terminal reports whether the status permits no further transitions.
func (s MatchStatus) Terminal() bool {
	return s == StatusMatched || s == StatusRejected
}

// MatchQuality is the coarse bucket derived from the compatibility score.
type MatchQuality string

const (
	QualityLow    MatchQuality = "LOW"
	QualityMedium MatchQuality = "MEDIUM"
	QualityHigh   MatchQuality = "HIGH"
)

// QualityForScore buckets a 0-100 compatibility score.
func QualityForScore(score int) MatchQuality {
	switch {
	case score >= 80:
		return QualityHigh
	case score >= 60:
		return QualityMedium
	default:
		return QualityLow
	}
}

// MatchRecord is the canonical record for one user pair. A single row covers
// both directions: InitiatorID is whoever acted first, and a reciprocal
// right-swipe from TargetID promotes the row to matched. Records are
// append-only history and are never deleted.
type MatchRecord struct {
	ID                   string             `json:"id"`
	InitiatorID          string             `json:"initiatorId"`
	TargetID             string             `json:"targetId"`
	Status               MatchStatus        `json:"status"`
	CompatibilityScore   int                `json:"compatibilityScore"`
	CompatibilityFactors map[string]float64 `json:"compatibilityFactors,omitempty"`
	MatchQuality         MatchQuality       `json:"matchQuality"`
	Reasons              []string           `json:"reasons,omitempty"`
	SuperLiked           bool               `json:"superLiked"`
	Priority             bool               `json:"priority"`
	ChatRoomID           string             `json:"chatRoomId,omitempty"`
	CreatedAt            time.Time          `json:"createdAt"`
	RespondedAt          *time.Time         `json:"respondedAt,omitempty"`
}

// Involves reports whether the given user is one side of the record.
func (r MatchRecord) Involves(userID string) bool {
	return r.InitiatorID == userID || r.TargetID == userID
}

// OtherSide returns the counterparty of the given user, or "" when the user is
// not part of the record.
func (r MatchRecord) OtherSide(userID string) string {
	switch userID {
	case r.InitiatorID:
		return r.TargetID
	case r.TargetID:
		return r.InitiatorID
	}
	return ""
}

// PairKey returns the order-independent key for a user pair, lexicographically
// smaller ID first. The relationship store keeps a uniqueness constraint on it.
func PairKey(a, b string) (lo, hi string) {
	if a < b {
		return a, b
	}
	return b, a
}

// SwipeResult is the outcome of a swipe or super-like.
type SwipeResult struct {
	IsMatch bool        `json:"isMatch"`
	Record  MatchRecord `json:"record"`
}

// ScoredCandidate is one discovery result.
type ScoredCandidate struct {
	Profile ProfileSnapshot    `json:"profile"`
	Score   int                `json:"score"`
	Factors map[string]float64 `json:"factors"`
	Reasons []string           `json:"reasons,omitempty"`
	Quality MatchQuality       `json:"quality"`
}
