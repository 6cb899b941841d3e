// internal/models/notification.go
package models

import "time"

// MatchEvent is the payload delivered to each party when a pair reaches the
// matched state. RecipientID is the party being notified; CounterpartID is who
// they matched with.
type MatchEvent struct {
	MatchID       string       `json:"matchId"`
	RecipientID   string       `json:"recipientId"`
	CounterpartID string       `json:"counterpartId"`
	Score         int          `json:"score"`
	Quality       MatchQuality `json:"quality"`
	Priority      bool         `json:"priority"`
	ChatRoomID    string       `json:"chatRoomId,omitempty"`
	OccurredAt    time.Time    `json:"occurredAt"`
}

