// internal/workers/matching/process-swipe/models.go
package processswipe

import "fundmatch-workers/internal/models"

type Input struct {
	InitiatorID string `json:"initiatorId"`
	TargetID    string `json:"targetId"`
	Direction   string `json:"direction"`
}

type Output struct {
	IsMatch bool               `json:"isMatch"`
	Status  string             `json:"status"`
	Record  models.MatchRecord `json:"record"`
}
