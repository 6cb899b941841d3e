// internal/workers/matching/escalate-super-like/models.go
package escalatesuperlike

import "fundmatch-workers/internal/models"

type Input struct {
	InitiatorID string `json:"initiatorId"`
	TargetID    string `json:"targetId"`
}

type Output struct {
	IsMatch  bool               `json:"isMatch"`
	Status   string             `json:"status"`
	Priority bool               `json:"priority"`
	Record   models.MatchRecord `json:"record"`
}
