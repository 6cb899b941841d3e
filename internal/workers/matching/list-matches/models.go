// internal/workers/matching/list-matches/models.go
package listmatches

import "fundmatch-workers/internal/models"

type Input struct {
	UserID string `json:"userId"`
}

type Output struct {
	Matches []models.MatchRecord `json:"matches"`
	Count   int                  `json:"count"`
}
