// internal/workers/matching/parse-match-criteria/models.go
package parsematchcriteria

import "fundmatch-workers/internal/models"

type Input struct {
	RawCriteria map[string]interface{} `json:"rawCriteria"`
}

type Output struct {
	Criteria models.Criteria `json:"criteria"`
}
