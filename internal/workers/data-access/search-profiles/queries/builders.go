package queries

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var (
	ErrUnknownQueryType = errors.New("unknown query type")
	ErrMissingIndex     = errors.New("index name is required")
)

// verificationLadder orders document-verification levels from weakest to
// strongest. A floor filter admits every level at or above the floor.
var verificationLadder = []string{
	"none",
	"business_plan",
	"use_case",
	"demographic_alignment",
	"app_ux_ui",
	"fiscal_analysis",
}

// ProfileQuery defines the structure of a query request
type ProfileQuery struct {
	Index      string
	QueryType  string
	Filters    map[string]interface{}
	UserID     string
	Role       string
	Pagination struct {
		From int
		Size int
	}
}

// BuildQuery builds an Elasticsearch search request based on query type and filters
func BuildQuery(esClient *elasticsearch.Client, pq ProfileQuery) (*esapi.SearchRequest, error) {
	if pq.Index == "" {
		return nil, ErrMissingIndex
	}

	var queryBody map[string]interface{}

	switch pq.QueryType {
	case "profile_search":
		queryBody = buildProfileSearchQuery(pq)
	case "similar_profiles":
		queryBody = buildSimilarProfilesQuery(pq)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownQueryType, pq.QueryType)
	}

	body, _ := json.Marshal(queryBody)

	req := esapi.SearchRequest{
		Index:  []string{pq.Index},
		Body:   strings.NewReader(string(body)),
		From:   &pq.Pagination.From,
		Size:   &pq.Pagination.Size,
		Pretty: true,
	}

	return &req, nil
}

// buildProfileSearchQuery builds the main profile directory query dynamically
func buildProfileSearchQuery(pq ProfileQuery) map[string]interface{} {
	boolQuery := make(map[string]interface{})
	mustClauses := []interface{}{}
	filterClauses := []interface{}{}

	// Keyword search
	if keywords, ok := pq.Filters["keywords"].(string); ok && keywords != "" {
		mustClauses = append(mustClauses, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  keywords,
				"fields": []string{"display_name^3", "pitch^2", "industries", "keywords"},
				"type":   "best_fields",
			},
		})
	}

	// Role filter
	if role, ok := pq.Filters["role"].(string); ok && role != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"role": role},
		})
	} else if pq.Role != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"role": pq.Role},
		})
	}

	if terms := termsFilter(pq.Filters, "industries"); terms != nil {
		filterClauses = append(filterClauses, map[string]interface{}{
			"terms": map[string]interface{}{"industries": terms},
		})
	}
	if terms := termsFilter(pq.Filters, "businessTypes"); terms != nil {
		filterClauses = append(filterClauses, map[string]interface{}{
			"terms": map[string]interface{}{"business_type": terms},
		})
	}
	if terms := termsFilter(pq.Filters, "marketSizes"); terms != nil {
		filterClauses = append(filterClauses, map[string]interface{}{
			"terms": map[string]interface{}{"market_size": terms},
		})
	}
	if terms := termsFilter(pq.Filters, "timelines"); terms != nil {
		filterClauses = append(filterClauses, map[string]interface{}{
			"terms": map[string]interface{}{"timeline": terms},
		})
	}

	// Experience floor
	if minYears, ok := numericFilter(pq.Filters["minYearsExperience"]); ok && minYears > 0 {
		filterClauses = append(filterClauses, map[string]interface{}{
			"range": map[string]interface{}{
				"years_experience": map[string]interface{}{"gte": minYears},
			},
		})
	}

	// Investment band overlap: a profile's band [investment_min, investment_max]
	// matches when it intersects the requested band.
	if invRange, ok := pq.Filters["investmentRange"].(map[string]interface{}); ok {
		minVal, minExists := numericFilter(invRange["min"])
		maxVal, maxExists := numericFilter(invRange["max"])

		switch {
		case minExists && maxExists && minVal > 0 && maxVal >= minVal:
			filterClauses = append(filterClauses,
				map[string]interface{}{
					"range": map[string]interface{}{
						"investment_max": map[string]interface{}{"gte": minVal},
					},
				},
				map[string]interface{}{
					"range": map[string]interface{}{
						"investment_min": map[string]interface{}{"lte": maxVal},
					},
				},
			)
		case minExists && minVal > 0:
			filterClauses = append(filterClauses, map[string]interface{}{
				"range": map[string]interface{}{
					"investment_max": map[string]interface{}{"gte": minVal},
				},
			})
		case maxExists && maxVal > 0:
			filterClauses = append(filterClauses, map[string]interface{}{
				"range": map[string]interface{}{
					"investment_min": map[string]interface{}{"lte": maxVal},
				},
			})
		}
	}

	// Verification floor
	if floor, ok := pq.Filters["verificationFloor"].(string); ok && floor != "" {
		if levels := levelsAtOrAbove(floor); levels != nil {
			filterClauses = append(filterClauses, map[string]interface{}{
				"terms": map[string]interface{}{"verification_level": levels},
			})
		}
	} else if verifiedOnly, ok := pq.Filters["verifiedOnly"].(bool); ok && verifiedOnly {
		filterClauses = append(filterClauses, map[string]interface{}{
			"terms": map[string]interface{}{"verification_level": levelsAtOrAbove("business_plan")},
		})
	}

	// Default match_all if no keyword
	if len(mustClauses) == 0 {
		mustClauses = append(mustClauses, map[string]interface{}{"match_all": map[string]interface{}{}})
	}

	boolQuery["must"] = mustClauses
	if len(filterClauses) > 0 {
		boolQuery["filter"] = filterClauses
	}

	query := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": boolQuery,
		},
	}

	// Sorting logic
	if sortBy, ok := pq.Filters["sortBy"].(string); ok {
		switch sortBy {
		case "years_experience":
			query["sort"] = []map[string]interface{}{{"years_experience": "desc"}}
		case "investment_min":
			query["sort"] = []map[string]interface{}{{"investment_min": "asc"}}
		case "display_name":
			query["sort"] = []map[string]interface{}{{"display_name": "asc"}}
		}
	}

	return query
}

// buildSimilarProfilesQuery builds a "profiles like this one" query
func buildSimilarProfilesQuery(pq ProfileQuery) map[string]interface{} {
	if pq.UserID == "" {
		return map[string]interface{}{
			"query": map[string]interface{}{
				"match_none": map[string]interface{}{},
			},
		}
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"more_like_this": map[string]interface{}{
				"fields": []string{"display_name", "pitch", "industries", "keywords"},
				"like": []map[string]interface{}{
					{"_index": pq.Index, "_id": pq.UserID},
				},
				"min_term_freq":   1,
				"max_query_terms": 12,
				"min_doc_freq":    1,
				"min_word_length": 3,
			},
		},
	}
}

// termsFilter pulls a non-empty string list out of the filter map, skipping
// entries of the wrong type.
func termsFilter(filters map[string]interface{}, key string) []string {
	raw, ok := filters[key].([]interface{})
	if !ok || len(raw) == 0 {
		return nil
	}
	terms := make([]string, 0, len(raw))
	for _, entry := range raw {
		if s, ok := entry.(string); ok && s != "" {
			terms = append(terms, s)
		}
	}
	if len(terms) == 0 {
		return nil
	}
	return terms
}

func numericFilter(raw interface{}) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// levelsAtOrAbove returns the tail of the verification ladder starting at the
// floor, or nil when the floor is not a known level.
func levelsAtOrAbove(floor string) []string {
	for i, level := range verificationLadder {
		if level == floor {
			return verificationLadder[i:]
		}
	}
	return nil
}
