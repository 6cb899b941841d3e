// internal/workers/data-access/search-profiles/queries/builders_test.go
package queries

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helpers
// ==========================

func searchBody(t *testing.T, req *esapi.SearchRequest) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
	return body
}

func boolQuery(t *testing.T, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	query, ok := body["query"].(map[string]interface{})
	require.True(t, ok, "body has no query")
	bq, ok := query["bool"].(map[string]interface{})
	require.True(t, ok, "query is not a bool query")
	return bq
}

func filterClauses(t *testing.T, body map[string]interface{}) []interface{} {
	t.Helper()
	clauses, _ := boolQuery(t, body)["filter"].([]interface{})
	return clauses
}

func termValue(clauses []interface{}, field string) (string, bool) {
	for _, clause := range clauses {
		term, ok := clause.(map[string]interface{})["term"].(map[string]interface{})
		if !ok {
			continue
		}
		if value, ok := term[field].(string); ok {
			return value, true
		}
	}
	return "", false
}

func termsValues(clauses []interface{}, field string) []string {
	for _, clause := range clauses {
		terms, ok := clause.(map[string]interface{})["terms"].(map[string]interface{})
		if !ok {
			continue
		}
		raw, ok := terms[field].([]interface{})
		if !ok {
			continue
		}
		values := make([]string, 0, len(raw))
		for _, entry := range raw {
			values = append(values, entry.(string))
		}
		return values
	}
	return nil
}

func rangeBound(clauses []interface{}, field, op string) (float64, bool) {
	for _, clause := range clauses {
		rng, ok := clause.(map[string]interface{})["range"].(map[string]interface{})
		if !ok {
			continue
		}
		bounds, ok := rng[field].(map[string]interface{})
		if !ok {
			continue
		}
		if value, ok := bounds[op].(float64); ok {
			return value, true
		}
	}
	return 0, false
}

func profileSearch(filters map[string]interface{}) ProfileQuery {
	pq := ProfileQuery{
		Index:     "profiles",
		QueryType: "profile_search",
		Filters:   filters,
	}
	pq.Pagination.From = 0
	pq.Pagination.Size = 20
	return pq
}

// ==========================
// BuildQuery Tests
// ==========================

func TestBuildQuery_MissingIndex(t *testing.T) {
	pq := profileSearch(map[string]interface{}{})
	pq.Index = ""

	_, err := BuildQuery(nil, pq)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingIndex))
}

func TestBuildQuery_UnknownQueryType(t *testing.T) {
	pq := profileSearch(map[string]interface{}{})
	pq.QueryType = "aggregate_profiles"

	_, err := BuildQuery(nil, pq)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownQueryType))
}

func TestBuildQuery_AppliesPagination(t *testing.T) {
	pq := profileSearch(map[string]interface{}{})
	pq.Pagination.From = 40
	pq.Pagination.Size = 10

	req, err := BuildQuery(nil, pq)

	require.NoError(t, err)
	assert.Equal(t, []string{"profiles"}, req.Index)
	require.NotNil(t, req.From)
	require.NotNil(t, req.Size)
	assert.Equal(t, 40, *req.From)
	assert.Equal(t, 10, *req.Size)
}

func TestBuildProfileSearch_KeywordsAndFilters(t *testing.T) {
	req, err := BuildQuery(nil, profileSearch(map[string]interface{}{
		"keywords":   "fintech payments",
		"role":       "funder",
		"industries": []interface{}{"Fintech", "Payments"},
		"investmentRange": map[string]interface{}{
			"min": float64(50000),
			"max": float64(250000),
		},
		"minYearsExperience": float64(5),
		"verificationFloor":  "use_case",
	}))

	require.NoError(t, err)
	body := searchBody(t, req)

	must := boolQuery(t, body)["must"].([]interface{})
	require.Len(t, must, 1)
	multiMatch := must[0].(map[string]interface{})["multi_match"].(map[string]interface{})
	assert.Equal(t, "fintech payments", multiMatch["query"])

	clauses := filterClauses(t, body)
	role, ok := termValue(clauses, "role")
	require.True(t, ok)
	assert.Equal(t, "funder", role)

	assert.Equal(t, []string{"Fintech", "Payments"}, termsValues(clauses, "industries"))

	years, ok := rangeBound(clauses, "years_experience", "gte")
	require.True(t, ok)
	assert.Equal(t, float64(5), years)

	// Band overlap: the profile band must reach the requested minimum and
	// start below the requested maximum.
	maxGte, ok := rangeBound(clauses, "investment_max", "gte")
	require.True(t, ok)
	assert.Equal(t, float64(50000), maxGte)
	minLte, ok := rangeBound(clauses, "investment_min", "lte")
	require.True(t, ok)
	assert.Equal(t, float64(250000), minLte)

	assert.Equal(t,
		[]string{"use_case", "demographic_alignment", "app_ux_ui", "fiscal_analysis"},
		termsValues(clauses, "verification_level"))
}

func TestBuildProfileSearch_EmptyFiltersMatchAll(t *testing.T) {
	req, err := BuildQuery(nil, profileSearch(map[string]interface{}{}))

	require.NoError(t, err)
	body := searchBody(t, req)

	must := boolQuery(t, body)["must"].([]interface{})
	require.Len(t, must, 1)
	_, isMatchAll := must[0].(map[string]interface{})["match_all"]
	assert.True(t, isMatchAll)
	assert.Empty(t, filterClauses(t, body))
}

func TestBuildProfileSearch_RoleFallback(t *testing.T) {
	pq := profileSearch(map[string]interface{}{})
	pq.Role = "entrepreneur"

	req, err := BuildQuery(nil, pq)

	require.NoError(t, err)
	role, ok := termValue(filterClauses(t, searchBody(t, req)), "role")
	require.True(t, ok)
	assert.Equal(t, "entrepreneur", role)
}

func TestBuildProfileSearch_FilterRoleWinsOverFallback(t *testing.T) {
	pq := profileSearch(map[string]interface{}{"role": "funder"})
	pq.Role = "entrepreneur"

	req, err := BuildQuery(nil, pq)

	require.NoError(t, err)
	role, ok := termValue(filterClauses(t, searchBody(t, req)), "role")
	require.True(t, ok)
	assert.Equal(t, "funder", role)
}

func TestBuildProfileSearch_InvestmentBounds(t *testing.T) {
	tests := []struct {
		name      string
		bandRange map[string]interface{}
		wantMaxOp bool // range on investment_max gte
		wantMinOp bool // range on investment_min lte
	}{
		{
			name:      "both bounds",
			bandRange: map[string]interface{}{"min": float64(10000), "max": float64(90000)},
			wantMaxOp: true,
			wantMinOp: true,
		},
		{
			name:      "only min",
			bandRange: map[string]interface{}{"min": float64(10000)},
			wantMaxOp: true,
		},
		{
			name:      "only max",
			bandRange: map[string]interface{}{"max": float64(90000)},
			wantMinOp: true,
		},
		{
			name:      "zero min falls back to max bound",
			bandRange: map[string]interface{}{"min": float64(0), "max": float64(90000)},
			wantMinOp: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := BuildQuery(nil, profileSearch(map[string]interface{}{
				"investmentRange": tt.bandRange,
			}))

			require.NoError(t, err)
			clauses := filterClauses(t, searchBody(t, req))
			_, hasMax := rangeBound(clauses, "investment_max", "gte")
			_, hasMin := rangeBound(clauses, "investment_min", "lte")
			assert.Equal(t, tt.wantMaxOp, hasMax)
			assert.Equal(t, tt.wantMinOp, hasMin)
		})
	}
}

func TestBuildProfileSearch_VerifiedOnly(t *testing.T) {
	req, err := BuildQuery(nil, profileSearch(map[string]interface{}{
		"verifiedOnly": true,
	}))

	require.NoError(t, err)
	levels := termsValues(filterClauses(t, searchBody(t, req)), "verification_level")
	require.Len(t, levels, 5)
	assert.Equal(t, "business_plan", levels[0])
	assert.NotContains(t, levels, "none")
}

func TestBuildProfileSearch_UnknownVerificationFloorSkipped(t *testing.T) {
	req, err := BuildQuery(nil, profileSearch(map[string]interface{}{
		"verificationFloor": "platinum_checked",
	}))

	require.NoError(t, err)
	assert.Nil(t, termsValues(filterClauses(t, searchBody(t, req)), "verification_level"))
}

func TestBuildProfileSearch_SortByYearsExperience(t *testing.T) {
	req, err := BuildQuery(nil, profileSearch(map[string]interface{}{
		"sortBy": "years_experience",
	}))

	require.NoError(t, err)
	body := searchBody(t, req)
	sorts, ok := body["sort"].([]interface{})
	require.True(t, ok, "expected a sort clause")
	require.Len(t, sorts, 1)
	assert.Equal(t, "desc", sorts[0].(map[string]interface{})["years_experience"])
}

func TestBuildSimilarProfiles(t *testing.T) {
	pq := ProfileQuery{
		Index:     "profiles",
		QueryType: "similar_profiles",
		Filters:   map[string]interface{}{},
		UserID:    "ent-001",
	}
	pq.Pagination.Size = 20

	req, err := BuildQuery(nil, pq)

	require.NoError(t, err)
	body := searchBody(t, req)
	mlt := body["query"].(map[string]interface{})["more_like_this"].(map[string]interface{})
	like := mlt["like"].([]interface{})
	require.Len(t, like, 1)
	assert.Equal(t, "ent-001", like[0].(map[string]interface{})["_id"])
	assert.Equal(t, "profiles", like[0].(map[string]interface{})["_index"])
}

func TestBuildSimilarProfiles_NoUserMatchesNothing(t *testing.T) {
	pq := ProfileQuery{
		Index:     "profiles",
		QueryType: "similar_profiles",
		Filters:   map[string]interface{}{},
	}

	req, err := BuildQuery(nil, pq)

	require.NoError(t, err)
	body := searchBody(t, req)
	_, isMatchNone := body["query"].(map[string]interface{})["match_none"]
	assert.True(t, isMatchNone)
}

func TestLevelsAtOrAbove(t *testing.T) {
	assert.Len(t, levelsAtOrAbove("none"), 6)
	assert.Equal(t, []string{"app_ux_ui", "fiscal_analysis"}, levelsAtOrAbove("app_ux_ui"))
	assert.Equal(t, []string{"fiscal_analysis"}, levelsAtOrAbove("fiscal_analysis"))
	assert.Nil(t, levelsAtOrAbove("notarized"))
}
