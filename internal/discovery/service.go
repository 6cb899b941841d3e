// internal/discovery/service.go

// Package discovery builds the ranked candidate feed: quota-gated, filtered,
// scored, and truncated to a page.
package discovery

import (
	"context"
	"sort"
	"strings"

	"fundmatch-workers/internal/common/config"
	"fundmatch-workers/internal/common/errors"
	"fundmatch-workers/internal/common/logger"
	"fundmatch-workers/internal/common/metrics"
	"fundmatch-workers/internal/models"
	"fundmatch-workers/internal/quota"
	"fundmatch-workers/internal/scoring"
)

const (
	defaultMaxResults    = 20
	defaultCandidatePool = 200
)

// CandidateSource yields the requester's snapshot and the raw candidate pool.
type CandidateSource interface {
	Get(ctx context.Context, userID string) (*models.ProfileSnapshot, error)
	ListCandidates(ctx context.Context, requester *models.ProfileSnapshot, limit int) ([]models.ProfileSnapshot, error)
}

// QuotaChecker charges one matchViews consumption per discovery call.
type QuotaChecker interface {
	CheckAndConsume(ctx context.Context, userID string, resource quota.Resource) (*quota.Decision, error)
}

// Service assembles discovery batches.
type Service struct {
	profiles   CandidateSource
	scorer     *scoring.Engine
	quotas     QuotaChecker
	logger     logger.Logger
	maxResults int
	poolSize   int
}

func NewService(profiles CandidateSource, scorer *scoring.Engine, quotas QuotaChecker, cfg config.MatchingConfig, log logger.Logger) *Service {
	if scorer == nil {
		scorer = scoring.NewEngine(nil)
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	poolSize := cfg.CandidatePool
	if poolSize <= 0 {
		poolSize = defaultCandidatePool
	}
	return &Service{
		profiles:   profiles,
		scorer:     scorer,
		quotas:     quotas,
		logger:     log,
		maxResults: maxResults,
		poolSize:   poolSize,
	}
}

// FindCandidates returns the requester's next page of counterparts, best score
// first. One call charges exactly one matchViews consumption, taken before any
// candidate is read. Ties break on UserID so paging is deterministic.
func (s *Service) FindCandidates(ctx context.Context, userID string, criteria *models.Criteria) ([]models.ScoredCandidate, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, errors.NewValidationFailedError("userId is required")
	}

	requester, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := criteria.Validate(); err != nil {
		return nil, errors.NewValidationFailedError(err.Error())
	}

	decision, err := s.quotas.CheckAndConsume(ctx, userID, quota.ResourceMatchViews)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, errors.NewQuotaExceededError(string(quota.ResourceMatchViews), decision.ResetsIn)
	}

	pool, err := s.profiles.ListCandidates(ctx, requester, s.poolSize)
	if err != nil {
		return nil, err
	}

	scored := make([]models.ScoredCandidate, 0, len(pool))
	for _, candidate := range pool {
		if !criteria.Matches(candidate) {
			continue
		}
		score, factors, reasons := s.scorer.Score(*requester, candidate, criteria)
		scored = append(scored, models.ScoredCandidate{
			Profile: candidate,
			Score:   score,
			Factors: factors,
			Reasons: reasons,
			Quality: models.QualityForScore(score),
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Profile.UserID < scored[j].Profile.UserID
	})

	// TODO: swap plain truncation for a diversity pass so a single industry
	// cannot fill the whole page.
	if len(scored) > s.maxResults {
		scored = scored[:s.maxResults]
	}

	metrics.DiscoveryBatchSize.Observe(float64(len(scored)))
	s.logger.Debug("discovery batch built", map[string]interface{}{
		"userId":    userID,
		"pool":      len(pool),
		"returned":  len(scored),
		"remaining": decision.Remaining,
	})
	return scored, nil
}
