// internal/quota/service.go

package quota

import (
	"context"
	"fmt"
	"math"
	"time"

	"fundmatch-workers/internal/common/errors"
	"fundmatch-workers/internal/common/logger"
	"fundmatch-workers/internal/common/metrics"
	"fundmatch-workers/internal/models"

	"github.com/redis/go-redis/v9"
)

// TierSource resolves a user's subscription tier.
type TierSource interface {
	TierFor(ctx context.Context, userID string) (models.SubscriptionTier, error)
}

// Decision is the outcome of an atomic quota check.
type Decision struct {
	Allowed   bool
	Remaining int
	Limit     int
	Unlimited bool
	ResetsIn  time.Duration
}

// UsageStats is a read-only view of one resource counter.
type UsageStats struct {
	Resource   Resource
	Used       int
	Limit      int
	Remaining  int
	Percentage int
	Unlimited  bool
	ResetsIn   time.Duration
}

// checkAndConsumeScript decides and decrements in one round trip. An absent
// key is seeded with limit-1 and expires at the period boundary; a positive
// counter is decremented; anything else is a denial (-1).
var checkAndConsumeScript = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if current == false then
  local limit = tonumber(ARGV[1])
  redis.call('SET', KEYS[1], limit - 1, 'PX', tonumber(ARGV[2]))
  return limit - 1
end
current = tonumber(current)
if current > 0 then
  return redis.call('DECR', KEYS[1])
end
return -1
`)

// Service enforces tier quotas against Redis counters.
type Service struct {
	redis     *redis.Client
	tiers     TierSource
	logger    logger.Logger
	keyPrefix string
	now       func() time.Time
}

// NewService creates a quota service. keyPrefix defaults to "quota".
func NewService(rdb *redis.Client, tiers TierSource, keyPrefix string, log logger.Logger) *Service {
	if keyPrefix == "" {
		keyPrefix = "quota"
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Service{
		redis:     rdb,
		tiers:     tiers,
		logger:    log,
		keyPrefix: keyPrefix,
		now:       time.Now,
	}
}

func (s *Service) key(resource Resource, userID string, now time.Time) string {
	return fmt.Sprintf("%s:%s:%s:%s", s.keyPrefix, resource, userID, periodKey(resource, now))
}

// CheckAndConsume atomically verifies and spends one unit of a resource. A
// denial is reported in the Decision, not as an error; errors mean the tier or
// counter store could not be reached.
func (s *Service) CheckAndConsume(ctx context.Context, userID string, resource Resource) (*Decision, error) {
	tier, err := s.tiers.TierFor(ctx, userID)
	if err != nil {
		return nil, errors.NewDependencyFailureError("tier lookup", err)
	}

	limit := LimitFor(tier, resource)
	now := s.now()
	resetsIn := periodEnd(resource, now).Sub(now)

	if limit == Unlimited {
		return &Decision{Allowed: true, Remaining: 0, Limit: Unlimited, Unlimited: true, ResetsIn: resetsIn}, nil
	}

	key := s.key(resource, userID, now)
	remaining, err := checkAndConsumeScript.Run(ctx, s.redis, []string{key}, limit, resetsIn.Milliseconds()).Int()
	if err != nil {
		return nil, errors.NewDependencyFailureError("quota store", err)
	}

	if remaining < 0 {
		metrics.QuotaDenials.WithLabelValues(string(resource), string(tier)).Inc()
		s.logger.Info("quota denied", map[string]interface{}{
			"userId":   userID,
			"resource": string(resource),
			"tier":     string(tier),
		})
		return &Decision{Allowed: false, Remaining: 0, Limit: limit, ResetsIn: resetsIn}, nil
	}

	return &Decision{Allowed: true, Remaining: remaining, Limit: limit, ResetsIn: resetsIn}, nil
}

// PeekUsage reads one resource counter without consuming.
func (s *Service) PeekUsage(ctx context.Context, userID string, resource Resource) (*UsageStats, error) {
	tier, err := s.tiers.TierFor(ctx, userID)
	if err != nil {
		return nil, errors.NewDependencyFailureError("tier lookup", err)
	}
	return s.peekWithTier(ctx, userID, tier, resource)
}

// UsageSummary reads every resource counter for a user. The tier is resolved
// once for the whole batch.
func (s *Service) UsageSummary(ctx context.Context, userID string) ([]UsageStats, error) {
	tier, err := s.tiers.TierFor(ctx, userID)
	if err != nil {
		return nil, errors.NewDependencyFailureError("tier lookup", err)
	}

	stats := make([]UsageStats, 0, len(AllResources))
	for _, resource := range AllResources {
		stat, err := s.peekWithTier(ctx, userID, tier, resource)
		if err != nil {
			return nil, err
		}
		stats = append(stats, *stat)
	}
	return stats, nil
}

func (s *Service) peekWithTier(ctx context.Context, userID string, tier models.SubscriptionTier, resource Resource) (*UsageStats, error) {
	limit := LimitFor(tier, resource)
	now := s.now()
	resetsIn := periodEnd(resource, now).Sub(now)

	if limit == Unlimited {
		return &UsageStats{Resource: resource, Limit: Unlimited, Unlimited: true, ResetsIn: resetsIn}, nil
	}

	remaining := limit
	val, err := s.redis.Get(ctx, s.key(resource, userID, now)).Int()
	switch {
	case err == redis.Nil:
		// No consumption yet this period.
	case err != nil:
		return nil, errors.NewDependencyFailureError("quota store", err)
	default:
		remaining = val
	}
	if remaining < 0 {
		remaining = 0
	}
	if remaining > limit {
		remaining = limit
	}

	used := limit - remaining
	percentage := 0
	if limit > 0 {
		percentage = int(math.Round(float64(used) / float64(limit) * 100))
	}

	return &UsageStats{
		Resource:   resource,
		Used:       used,
		Limit:      limit,
		Remaining:  remaining,
		Percentage: percentage,
		ResetsIn:   resetsIn,
	}, nil
}
