// internal/profiles/store.go

// Package profiles reads counterparty snapshots from PostgreSQL with a Redis
// cache in front. The store is the engine's only view of profile data; writes
// happen upstream in the profile platform.
package profiles

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"time"

	"fundmatch-workers/internal/common/errors"
	"fundmatch-workers/internal/common/logger"
	"fundmatch-workers/internal/models"

	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

const (
	profileCachePrefix = "profile:snapshot:"
	tierCachePrefix    = "profile:tier:"
)

const snapshotColumns = `
	user_id, display_name, role, industries, years_experience, business_type,
	market_size, timeline, verification_level, subscription_tier,
	latitude, longitude,
	funding_amount, funding_months, team_size,
	investment_min, investment_max, preferred_team_size`

const getProfileQuery = `
	SELECT` + snapshotColumns + `
	FROM profiles
	WHERE user_id = $1`

const getTierQuery = `
	SELECT subscription_tier FROM profiles WHERE user_id = $1`

// listCandidatesQuery fetches discoverable counterparts: opposite role, not the
// requester, no tier strictly above the requester's, and no existing pair
// record in either direction (the pair key is stored lexicographically).
const listCandidatesQuery = `
	SELECT` + snapshotColumns + `
	FROM profiles p
	WHERE p.role = $1
	  AND p.user_id <> $2
	  AND p.discoverable = TRUE
	  AND p.subscription_tier = ANY($3)
	  AND NOT EXISTS (
		SELECT 1 FROM match_records m
		WHERE m.user_lo = LEAST($2, p.user_id)
		  AND m.user_hi = GREATEST($2, p.user_id)
	  )
	ORDER BY p.updated_at DESC
	LIMIT $4`

// Store serves profile snapshots and tiers.
type Store struct {
	db         *sql.DB
	redis      *redis.Client
	logger     logger.Logger
	profileTTL time.Duration
	tierTTL    time.Duration
}

// NewStore creates a profile store. TTLs at or below zero disable caching of
// the respective value.
func NewStore(db *sql.DB, rdb *redis.Client, profileTTL, tierTTL time.Duration, log logger.Logger) *Store {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Store{
		db:         db,
		redis:      rdb,
		logger:     log,
		profileTTL: profileTTL,
		tierTTL:    tierTTL,
	}
}

// Get returns one user's snapshot, cache first.
func (s *Store) Get(ctx context.Context, userID string) (*models.ProfileSnapshot, error) {
	cacheKey := profileCachePrefix + userID
	if s.redis != nil {
		if val, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
			var snap models.ProfileSnapshot
			if err := json.Unmarshal([]byte(val), &snap); err == nil {
				return &snap, nil
			}
		}
	}

	row := s.db.QueryRowContext(ctx, getProfileQuery, userID)
	snap, err := scanSnapshot(row)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewProfileNotFoundError(userID)
		}
		return nil, errors.NewQueryExecutionFailedError("get profile", err)
	}

	s.cacheSnapshot(ctx, cacheKey, snap)
	return snap, nil
}

// TierFor returns a user's subscription tier, cache first. Unknown tier
// strings normalize to basic. Implements quota.TierSource.
func (s *Store) TierFor(ctx context.Context, userID string) (models.SubscriptionTier, error) {
	cacheKey := tierCachePrefix + userID
	if s.redis != nil {
		if val, err := s.redis.Get(ctx, cacheKey).Result(); err == nil && val != "" {
			return models.ParseSubscriptionTier(val), nil
		}
	}

	var raw string
	err := s.db.QueryRowContext(ctx, getTierQuery, userID).Scan(&raw)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return "", errors.NewProfileNotFoundError(userID)
		}
		return "", errors.NewQueryExecutionFailedError("get tier", err)
	}

	tier := models.ParseSubscriptionTier(raw)
	if s.redis != nil && s.tierTTL > 0 {
		if err := s.redis.Set(ctx, cacheKey, string(tier), s.tierTTL).Err(); err != nil {
			s.logger.Warn("tier cache write failed", map[string]interface{}{
				"userId": userID,
				"error":  err.Error(),
			})
		}
	}
	return tier, nil
}

// ListCandidates returns up to limit discoverable counterparts for the
// requester, newest profiles first. Pairs that already have any swipe record
// are excluded at the SQL level.
func (s *Store) ListCandidates(ctx context.Context, requester *models.ProfileSnapshot, limit int) ([]models.ProfileSnapshot, error) {
	if limit <= 0 {
		limit = 200
	}

	visibleTiers := models.TiersAtOrBelow(requester.SubscriptionTier)
	tierArgs := make([]string, len(visibleTiers))
	for i, tier := range visibleTiers {
		tierArgs[i] = string(tier)
	}

	rows, err := s.db.QueryContext(ctx, listCandidatesQuery,
		string(requester.Role.Counterpart()), requester.UserID, pq.Array(tierArgs), limit)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list candidates", err)
	}
	defer rows.Close()

	candidates := make([]models.ProfileSnapshot, 0, limit)
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, errors.NewQueryExecutionFailedError("scan candidate", err)
		}
		candidates = append(candidates, *snap)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("list candidates", err)
	}

	return candidates, nil
}

// Invalidate drops a user's cached snapshot and tier, e.g. after an upstream
// profile or subscription change event.
func (s *Store) Invalidate(ctx context.Context, userID string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, profileCachePrefix+userID, tierCachePrefix+userID).Err(); err != nil {
		s.logger.Warn("cache invalidation failed", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
	}
}

func (s *Store) cacheSnapshot(ctx context.Context, key string, snap *models.ProfileSnapshot) {
	if s.redis == nil || s.profileTTL <= 0 {
		return
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, key, data, s.profileTTL).Err(); err != nil {
		s.logger.Warn("profile cache write failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanSnapshot maps one profiles row onto a snapshot, attaching the attribute
// block that matches the row's role.
func scanSnapshot(row rowScanner) (*models.ProfileSnapshot, error) {
	var (
		snap          models.ProfileSnapshot
		displayName   sql.NullString
		role          string
		industriesRaw []byte
		businessType  sql.NullString
		marketSize    sql.NullString
		timeline      sql.NullString
		verification  string
		tier          string
		lat, lng      sql.NullFloat64
		fundingAmount sql.NullInt64
		fundingMonths sql.NullInt64
		teamSize      sql.NullInt64
		investMin     sql.NullInt64
		investMax     sql.NullInt64
		preferredTeam sql.NullInt64
	)

	err := row.Scan(
		&snap.UserID, &displayName, &role, &industriesRaw, &snap.YearsExperience, &businessType,
		&marketSize, &timeline, &verification, &tier,
		&lat, &lng,
		&fundingAmount, &fundingMonths, &teamSize,
		&investMin, &investMax, &preferredTeam,
	)
	if err != nil {
		return nil, err
	}

	snap.DisplayName = displayName.String
	snap.Role = models.ParseRole(role)
	snap.BusinessType = businessType.String
	snap.MarketSize = models.ParseMarketSize(marketSize.String)
	snap.Timeline = models.ParseTimelineBucket(timeline.String)
	snap.VerificationLevel = models.ParseVerificationLevel(verification)
	snap.SubscriptionTier = models.ParseSubscriptionTier(tier)

	if len(industriesRaw) > 0 {
		if err := json.Unmarshal(industriesRaw, &snap.Industries); err != nil {
			snap.Industries = []string{}
		}
	}

	if lat.Valid && lng.Valid {
		snap.Location = &models.GeoPoint{Latitude: lat.Float64, Longitude: lng.Float64}
	}

	switch snap.Role {
	case models.RoleEntrepreneur:
		snap.Entrepreneur = &models.EntrepreneurAttrs{
			FundingAmount: fundingAmount.Int64,
			FundingMonths: int(fundingMonths.Int64),
			TeamSize:      int(teamSize.Int64),
		}
	case models.RoleFunder:
		snap.Funder = &models.FunderAttrs{
			InvestmentMin:     investMin.Int64,
			InvestmentMax:     investMax.Int64,
			PreferredTeamSize: int(preferredTeam.Int64),
		}
	}

	return &snap, nil
}
