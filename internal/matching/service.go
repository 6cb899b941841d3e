// internal/matching/service.go

// Package matching owns the swipe state machine: NoRelation -> Pending ->
// {Matched, Rejected}. Terminal states never revert, and every mutation for a
// pair serializes on one advisory lock.
package matching

import (
	"context"
	"database/sql"
	"math"
	"strings"
	"time"

	"fundmatch-workers/internal/common/errors"
	"fundmatch-workers/internal/common/logger"
	"fundmatch-workers/internal/common/metrics"
	"fundmatch-workers/internal/models"
	"fundmatch-workers/internal/quota"
	"fundmatch-workers/internal/scoring"

	"github.com/google/uuid"
)

// ProfileSource yields counterparty snapshots.
type ProfileSource interface {
	Get(ctx context.Context, userID string) (*models.ProfileSnapshot, error)
}

// QuotaChecker gates super-likes on the initiator's allowance.
type QuotaChecker interface {
	CheckAndConsume(ctx context.Context, userID string, resource quota.Resource) (*quota.Decision, error)
}

// ChatRooms creates the conversation channel for a matched pair. CreateRoom is
// expected to be idempotent per pair so the repair path never double-creates.
type ChatRooms interface {
	CreateRoom(ctx context.Context, userA, userB string, priority bool) (string, error)
}

// Notifier delivers the user-facing match alert. Delivery is best effort; a
// failed alert never rolls back a committed match.
type Notifier interface {
	MatchFound(ctx context.Context, userID string, record models.MatchRecord) error
}

// Service advances swipe decisions and detects mutual matches.
type Service struct {
	store    *Store
	profiles ProfileSource
	scorer   *scoring.Engine
	quotas   QuotaChecker
	rooms    ChatRooms
	notifier Notifier
	logger   logger.Logger
	now      func() time.Time
}

func NewService(store *Store, profiles ProfileSource, scorer *scoring.Engine, quotas QuotaChecker, rooms ChatRooms, notifier Notifier, log logger.Logger) *Service {
	if scorer == nil {
		scorer = scoring.NewEngine(nil)
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Service{
		store:    store,
		profiles: profiles,
		scorer:   scorer,
		quotas:   quotas,
		rooms:    rooms,
		notifier: notifier,
		logger:   log,
		now:      time.Now,
	}
}

const (
	superLikeMultiplier = 1.2
	superLikeFloor      = 80
)

// BoostScore applies the super-like escalation: 1.2x the base score, capped at
// 100, with a hard floor of 80 regardless of the raw factor sum.
func BoostScore(base int) int {
	boosted := int(math.Round(float64(base) * superLikeMultiplier))
	if boosted > 100 {
		boosted = 100
	}
	if boosted < superLikeFloor {
		boosted = superLikeFloor
	}
	return boosted
}

// Swipe commits one user's decision on a candidate. Left swipes terminate the
// pair without scoring or quota cost; right swipes create a Pending record or
// complete a mutual match. Redelivered swipes are idempotent.
func (s *Service) Swipe(ctx context.Context, initiatorID, targetID string, direction models.Direction) (models.SwipeResult, error) {
	if err := validatePair(initiatorID, targetID); err != nil {
		return models.SwipeResult{}, err
	}

	switch direction {
	case models.DirectionLeft:
		result, err := s.swipeLeft(ctx, initiatorID, targetID)
		s.recordSwipe("left", result, err)
		return result, err
	case models.DirectionRight:
		result, err := s.swipeRight(ctx, initiatorID, targetID, false)
		s.recordSwipe("right", result, err)
		return result, err
	default:
		return models.SwipeResult{}, errors.NewValidationFailedError("direction must be left or right")
	}
}

// SuperLike consumes one of the initiator's superLikes allowance and performs
// a right-swipe with a boosted, prioritized record. The reciprocal side is
// upgraded without consuming its own allowance.
func (s *Service) SuperLike(ctx context.Context, initiatorID, targetID string) (models.SwipeResult, error) {
	if err := validatePair(initiatorID, targetID); err != nil {
		return models.SwipeResult{}, err
	}

	decision, err := s.quotas.CheckAndConsume(ctx, initiatorID, quota.ResourceSuperLikes)
	if err != nil {
		return models.SwipeResult{}, err
	}
	if !decision.Allowed {
		return models.SwipeResult{}, errors.NewQuotaExceededError(string(quota.ResourceSuperLikes), decision.ResetsIn)
	}

	result, err := s.swipeRight(ctx, initiatorID, targetID, true)
	s.recordSwipe("super", result, err)
	return result, err
}

// ActiveMatches lists a user's matched records, repairing any that committed
// before their chat room got attached. Repair failures degrade to a warning so
// the listing itself still succeeds.
func (s *Service) ActiveMatches(ctx context.Context, userID string) ([]models.MatchRecord, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, errors.NewValidationFailedError("userId is required")
	}

	records, err := s.store.MatchesFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	for i := range records {
		if records[i].ChatRoomID != "" {
			continue
		}
		if err := s.ensureChatRoom(ctx, &records[i]); err != nil {
			s.logger.Warn("chat room repair failed", map[string]interface{}{
				"matchId": records[i].ID,
				"error":   err.Error(),
			})
		}
	}
	return records, nil
}

func (s *Service) swipeLeft(ctx context.Context, initiatorID, targetID string) (models.SwipeResult, error) {
	if _, err := s.profiles.Get(ctx, initiatorID); err != nil {
		return models.SwipeResult{}, err
	}
	if _, err := s.profiles.Get(ctx, targetID); err != nil {
		return models.SwipeResult{}, err
	}

	var result models.SwipeResult
	err := s.store.RunPairLocked(ctx, initiatorID, targetID, func(tx *sql.Tx) error {
		existing, err := s.store.GetByPair(ctx, tx, initiatorID, targetID)
		if err != nil {
			return err
		}

		if existing == nil {
			now := s.now()
			rec := &models.MatchRecord{
				ID:          uuid.NewString(),
				InitiatorID: initiatorID,
				TargetID:    targetID,
				Status:      models.StatusRejected,
				CreatedAt:   now,
				RespondedAt: &now,
			}
			inserted, err := s.store.Insert(ctx, tx, rec)
			if err != nil {
				return err
			}
			if inserted {
				result = models.SwipeResult{Record: *rec}
				return nil
			}
			existing, err = s.store.GetByPair(ctx, tx, initiatorID, targetID)
			if err != nil {
				return err
			}
			if existing == nil {
				return errors.NewQueryExecutionFailedError("reread pair record", sql.ErrNoRows)
			}
		}

		switch existing.Status {
		case models.StatusPending:
			now := s.now()
			ok, err := s.store.Reject(ctx, tx, existing.ID, now)
			if err != nil {
				return err
			}
			if !ok {
				current, err := s.store.GetByPair(ctx, tx, initiatorID, targetID)
				if err != nil {
					return err
				}
				if current != nil && current.Status == models.StatusRejected {
					result = models.SwipeResult{Record: *current}
					return nil
				}
				return errors.NewSwipeConflictError("pair already matched")
			}
			existing.Status = models.StatusRejected
			existing.RespondedAt = &now
			result = models.SwipeResult{Record: *existing}
			return nil
		case models.StatusRejected:
			result = models.SwipeResult{Record: *existing}
			return nil
		default:
			return errors.NewSwipeConflictError("pair already matched")
		}
	})
	if err != nil {
		return models.SwipeResult{}, err
	}
	return result, nil
}

func (s *Service) swipeRight(ctx context.Context, initiatorID, targetID string, escalated bool) (models.SwipeResult, error) {
	self, err := s.profiles.Get(ctx, initiatorID)
	if err != nil {
		return models.SwipeResult{}, err
	}
	other, err := s.profiles.Get(ctx, targetID)
	if err != nil {
		return models.SwipeResult{}, err
	}

	var (
		result     models.SwipeResult
		matchedNow bool
	)
	err = s.store.RunPairLocked(ctx, initiatorID, targetID, func(tx *sql.Tx) error {
		existing, err := s.store.GetByPair(ctx, tx, initiatorID, targetID)
		if err != nil {
			return err
		}

		if existing == nil {
			score, factors, reasons := s.scorer.Score(*self, *other, nil)
			if escalated {
				score = BoostScore(score)
			}
			rec := &models.MatchRecord{
				ID:                   uuid.NewString(),
				InitiatorID:          initiatorID,
				TargetID:             targetID,
				Status:               models.StatusPending,
				CompatibilityScore:   score,
				CompatibilityFactors: factors,
				MatchQuality:         models.QualityForScore(score),
				Reasons:              reasons,
				SuperLiked:           escalated,
				Priority:             escalated,
				CreatedAt:            s.now(),
			}
			inserted, err := s.store.Insert(ctx, tx, rec)
			if err != nil {
				return err
			}
			if inserted {
				result = models.SwipeResult{Record: *rec}
				return nil
			}
			existing, err = s.store.GetByPair(ctx, tx, initiatorID, targetID)
			if err != nil {
				return err
			}
			if existing == nil {
				return errors.NewQueryExecutionFailedError("reread pair record", sql.ErrNoRows)
			}
		}

		switch existing.Status {
		case models.StatusPending:
			if existing.InitiatorID == initiatorID {
				return s.refreshOwnPending(ctx, tx, existing, escalated, &result)
			}
			return s.promote(ctx, tx, existing, self, other, escalated, &result, &matchedNow)
		case models.StatusMatched:
			result = models.SwipeResult{IsMatch: true, Record: *existing}
			return nil
		default:
			return errors.NewSwipeConflictError("pair already rejected")
		}
	})
	if err != nil {
		return models.SwipeResult{}, err
	}

	if result.Record.Status == models.StatusMatched && result.Record.ChatRoomID == "" {
		if err := s.ensureChatRoom(ctx, &result.Record); err != nil {
			return models.SwipeResult{}, err
		}
	}
	if matchedNow {
		metrics.MatchesCreated.WithLabelValues(string(result.Record.MatchQuality)).Inc()
		s.notifyBoth(ctx, result.Record)
	}
	return result, nil
}

// refreshOwnPending handles a redelivered right-swipe from the same initiator.
// A super-like landing on the initiator's plain pending swipe upgrades it in
// place, since the allowance was already consumed.
func (s *Service) refreshOwnPending(ctx context.Context, tx *sql.Tx, existing *models.MatchRecord, escalated bool, result *models.SwipeResult) error {
	if escalated && !existing.SuperLiked {
		boosted := BoostScore(existing.CompatibilityScore)
		quality := models.QualityForScore(boosted)
		ok, err := s.store.Boost(ctx, tx, existing.ID, existing.InitiatorID, boosted, quality)
		if err != nil {
			return err
		}
		if ok {
			existing.CompatibilityScore = boosted
			existing.MatchQuality = quality
			existing.SuperLiked = true
			existing.Priority = true
		}
	}
	*result = models.SwipeResult{Record: *existing}
	return nil
}

// promote completes the mutual match: the current actor is the target of the
// stored pending row. The final score is recomputed from the original
// initiator's perspective so the record does not depend on which side closed
// the match.
func (s *Service) promote(ctx context.Context, tx *sql.Tx, existing *models.MatchRecord, self, other *models.ProfileSnapshot, escalated bool, result *models.SwipeResult, matchedNow *bool) error {
	score, factors, reasons := s.scorer.Score(*other, *self, nil)
	if escalated || existing.SuperLiked {
		score = BoostScore(score)
	}
	quality := models.QualityForScore(score)
	now := s.now()

	ok, err := s.store.Promote(ctx, tx, existing.ID, score, factors, quality, reasons, escalated, now)
	if err != nil {
		return err
	}
	if !ok {
		// Lost the race to a terminal transition under our feet; resolve from
		// the current row state.
		current, err := s.store.GetByPair(ctx, tx, existing.InitiatorID, existing.TargetID)
		if err != nil {
			return err
		}
		if current != nil && current.Status == models.StatusMatched {
			*result = models.SwipeResult{IsMatch: true, Record: *current}
			return nil
		}
		return errors.NewSwipeConflictError("pair already resolved")
	}

	existing.Status = models.StatusMatched
	existing.CompatibilityScore = score
	existing.CompatibilityFactors = factors
	existing.MatchQuality = quality
	existing.Reasons = reasons
	existing.SuperLiked = existing.SuperLiked || escalated
	existing.Priority = existing.Priority || escalated
	existing.RespondedAt = &now

	*result = models.SwipeResult{IsMatch: true, Record: *existing}
	*matchedNow = true
	return nil
}

// ensureChatRoom attaches the conversation channel to a matched record. A
// matched row without a room is legal transiently; this is the repair path the
// next read or swipe of the pair runs.
func (s *Service) ensureChatRoom(ctx context.Context, rec *models.MatchRecord) error {
	if rec.ChatRoomID != "" || s.rooms == nil {
		return nil
	}

	roomID, err := s.rooms.CreateRoom(ctx, rec.InitiatorID, rec.TargetID, rec.Priority)
	if err != nil {
		return errors.NewChatRoomCreateFailedError(rec.ID, err)
	}
	if err := s.store.AttachChatRoom(ctx, rec.ID, roomID); err != nil {
		return err
	}
	rec.ChatRoomID = roomID
	return nil
}

func (s *Service) notifyBoth(ctx context.Context, rec models.MatchRecord) {
	if s.notifier == nil {
		return
	}
	for _, userID := range []string{rec.InitiatorID, rec.TargetID} {
		if err := s.notifier.MatchFound(ctx, userID, rec); err != nil {
			s.logger.Warn("match notification failed", map[string]interface{}{
				"userId":  userID,
				"matchId": rec.ID,
				"error":   err.Error(),
			})
		}
	}
}

func (s *Service) recordSwipe(direction string, result models.SwipeResult, err error) {
	outcome := "error"
	switch {
	case err == nil:
		outcome = string(result.Record.Status)
	case errors.IsConflict(err):
		outcome = "conflict"
	}
	metrics.SwipesProcessed.WithLabelValues(direction, outcome).Inc()
}

func validatePair(initiatorID, targetID string) error {
	if strings.TrimSpace(initiatorID) == "" || strings.TrimSpace(targetID) == "" {
		return errors.NewValidationFailedError("initiatorId and targetId are required")
	}
	if initiatorID == targetID {
		return errors.NewValidationFailedError("a user cannot swipe on themself")
	}
	return nil
}
