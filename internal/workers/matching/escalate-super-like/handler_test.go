// internal/workers/matching/escalate-super-like/handler_test.go
package escalatesuperlike

import (
	"context"
	"testing"
	"time"

	"fundmatch-workers/internal/common/errors"
	"fundmatch-workers/internal/common/logger"
	"fundmatch-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type stubSuperLiker struct {
	result       models.SwipeResult
	err          error
	gotInitiator string
	gotTarget    string
}

func (s *stubSuperLiker) SuperLike(_ context.Context, initiatorID, targetID string) (models.SwipeResult, error) {
	s.gotInitiator = initiatorID
	s.gotTarget = targetID
	return s.result, s.err
}

func newTestHandler(t *testing.T, matcher *stubSuperLiker) *Handler {
	return NewHandler(LoadConfig(), matcher, logger.NewTestLogger(t))
}

func boostedRecord(status models.MatchStatus) models.MatchRecord {
	return models.MatchRecord{
		ID:                 "rec-1",
		InitiatorID:        "ent-001",
		TargetID:           "fun-001",
		Status:             status,
		CompatibilityScore: 80,
		MatchQuality:       models.QualityHigh,
		SuperLiked:         true,
		Priority:           true,
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_CreatesBoostedPending(t *testing.T) {
	matcher := &stubSuperLiker{result: models.SwipeResult{Record: boostedRecord(models.StatusPending)}}
	h := newTestHandler(t, matcher)

	output, err := h.Execute(context.Background(), &Input{InitiatorID: "ent-001", TargetID: "fun-001"})

	require.NoError(t, err)
	assert.False(t, output.IsMatch)
	assert.Equal(t, "pending", output.Status)
	assert.True(t, output.Priority)
	assert.True(t, output.Record.SuperLiked)
	assert.Equal(t, 80, output.Record.CompatibilityScore)
	assert.Equal(t, "ent-001", matcher.gotInitiator)
	assert.Equal(t, "fun-001", matcher.gotTarget)
}

func TestHandler_Execute_ReciprocalMatchIsPriority(t *testing.T) {
	matcher := &stubSuperLiker{result: models.SwipeResult{IsMatch: true, Record: boostedRecord(models.StatusMatched)}}
	h := newTestHandler(t, matcher)

	output, err := h.Execute(context.Background(), &Input{InitiatorID: "fun-001", TargetID: "ent-001"})

	require.NoError(t, err)
	assert.True(t, output.IsMatch)
	assert.Equal(t, "matched", output.Status)
	assert.True(t, output.Priority)
}

func TestHandler_Execute_QuotaDenialPassesThrough(t *testing.T) {
	matcher := &stubSuperLiker{err: errors.NewQuotaExceededError("superLikes", 6*time.Hour)}
	h := newTestHandler(t, matcher)

	output, err := h.Execute(context.Background(), &Input{InitiatorID: "ent-001", TargetID: "fun-001"})

	require.Error(t, err)
	assert.Nil(t, output)
	assert.True(t, errors.IsQuotaExceeded(err))
	assert.Equal(t, "QUOTA_EXCEEDED", h.mapErrorToCode(err))
	assert.Equal(t, int32(0), h.getRetryCount(err))
}

func TestHandler_Execute_ConflictPassesThrough(t *testing.T) {
	matcher := &stubSuperLiker{err: errors.NewSwipeConflictError("pair already rejected")}
	h := newTestHandler(t, matcher)

	_, err := h.Execute(context.Background(), &Input{InitiatorID: "ent-001", TargetID: "fun-001"})

	require.Error(t, err)
	assert.True(t, errors.IsConflict(err))
	assert.Equal(t, "SWIPE_CONFLICT", h.mapErrorToCode(err))
}
