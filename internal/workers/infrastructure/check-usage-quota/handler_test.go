// internal/workers/infrastructure/check-usage-quota/handler_test.go
package checkusagequota

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fundmatch-workers/internal/common/errors"
	"fundmatch-workers/internal/common/logger"
	"fundmatch-workers/internal/quota"
)

// ==========================
// Test Helpers
// ==========================

type stubUsage struct {
	summary     []quota.UsageStats
	stats       *quota.UsageStats
	err         error
	gotResource quota.Resource
	gotUserID   string
}

func (s *stubUsage) PeekUsage(_ context.Context, userID string, resource quota.Resource) (*quota.UsageStats, error) {
	s.gotUserID = userID
	s.gotResource = resource
	if s.err != nil {
		return nil, s.err
	}
	return s.stats, nil
}

func (s *stubUsage) UsageSummary(_ context.Context, userID string) ([]quota.UsageStats, error) {
	s.gotUserID = userID
	if s.err != nil {
		return nil, s.err
	}
	return s.summary, nil
}

func newTestHandler(t *testing.T, usage UsageSource) *Handler {
	t.Helper()
	return NewHandler(LoadConfig(), usage, logger.NewTestLogger(t))
}

func usageStats(resource quota.Resource, used, limit int) quota.UsageStats {
	remaining := limit - used
	percentage := 0
	if limit > 0 {
		percentage = used * 100 / limit
	}
	return quota.UsageStats{
		Resource:   resource,
		Used:       used,
		Limit:      limit,
		Remaining:  remaining,
		Percentage: percentage,
		ResetsIn:   6 * time.Hour,
	}
}

// ==========================
// Execute Tests
// ==========================

func TestHandler_Execute_FullSummary(t *testing.T) {
	usage := &stubUsage{
		summary: []quota.UsageStats{
			usageStats(quota.ResourceMatchViews, 3, 50),
			usageStats(quota.ResourceSuperLikes, 1, 5),
			usageStats(quota.ResourceMonthlyMessages, 20, 500),
		},
	}
	handler := newTestHandler(t, usage)

	output, err := handler.Execute(context.Background(), Input{UserID: "ent-001"})

	require.NoError(t, err)
	assert.Equal(t, "ent-001", output.UserID)
	assert.Equal(t, "ent-001", usage.gotUserID)
	require.Len(t, output.Resources, 3)
	assert.Equal(t, "matchViews", output.Resources[0].Resource)
	assert.Equal(t, "superLikes", output.Resources[1].Resource)
	assert.Equal(t, "monthlyMessages", output.Resources[2].Resource)
	assert.Equal(t, 3, output.Resources[0].Used)
	assert.Equal(t, 47, output.Resources[0].Remaining)
	assert.Equal(t, 6, output.Resources[0].Percentage)
	assert.Equal(t, 21600, output.Resources[0].ResetsInSeconds)
}

func TestHandler_Execute_SingleResource(t *testing.T) {
	stats := usageStats(quota.ResourceSuperLikes, 1, 5)
	usage := &stubUsage{stats: &stats}
	handler := newTestHandler(t, usage)

	output, err := handler.Execute(context.Background(), Input{
		UserID:   "ent-001",
		Resource: "superLikes",
	})

	require.NoError(t, err)
	assert.Equal(t, quota.ResourceSuperLikes, usage.gotResource)
	require.Len(t, output.Resources, 1)
	assert.Equal(t, "superLikes", output.Resources[0].Resource)
	assert.Equal(t, 4, output.Resources[0].Remaining)
}

func TestHandler_Execute_ResourceNameIsCaseInsensitive(t *testing.T) {
	stats := usageStats(quota.ResourceMatchViews, 10, 50)
	usage := &stubUsage{stats: &stats}
	handler := newTestHandler(t, usage)

	output, err := handler.Execute(context.Background(), Input{
		UserID:   "fun-001",
		Resource: " MATCHVIEWS ",
	})

	require.NoError(t, err)
	assert.Equal(t, quota.ResourceMatchViews, usage.gotResource)
	require.Len(t, output.Resources, 1)
}

func TestHandler_Execute_UnlimitedResource(t *testing.T) {
	stats := quota.UsageStats{
		Resource:  quota.ResourceMatchViews,
		Used:      412,
		Limit:     quota.Unlimited,
		Remaining: quota.Unlimited,
		Unlimited: true,
		ResetsIn:  time.Hour,
	}
	usage := &stubUsage{stats: &stats}
	handler := newTestHandler(t, usage)

	output, err := handler.Execute(context.Background(), Input{
		UserID:   "fun-009",
		Resource: "matchViews",
	})

	require.NoError(t, err)
	require.Len(t, output.Resources, 1)
	assert.True(t, output.Resources[0].Unlimited)
	assert.Equal(t, -1, output.Resources[0].Limit)
	assert.Equal(t, 412, output.Resources[0].Used)
}

func TestHandler_Execute_UnknownResource(t *testing.T) {
	handler := newTestHandler(t, &stubUsage{})

	_, err := handler.Execute(context.Background(), Input{
		UserID:   "ent-001",
		Resource: "teleports",
	})

	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Equal(t, "VALIDATION_FAILED", handler.mapErrorToCode(err))
	assert.Equal(t, int32(0), handler.getRetryCount(err))
}

func TestHandler_Execute_BlankUserID(t *testing.T) {
	handler := newTestHandler(t, &stubUsage{})

	_, err := handler.Execute(context.Background(), Input{UserID: ""})

	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestHandler_Execute_StoreFailureIsRetryable(t *testing.T) {
	usage := &stubUsage{err: errors.NewDependencyFailureError("quota store", fmt.Errorf("redis down"))}
	handler := newTestHandler(t, usage)

	_, err := handler.Execute(context.Background(), Input{UserID: "ent-001"})

	require.Error(t, err)
	assert.True(t, errors.IsDependency(err))
	assert.Equal(t, "DEPENDENCY_FAILURE", handler.mapErrorToCode(err))
	assert.Equal(t, int32(3), handler.getRetryCount(err))
}
