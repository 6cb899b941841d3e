// internal/matching/service_test.go

package matching

import (
	"context"
	"testing"
	"time"

	"fundmatch-workers/internal/common/errors"
	"fundmatch-workers/internal/common/logger"
	"fundmatch-workers/internal/models"
	"fundmatch-workers/internal/quota"
	"fundmatch-workers/internal/scoring"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helpers
// ==========================

var fixedAt = time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)

func entSnapshot() *models.ProfileSnapshot {
	return &models.ProfileSnapshot{
		UserID:            "ent-001",
		Role:              models.RoleEntrepreneur,
		Industries:        []string{"Tech", "Finance"},
		YearsExperience:   5,
		VerificationLevel: models.VerificationNone,
		Entrepreneur: &models.EntrepreneurAttrs{
			FundingAmount: 500000,
			FundingMonths: 12,
		},
	}
}

func funSnapshot() *models.ProfileSnapshot {
	return &models.ProfileSnapshot{
		UserID:            "fun-001",
		Role:              models.RoleFunder,
		Industries:        []string{"Tech"},
		YearsExperience:   7,
		VerificationLevel: models.VerificationBusinessPlan,
		Funder: &models.FunderAttrs{
			InvestmentMin: 100000,
			InvestmentMax: 1000000,
		},
	}
}

type stubProfiles struct {
	snapshots map[string]*models.ProfileSnapshot
	gets      []string
}

func (s *stubProfiles) Get(_ context.Context, userID string) (*models.ProfileSnapshot, error) {
	s.gets = append(s.gets, userID)
	if snap, ok := s.snapshots[userID]; ok {
		return snap, nil
	}
	return nil, errors.NewProfileNotFoundError(userID)
}

type stubQuota struct {
	decision *quota.Decision
	err      error
	calls    int
	resource quota.Resource
}

func (s *stubQuota) CheckAndConsume(_ context.Context, _ string, resource quota.Resource) (*quota.Decision, error) {
	s.calls++
	s.resource = resource
	return s.decision, s.err
}

type stubRooms struct {
	roomID     string
	err        error
	calls      int
	priorities []bool
}

func (s *stubRooms) CreateRoom(_ context.Context, _, _ string, priority bool) (string, error) {
	s.calls++
	s.priorities = append(s.priorities, priority)
	if s.err != nil {
		return "", s.err
	}
	return s.roomID, nil
}

type stubNotifier struct {
	notified []string
	err      error
}

func (s *stubNotifier) MatchFound(_ context.Context, userID string, _ models.MatchRecord) error {
	s.notified = append(s.notified, userID)
	return s.err
}

type serviceStubs struct {
	profiles *stubProfiles
	quotas   *stubQuota
	rooms    *stubRooms
	notifier *stubNotifier
}

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock, *serviceStubs) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	stubs := &serviceStubs{
		profiles: &stubProfiles{snapshots: map[string]*models.ProfileSnapshot{
			"ent-001": entSnapshot(),
			"fun-001": funSnapshot(),
		}},
		quotas:   &stubQuota{decision: &quota.Decision{Allowed: true, Remaining: 4, Limit: 5}},
		rooms:    &stubRooms{roomID: "room-1"},
		notifier: &stubNotifier{},
	}

	svc := NewService(NewStore(db, logger.NewTestLogger(t)), stubs.profiles, scoring.NewEngine(nil),
		stubs.quotas, stubs.rooms, stubs.notifier, logger.NewTestLogger(t))
	svc.now = func() time.Time { return fixedAt }
	return svc, mock, stubs
}

func matchRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "initiator_id", "target_id", "status", "compatibility_score", "compatibility_factors",
		"match_quality", "reasons", "super_liked", "priority", "chat_room_id", "created_at", "responded_at",
	})
}

func addPendingRow(rows *sqlmock.Rows, id, initiator, target string, score int, superLiked bool) *sqlmock.Rows {
	return rows.AddRow(id, initiator, target, "pending", score,
		[]byte(`{"investmentFit":1}`), "MEDIUM", []byte(`["Funding request fits the investment range"]`),
		superLiked, superLiked, "", fixedAt.Add(-time.Hour), nil)
}

func expectPairLock(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectExec(`pg_advisory_xact_lock`).
		WithArgs("ent-001|fun-001").
		WillReturnResult(sqlmock.NewResult(0, 0))
}

func expectPairLookup(mock sqlmock.Sqlmock, rows *sqlmock.Rows) {
	mock.ExpectQuery(`FROM match_records\s+WHERE user_lo = \$1 AND user_hi = \$2`).
		WithArgs("ent-001", "fun-001").
		WillReturnRows(rows)
}

// ==========================
// Right Swipe Tests
// ==========================

func TestService_Swipe_RightCreatesPending(t *testing.T) {
	svc, mock, stubs := newTestService(t)

	expectPairLock(mock)
	expectPairLookup(mock, matchRows())
	// Entrepreneur-side score for this pair is 64 (MEDIUM).
	mock.ExpectExec(`INSERT INTO match_records`).
		WithArgs(sqlmock.AnyArg(), "ent-001", "fun-001", "ent-001", "fun-001", "pending",
			64, sqlmock.AnyArg(), "MEDIUM", sqlmock.AnyArg(),
			false, false, "", fixedAt, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := svc.Swipe(context.Background(), "ent-001", "fun-001", models.DirectionRight)
	require.NoError(t, err)

	assert.False(t, result.IsMatch)
	assert.Equal(t, models.StatusPending, result.Record.Status)
	assert.Equal(t, 64, result.Record.CompatibilityScore)
	assert.Equal(t, models.QualityMedium, result.Record.MatchQuality)
	assert.False(t, result.Record.SuperLiked)
	assert.Contains(t, result.Record.Reasons, "Funding request fits the investment range")

	assert.Zero(t, stubs.quotas.calls)
	assert.Zero(t, stubs.rooms.calls)
	assert.Empty(t, stubs.notifier.notified)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Swipe_ReciprocalRightCompletesMatch(t *testing.T) {
	svc, mock, stubs := newTestService(t)

	expectPairLock(mock)
	expectPairLookup(mock, addPendingRow(matchRows(), "rec-1", "fun-001", "ent-001", 62, false))
	// Final score recomputes from the original initiator's (funder's) side: 62.
	mock.ExpectExec(`SET status = 'matched'`).
		WithArgs("rec-1", 62, sqlmock.AnyArg(), "MEDIUM", sqlmock.AnyArg(), false, false, fixedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectExec(`SET chat_room_id`).
		WithArgs("rec-1", "room-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := svc.Swipe(context.Background(), "ent-001", "fun-001", models.DirectionRight)
	require.NoError(t, err)

	assert.True(t, result.IsMatch)
	assert.Equal(t, models.StatusMatched, result.Record.Status)
	assert.Equal(t, 62, result.Record.CompatibilityScore)
	assert.Equal(t, "room-1", result.Record.ChatRoomID)
	require.NotNil(t, result.Record.RespondedAt)

	assert.Equal(t, 1, stubs.rooms.calls)
	assert.Equal(t, []bool{false}, stubs.rooms.priorities)
	assert.Equal(t, []string{"fun-001", "ent-001"}, stubs.notifier.notified)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Swipe_RedeliveredRightIsIdempotent(t *testing.T) {
	svc, mock, stubs := newTestService(t)

	expectPairLock(mock)
	expectPairLookup(mock, addPendingRow(matchRows(), "rec-1", "ent-001", "fun-001", 64, false))
	mock.ExpectCommit()

	result, err := svc.Swipe(context.Background(), "ent-001", "fun-001", models.DirectionRight)
	require.NoError(t, err)

	assert.False(t, result.IsMatch)
	assert.Equal(t, "rec-1", result.Record.ID)
	assert.Equal(t, models.StatusPending, result.Record.Status)
	assert.Zero(t, stubs.rooms.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Swipe_RightOnMatchedReturnsExistingMatch(t *testing.T) {
	svc, mock, stubs := newTestService(t)

	rows := matchRows().AddRow("rec-1", "fun-001", "ent-001", "matched", 62,
		[]byte(`{"investmentFit":1}`), "MEDIUM", nil, false, false, "room-7", fixedAt.Add(-time.Hour), fixedAt.Add(-time.Minute))

	expectPairLock(mock)
	expectPairLookup(mock, rows)
	mock.ExpectCommit()

	result, err := svc.Swipe(context.Background(), "ent-001", "fun-001", models.DirectionRight)
	require.NoError(t, err)

	assert.True(t, result.IsMatch)
	assert.Equal(t, "room-7", result.Record.ChatRoomID)
	assert.Zero(t, stubs.rooms.calls)
	assert.Empty(t, stubs.notifier.notified)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Swipe_RightOnRejectedConflicts(t *testing.T) {
	svc, mock, _ := newTestService(t)

	rows := matchRows().AddRow("rec-1", "ent-001", "fun-001", "rejected", 0,
		nil, "", nil, false, false, "", fixedAt.Add(-time.Hour), fixedAt.Add(-time.Hour))

	expectPairLock(mock)
	expectPairLookup(mock, rows)
	mock.ExpectRollback()

	_, err := svc.Swipe(context.Background(), "ent-001", "fun-001", models.DirectionRight)
	require.Error(t, err)
	assert.True(t, errors.IsConflict(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Race Tests
// ==========================

func TestService_Swipe_InsertRaceFallsThroughToMatch(t *testing.T) {
	svc, mock, stubs := newTestService(t)

	expectPairLock(mock)
	expectPairLookup(mock, matchRows())
	// Concurrent writer won the unique-pair insert; zero rows come back.
	mock.ExpectExec(`INSERT INTO match_records`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	expectPairLookup(mock, addPendingRow(matchRows(), "rec-1", "fun-001", "ent-001", 62, false))
	mock.ExpectExec(`SET status = 'matched'`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectExec(`SET chat_room_id`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := svc.Swipe(context.Background(), "ent-001", "fun-001", models.DirectionRight)
	require.NoError(t, err)

	assert.True(t, result.IsMatch)
	assert.Equal(t, 1, stubs.rooms.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Swipe_PromoteRaceResolvesToExistingMatch(t *testing.T) {
	svc, mock, stubs := newTestService(t)

	expectPairLock(mock)
	expectPairLookup(mock, addPendingRow(matchRows(), "rec-1", "fun-001", "ent-001", 62, false))
	// The conditional update found the row no longer pending.
	mock.ExpectExec(`SET status = 'matched'`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	rows := matchRows().AddRow("rec-1", "fun-001", "ent-001", "matched", 62,
		nil, "MEDIUM", nil, false, false, "room-7", fixedAt.Add(-time.Hour), fixedAt)
	expectPairLookup(mock, rows)
	mock.ExpectCommit()

	result, err := svc.Swipe(context.Background(), "ent-001", "fun-001", models.DirectionRight)
	require.NoError(t, err)

	assert.True(t, result.IsMatch)
	assert.Equal(t, "room-7", result.Record.ChatRoomID)
	// Exactly one chat room per matched pair: the racing winner already made it.
	assert.Zero(t, stubs.rooms.calls)
	assert.Empty(t, stubs.notifier.notified)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Left Swipe Tests
// ==========================

func TestService_Swipe_LeftWithNoHistoryInsertsRejected(t *testing.T) {
	svc, mock, stubs := newTestService(t)

	expectPairLock(mock)
	expectPairLookup(mock, matchRows())
	mock.ExpectExec(`INSERT INTO match_records`).
		WithArgs(sqlmock.AnyArg(), "ent-001", "fun-001", "ent-001", "fun-001", "rejected",
			0, []byte("null"), "", []byte("null"),
			false, false, "", fixedAt, fixedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := svc.Swipe(context.Background(), "ent-001", "fun-001", models.DirectionLeft)
	require.NoError(t, err)

	assert.False(t, result.IsMatch)
	assert.Equal(t, models.StatusRejected, result.Record.Status)
	assert.Zero(t, result.Record.CompatibilityScore)
	assert.Empty(t, result.Record.CompatibilityFactors)

	// Passing on a candidate never touches the allowance counters.
	assert.Zero(t, stubs.quotas.calls)
	assert.Zero(t, stubs.rooms.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Swipe_LeftRejectsPending(t *testing.T) {
	svc, mock, _ := newTestService(t)

	expectPairLock(mock)
	expectPairLookup(mock, addPendingRow(matchRows(), "rec-1", "fun-001", "ent-001", 62, false))
	mock.ExpectExec(`SET status = 'rejected'`).
		WithArgs("rec-1", fixedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := svc.Swipe(context.Background(), "ent-001", "fun-001", models.DirectionLeft)
	require.NoError(t, err)

	assert.Equal(t, models.StatusRejected, result.Record.Status)
	require.NotNil(t, result.Record.RespondedAt)
	assert.Equal(t, fixedAt, *result.Record.RespondedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Swipe_LeftOnRejectedIsIdempotent(t *testing.T) {
	svc, mock, _ := newTestService(t)

	rows := matchRows().AddRow("rec-1", "ent-001", "fun-001", "rejected", 0,
		nil, "", nil, false, false, "", fixedAt.Add(-time.Hour), fixedAt.Add(-time.Hour))

	expectPairLock(mock)
	expectPairLookup(mock, rows)
	mock.ExpectCommit()

	result, err := svc.Swipe(context.Background(), "ent-001", "fun-001", models.DirectionLeft)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, result.Record.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Swipe_LeftOnMatchedConflicts(t *testing.T) {
	svc, mock, _ := newTestService(t)

	rows := matchRows().AddRow("rec-1", "ent-001", "fun-001", "matched", 62,
		nil, "MEDIUM", nil, false, false, "room-7", fixedAt.Add(-time.Hour), fixedAt.Add(-time.Hour))

	expectPairLock(mock)
	expectPairLookup(mock, rows)
	mock.ExpectRollback()

	_, err := svc.Swipe(context.Background(), "ent-001", "fun-001", models.DirectionLeft)
	require.Error(t, err)
	assert.True(t, errors.IsConflict(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Validation Tests
// ==========================

func TestService_Swipe_Validation(t *testing.T) {
	tests := []struct {
		name      string
		initiator string
		target    string
		direction models.Direction
	}{
		{name: "empty initiator", initiator: "", target: "fun-001", direction: models.DirectionRight},
		{name: "empty target", initiator: "ent-001", target: "  ", direction: models.DirectionLeft},
		{name: "self swipe", initiator: "ent-001", target: "ent-001", direction: models.DirectionRight},
		{name: "unknown direction", initiator: "ent-001", target: "fun-001", direction: models.Direction("up")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mock, stubs := newTestService(t)

			_, err := svc.Swipe(context.Background(), tt.initiator, tt.target, tt.direction)
			require.Error(t, err)
			assert.True(t, errors.IsValidation(err))
			assert.Empty(t, stubs.profiles.gets)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestService_Swipe_UnknownTarget(t *testing.T) {
	svc, mock, _ := newTestService(t)

	_, err := svc.Swipe(context.Background(), "ent-001", "ghost", models.DirectionRight)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Super-Like Tests
// ==========================

func TestService_SuperLike_CreatesBoostedPending(t *testing.T) {
	svc, mock, stubs := newTestService(t)

	expectPairLock(mock)
	expectPairLookup(mock, matchRows())
	// Base 64 boosts to round(64*1.2)=77, then the floor lifts it to 80.
	mock.ExpectExec(`INSERT INTO match_records`).
		WithArgs(sqlmock.AnyArg(), "ent-001", "fun-001", "ent-001", "fun-001", "pending",
			80, sqlmock.AnyArg(), "HIGH", sqlmock.AnyArg(),
			true, true, "", fixedAt, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := svc.SuperLike(context.Background(), "ent-001", "fun-001")
	require.NoError(t, err)

	assert.False(t, result.IsMatch)
	assert.Equal(t, 80, result.Record.CompatibilityScore)
	assert.Equal(t, models.QualityHigh, result.Record.MatchQuality)
	assert.True(t, result.Record.SuperLiked)
	assert.True(t, result.Record.Priority)

	assert.Equal(t, 1, stubs.quotas.calls)
	assert.Equal(t, quota.ResourceSuperLikes, stubs.quotas.resource)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_SuperLike_DeniedByQuota(t *testing.T) {
	svc, mock, stubs := newTestService(t)
	stubs.quotas.decision = &quota.Decision{Allowed: false, Remaining: 0, Limit: 1, ResetsIn: 3 * time.Hour}

	_, err := svc.SuperLike(context.Background(), "ent-001", "fun-001")
	require.Error(t, err)
	assert.True(t, errors.IsQuotaExceeded(err))

	// The gate runs before any profile load or record mutation.
	assert.Empty(t, stubs.profiles.gets)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_SuperLike_UpgradesOwnPendingInPlace(t *testing.T) {
	svc, mock, stubs := newTestService(t)

	expectPairLock(mock)
	expectPairLookup(mock, addPendingRow(matchRows(), "rec-1", "ent-001", "fun-001", 64, false))
	mock.ExpectExec(`super_liked = TRUE`).
		WithArgs("rec-1", "ent-001", 80, "HIGH").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := svc.SuperLike(context.Background(), "ent-001", "fun-001")
	require.NoError(t, err)

	assert.False(t, result.IsMatch)
	assert.Equal(t, 80, result.Record.CompatibilityScore)
	assert.True(t, result.Record.SuperLiked)
	assert.True(t, result.Record.Priority)
	assert.Equal(t, 1, stubs.quotas.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_SuperLike_ReciprocalMatchIsPriority(t *testing.T) {
	svc, mock, stubs := newTestService(t)

	expectPairLock(mock)
	expectPairLookup(mock, addPendingRow(matchRows(), "rec-1", "fun-001", "ent-001", 62, false))
	mock.ExpectExec(`SET status = 'matched'`).
		WithArgs("rec-1", 80, sqlmock.AnyArg(), "HIGH", sqlmock.AnyArg(), true, true, fixedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectExec(`SET chat_room_id`).
		WithArgs("rec-1", "room-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := svc.SuperLike(context.Background(), "ent-001", "fun-001")
	require.NoError(t, err)

	assert.True(t, result.IsMatch)
	assert.True(t, result.Record.Priority)
	assert.GreaterOrEqual(t, result.Record.CompatibilityScore, 80)
	assert.Equal(t, []bool{true}, stubs.rooms.priorities)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Swipe_PlainRightKeepsSuperLikePriority(t *testing.T) {
	svc, mock, stubs := newTestService(t)

	// The funder super-liked first; the entrepreneur answers with a plain right.
	expectPairLock(mock)
	expectPairLookup(mock, addPendingRow(matchRows(), "rec-1", "fun-001", "ent-001", 80, true))
	mock.ExpectExec(`SET status = 'matched'`).
		WithArgs("rec-1", 80, sqlmock.AnyArg(), "HIGH", sqlmock.AnyArg(), false, false, fixedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectExec(`SET chat_room_id`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := svc.Swipe(context.Background(), "ent-001", "fun-001", models.DirectionRight)
	require.NoError(t, err)

	assert.True(t, result.IsMatch)
	assert.True(t, result.Record.SuperLiked)
	assert.True(t, result.Record.Priority)
	assert.GreaterOrEqual(t, result.Record.CompatibilityScore, 80)
	// Completing someone else's super-like costs the target nothing.
	assert.Zero(t, stubs.quotas.calls)
	assert.Equal(t, []bool{true}, stubs.rooms.priorities)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Side Effect Tests
// ==========================

func TestService_Swipe_RoomFailureSurfacesDependency(t *testing.T) {
	svc, mock, stubs := newTestService(t)
	stubs.rooms.err = assert.AnError

	expectPairLock(mock)
	expectPairLookup(mock, addPendingRow(matchRows(), "rec-1", "fun-001", "ent-001", 62, false))
	mock.ExpectExec(`SET status = 'matched'`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err := svc.Swipe(context.Background(), "ent-001", "fun-001", models.DirectionRight)
	require.Error(t, err)
	assert.True(t, errors.IsDependency(err))

	// The match itself stays committed; the next read repairs the room.
	assert.Empty(t, stubs.notifier.notified)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Swipe_NotifierFailureDoesNotFailSwipe(t *testing.T) {
	svc, mock, stubs := newTestService(t)
	stubs.notifier.err = assert.AnError

	expectPairLock(mock)
	expectPairLookup(mock, addPendingRow(matchRows(), "rec-1", "fun-001", "ent-001", 62, false))
	mock.ExpectExec(`SET status = 'matched'`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectExec(`SET chat_room_id`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := svc.Swipe(context.Background(), "ent-001", "fun-001", models.DirectionRight)
	require.NoError(t, err)
	assert.True(t, result.IsMatch)
	assert.Len(t, stubs.notifier.notified, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// ActiveMatches Tests
// ==========================

func TestService_ActiveMatches_RepairsMissingRoom(t *testing.T) {
	svc, mock, stubs := newTestService(t)

	rows := matchRows().
		AddRow("rec-1", "ent-001", "fun-001", "matched", 62,
			nil, "MEDIUM", nil, false, false, "room-7", fixedAt.Add(-2*time.Hour), fixedAt.Add(-time.Hour)).
		AddRow("rec-2", "ent-001", "fun-002", "matched", 85,
			nil, "HIGH", nil, true, true, "", fixedAt.Add(-time.Hour), fixedAt.Add(-time.Minute))

	mock.ExpectQuery(`AND status = 'matched'`).
		WithArgs("ent-001").
		WillReturnRows(rows)
	mock.ExpectExec(`SET chat_room_id`).
		WithArgs("rec-2", "room-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	matches, err := svc.ActiveMatches(context.Background(), "ent-001")
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(t, "room-7", matches[0].ChatRoomID)
	assert.Equal(t, "room-1", matches[1].ChatRoomID)
	assert.Equal(t, 1, stubs.rooms.calls)
	assert.Equal(t, []bool{true}, stubs.rooms.priorities)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_ActiveMatches_RepairFailureStillLists(t *testing.T) {
	svc, mock, stubs := newTestService(t)
	stubs.rooms.err = assert.AnError

	rows := matchRows().AddRow("rec-2", "ent-001", "fun-002", "matched", 85,
		nil, "HIGH", nil, false, false, "", fixedAt.Add(-time.Hour), fixedAt.Add(-time.Minute))

	mock.ExpectQuery(`AND status = 'matched'`).
		WithArgs("ent-001").
		WillReturnRows(rows)

	matches, err := svc.ActiveMatches(context.Background(), "ent-001")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Empty(t, matches[0].ChatRoomID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_ActiveMatches_RequiresUserID(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.ActiveMatches(context.Background(), "   ")
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

// ==========================
// BoostScore Tests
// ==========================

func TestBoostScore(t *testing.T) {
	tests := []struct {
		name     string
		base     int
		expected int
	}{
		{name: "zero base hits the floor", base: 0, expected: 80},
		{name: "low base hits the floor", base: 40, expected: 80},
		{name: "just under the floor", base: 66, expected: 80},
		{name: "floor boundary", base: 67, expected: 80},
		{name: "multiplier wins above the floor", base: 70, expected: 84},
		{name: "high base caps at 100", base: 90, expected: 100},
		{name: "perfect base stays capped", base: 100, expected: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BoostScore(tt.base))
		})
	}
}

func TestBoostScore_AlwaysAtLeastFloor(t *testing.T) {
	for base := 0; base <= 100; base++ {
		boosted := BoostScore(base)
		assert.GreaterOrEqual(t, boosted, 80)
		assert.LessOrEqual(t, boosted, 100)
	}
}
