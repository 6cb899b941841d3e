// internal/matching/store.go

package matching

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"fundmatch-workers/internal/common/errors"
	"fundmatch-workers/internal/common/logger"
	"fundmatch-workers/internal/models"
)

const matchColumns = `
	id, initiator_id, target_id, status, compatibility_score, compatibility_factors,
	match_quality, reasons, super_liked, priority, chat_room_id, created_at, responded_at`

const getByPairQuery = `
	SELECT` + matchColumns + `
	FROM match_records
	WHERE user_lo = $1 AND user_hi = $2`

// insertQuery relies on the unique (user_lo, user_hi) index: a concurrent
// writer that got there first makes this a no-op, signalled by zero rows.
const insertQuery = `
	INSERT INTO match_records (
		id, user_lo, user_hi, initiator_id, target_id, status,
		compatibility_score, compatibility_factors, match_quality, reasons,
		super_liked, priority, chat_room_id, created_at, responded_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	ON CONFLICT (user_lo, user_hi) DO NOTHING`

// promoteQuery is the atomic pending-to-matched transition. The status guard
// makes a lost race observable as zero rows affected. Super-like and priority
// flags only ever turn on.
const promoteQuery = `
	UPDATE match_records
	SET status = 'matched',
	    compatibility_score = $2,
	    compatibility_factors = $3,
	    match_quality = $4,
	    reasons = $5,
	    super_liked = (super_liked OR $6),
	    priority = (priority OR $7),
	    responded_at = $8
	WHERE id = $1 AND status = 'pending'`

const rejectQuery = `
	UPDATE match_records
	SET status = 'rejected', responded_at = $2
	WHERE id = $1 AND status = 'pending'`

// boostQuery upgrades an initiator's own pending swipe to a super-like.
const boostQuery = `
	UPDATE match_records
	SET compatibility_score = $3,
	    match_quality = $4,
	    super_liked = TRUE,
	    priority = TRUE
	WHERE id = $1 AND initiator_id = $2 AND status = 'pending'`

const attachRoomQuery = `
	UPDATE match_records SET chat_room_id = $2 WHERE id = $1`

const matchesForQuery = `
	SELECT` + matchColumns + `
	FROM match_records
	WHERE (initiator_id = $1 OR target_id = $1) AND status = 'matched'
	ORDER BY responded_at DESC NULLS LAST`

const pairLockQuery = `SELECT pg_advisory_xact_lock(hashtext($1))`

// Store persists match records. All writes for a pair go through
// RunPairLocked so that the two swipe directions serialize on one lock.
type Store struct {
	db     *sql.DB
	logger logger.Logger
}

func NewStore(db *sql.DB, log logger.Logger) *Store {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Store{db: db, logger: log}
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// RunPairLocked runs fn inside a transaction holding the advisory lock for the
// unordered pair. The lock releases with the transaction.
func (s *Store) RunPairLocked(ctx context.Context, a, b string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewDatabaseConnectionFailedError(err)
	}

	lo, hi := models.PairKey(a, b)
	if _, err := tx.ExecContext(ctx, pairLockQuery, lo+"|"+hi); err != nil {
		tx.Rollback()
		return errors.NewQueryExecutionFailedError("acquire pair lock", err)
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.NewQueryExecutionFailedError("commit swipe", err)
	}
	return nil
}

// GetByPair returns the canonical record for an unordered pair, or nil when
// the users have no history.
func (s *Store) GetByPair(ctx context.Context, q querier, a, b string) (*models.MatchRecord, error) {
	lo, hi := models.PairKey(a, b)
	rec, err := scanMatchRecord(q.QueryRowContext(ctx, getByPairQuery, lo, hi))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.NewQueryExecutionFailedError("get pair record", err)
	}
	return rec, nil
}

// Insert writes a fresh record. Returns false when a concurrent writer already
// holds the pair, in which case the caller re-reads.
func (s *Store) Insert(ctx context.Context, tx *sql.Tx, rec *models.MatchRecord) (bool, error) {
	lo, hi := models.PairKey(rec.InitiatorID, rec.TargetID)
	res, err := tx.ExecContext(ctx, insertQuery,
		rec.ID, lo, hi, rec.InitiatorID, rec.TargetID, string(rec.Status),
		rec.CompatibilityScore, jsonArg(rec.CompatibilityFactors), string(rec.MatchQuality), jsonArg(rec.Reasons),
		rec.SuperLiked, rec.Priority, rec.ChatRoomID, rec.CreatedAt, rec.RespondedAt)
	if err != nil {
		return false, errors.NewQueryExecutionFailedError("insert pair record", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, errors.NewQueryExecutionFailedError("insert pair record", err)
	}
	return affected == 1, nil
}

// Promote transitions a pending record to matched with its final score.
// Returns false when the record was no longer pending.
func (s *Store) Promote(ctx context.Context, tx *sql.Tx, id string, score int, factors map[string]float64, quality models.MatchQuality, reasons []string, escalated bool, respondedAt time.Time) (bool, error) {
	res, err := tx.ExecContext(ctx, promoteQuery,
		id, score, jsonArg(factors), string(quality), jsonArg(reasons),
		escalated, escalated, respondedAt)
	if err != nil {
		return false, errors.NewQueryExecutionFailedError("promote pair record", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, errors.NewQueryExecutionFailedError("promote pair record", err)
	}
	return affected == 1, nil
}

// Reject transitions a pending record to rejected. Returns false when the
// record was no longer pending.
func (s *Store) Reject(ctx context.Context, tx *sql.Tx, id string, respondedAt time.Time) (bool, error) {
	res, err := tx.ExecContext(ctx, rejectQuery, id, respondedAt)
	if err != nil {
		return false, errors.NewQueryExecutionFailedError("reject pair record", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, errors.NewQueryExecutionFailedError("reject pair record", err)
	}
	return affected == 1, nil
}

// Boost upgrades the initiator's own pending swipe in place when a super-like
// follows a plain right-swipe on the same target.
func (s *Store) Boost(ctx context.Context, tx *sql.Tx, id, initiatorID string, score int, quality models.MatchQuality) (bool, error) {
	res, err := tx.ExecContext(ctx, boostQuery, id, initiatorID, score, string(quality))
	if err != nil {
		return false, errors.NewQueryExecutionFailedError("boost pair record", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, errors.NewQueryExecutionFailedError("boost pair record", err)
	}
	return affected == 1, nil
}

// AttachChatRoom stores the room ID once the chat collaborator reports one.
func (s *Store) AttachChatRoom(ctx context.Context, id, roomID string) error {
	if _, err := s.db.ExecContext(ctx, attachRoomQuery, id, roomID); err != nil {
		return errors.NewQueryExecutionFailedError("attach chat room", err)
	}
	return nil
}

// MatchesFor returns every matched record involving the user, newest first.
func (s *Store) MatchesFor(ctx context.Context, userID string) ([]models.MatchRecord, error) {
	rows, err := s.db.QueryContext(ctx, matchesForQuery, userID)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list matches", err)
	}
	defer rows.Close()

	var records []models.MatchRecord
	for rows.Next() {
		rec, err := scanMatchRecord(rows)
		if err != nil {
			return nil, errors.NewQueryExecutionFailedError("scan match record", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("list matches", err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMatchRecord(row rowScanner) (*models.MatchRecord, error) {
	var (
		rec         models.MatchRecord
		status      string
		quality     string
		factorsRaw  []byte
		reasonsRaw  []byte
		chatRoom    sql.NullString
		respondedAt sql.NullTime
	)

	err := row.Scan(
		&rec.ID, &rec.InitiatorID, &rec.TargetID, &status, &rec.CompatibilityScore, &factorsRaw,
		&quality, &reasonsRaw, &rec.SuperLiked, &rec.Priority, &chatRoom, &rec.CreatedAt, &respondedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Status = models.MatchStatus(status)
	rec.MatchQuality = models.MatchQuality(quality)
	rec.ChatRoomID = chatRoom.String
	if respondedAt.Valid {
		t := respondedAt.Time
		rec.RespondedAt = &t
	}
	if len(factorsRaw) > 0 {
		_ = json.Unmarshal(factorsRaw, &rec.CompatibilityFactors)
	}
	if len(reasonsRaw) > 0 {
		_ = json.Unmarshal(reasonsRaw, &rec.Reasons)
	}

	return &rec, nil
}

// jsonArg marshals a jsonb column value, mapping nil onto SQL NULL.
func jsonArg(v interface{}) interface{} {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}
