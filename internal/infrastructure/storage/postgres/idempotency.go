package postgres

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Masterminds/squirrel"

	"hesap/internal/core/apperror"
)

const idempotencyTable = "sys_idempotency"

// Idempotency key states. A pending key belongs to a request in flight.
const (
	keyPending   = "pending"
	keySucceeded = "success"
	keyFailed    = "failed"
)

// staleAfter is how long a pending key may sit before another request
// reclaims it.
const staleAfter = time.Minute

var sq = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// IdempotencyReplay is a stored response served again for a repeated key.
type IdempotencyReplay struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// IdempotencyStore records mutating requests per (branch, key) so a retried
// request gets the first response instead of running twice.
type IdempotencyStore struct {
	txManager *TxManager
	ttl       time.Duration
	now       func() time.Time
}

// NewIdempotencyStore creates a store whose keys expire after ttl.
func NewIdempotencyStore(txManager *TxManager, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{
		txManager: txManager,
		ttl:       ttl,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// AcquireKey claims key for a request. It returns (nil, nil) when the caller
// owns the key and must run the request, a replay when the key already
// finished, and an error when the key is in flight or was used for a
// different request.
func (s *IdempotencyStore) AcquireKey(ctx context.Context, branchID, key, userID, operation, requestHash string) (*IdempotencyReplay, error) {
	now := s.now()
	q := s.txManager.GetQuerier(ctx)

	// The no-op update makes RETURNING yield the existing row; xmax = 0 marks a fresh insert.
	var (
		storedUser, storedOp, storedHash, status string
		replay                                   IdempotencyReplay
		updatedAt                                time.Time
		inserted                                 bool
	)
	err := q.QueryRow(ctx, `
		INSERT INTO sys_idempotency (branch_id, idempotency_key, user_id, operation, status, request_hash, created_at, updated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7, $8)
		ON CONFLICT (branch_id, idempotency_key) DO UPDATE SET
			expires_at = GREATEST(sys_idempotency.expires_at, EXCLUDED.expires_at)
		RETURNING user_id, operation, request_hash, status,
		          response, COALESCE(response_status, 0), COALESCE(response_content_type, ''),
		          updated_at, (xmax = 0)
	`, branchID, key, userID, operation, keyPending, requestHash, now, now.Add(s.ttl)).Scan(
		&storedUser, &storedOp, &storedHash, &status,
		&replay.Body, &replay.StatusCode, &replay.ContentType,
		&updatedAt, &inserted,
	)
	if err != nil {
		return nil, fmt.Errorf("acquire idempotency key: %w", err)
	}
	if inserted {
		return nil, nil
	}

	if storedUser != userID || storedOp != operation || storedHash != requestHash {
		return nil, apperror.NewIdempotencyMismatch(key).WithDetail("operation", storedOp)
	}

	switch status {
	case keySucceeded, keyFailed:
		if replay.StatusCode == 0 {
			replay.StatusCode = http.StatusOK
		}
		if replay.ContentType == "" {
			replay.ContentType = "application/json"
		}
		return &replay, nil
	}

	if now.Sub(updatedAt) > staleAfter {
		reclaimed, err := s.reclaim(ctx, branchID, key, updatedAt, now)
		if err != nil {
			return nil, err
		}
		if reclaimed {
			return nil, nil
		}
	}
	return nil, apperror.NewIdempotencyConflict(key)
}

// reclaim takes over a pending key left by a request that never finished.
// Only one of several racing requests wins.
func (s *IdempotencyStore) reclaim(ctx context.Context, branchID, key string, seen, now time.Time) (bool, error) {
	n, err := s.exec(ctx, sq.Update(idempotencyTable).
		Set("updated_at", now).
		Where(squirrel.Eq{
			"branch_id":       branchID,
			"idempotency_key": key,
			"status":          keyPending,
			"updated_at":      seen,
		}))
	if err != nil {
		return false, fmt.Errorf("reclaim stale key: %w", err)
	}
	return n == 1, nil
}

// CompleteKey stores the successful response of the request owning key.
func (s *IdempotencyStore) CompleteKey(ctx context.Context, branchID, key string, statusCode int, contentType string, response []byte) error {
	return s.finish(ctx, branchID, key, keySucceeded, statusCode, contentType, response)
}

// FailKey stores a client-error response; it is replayed like a success.
func (s *IdempotencyStore) FailKey(ctx context.Context, branchID, key string, statusCode int, contentType string, response []byte) error {
	return s.finish(ctx, branchID, key, keyFailed, statusCode, contentType, response)
}

// ReleaseKey drops a pending key so the request can be retried after a
// server error that left no effects behind.
func (s *IdempotencyStore) ReleaseKey(ctx context.Context, branchID, key string) error {
	_, err := s.exec(ctx, sq.Delete(idempotencyTable).Where(squirrel.Eq{
		"branch_id":       branchID,
		"idempotency_key": key,
		"status":          keyPending,
	}))
	if err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) finish(ctx context.Context, branchID, key, status string, statusCode int, contentType string, response []byte) error {
	_, err := s.exec(ctx, sq.Update(idempotencyTable).
		SetMap(map[string]any{
			"status":                status,
			"response":              response,
			"response_status":       statusCode,
			"response_content_type": contentType,
			"updated_at":            s.now(),
		}).
		Where(squirrel.Eq{"branch_id": branchID, "idempotency_key": key}))
	if err != nil {
		return fmt.Errorf("finish idempotency key: %w", err)
	}
	return nil
}

// CleanupExpired deletes expired keys and returns how many were removed.
func (s *IdempotencyStore) CleanupExpired(ctx context.Context) (int64, error) {
	n, err := s.exec(ctx, sq.Delete(idempotencyTable).Where(squirrel.Lt{"expires_at": s.now()}))
	if err != nil {
		return 0, fmt.Errorf("cleanup idempotency keys: %w", err)
	}
	return n, nil
}

func (s *IdempotencyStore) exec(ctx context.Context, b squirrel.Sqlizer) (int64, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}
	tag, err := s.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
