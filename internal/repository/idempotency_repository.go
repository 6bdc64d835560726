package repository

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/vibecreator/mixpost-api/internal/models"
)

type IdempotencyRepository interface {
	Get(ctx context.Context, userID int64, key string, since time.Time) (*models.IdempotencyKey, error)
	Claim(ctx context.Context, k *models.IdempotencyKey, staleBefore time.Time) (bool, error)
	Complete(ctx context.Context, k *models.IdempotencyKey) error
	Release(ctx context.Context, userID int64, key string) error
	PurgeBefore(ctx context.Context, before time.Time) (int64, error)
}

type idempotencyRepository struct {
	db  *sql.DB
	log *zap.Logger
}

func NewIdempotencyRepository(db *sql.DB, log *zap.Logger) IdempotencyRepository {
	return &idempotencyRepository{db: db, log: log}
}

// Get ignores records older than since; those are expired but not purged yet.
func (r *idempotencyRepository) Get(ctx context.Context, userID int64, key string, since time.Time) (*models.IdempotencyKey, error) {
	query := `
		SELECT id, user_id, key, method, path, status_code, response_body, created_at
		FROM idempotency_keys
		WHERE user_id = $1 AND key = $2 AND created_at >= $3
	`

	var k models.IdempotencyKey
	err := r.db.QueryRowContext(ctx, query, userID, key, since).Scan(&k.ID, &k.UserID, &k.Key, &k.Method, &k.Path,
		&k.StatusCode, &k.ResponseBody, &k.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.log.Info("get idempotency key", zap.Error(err))
		return nil, err
	}
	return &k, nil
}

// Claim inserts a pending record for (user, key). It reports false when a
// live record, pending or completed, already holds the key. A record created
// before staleBefore is expired and gets taken over.
func (r *idempotencyRepository) Claim(ctx context.Context, k *models.IdempotencyKey, staleBefore time.Time) (bool, error) {
	query := `
		INSERT INTO idempotency_keys (user_id, key, method, path, status_code, response_body, created_at)
		VALUES ($1, $2, $3, $4, 0, ''::bytea, $5)
		ON CONFLICT (user_id, key) DO UPDATE SET
			method = EXCLUDED.method,
			path = EXCLUDED.path,
			status_code = 0,
			response_body = EXCLUDED.response_body,
			created_at = EXCLUDED.created_at
		WHERE idempotency_keys.created_at < $6
		RETURNING id
	`
	if k.CreatedAt.IsZero() {
		k.CreatedAt = time.Now()
	}
	err := r.db.QueryRowContext(ctx, query, k.UserID, k.Key, k.Method, k.Path, k.CreatedAt, staleBefore).Scan(&k.ID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		r.log.Info("claim idempotency key", zap.Error(err))
		return false, err
	}
	return true, nil
}

// Complete stores the response on a claimed record.
func (r *idempotencyRepository) Complete(ctx context.Context, k *models.IdempotencyKey) error {
	query := `
		UPDATE idempotency_keys
		SET status_code = $3, response_body = $4
		WHERE user_id = $1 AND key = $2 AND status_code = 0
	`
	_, err := r.db.ExecContext(ctx, query, k.UserID, k.Key, k.StatusCode, k.ResponseBody)
	if err != nil {
		r.log.Info("complete idempotency key", zap.Error(err))
		return err
	}
	return nil
}

// Release drops a pending claim so the key can be used again.
func (r *idempotencyRepository) Release(ctx context.Context, userID int64, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM idempotency_keys WHERE user_id = $1 AND key = $2 AND status_code = 0`,
		userID, key)
	if err != nil {
		r.log.Info("release idempotency key", zap.Error(err))
		return err
	}
	return nil
}

func (r *idempotencyRepository) PurgeBefore(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM idempotency_keys WHERE created_at < $1`, before)
	if err != nil {
		r.log.Info("purge idempotency keys", zap.Error(err))
		return 0, err
	}
	return result.RowsAffected()
}
