package repository

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/vibecreator/mixpost-api/internal/models"
)

type ApiKeyRepository interface {
	GetByHash(ctx context.Context, keyHash string) (*models.ApiKey, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.ApiKey, error)
	Create(ctx context.Context, apiKey *models.ApiKey) (int64, error)
	Touch(ctx context.Context, id int64) error
	Remove(ctx context.Context, userID, id int64) (bool, error)
}

type apiKeyRepository struct {
	db  *sql.DB
	log *zap.Logger
}

func NewApiKeyRepository(db *sql.DB, log *zap.Logger) ApiKeyRepository {
	return &apiKeyRepository{db: db, log: log}
}

const apiKeyColumns = `id, user_id, name, key_hash, last_used_at, created_at`

func scanApiKey(row scanner) (*models.ApiKey, error) {
	var k models.ApiKey
	if err := row.Scan(&k.ID, &k.UserID, &k.Name, &k.KeyHash, &k.LastUsedAt, &k.CreatedAt); err != nil {
		return nil, err
	}
	return &k, nil
}

func (r *apiKeyRepository) GetByHash(ctx context.Context, keyHash string) (*models.ApiKey, error) {
	k, err := scanApiKey(r.db.QueryRowContext(ctx, `SELECT `+apiKeyColumns+` FROM api_keys WHERE key_hash = $1`, keyHash))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.log.Info("get api key", zap.Error(err))
		return nil, err
	}
	return k, nil
}

func (r *apiKeyRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.ApiKey, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+apiKeyColumns+` FROM api_keys WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		r.log.Info("list api keys", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	keys := []*models.ApiKey{}
	for rows.Next() {
		k, err := scanApiKey(rows)
		if err != nil {
			r.log.Info("scan api key", zap.Error(err))
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (r *apiKeyRepository) Create(ctx context.Context, apiKey *models.ApiKey) (int64, error) {
	query := `INSERT INTO api_keys (user_id, name, key_hash) VALUES ($1, $2, $3) RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, apiKey.UserID, apiKey.Name, apiKey.KeyHash).Scan(&apiKey.ID, &apiKey.CreatedAt)
	if err != nil {
		r.log.Info("create api key", zap.Error(err))
		return 0, err
	}
	return apiKey.ID, nil
}

func (r *apiKeyRepository) Touch(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE api_keys SET last_used_at = NOW() WHERE id = $1`, id); err != nil {
		r.log.Info("touch api key", zap.Int64("key_id", id), zap.Error(err))
		return err
	}
	return nil
}

func (r *apiKeyRepository) Remove(ctx context.Context, userID, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM api_keys WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		r.log.Info("remove api key", zap.Int64("key_id", id), zap.Error(err))
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
