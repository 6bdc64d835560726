package repository

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/vibecreator/mixpost-api/internal/models"
)

type SocialAccountRepository interface {
	Upsert(ctx context.Context, tx *sql.Tx, sa *models.SocialAccount) (int64, error)
	GetByID(ctx context.Context, userID, id int64) (*models.SocialAccount, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.SocialAccount, error)
	ListByIDs(ctx context.Context, userID int64, ids []int64) ([]*models.SocialAccount, error)
	Update(ctx context.Context, sa *models.SocialAccount) error
	Remove(ctx context.Context, userID, id int64) (bool, error)
}

type socialAccountRepository struct {
	db  *sql.DB
	log *zap.Logger
}

func NewSocialAccountRepository(db *sql.DB, log *zap.Logger) SocialAccountRepository {
	return &socialAccountRepository{db: db, log: log}
}

const accountColumns = `a.id, a.user_id, a.name, a.username, a.provider, a.provider_id, a.media_id, a.data,
	a.access_token, a.refresh_token, a.token_expires_at, a.authorized, a.created_at, a.updated_at`

func scanSocialAccount(row scanner, extra ...any) (*models.SocialAccount, error) {
	var sa models.SocialAccount
	dest := []any{&sa.ID, &sa.UserID, &sa.Name, &sa.Username, &sa.Provider, &sa.ProviderID, &sa.MediaID,
		jsonColumn{&sa.Data}, &sa.AccessToken, &sa.RefreshToken, &sa.TokenExpiresAt, &sa.Authorized,
		&sa.CreatedAt, &sa.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	sa.Capabilities = sa.Provider.Capabilities()
	return &sa, nil
}

// Upsert connects an account, or reconnects it when the same provider
// identity is already linked to the user.
func (r *socialAccountRepository) Upsert(ctx context.Context, tx *sql.Tx, sa *models.SocialAccount) (int64, error) {
	query := `
		INSERT INTO social_accounts (
			user_id,
			name,
			username,
			provider,
			provider_id,
			media_id,
			data,
			access_token,
			refresh_token,
			token_expires_at,
			authorized
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, TRUE)
		ON CONFLICT (user_id, provider, provider_id) DO UPDATE SET
			name = EXCLUDED.name,
			username = EXCLUDED.username,
			media_id = COALESCE(EXCLUDED.media_id, social_accounts.media_id),
			data = COALESCE(EXCLUDED.data, social_accounts.data),
			access_token = EXCLUDED.access_token,
			refresh_token = COALESCE(NULLIF(EXCLUDED.refresh_token, ''), social_accounts.refresh_token),
			token_expires_at = EXCLUDED.token_expires_at,
			authorized = TRUE,
			updated_at = NOW()
		RETURNING id
	`

	err := conn(r.db, tx).QueryRowContext(ctx, query,
		sa.UserID,
		sa.Name,
		sa.Username,
		sa.Provider,
		sa.ProviderID,
		sa.MediaID,
		jsonColumn{sa.Data},
		sa.AccessToken,
		sa.RefreshToken,
		sa.TokenExpiresAt,
	).Scan(&sa.ID)
	if err != nil {
		r.log.Info("upsert social account", zap.String("provider", string(sa.Provider)), zap.Error(err))
		return 0, err
	}

	return sa.ID, nil
}

func (r *socialAccountRepository) GetByID(ctx context.Context, userID, id int64) (*models.SocialAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM social_accounts a WHERE a.id = $1 AND a.user_id = $2`

	sa, err := scanSocialAccount(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.log.Info("get social account", zap.Int64("account_id", id), zap.Error(err))
		return nil, err
	}
	return sa, nil
}

func (r *socialAccountRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.SocialAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM social_accounts a WHERE a.user_id = $1 ORDER BY a.created_at DESC, a.id DESC`
	return r.list(ctx, query, userID)
}

func (r *socialAccountRepository) ListByIDs(ctx context.Context, userID int64, ids []int64) ([]*models.SocialAccount, error) {
	if len(ids) == 0 {
		return []*models.SocialAccount{}, nil
	}
	query := `SELECT ` + accountColumns + ` FROM social_accounts a WHERE a.user_id = $1 AND a.id = ANY($2) ORDER BY a.id`
	return r.list(ctx, query, userID, pq.Array(ids))
}

func (r *socialAccountRepository) list(ctx context.Context, query string, args ...any) ([]*models.SocialAccount, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.log.Info("list social accounts", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	accounts := []*models.SocialAccount{}
	for rows.Next() {
		sa, err := scanSocialAccount(rows)
		if err != nil {
			r.log.Info("scan social account", zap.Error(err))
			return nil, err
		}
		accounts = append(accounts, sa)
	}

	if err := rows.Err(); err != nil {
		r.log.Info("iterate social accounts", zap.Error(err))
		return nil, err
	}
	return accounts, nil
}

// Update refreshes the profile fields of an account.
func (r *socialAccountRepository) Update(ctx context.Context, sa *models.SocialAccount) error {
	query := `
		UPDATE social_accounts
		SET name = $1,
			username = $2,
			media_id = COALESCE($3, media_id),
			data = $4,
			authorized = $5,
			updated_at = NOW()
		WHERE id = $6 AND user_id = $7
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query, sa.Name, sa.Username, sa.MediaID, jsonColumn{sa.Data},
		sa.Authorized, sa.ID, sa.UserID).Scan(&sa.UpdatedAt)
	if err != nil {
		r.log.Info("update social account", zap.Int64("account_id", sa.ID), zap.Error(err))
		return err
	}
	return nil
}

func (r *socialAccountRepository) Remove(ctx context.Context, userID, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM social_accounts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		r.log.Info("remove social account", zap.Int64("account_id", id), zap.Error(err))
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
