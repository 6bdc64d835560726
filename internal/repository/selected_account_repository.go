package repository

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/vibecreator/mixpost-api/internal/models"
)

// SelectedAccountRepository maintains the accounts a post targets.
type SelectedAccountRepository interface {
	Attach(ctx context.Context, tx *sql.Tx, postID int64, accountIDs []int64) error
	Detach(ctx context.Context, tx *sql.Tx, postID int64) error
	ListByPostIDs(ctx context.Context, postIDs []int64) (map[int64][]*models.SocialAccount, error)
}

type selectedAccountRepository struct {
	db  *sql.DB
	log *zap.Logger
}

func NewSelectedAccountRepository(db *sql.DB, log *zap.Logger) SelectedAccountRepository {
	return &selectedAccountRepository{db: db, log: log}
}

func (r *selectedAccountRepository) Attach(ctx context.Context, tx *sql.Tx, postID int64, accountIDs []int64) error {
	if len(accountIDs) == 0 {
		return nil
	}
	query := `
		INSERT INTO post_accounts (post_id, account_id)
		SELECT $1, unnest($2::bigint[])
		ON CONFLICT DO NOTHING
	`
	if _, err := conn(r.db, tx).ExecContext(ctx, query, postID, pq.Array(accountIDs)); err != nil {
		r.log.Info("attach post accounts", zap.Int64("post_id", postID), zap.Error(err))
		return err
	}
	return nil
}

func (r *selectedAccountRepository) Detach(ctx context.Context, tx *sql.Tx, postID int64) error {
	if _, err := conn(r.db, tx).ExecContext(ctx, `DELETE FROM post_accounts WHERE post_id = $1`, postID); err != nil {
		r.log.Info("detach post accounts", zap.Int64("post_id", postID), zap.Error(err))
		return err
	}
	return nil
}

func (r *selectedAccountRepository) ListByPostIDs(ctx context.Context, postIDs []int64) (map[int64][]*models.SocialAccount, error) {
	accounts := make(map[int64][]*models.SocialAccount, len(postIDs))
	if len(postIDs) == 0 {
		return accounts, nil
	}

	query := `
		SELECT ` + accountColumns + `, pa.post_id
		FROM post_accounts pa
		JOIN social_accounts a ON a.id = pa.account_id
		WHERE pa.post_id = ANY($1)
		ORDER BY pa.post_id, a.id
	`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(postIDs))
	if err != nil {
		r.log.Info("list post accounts", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var postID int64
		sa, err := scanSocialAccount(rows, &postID)
		if err != nil {
			r.log.Info("scan post account", zap.Error(err))
			return nil, err
		}
		accounts[postID] = append(accounts[postID], sa)
	}

	if err := rows.Err(); err != nil {
		r.log.Info("iterate post accounts", zap.Error(err))
		return nil, err
	}
	return accounts, nil
}
