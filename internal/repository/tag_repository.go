package repository

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/vibecreator/mixpost-api/internal/models"
)

type TagRepository interface {
	Create(ctx context.Context, tag *models.Tag) (int64, error)
	GetByID(ctx context.Context, userID, id int64) (*models.Tag, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.Tag, error)
	ListByIDs(ctx context.Context, userID int64, ids []int64) ([]*models.Tag, error)
	Update(ctx context.Context, tag *models.Tag) error
	Remove(ctx context.Context, userID, id int64) (bool, error)
}

type tagRepository struct {
	db  *sql.DB
	log *zap.Logger
}

func NewTagRepository(db *sql.DB, log *zap.Logger) TagRepository {
	return &tagRepository{db: db, log: log}
}

const tagColumns = `t.id, t.user_id, t.name, t.hex_color, t.created_at, t.updated_at`

func scanTag(row scanner, extra ...any) (*models.Tag, error) {
	var t models.Tag
	dest := []any{&t.ID, &t.UserID, &t.Name, &t.HexColor, &t.CreatedAt, &t.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tagRepository) Create(ctx context.Context, tag *models.Tag) (int64, error) {
	query := `
		INSERT INTO tags (user_id, name, hex_color)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, tag.UserID, tag.Name, tag.HexColor).Scan(&tag.ID, &tag.CreatedAt, &tag.UpdatedAt)
	if err != nil {
		r.log.Info("create tag", zap.Error(err))
		return 0, err
	}
	return tag.ID, nil
}

func (r *tagRepository) GetByID(ctx context.Context, userID, id int64) (*models.Tag, error) {
	query := `SELECT ` + tagColumns + ` FROM tags t WHERE t.id = $1 AND t.user_id = $2`

	tag, err := scanTag(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.log.Info("get tag", zap.Int64("tag_id", id), zap.Error(err))
		return nil, err
	}
	return tag, nil
}

func (r *tagRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.Tag, error) {
	query := `SELECT ` + tagColumns + ` FROM tags t WHERE t.user_id = $1 ORDER BY t.name, t.id`
	return r.list(ctx, query, userID)
}

func (r *tagRepository) ListByIDs(ctx context.Context, userID int64, ids []int64) ([]*models.Tag, error) {
	if len(ids) == 0 {
		return []*models.Tag{}, nil
	}
	query := `SELECT ` + tagColumns + ` FROM tags t WHERE t.user_id = $1 AND t.id = ANY($2) ORDER BY t.name, t.id`
	return r.list(ctx, query, userID, pq.Array(ids))
}

func (r *tagRepository) list(ctx context.Context, query string, args ...any) ([]*models.Tag, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.log.Info("list tags", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	tags := []*models.Tag{}
	for rows.Next() {
		tag, err := scanTag(rows)
		if err != nil {
			r.log.Info("scan tag", zap.Error(err))
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

func (r *tagRepository) Update(ctx context.Context, tag *models.Tag) error {
	query := `
		UPDATE tags
		SET name = $1,
			hex_color = $2,
			updated_at = NOW()
		WHERE id = $3 AND user_id = $4
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query, tag.Name, tag.HexColor, tag.ID, tag.UserID).Scan(&tag.UpdatedAt)
	if err != nil {
		r.log.Info("update tag", zap.Int64("tag_id", tag.ID), zap.Error(err))
		return err
	}
	return nil
}

func (r *tagRepository) Remove(ctx context.Context, userID, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tags WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		r.log.Info("remove tag", zap.Int64("tag_id", id), zap.Error(err))
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
