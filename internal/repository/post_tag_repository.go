package repository

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/vibecreator/mixpost-api/internal/models"
)

type PostTagRepository interface {
	Attach(ctx context.Context, tx *sql.Tx, postID int64, tagIDs []int64) error
	Detach(ctx context.Context, tx *sql.Tx, postID int64) error
	ListByPostIDs(ctx context.Context, postIDs []int64) (map[int64][]*models.Tag, error)
}

type postTagRepository struct {
	db  *sql.DB
	log *zap.Logger
}

func NewPostTagRepository(db *sql.DB, log *zap.Logger) PostTagRepository {
	return &postTagRepository{db: db, log: log}
}

func (r *postTagRepository) Attach(ctx context.Context, tx *sql.Tx, postID int64, tagIDs []int64) error {
	if len(tagIDs) == 0 {
		return nil
	}
	query := `
		INSERT INTO post_tags (post_id, tag_id)
		SELECT $1, unnest($2::bigint[])
		ON CONFLICT DO NOTHING
	`
	if _, err := conn(r.db, tx).ExecContext(ctx, query, postID, pq.Array(tagIDs)); err != nil {
		r.log.Info("attach post tags", zap.Int64("post_id", postID), zap.Error(err))
		return err
	}
	return nil
}

func (r *postTagRepository) Detach(ctx context.Context, tx *sql.Tx, postID int64) error {
	if _, err := conn(r.db, tx).ExecContext(ctx, `DELETE FROM post_tags WHERE post_id = $1`, postID); err != nil {
		r.log.Info("detach post tags", zap.Int64("post_id", postID), zap.Error(err))
		return err
	}
	return nil
}

func (r *postTagRepository) ListByPostIDs(ctx context.Context, postIDs []int64) (map[int64][]*models.Tag, error) {
	tags := make(map[int64][]*models.Tag, len(postIDs))
	if len(postIDs) == 0 {
		return tags, nil
	}

	query := `
		SELECT ` + tagColumns + `, pt.post_id
		FROM post_tags pt
		JOIN tags t ON t.id = pt.tag_id
		WHERE pt.post_id = ANY($1)
		ORDER BY pt.post_id, t.name, t.id
	`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(postIDs))
	if err != nil {
		r.log.Info("list post tags", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var postID int64
		tag, err := scanTag(rows, &postID)
		if err != nil {
			r.log.Info("scan post tag", zap.Error(err))
			return nil, err
		}
		tags[postID] = append(tags[postID], tag)
	}
	return tags, rows.Err()
}
