package repository

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/vibecreator/mixpost-api/internal/models"
)

type PostVersionRepository interface {
	Create(ctx context.Context, tx *sql.Tx, v *models.PostVersion) (int64, error)
	ListByPostIDs(ctx context.Context, postIDs []int64) (map[int64][]*models.PostVersion, error)
	RemoveByPostID(ctx context.Context, tx *sql.Tx, postID int64) error
}

type postVersionRepository struct {
	db  *sql.DB
	log *zap.Logger
}

func NewPostVersionRepository(db *sql.DB, log *zap.Logger) PostVersionRepository {
	return &postVersionRepository{db: db, log: log}
}

// Create inserts the version and its ordered media attachments.
func (r *postVersionRepository) Create(ctx context.Context, tx *sql.Tx, v *models.PostVersion) (int64, error) {
	q := conn(r.db, tx)

	query := `
		INSERT INTO post_versions (post_id, account_id, is_original, content)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := q.QueryRowContext(ctx, query, v.PostID, v.AccountID, v.IsOriginal, jsonColumn{v.Content}).Scan(&v.ID)
	if err != nil {
		r.log.Info("create post version", zap.Int64("post_id", v.PostID), zap.Error(err))
		return 0, err
	}

	if len(v.MediaIDs) > 0 {
		mediaQuery := `
			INSERT INTO post_version_media (version_id, media_id, position)
			SELECT $1, m.id, m.ord - 1
			FROM unnest($2::bigint[]) WITH ORDINALITY AS m(id, ord)
		`
		if _, err := q.ExecContext(ctx, mediaQuery, v.ID, pq.Array(v.MediaIDs)); err != nil {
			r.log.Info("attach version media", zap.Int64("version_id", v.ID), zap.Error(err))
			return 0, err
		}
	}

	return v.ID, nil
}

// ListByPostIDs returns versions keyed by post id, in insertion order, with
// MediaIDs filled in attachment order.
func (r *postVersionRepository) ListByPostIDs(ctx context.Context, postIDs []int64) (map[int64][]*models.PostVersion, error) {
	versions := make(map[int64][]*models.PostVersion, len(postIDs))
	if len(postIDs) == 0 {
		return versions, nil
	}

	query := `
		SELECT v.id, v.post_id, v.account_id, v.is_original, v.content,
			COALESCE(array_agg(vm.media_id ORDER BY vm.position) FILTER (WHERE vm.media_id IS NOT NULL), '{}'::bigint[])
		FROM post_versions v
		LEFT JOIN post_version_media vm ON vm.version_id = v.id
		WHERE v.post_id = ANY($1)
		GROUP BY v.id
		ORDER BY v.post_id, v.id
	`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(postIDs))
	if err != nil {
		r.log.Info("list post versions", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var v models.PostVersion
		var mediaIDs pq.Int64Array
		if err := rows.Scan(&v.ID, &v.PostID, &v.AccountID, &v.IsOriginal, jsonColumn{&v.Content}, &mediaIDs); err != nil {
			r.log.Info("scan post version", zap.Error(err))
			return nil, err
		}
		v.MediaIDs = []int64(mediaIDs)
		versions[v.PostID] = append(versions[v.PostID], &v)
	}

	if err := rows.Err(); err != nil {
		r.log.Info("iterate post versions", zap.Error(err))
		return nil, err
	}
	return versions, nil
}

// RemoveByPostID drops every version of a post; media attachments cascade.
func (r *postVersionRepository) RemoveByPostID(ctx context.Context, tx *sql.Tx, postID int64) error {
	_, err := conn(r.db, tx).ExecContext(ctx, `DELETE FROM post_versions WHERE post_id = $1`, postID)
	if err != nil {
		r.log.Info("remove post versions", zap.Int64("post_id", postID), zap.Error(err))
		return err
	}
	return nil
}
