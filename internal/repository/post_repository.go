package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/vibecreator/mixpost-api/internal/models"
)

type PostRepository interface {
	Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error)
	GetByID(ctx context.Context, userID, id int64) (*models.Post, error)
	List(ctx context.Context, userID int64, f models.PostFilter, page Page) ([]*models.Post, int, error)
	ListCalendar(ctx context.Context, userID int64, f models.CalendarFilter) ([]*models.Post, error)
	Update(ctx context.Context, tx *sql.Tx, post *models.Post) error
	SoftDelete(ctx context.Context, userID int64, ids []int64) (int64, error)
	PurgeTrashed(ctx context.Context, before time.Time) (int64, error)
	CountByStatus(ctx context.Context, userID int64) (map[models.PostStatus]int64, error)
}

type postRepository struct {
	db  *sql.DB
	log *zap.Logger
}

func NewPostRepository(db *sql.DB, log *zap.Logger) PostRepository {
	return &postRepository{db: db, log: log}
}

func scanPost(row scanner) (*models.Post, error) {
	var post models.Post
	err := row.Scan(&post.ID, &post.UserID, &post.Status, &post.ScheduleStatus, &post.ScheduledAt,
		&post.PublishedAt, &post.CreatedAt, &post.UpdatedAt, &post.DeletedAt)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	query := `
		INSERT INTO posts (user_id, status, schedule_status, scheduled_at, published_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := conn(r.db, tx).QueryRowContext(ctx, query, post.UserID, post.Status, post.ScheduleStatus,
		post.ScheduledAt, post.PublishedAt).Scan(&post.ID, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		r.log.Info("create post", zap.Error(err))
		return 0, err
	}

	return post.ID, nil
}

// GetByID only returns live posts owned by userID.
func (r *postRepository) GetByID(ctx context.Context, userID, id int64) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts p WHERE p.id = $1 AND p.user_id = $2 AND p.deleted_at IS NULL`

	post, err := scanPost(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.log.Info("get post", zap.Int64("post_id", id), zap.Error(err))
		return nil, err
	}

	return post, nil
}

func (r *postRepository) List(ctx context.Context, userID int64, f models.PostFilter, page Page) ([]*models.Post, int, error) {
	q := buildPostListQuery(userID, f, page)

	var total int
	if err := r.db.QueryRowContext(ctx, q.count, q.countArgs...).Scan(&total); err != nil {
		r.log.Info("count posts", zap.Error(err))
		return nil, 0, err
	}
	if total == 0 {
		return []*models.Post{}, 0, nil
	}

	posts, err := r.query(ctx, q.list, q.listArgs...)
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (r *postRepository) ListCalendar(ctx context.Context, userID int64, f models.CalendarFilter) ([]*models.Post, error) {
	query, args := buildCalendarQuery(userID, f)
	return r.query(ctx, query, args...)
}

func (r *postRepository) query(ctx context.Context, query string, args ...any) ([]*models.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.log.Info("query posts", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	posts := []*models.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			r.log.Info("scan post", zap.Error(err))
			return nil, err
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		r.log.Info("iterate posts", zap.Error(err))
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) Update(ctx context.Context, tx *sql.Tx, post *models.Post) error {
	query := `
		UPDATE posts
		SET status = $1,
			schedule_status = $2,
			scheduled_at = $3,
			published_at = $4,
			updated_at = NOW()
		WHERE id = $5 AND user_id = $6
		RETURNING updated_at
	`
	err := conn(r.db, tx).QueryRowContext(ctx, query, post.Status, post.ScheduleStatus, post.ScheduledAt,
		post.PublishedAt, post.ID, post.UserID).Scan(&post.UpdatedAt)
	if err != nil {
		r.log.Info("update post", zap.Int64("post_id", post.ID), zap.Error(err))
		return err
	}
	return nil
}

// SoftDelete marks the caller's posts among ids as deleted. Ids owned by
// someone else, or already deleted, are skipped.
func (r *postRepository) SoftDelete(ctx context.Context, userID int64, ids []int64) (int64, error) {
	query := `
		UPDATE posts
		SET deleted_at = NOW()
		WHERE user_id = $1 AND id = ANY($2) AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, userID, pq.Array(ids))
	if err != nil {
		r.log.Info("soft delete posts", zap.Error(err))
		return 0, err
	}
	return result.RowsAffected()
}

// PurgeTrashed permanently removes posts soft-deleted before the cut-off.
// Versions and relations go with them through ON DELETE CASCADE.
func (r *postRepository) PurgeTrashed(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE deleted_at IS NOT NULL AND deleted_at < $1`, before)
	if err != nil {
		r.log.Info("purge trashed posts", zap.Error(err))
		return 0, err
	}
	return result.RowsAffected()
}

func (r *postRepository) CountByStatus(ctx context.Context, userID int64) (map[models.PostStatus]int64, error) {
	query := `SELECT status, COUNT(*) FROM posts WHERE user_id = $1 AND deleted_at IS NULL GROUP BY status`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		r.log.Info("count posts by status", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.PostStatus]int64)
	for rows.Next() {
		var status models.PostStatus
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			r.log.Info("scan post count", zap.Error(err))
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
