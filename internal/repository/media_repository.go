package repository

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/vibecreator/mixpost-api/internal/models"
)

type MediaRepository interface {
	Create(ctx context.Context, tx *sql.Tx, m *models.Media) (int64, error)
	Find(ctx context.Context, id int64) (*models.Media, error)
	ListByIDs(ctx context.Context, userID int64, ids []int64) ([]*models.Media, error)
	List(ctx context.Context, userID int64, page Page) ([]*models.Media, int, error)
	UpdateConversions(ctx context.Context, id int64, conversions []models.MediaConversion) error
	RemoveByIDs(ctx context.Context, userID int64, ids []int64) ([]*models.Media, error)
}

type mediaRepository struct {
	db  *sql.DB
	log *zap.Logger
}

func NewMediaRepository(db *sql.DB, log *zap.Logger) MediaRepository {
	return &mediaRepository{db: db, log: log}
}

const mediaColumns = `id, user_id, name, mime_type, disk, path, url, size, conversions, created_at, updated_at`

func scanMedia(row scanner) (*models.Media, error) {
	var m models.Media
	err := row.Scan(&m.ID, &m.UserID, &m.Name, &m.MimeType, &m.Disk, &m.Path, &m.URL, &m.Size,
		jsonColumn{&m.Conversions}, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if m.Conversions == nil {
		m.Conversions = []models.MediaConversion{}
	}
	return &m, nil
}

func (r *mediaRepository) Create(ctx context.Context, tx *sql.Tx, m *models.Media) (int64, error) {
	if m.Conversions == nil {
		m.Conversions = []models.MediaConversion{}
	}
	query := `
		INSERT INTO media (user_id, name, mime_type, disk, path, url, size, conversions)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	err := conn(r.db, tx).QueryRowContext(ctx, query, m.UserID, m.Name, m.MimeType, m.Disk, m.Path, m.URL,
		m.Size, jsonColumn{m.Conversions}).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		r.log.Info("create media", zap.Error(err))
		return 0, err
	}
	return m.ID, nil
}

// Find looks a media row up without an owner check; used by background tasks.
func (r *mediaRepository) Find(ctx context.Context, id int64) (*models.Media, error) {
	m, err := scanMedia(r.db.QueryRowContext(ctx, `SELECT `+mediaColumns+` FROM media WHERE id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.log.Info("find media", zap.Int64("media_id", id), zap.Error(err))
		return nil, err
	}
	return m, nil
}

func (r *mediaRepository) ListByIDs(ctx context.Context, userID int64, ids []int64) ([]*models.Media, error) {
	if len(ids) == 0 {
		return []*models.Media{}, nil
	}
	query := `SELECT ` + mediaColumns + ` FROM media WHERE user_id = $1 AND id = ANY($2) ORDER BY id`
	return r.query(ctx, query, userID, pq.Array(ids))
}

func (r *mediaRepository) List(ctx context.Context, userID int64, page Page) ([]*models.Media, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM media WHERE user_id = $1`, userID).Scan(&total); err != nil {
		r.log.Info("count media", zap.Error(err))
		return nil, 0, err
	}
	if total == 0 {
		return []*models.Media{}, 0, nil
	}

	query := `SELECT ` + mediaColumns + ` FROM media WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`
	media, err := r.query(ctx, query, userID, page.Size, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	return media, total, nil
}

func (r *mediaRepository) query(ctx context.Context, query string, args ...any) ([]*models.Media, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.log.Info("query media", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	media := []*models.Media{}
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			r.log.Info("scan media", zap.Error(err))
			return nil, err
		}
		media = append(media, m)
	}
	return media, rows.Err()
}

func (r *mediaRepository) UpdateConversions(ctx context.Context, id int64, conversions []models.MediaConversion) error {
	query := `UPDATE media SET conversions = $1, updated_at = NOW() WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, jsonColumn{conversions}, id); err != nil {
		r.log.Info("update media conversions", zap.Int64("media_id", id), zap.Error(err))
		return err
	}
	return nil
}

// RemoveByIDs deletes the caller's media among ids and returns the removed
// rows so their stored objects can be cleaned up.
func (r *mediaRepository) RemoveByIDs(ctx context.Context, userID int64, ids []int64) ([]*models.Media, error) {
	if len(ids) == 0 {
		return []*models.Media{}, nil
	}
	query := `DELETE FROM media WHERE user_id = $1 AND id = ANY($2) RETURNING ` + mediaColumns
	return r.query(ctx, query, userID, pq.Array(ids))
}
