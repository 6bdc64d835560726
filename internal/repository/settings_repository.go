package repository

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/vibecreator/mixpost-api/internal/models"
)

type SettingsRepository interface {
	GetByUserID(ctx context.Context, userID int64) (*models.Settings, bool, error)
	Upsert(ctx context.Context, s *models.Settings) error
}

type settingsRepository struct {
	db  *sql.DB
	log *zap.Logger
}

func NewSettingsRepository(db *sql.DB, log *zap.Logger) SettingsRepository {
	return &settingsRepository{db: db, log: log}
}

func (r *settingsRepository) GetByUserID(ctx context.Context, userID int64) (*models.Settings, bool, error) {
	query := `
		SELECT id, user_id, timezone, time_format, week_starts_on, admin_email, created_at, updated_at
		FROM settings
		WHERE user_id = $1
	`

	var s models.Settings
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&s.ID, &s.UserID, &s.Timezone, &s.TimeFormat,
		&s.WeekStartsOn, &s.AdminEmail, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		r.log.Info("get settings", zap.Int64("user_id", userID), zap.Error(err))
		return nil, false, err
	}

	return &s, true, nil
}

func (r *settingsRepository) Upsert(ctx context.Context, s *models.Settings) error {
	query := `
		INSERT INTO settings (user_id, timezone, time_format, week_starts_on, admin_email)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			timezone = EXCLUDED.timezone,
			time_format = EXCLUDED.time_format,
			week_starts_on = EXCLUDED.week_starts_on,
			admin_email = EXCLUDED.admin_email,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, s.UserID, s.Timezone, s.TimeFormat, s.WeekStartsOn, s.AdminEmail).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		r.log.Info("upsert settings", zap.Int64("user_id", s.UserID), zap.Error(err))
		return err
	}

	return nil
}
