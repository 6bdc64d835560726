package service

import (
	"context"
	"net/mail"
	"time"

	"go.uber.org/zap"

	"github.com/vibecreator/mixpost-api/internal/models"
	"github.com/vibecreator/mixpost-api/internal/repository"
	"github.com/vibecreator/mixpost-api/internal/transfer"
)

type SettingsService interface {
	GetSettingsInfo(ctx context.Context, userID int64) (*models.Settings, error)
	UpdateSettings(ctx context.Context, userID int64, req *transfer.SettingsRequest) (*models.Settings, error)
}

type settingsService struct {
	log *zap.Logger
	sr  repository.SettingsRepository
}

func NewSettingsService(log *zap.Logger, sr repository.SettingsRepository) SettingsService {
	return &settingsService{
		log: log,
		sr:  sr,
	}
}

// GetSettingsInfo falls back to the defaults for users who never saved.
func (s *settingsService) GetSettingsInfo(ctx context.Context, userID int64) (*models.Settings, error) {
	return userSettings(ctx, s.sr, userID)
}

// UpdateSettings only changes the fields present in req.
func (s *settingsService) UpdateSettings(ctx context.Context, userID int64, req *transfer.SettingsRequest) (*models.Settings, error) {
	settings, err := userSettings(ctx, s.sr, userID)
	if err != nil {
		return nil, err
	}

	v := &ValidationError{}
	if req.Timezone != nil {
		if _, err := time.LoadLocation(*req.Timezone); err != nil || *req.Timezone == "" {
			v.Add("timezone", "The timezone must be a valid zone.")
		} else {
			settings.Timezone = *req.Timezone
		}
	}
	if req.TimeFormat != nil {
		if *req.TimeFormat != 12 && *req.TimeFormat != 24 {
			v.Add("time_format", "The selected time format is invalid.")
		} else {
			settings.TimeFormat = *req.TimeFormat
		}
	}
	if req.WeekStartsOn != nil {
		if *req.WeekStartsOn != 0 && *req.WeekStartsOn != 1 {
			v.Add("week_starts_on", "The selected week starts on is invalid.")
		} else {
			settings.WeekStartsOn = *req.WeekStartsOn
		}
	}
	if req.AdminEmail != nil {
		if *req.AdminEmail != "" {
			if _, err := mail.ParseAddress(*req.AdminEmail); err != nil {
				v.Add("admin_email", "The admin email must be a valid email address.")
			}
		}
		settings.AdminEmail = *req.AdminEmail
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	if err := s.sr.Upsert(ctx, settings); err != nil {
		return nil, err
	}
	s.log.Info("settings updated", zap.Int64("user_id", userID), zap.String("timezone", settings.Timezone))
	return settings, nil
}
