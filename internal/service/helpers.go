package service

import (
	"context"

	"github.com/vibecreator/mixpost-api/internal/models"
	"github.com/vibecreator/mixpost-api/internal/repository"
)

const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// NormalizePage clamps a requested page to sane bounds.
func NormalizePage(number, size int) repository.Page {
	if number < 1 {
		number = 1
	}
	if size < 1 {
		size = DefaultPerPage
	}
	if size > MaxPerPage {
		size = MaxPerPage
	}
	return repository.Page{Number: number, Size: size}
}

// uniqueIDs drops zero and repeated ids, keeping first-seen order.
func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func userSettings(ctx context.Context, repo repository.SettingsRepository, userID int64) (*models.Settings, error) {
	s, isExist, err := repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !isExist {
		return models.DefaultSettings(userID), nil
	}
	return s, nil
}
