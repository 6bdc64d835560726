package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	config "github.com/vibecreator/mixpost-api/configs"
	"github.com/vibecreator/mixpost-api/internal/models"
	"github.com/vibecreator/mixpost-api/internal/repository"
)

const IdempotencyHeader = "Idempotency-Key"

type IdempotencyService interface {
	// Begin claims key for a request. It returns the stored response when
	// the key already completed, nil when the caller now holds the key and
	// ErrConflict while another request with the key is running. Reusing a
	// key for another method or path is a validation error.
	Begin(ctx context.Context, userID int64, key, method, path string) (*models.IdempotencyKey, error)
	// Complete stores the response of a request that holds its key.
	Complete(ctx context.Context, k *models.IdempotencyKey) error
	// Release gives up a held key without storing a response.
	Release(ctx context.Context, userID int64, key string) error
	Purge(ctx context.Context) (int64, error)
}

type idempotencyService struct {
	ttl time.Duration
	log *zap.Logger
	ir  repository.IdempotencyRepository
	now func() time.Time
}

func NewIdempotencyService(cfg config.Config, log *zap.Logger, ir repository.IdempotencyRepository) IdempotencyService {
	return &idempotencyService{
		ttl: cfg.IdempotencyTTL,
		log: log,
		ir:  ir,
		now: time.Now,
	}
}

func (s *idempotencyService) Begin(ctx context.Context, userID int64, key, method, path string) (*models.IdempotencyKey, error) {
	if len(key) > 255 {
		return nil, Invalid(IdempotencyHeader, "The idempotency key may not be greater than 255 characters.")
	}

	// A second round covers a claim released between Claim and Get.
	for range 2 {
		now := s.now()
		claim := &models.IdempotencyKey{UserID: userID, Key: key, Method: method, Path: path, CreatedAt: now}
		claimed, err := s.ir.Claim(ctx, claim, now.Add(-s.ttl))
		if err != nil {
			return nil, err
		}
		if claimed {
			return nil, nil
		}

		k, err := s.ir.Get(ctx, userID, key, now.Add(-s.ttl))
		if err != nil {
			return nil, err
		}
		if k == nil {
			continue
		}
		if k.Method != method || k.Path != path {
			return nil, Invalid(IdempotencyHeader, "The idempotency key was already used for a different request.")
		}
		if k.Pending() {
			return nil, ErrConflict
		}
		return k, nil
	}
	return nil, ErrConflict
}

func (s *idempotencyService) Complete(ctx context.Context, k *models.IdempotencyKey) error {
	return s.ir.Complete(ctx, k)
}

func (s *idempotencyService) Release(ctx context.Context, userID int64, key string) error {
	return s.ir.Release(ctx, userID, key)
}

func (s *idempotencyService) Purge(ctx context.Context) (int64, error) {
	n, err := s.ir.PurgeBefore(ctx, s.now().Add(-s.ttl))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info("purged idempotency keys", zap.Int64("count", n))
	}
	return n, nil
}
