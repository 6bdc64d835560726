package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/vibecreator/mixpost-api/internal/models"
	"github.com/vibecreator/mixpost-api/internal/repository"
	"github.com/vibecreator/mixpost-api/internal/transfer"
	"github.com/vibecreator/mixpost-api/pkg/utils"
)

const maxApiKeys = 5

type ApiKeyService interface {
	Create(ctx context.Context, userID int64, req *transfer.ApiKeyRequest) (*transfer.ApiKeyCreated, error)
	List(ctx context.Context, userID int64) ([]*models.ApiKey, error)
	// GetUserID resolves a plain key to its owner and records the use.
	GetUserID(ctx context.Context, apiKey string) (int64, error)
	RemoveAPIKey(ctx context.Context, userID, keyID int64) error
}

type apiKeyService struct {
	log *zap.Logger
	k   repository.ApiKeyRepository
}

func NewApiKeyService(log *zap.Logger, k repository.ApiKeyRepository) ApiKeyService {
	return &apiKeyService{
		log: log,
		k:   k,
	}
}

func (s *apiKeyService) Create(ctx context.Context, userID int64, req *transfer.ApiKeyRequest) (*transfer.ApiKeyCreated, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, Invalid("name", "The name field is required.")
	}

	keys, err := s.k.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(keys) >= maxApiKeys {
		return nil, Invalid("name", fmt.Sprintf("Only %d API keys can be created.", maxApiKeys))
	}

	key, err := utils.GenerateApiKey()
	if err != nil {
		return nil, fmt.Errorf("generate api key: %w", err)
	}

	apiKey := &models.ApiKey{
		UserID:  userID,
		Name:    name,
		KeyHash: utils.HashApiKey(key),
	}
	if _, err := s.k.Create(ctx, apiKey); err != nil {
		return nil, err
	}

	s.log.Info("api key created", zap.Int64("user_id", userID), zap.Int64("key_id", apiKey.ID))
	return &transfer.ApiKeyCreated{ApiKey: apiKey, Key: key}, nil
}

func (s *apiKeyService) List(ctx context.Context, userID int64) ([]*models.ApiKey, error) {
	keys, err := s.k.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return orEmpty(keys), nil
}

func (s *apiKeyService) GetUserID(ctx context.Context, apiKey string) (int64, error) {
	key, err := s.k.GetByHash(ctx, utils.HashApiKey(apiKey))
	if err != nil {
		return 0, err
	}
	if key == nil {
		return 0, ErrUnauthorized
	}
	if err := s.k.Touch(ctx, key.ID); err != nil {
		s.log.Warn("touch api key", zap.Int64("key_id", key.ID), zap.Error(err))
	}
	return key.UserID, nil
}

func (s *apiKeyService) RemoveAPIKey(ctx context.Context, userID, keyID int64) error {
	isExist, err := s.k.Remove(ctx, userID, keyID)
	if err != nil {
		return err
	}
	if !isExist {
		return ErrNotFound
	}
	return nil
}
