package queue

import (
	"go.uber.org/zap"

	"github.com/vibecreator/mixpost-api/internal/repository"
	"github.com/vibecreator/mixpost-api/internal/service"
)

type Queue struct {
	log     *zap.Logger
	mr      repository.MediaRepository
	storage service.StorageService
}

func NewQueue(log *zap.Logger, mr repository.MediaRepository, storage service.StorageService) *Queue {
	return &Queue{
		log:     log,
		mr:      mr,
		storage: storage,
	}
}

const TaskTypeMediaConversions = "media:conversions"

type MediaConversionsPayload struct {
	MediaID int64 `json:"media_id"`
}
