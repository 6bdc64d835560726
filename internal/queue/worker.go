package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/vibecreator/mixpost-api/internal/models"
)

func (j *Queue) HandleMediaConversionsTask(ctx context.Context, task *asynq.Task) error {
	var payload MediaConversionsPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	return j.ConvertMedia(ctx, payload.MediaID)
}

// ConvertMedia writes the thumbnail of a stored image and records it on the
// media row. Media removed in the meantime is skipped.
func (j *Queue) ConvertMedia(ctx context.Context, mediaID int64) error {
	media, err := j.mr.Find(ctx, mediaID)
	if err != nil {
		return err
	}
	if media == nil {
		j.log.Info("media gone, skipping conversions", zap.Int64("media_id", mediaID))
		return nil
	}

	original, err := j.storage.Get(ctx, media.Path)
	if err != nil {
		return err
	}
	thumb, err := MakeThumbnail(original, ThumbWidth)
	if err != nil {
		j.log.Warn("make thumbnail", zap.Int64("media_id", mediaID), zap.Error(err))
		return fmt.Errorf("make thumbnail: %v: %w", err, asynq.SkipRetry)
	}

	key := thumbKey(media.Path)
	if err := j.storage.Put(ctx, key, thumb, "image/jpeg"); err != nil {
		return err
	}

	conversions := make([]models.MediaConversion, 0, len(media.Conversions)+1)
	for _, c := range media.Conversions {
		if c.Name != models.ConversionThumb {
			conversions = append(conversions, c)
		}
	}
	conversions = append(conversions, models.MediaConversion{
		Name: models.ConversionThumb,
		Path: key,
		URL:  j.storage.URL(key),
	})
	if err := j.mr.UpdateConversions(ctx, media.ID, conversions); err != nil {
		return err
	}

	j.log.Info("media converted", zap.Int64("media_id", media.ID), zap.String("thumb", key))
	return nil
}

// media/abc.png -> media/abc-thumb.jpg
func thumbKey(p string) string {
	return strings.TrimSuffix(p, path.Ext(p)) + "-" + models.ConversionThumb + ".jpg"
}
