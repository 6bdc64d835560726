package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"

	config "github.com/vibecreator/mixpost-api/configs"
	"github.com/vibecreator/mixpost-api/internal/models"
	"github.com/vibecreator/mixpost-api/internal/repository"
	"github.com/vibecreator/mixpost-api/internal/transfer"
)

const mediaDisk = "r2"

var allowedMediaTypes = map[string]struct{}{
	"jpg": {}, "png": {}, "gif": {}, "webp": {}, "mp4": {}, "mov": {},
}

// Thumbnails are only produced for still images.
var convertibleMediaTypes = map[string]struct{}{
	"jpg": {}, "png": {}, "webp": {},
}

// ConversionEnqueuer schedules the background conversions of a media item.
type ConversionEnqueuer interface {
	EnqueueConversions(ctx context.Context, mediaID int64) error
}

type MediaService interface {
	List(ctx context.Context, userID int64, page repository.Page) ([]*models.Media, int, error)
	Upload(ctx context.Context, userID int64, file *multipart.FileHeader) (*models.Media, error)
	Download(ctx context.Context, userID int64, req *transfer.DownloadMediaRequest) (*models.Media, error)
	Remove(ctx context.Context, userID int64, mediaIDs []int64) error
}

type mediaService struct {
	cfg     config.Config
	log     *zap.Logger
	mr      repository.MediaRepository
	storage StorageService
	queue   ConversionEnqueuer
	client  *http.Client
}

func NewMediaService(
	cfg config.Config,
	log *zap.Logger,
	mr repository.MediaRepository,
	storage StorageService,
	queue ConversionEnqueuer) MediaService {
	return &mediaService{
		cfg:     cfg,
		log:     log,
		mr:      mr,
		storage: storage,
		queue:   queue,
		client:  newDownloadClient(publicAddressOnly),
	}
}

func (s *mediaService) List(ctx context.Context, userID int64, page repository.Page) ([]*models.Media, int, error) {
	media, total, err := s.mr.List(ctx, userID, page)
	if err != nil {
		return nil, 0, err
	}
	return orEmpty(media), total, nil
}

func (s *mediaService) Upload(ctx context.Context, userID int64, file *multipart.FileHeader) (*models.Media, error) {
	if file == nil {
		return nil, Invalid("file", "The file field is required.")
	}
	if file.Size > s.cfg.MaxUploadBytes() {
		return nil, s.tooLarge("file")
	}

	f, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes()+1))
	if err != nil {
		return nil, fmt.Errorf("error reading file content: %w", err)
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes() {
		return nil, s.tooLarge("file")
	}

	return s.store(ctx, userID, "file", file.Filename, data)
}

// Download fetches an external URL into the user's library.
func (s *mediaService) Download(ctx context.Context, userID int64, req *transfer.DownloadMediaRequest) (*models.Media, error) {
	u, err := url.Parse(strings.TrimSpace(req.URL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, Invalid("url", "The url must be a valid URL.")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, Invalid("url", "The url must be a valid URL.")
	}
	resp, err := s.client.Do(httpReq)
	if err != nil {
		if errors.Is(err, errBlockedAddress) {
			return nil, Invalid("url", "The url must point to a public address.")
		}
		return nil, &UpstreamError{Op: "download media", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{Op: "download media", Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.cfg.MaxUploadBytes()+1))
	if err != nil {
		return nil, &UpstreamError{Op: "download media", Err: err}
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes() {
		return nil, s.tooLarge("url")
	}

	name := path.Base(u.Path)
	if name == "." || name == "/" {
		name = u.Host
	}
	return s.store(ctx, userID, "url", name, data)
}

// Remove deletes the rows first and then the stored objects; object removal
// failures are logged and do not fail the request.
func (s *mediaService) Remove(ctx context.Context, userID int64, mediaIDs []int64) error {
	ids := uniqueIDs(mediaIDs)
	if len(ids) == 0 {
		return Invalid("media", "The media field is required.")
	}

	removed, err := s.mr.RemoveByIDs(ctx, userID, ids)
	if err != nil {
		return err
	}
	for _, m := range removed {
		keys := []string{m.Path}
		for _, c := range m.Conversions {
			keys = append(keys, c.Path)
		}
		for _, key := range keys {
			if err := s.storage.Delete(ctx, key); err != nil {
				s.log.Warn("delete media object", zap.Int64("media_id", m.ID), zap.String("key", key), zap.Error(err))
			}
		}
	}
	return nil
}

func (s *mediaService) store(ctx context.Context, userID int64, field, name string, data []byte) (*models.Media, error) {
	kind, err := filetype.Match(data)
	if err != nil || kind == types.Unknown {
		return nil, Invalid(field, "The file type is not supported.")
	}
	if _, ok := allowedMediaTypes[kind.Extension]; !ok {
		return nil, Invalid(field, fmt.Sprintf("The file type %s is not allowed.", kind.Extension))
	}

	id, err := gonanoid.New()
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("media/%s.%s", id, kind.Extension)
	if err := s.storage.Put(ctx, key, data, kind.MIME.Value); err != nil {
		return nil, err
	}

	media := &models.Media{
		UserID:      userID,
		Name:        name,
		MimeType:    kind.MIME.Value,
		Disk:        mediaDisk,
		Path:        key,
		URL:         s.storage.URL(key),
		Size:        int64(len(data)),
		Conversions: []models.MediaConversion{},
	}
	if _, err := s.mr.Create(ctx, nil, media); err != nil {
		if derr := s.storage.Delete(ctx, key); derr != nil {
			s.log.Warn("delete orphaned object", zap.String("key", key), zap.Error(derr))
		}
		return nil, err
	}

	if _, ok := convertibleMediaTypes[kind.Extension]; ok {
		if err := s.queue.EnqueueConversions(ctx, media.ID); err != nil {
			s.log.Warn("enqueue media conversions", zap.Int64("media_id", media.ID), zap.Error(err))
		}
	}

	s.log.Info("media stored", zap.Int64("media_id", media.ID), zap.String("mime_type", media.MimeType), zap.Int64("size", media.Size))
	return media, nil
}

func (s *mediaService) tooLarge(field string) error {
	return Invalid(field, fmt.Sprintf("The file may not be greater than %d megabytes.", s.cfg.MaxUploadSizeMB))
}
