package service

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/vibecreator/mixpost-api/internal/models"
	"github.com/vibecreator/mixpost-api/internal/repository"
	"github.com/vibecreator/mixpost-api/internal/transfer"
)

// #RGB, #RRGGBB or #AARRGGBB
var hexColorPattern = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

type TagService interface {
	List(ctx context.Context, userID int64) ([]*models.Tag, error)
	Create(ctx context.Context, userID int64, req *transfer.TagRequest) (*models.Tag, error)
	Update(ctx context.Context, userID, tagID int64, req *transfer.TagRequest) (*models.Tag, error)
	Remove(ctx context.Context, userID, tagID int64) error
}

type tagService struct {
	log *zap.Logger
	tr  repository.TagRepository
}

func NewTagService(log *zap.Logger, tr repository.TagRepository) TagService {
	return &tagService{
		log: log,
		tr:  tr,
	}
}

func (s *tagService) List(ctx context.Context, userID int64) ([]*models.Tag, error) {
	tags, err := s.tr.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return orEmpty(tags), nil
}

func (s *tagService) Create(ctx context.Context, userID int64, req *transfer.TagRequest) (*models.Tag, error) {
	if err := validateTag(req); err != nil {
		return nil, err
	}
	tag := &models.Tag{
		UserID:   userID,
		Name:     strings.TrimSpace(req.Name),
		HexColor: req.HexColor,
	}
	if _, err := s.tr.Create(ctx, tag); err != nil {
		return nil, err
	}
	return tag, nil
}

func (s *tagService) Update(ctx context.Context, userID, tagID int64, req *transfer.TagRequest) (*models.Tag, error) {
	tag, err := s.tr.GetByID(ctx, userID, tagID)
	if err != nil {
		return nil, err
	}
	if tag == nil {
		return nil, ErrNotFound
	}
	if err := validateTag(req); err != nil {
		return nil, err
	}

	tag.Name = strings.TrimSpace(req.Name)
	tag.HexColor = req.HexColor
	if err := s.tr.Update(ctx, tag); err != nil {
		return nil, err
	}
	return tag, nil
}

func (s *tagService) Remove(ctx context.Context, userID, tagID int64) error {
	isExist, err := s.tr.Remove(ctx, userID, tagID)
	if err != nil {
		return err
	}
	if !isExist {
		return ErrNotFound
	}
	return nil
}

func validateTag(req *transfer.TagRequest) error {
	v := &ValidationError{}
	name := strings.TrimSpace(req.Name)
	switch {
	case name == "":
		v.Add("name", "The name field is required.")
	case len([]rune(name)) > 255:
		v.Add("name", "The name may not be greater than 255 characters.")
	}
	switch {
	case req.HexColor == "":
		v.Add("hex_color", "The hex color field is required.")
	case !hexColorPattern.MatchString(req.HexColor):
		v.Add("hex_color", "The hex color format is invalid.")
	}
	return v.Err()
}
