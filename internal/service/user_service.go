package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/vibecreator/mixpost-api/internal/models"
	"github.com/vibecreator/mixpost-api/internal/repository"
	"github.com/vibecreator/mixpost-api/internal/transfer"
)

type UserService interface {
	GetUserInfo(ctx context.Context, id int64) (*models.User, error)
	UpdateUser(ctx context.Context, id int64, req *transfer.UserRequest) (*models.User, error)
	// FindOrCreate is used by the token command to bootstrap a user.
	FindOrCreate(ctx context.Context, email, name string) (*models.User, error)
}

type userService struct {
	log *zap.Logger
	u   repository.UserRepository
}

func NewUserService(log *zap.Logger, u repository.UserRepository) UserService {
	return &userService{
		log: log,
		u:   u,
	}
}

func (s *userService) GetUserInfo(ctx context.Context, id int64) (*models.User, error) {
	user, isExist, err := s.u.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isExist {
		return nil, ErrNotFound
	}
	return user, nil
}

func (s *userService) UpdateUser(ctx context.Context, id int64, req *transfer.UserRequest) (*models.User, error) {
	user, err := s.GetUserInfo(ctx, id)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, Invalid("name", "The name field is required.")
	}
	user.Name = name
	if err := s.u.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) FindOrCreate(ctx context.Context, email, name string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, Invalid("email", "The email field is required.")
	}
	user, isExist, err := s.u.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if isExist {
		return user, nil
	}

	user = &models.User{Email: email, Name: name}
	if user.Name == "" {
		user.Name = email
	}
	if _, err := s.u.Create(ctx, nil, user); err != nil {
		return nil, err
	}
	s.log.Info("user created", zap.Int64("user_id", user.ID), zap.String("email", email))
	return user, nil
}
