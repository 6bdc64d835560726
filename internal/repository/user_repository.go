package repository

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/vibecreator/mixpost-api/internal/models"
)

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*models.User, bool, error)
	GetByEmail(ctx context.Context, email string) (*models.User, bool, error)
	Create(ctx context.Context, tx *sql.Tx, user *models.User) (int64, error)
	Update(ctx context.Context, user *models.User) error
}

type userRepository struct {
	db  *sql.DB
	log *zap.Logger
}

func NewUserRepository(db *sql.DB, log *zap.Logger) UserRepository {
	return &userRepository{db: db, log: log}
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, bool, error) {
	return r.get(ctx, `SELECT id, email, name, created_at, updated_at FROM users WHERE id = $1`, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, bool, error) {
	return r.get(ctx, `SELECT id, email, name, created_at, updated_at FROM users WHERE email = $1`, email)
}

func (r *userRepository) get(ctx context.Context, query string, arg any) (*models.User, bool, error) {
	var user models.User
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&user.ID, &user.Email, &user.Name, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		r.log.Info("get user", zap.Error(err))
		return nil, false, err
	}
	return &user, true, nil
}

func (r *userRepository) Create(ctx context.Context, tx *sql.Tx, user *models.User) (int64, error) {
	query := `INSERT INTO users (email, name) VALUES ($1, $2) RETURNING id, created_at, updated_at`

	err := conn(r.db, tx).QueryRowContext(ctx, query, user.Email, user.Name).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		r.log.Info("create user", zap.Error(err))
		return 0, err
	}
	return user.ID, nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET name = $1,
			updated_at = NOW()
		WHERE id = $2
		RETURNING updated_at
	`
	if err := r.db.QueryRowContext(ctx, query, user.Name, user.ID).Scan(&user.UpdatedAt); err != nil {
		r.log.Info("update user", zap.Int64("user_id", user.ID), zap.Error(err))
		return err
	}
	return nil
}
