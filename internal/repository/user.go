package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/YuvrajGora/FlowFund/internal/model"
	"github.com/YuvrajGora/FlowFund/internal/storage"
)

type UserRepository struct {
	db     storage.Backend
	logger *logrus.Logger
}

func NewUserRepository(db storage.Backend, logger *logrus.Logger) *UserRepository {
	return &UserRepository{db: db, logger: logger}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	query := `
        INSERT INTO users (username, email, password, is_verified, verification_token, created_at)
        VALUES (?, ?, ?, ?, ?, ?)
    `

	res, err := r.db.Exec(ctx, query,
		user.Username,
		user.Email,
		user.Password,
		boolToInt(user.IsVerified),
		user.VerificationToken,
		formatTime(user.CreatedAt),
	)

	if err != nil {
		// Уникальные индексы обоих движков упоминают колонку в тексте ошибки
		if errors.Is(err, storage.ErrConstraint) {
			if strings.Contains(err.Error(), "email") {
				return fmt.Errorf("email already exists")
			}
			return fmt.Errorf("username already exists")
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	user.ID = res.InsertedID
	return nil
}

// FindByLogin ищет пользователя по имени или email - вход допускает оба варианта
func (r *UserRepository) FindByLogin(ctx context.Context, login string) (*model.User, error) {
	query := `
        SELECT id, username, email, password, is_verified, verification_token, created_at
        FROM users
        WHERE username = ? OR email = ?
    `

	return r.getUser(ctx, query, login, login)
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `
        SELECT id, username, email, password, is_verified, verification_token, created_at
        FROM users
        WHERE id = ?
    `

	return r.getUser(ctx, query, id)
}

func (r *UserRepository) FindByVerificationToken(ctx context.Context, token string) (*model.User, error) {
	query := `
        SELECT id, username, email, password, is_verified, verification_token, created_at
        FROM users
        WHERE verification_token = ?
    `

	return r.getUser(ctx, query, token)
}

// MarkVerified помечает пользователя подтвержденным и сбрасывает токен
func (r *UserRepository) MarkVerified(ctx context.Context, userID int64) error {
	query := `UPDATE users SET is_verified = 1, verification_token = NULL WHERE id = ?`

	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to mark user verified: %w", err)
	}
	return nil
}

func (r *UserRepository) getUser(ctx context.Context, query string, args ...interface{}) (*model.User, error) {
	var (
		user       model.User
		isVerified int64
		createdAt  string
	)

	err := r.db.Get(ctx, query, args...).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.Password,
		&isVerified,
		&user.VerificationToken,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	user.IsVerified = isVerified != 0
	if user.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}

	return &user, nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
