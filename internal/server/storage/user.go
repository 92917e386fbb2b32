package storage

import (
	"context"

	"github.com/iudanet/gamesync/internal/models"
)

// UserStorage определяет интерфейс для работы с пользователями
type UserStorage interface {
	// CreateUser создает нового пользователя
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByUsername получает пользователя по username
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	// GetUserByID получает пользователя по ID
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
}
