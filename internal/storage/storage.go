// storage задаёт контракт документного хранилища сервиса.
// Конкретные реализации живут в подпакетах (mongo).
package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/smolinaa/chathub-auth/internal/models"
)

var (
	// ErrNotFound — запись не найдена (пользователь/сессия).
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (email/phone/username).
	ErrAlreadyExists = errors.New("already exists")
)

// UserStorage выполняет операции над пользователями.
type UserStorage interface {
	// SaveUser создаёт нового пользователя.
	SaveUser(ctx context.Context, user *models.User) error
	// UserByID находит пользователя по ID.
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// UserByEmail находит пользователя по email (ожидается уже нормализованный).
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	// UserByUsername находит пользователя по уникальному хэндлу.
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	// UserByEmailOrPhone находит пользователя по email ИЛИ телефону
	// (проверка дубликатов при регистрации). Пустые аргументы игнорируются.
	UserByEmailOrPhone(ctx context.Context, email, phone string) (*models.User, error)
	// UpdateUser сохраняет изменённые поля существующего пользователя.
	UpdateUser(ctx context.Context, user *models.User) error
}

// SessionStorage выполняет операции над записями сессий (refresh-токенами).
type SessionStorage interface {
	// SaveSession сохраняет новую запись сессии.
	SaveSession(ctx context.Context, session *models.Session) error
	// SessionsByUser возвращает все записи сессий пользователя.
	SessionsByUser(ctx context.Context, userID uuid.UUID) ([]models.Session, error)
	// DeleteSession удаляет одну запись по ID.
	DeleteSession(ctx context.Context, id uuid.UUID) error
	// DeleteSessionsByUser удаляет все записи сессий пользователя.
	DeleteSessionsByUser(ctx context.Context, userID uuid.UUID) error
}

// Storage задаёт контракт работы с БД.
type Storage interface {
	UserStorage
	SessionStorage
	Close(ctx context.Context) error
}
