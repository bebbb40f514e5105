package models

import (
	"time"

	"github.com/google/uuid"
)

// Provider — источник идентичности аккаунта.
type Provider string

const (
	// ProviderLocal — аккаунт, созданный по телефону/паролю.
	ProviderLocal Provider = "local"
	// ProviderGoogle — аккаунт, созданный/привязанный через Google OAuth.
	ProviderGoogle Provider = "google"
	// ProviderGithub — аккаунт, созданный/привязанный через GitHub OAuth.
	ProviderGithub Provider = "github"
)

// User — модель пользователя в системе.
//
// Инварианты:
//   - Email и Phone либо отсутствуют (пустая строка), либо глобально уникальны;
//   - для ProviderLocal телефон обязателен;
//   - PasswordHash присутствует всегда: для OAuth-аккаунтов это bcrypt-хэш
//     случайной строки-заглушки, которой никто не владеет.
type User struct {
	ID            uuid.UUID
	Name          string
	Username      string
	Email         string
	Phone         string
	PhoneVerified bool
	PasswordHash  string
	Avatar        string
	Provider      Provider
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
