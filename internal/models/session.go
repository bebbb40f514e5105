package models

import (
	"time"

	"github.com/google/uuid"
)

// Session — запись об одном выданном refresh-токене (одна на устройство/вход).
//
// Описание:
//   - TokenHash — bcrypt-хэш подписанной строки refresh-токена; plaintext
//     в БД не попадает никогда, поэтому утечка коллекции не даёт рабочих сессий;
//   - ExpiresAt — совпадает с exp самого refresh-токена; по этому полю
//     хранилище (TTL-индекс) удаляет просроченные записи;
//   - DeviceLabel — свободная метка контекста входа ("signup", "login",
//     "google-oauth", "phone-verification").
type Session struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	TokenHash   string
	ExpiresAt   time.Time
	DeviceLabel string
	Revoked     bool
	CreatedAt   time.Time
}
