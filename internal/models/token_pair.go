package models

import "time"

// TokenPair — пара токенов, выдаваемая при регистрации/логине/OAuth.
//
// Описание:
//   - AccessToken — короткоживущий JWT для авторизации запросов и
//     realtime-подключений;
//   - RefreshToken — долгоживущий JWT (отдельный секрет), предъявляется
//     только для обновления access-токена и для logout; на сервере хранится
//     только его bcrypt-хэш;
//   - AccessExpiresAt — момент истечения access-токена (UTC).
type TokenPair struct {
	AccessToken     string
	RefreshToken    string
	AccessExpiresAt time.Time
}
