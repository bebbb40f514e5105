// hasher — единственная точка работы с односторонним хэшированием секретов.
// Используется для паролей аккаунтов и для refresh-токенов перед записью
// в хранилище сессий: утечка БД не даёт ни паролей, ни рабочих сессий.
package hasher

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher — bcrypt с явно заданной стоимостью.
// Секреты в логи и ошибки не попадают.
type Hasher struct {
	cost int
}

// New создаёт Hasher. Стоимость вне допустимого диапазона bcrypt
// заменяется на bcrypt.DefaultCost.
func New(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	return &Hasher{cost: cost}
}

// Hash возвращает солёный односторонний хэш секрета.
func (h *Hasher) Hash(secret string) (string, error) {
	const op = "hasher.Hash"

	bytes, err := bcrypt.GenerateFromPassword(normalize(secret), h.cost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(bytes), nil
}

// Verify сравнивает секрет с хэшем. Любая ошибка сравнения — несовпадение.
func (h *Hasher) Verify(secret, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), normalize(secret)) == nil
}

// normalize приводит секрет к входу bcrypt. bcrypt ограничен 72 байтами,
// а подписанная строка refresh-токена заметно длиннее, поэтому длинные
// секреты сначала сворачиваются в sha256-дайджест (base64, без NUL-байтов).
// Пароли короче лимита проходят как есть.
func normalize(secret string) []byte {
	if len(secret) <= 72 {
		return []byte(secret)
	}

	sum := sha256.Sum256([]byte(secret))

	return []byte(base64.RawStdEncoding.EncodeToString(sum[:]))
}
