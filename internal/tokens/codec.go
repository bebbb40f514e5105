// tokens реализует кодек bearer-токенов сервиса.
//
// Кодек подписывает и проверяет два независимых класса JWT:
//   - access — короткоживущий, им авторизуются HTTP-запросы и realtime-подключения;
//   - refresh — долгоживущий, предъявляется только для обновления access-токена
//     и для logout.
//
// У каждого класса свой секрет и свой TTL: утечка access-секрета не позволяет
// подделывать долгоживущие refresh-токены, и наоборот.
package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/smolinaa/chathub-auth/internal/config"
)

// ErrInvalidToken — единая ошибка проверки для любого сбоя: битый формат,
// неверная подпись, не тот класс, истёкший срок. Вызывающие не должны
// различать причины, чтобы не давать оракул перебора.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims — содержимое токена после проверки (или небезопасного декодирования).
// Name и Provider кодек сам не выставляет; поля читаются терпимо, поскольку
// realtime-шлюз наполняет контекст подключения из того, что есть в токене.
type Claims struct {
	Subject   uuid.UUID
	Name      string
	Provider  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type jwtClaims struct {
	Name     string `json:"name,omitempty"`
	Provider string `json:"provider,omitempty"`
	jwt.RegisteredClaims
}

// Codec подписывает и проверяет access/refresh-токены.
// Экземпляр не имеет изменяемого состояния и безопасен для конкурентного использования.
type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
}

// New создаёт кодек из конфигурации. Секреты и TTL обязательны:
// умолчаний для параметров безопасности нет.
func New(cfg config.AuthConfig) (*Codec, error) {
	const op = "tokens.New"

	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, fmt.Errorf("%s: empty signing secret", op)
	}

	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, fmt.Errorf("%s: access and refresh secrets must differ", op)
	}

	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 {
		return nil, fmt.Errorf("%s: token TTL must be positive", op)
	}

	return &Codec{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
		issuer:        cfg.Issuer,
	}, nil
}

// AccessTTL возвращает срок жизни access-токена.
func (c *Codec) AccessTTL() time.Duration { return c.accessTTL }

// RefreshTTL возвращает срок жизни refresh-токена.
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }

// SignAccess выпускает access-токен для субъекта.
func (c *Codec) SignAccess(subject uuid.UUID, now time.Time) (string, error) {
	return c.sign(subject, now, c.accessSecret, c.accessTTL)
}

// SignRefresh выпускает refresh-токен для субъекта.
func (c *Codec) SignRefresh(subject uuid.UUID, now time.Time) (string, error) {
	return c.sign(subject, now, c.refreshSecret, c.refreshTTL)
}

func (c *Codec) sign(subject uuid.UUID, now time.Time, secret []byte, ttl time.Duration) (string, error) {
	const op = "tokens.sign"

	now = now.UTC()
	claims := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.String(),
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// Verify проверяет подпись и срок токена указанного класса.
// Любой сбой — ErrInvalidToken, без уточнения причины.
func (c *Codec) Verify(tokenStr string, refresh bool) (*Claims, error) {
	const op = "tokens.Verify"

	secret := c.accessSecret
	if refresh {
		secret = c.refreshSecret
	}

	token, err := jwt.ParseWithClaims(tokenStr, &jwtClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, ErrInvalidToken
			}

			return secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	claims, ok := token.Claims.(*jwtClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	out, err := toClaims(claims)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return out, nil
}

// DecodeUnsafe разбирает claims БЕЗ проверки подписи и срока.
// Только для диагностики/логирования; для решений о доверии не пригоден.
func (c *Codec) DecodeUnsafe(tokenStr string) *Claims {
	parser := jwt.NewParser()

	token, _, err := parser.ParseUnverified(tokenStr, &jwtClaims{})
	if err != nil {
		return nil
	}

	claims, ok := token.Claims.(*jwtClaims)
	if !ok {
		return nil
	}

	out, err := toClaims(claims)
	if err != nil {
		return nil
	}

	return out
}

func toClaims(in *jwtClaims) (*Claims, error) {
	subject, err := uuid.Parse(in.Subject)
	if err != nil {
		return nil, err
	}

	out := &Claims{
		Subject:  subject,
		Name:     in.Name,
		Provider: in.Provider,
	}

	if in.IssuedAt != nil {
		out.IssuedAt = in.IssuedAt.Time.UTC()
	}
	if in.ExpiresAt != nil {
		out.ExpiresAt = in.ExpiresAt.Time.UTC()
	}

	return out, nil
}
