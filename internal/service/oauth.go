package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/smolinaa/chathub-auth/internal/models"
	"github.com/smolinaa/chathub-auth/internal/pkg/log"
	"github.com/smolinaa/chathub-auth/internal/pkg/redact"
	"github.com/smolinaa/chathub-auth/internal/storage"
)

// HandleOAuthLogin объединяет OAuth-идентичности с локальными аккаунтами
// по email. Существующий аккаунт — логин с обновлением avatar/provider
// (пароль, телефон и флаги верификации не трогаются); новый — провижининг
// с синтезированным хэндлом и паролем-заглушкой.
func (s *Service) HandleOAuthLogin(ctx context.Context, profile models.OAuthProfile) (*models.User, *models.TokenPair, error) {
	const op = "service.oauth.HandleOAuthLogin"

	if strings.TrimSpace(profile.Email) == "" {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrMissingEmail)
	}

	normEmail, err := normalizeEmail(profile.Email)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrMissingEmail)
	}

	lg := log.From(ctx)

	user, err := s.storage.UserByEmail(ctx, normEmail)
	switch {
	case err == nil:
		// Привязка к существующему аккаунту: обновляем только avatar/provider.
		if profile.Avatar != "" {
			user.Avatar = profile.Avatar
		}
		user.Provider = profile.Provider
		user.UpdatedAt = time.Now().UTC()

		if err := s.storage.UpdateUser(ctx, user); err != nil {
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}

	case errors.Is(err, storage.ErrNotFound):
		user, err = s.provisionOAuthUser(ctx, normEmail, profile)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}

		lg.Info("oauth_user_provisioned",
			slog.String("email", redact.Email(normEmail)),
			slog.String("provider", string(profile.Provider)),
		)

	default:
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	pair, err := s.issueSession(ctx, user.ID, string(profile.Provider)+"-oauth")
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, pair, nil
}

// VerifyPhone подтверждает телефон OAuth-аккаунта и полностью заменяет
// его сессии: старые записи удаляются, выдаётся одна новая пара токенов.
func (s *Service) VerifyPhone(ctx context.Context, userID uuid.UUID, phone string) (*models.User, *models.TokenPair, error) {
	const op = "service.oauth.VerifyPhone"

	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrMissingPhone)
	}
	if !validPhone(phone) {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidPhone)
	}

	user, err := s.storage.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	user.Phone = phone
	user.PhoneVerified = true
	user.UpdatedAt = time.Now().UTC()

	if err := s.storage.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, nil, fmt.Errorf("%s: %w", op, ErrUserExists)
		}

		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	// Полная замена сессий — единственное событие выдачи с такой семантикой.
	if err := s.storage.DeleteSessionsByUser(ctx, user.ID); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	pair, err := s.issueSession(ctx, user.ID, "phone-verification")
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, pair, nil
}

// provisionOAuthUser создаёт аккаунт для первой OAuth-авторизации.
// Пароль — случайная невосстановимая заглушка: он лишь удовлетворяет
// инвариант наличия password-hash и аутентифицировать не может.
func (s *Service) provisionOAuthUser(ctx context.Context, email string, profile models.OAuthProfile) (*models.User, error) {
	const op = "service.oauth.provisionOAuthUser"

	username, err := s.synthesizeUsername(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	placeholder, err := randomPlaceholder()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hashed, err := s.hasher.Hash(placeholder)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	name := strings.TrimSpace(profile.Name)
	if name == "" {
		name = username
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:            uuid.New(),
		Name:          name,
		Username:      username,
		Email:         email,
		PhoneVerified: false,
		PasswordHash:  hashed,
		Avatar:        profile.Avatar,
		Provider:      profile.Provider,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.storage.SaveUser(ctx, user); err != nil {
		// Гонка двух первых логинов с одним email: проигравший insert
		// перечитывает победителя и продолжает как обычный логин.
		if errors.Is(err, storage.ErrAlreadyExists) {
			existing, lookupErr := s.storage.UserByEmail(ctx, email)
			if lookupErr == nil {
				return existing, nil
			}
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// synthesizeUsername выводит уникальный хэндл из local-part email:
// недопустимые символы заменяются на "_", коллизии разрешаются
// возрастающим числовым суффиксом.
func (s *Service) synthesizeUsername(ctx context.Context, email string) (string, error) {
	const (
		op          = "service.oauth.synthesizeUsername"
		maxAttempts = 100
	)

	base := email
	if at := strings.IndexByte(email, '@'); at > 0 {
		base = email[:at]
	}
	base = sanitizeUsername(base)

	candidate := base
	for i := 1; i <= maxAttempts; i++ {
		_, err := s.storage.UserByUsername(ctx, candidate)
		if errors.Is(err, storage.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}

		candidate = fmt.Sprintf("%s%d", base, i)
	}

	return "", fmt.Errorf("%s: could not find a free username for %s", op, redact.Email(email))
}

func sanitizeUsername(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	return b.String()
}

// randomPlaceholder — криптослучайная строка-заглушка вместо пароля.
func randomPlaceholder() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}
