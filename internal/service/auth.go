package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/smolinaa/chathub-auth/internal/models"
	"github.com/smolinaa/chathub-auth/internal/pkg/log"
	"github.com/smolinaa/chathub-auth/internal/pkg/redact"
	"github.com/smolinaa/chathub-auth/internal/storage"
)

// Register регистрирует нового локального пользователя.
// Телефон обязателен (provider=local), email опционален.
// Успешная регистрация сразу означает аутентифицированную сессию.
func (s *Service) Register(ctx context.Context, name, email, phone, password string) (*models.User, *models.TokenPair, error) {
	const op = "service.auth.Register"

	name = strings.TrimSpace(name)
	if len([]rune(name)) < 2 {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidName)
	}

	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrMissingPhone)
	}
	if !validPhone(phone) {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidPhone)
	}

	var normEmail string
	if strings.TrimSpace(email) != "" {
		var err error
		normEmail, err = normalizeEmail(email)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidEmail)
		}
	}

	if err := validatePassword(password); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	// Пре-чек дубликатов; гонку закрывают уникальные индексы хранилища.
	_, err := s.storage.UserByEmailOrPhone(ctx, normEmail, phone)
	if err == nil {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrUserExists)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:            uuid.New(),
		Name:          name,
		Username:      localUsername(normEmail, phone),
		Email:         normEmail,
		Phone:         phone,
		PhoneVerified: true,
		PasswordHash:  hashed,
		Provider:      models.ProviderLocal,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.storage.SaveUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, nil, fmt.Errorf("%s: %w", op, ErrUserExists)
		}

		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	pair, err := s.issueSession(ctx, user.ID, "signup")
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	s.sendWelcome(ctx, user)

	return user, pair, nil
}

// Login выполняет вход по email+пароль.
// "Нет такого email" и "неверный пароль" неразличимы для вызывающего.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, *models.TokenPair, error) {
	const op = "service.auth.Login"

	normEmail, err := normalizeEmail(email)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	if password == "" {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	user, err := s.storage.UserByEmail(ctx, normEmail)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	pair, err := s.issueSession(ctx, user.ID, "login")
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, pair, nil
}

// Refresh обновляет access-токен по refresh-токену.
// Refresh-токен НЕ ротируется: он возвращается без изменений и действует
// до собственного exp или явного logout (осознанное решение, не упущение).
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	const op = "service.auth.Refresh"

	if refreshToken == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	claims, err := s.codec.Verify(refreshToken, true)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	// Подписи недостаточно: валидный токен без записи сессии
	// (например, после logout) должен быть отвергнут.
	match, err := s.matchSession(ctx, claims.Subject, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if match == nil {
		log.From(ctx).Warn("refresh_no_matching_session",
			slog.String("op", op),
			slog.String("user_id", claims.Subject.String()),
		)
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	now := time.Now().UTC()
	access, err := s.codec.SignAccess(claims.Subject, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.TokenPair{
		AccessToken:     access,
		RefreshToken:    refreshToken,
		AccessExpiresAt: now.Add(s.codec.AccessTTL()),
	}, nil
}

// Logout отзывает одну сессию, соответствующую предъявленному refresh-токену.
// Сессии других устройств не затрагиваются.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	const op = "service.auth.Logout"

	if refreshToken == "" {
		return fmt.Errorf("%s: %w", op, ErrMissingToken)
	}

	claims, err := s.codec.Verify(refreshToken, true)
	if err != nil {
		return fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	match, err := s.matchSession(ctx, claims.Subject, refreshToken)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if match == nil {
		return fmt.Errorf("%s: %w", op, ErrSessionNotFound)
	}

	if err := s.storage.DeleteSession(ctx, match.ID); err != nil {
		// Гонка с параллельным logout: запись уже удалена.
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrSessionNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// issueSession — каноническая операция "выдать сессию": подписать пару
// токенов, захэшировать refresh и сохранить запись сессии.
// Если запись не сохранилась, токены наружу не отдаются: логин без
// отзываемой записи не считается успешным.
func (s *Service) issueSession(ctx context.Context, userID uuid.UUID, deviceLabel string) (*models.TokenPair, error) {
	const op = "service.auth.issueSession"

	now := time.Now().UTC()

	access, err := s.codec.SignAccess(userID, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	refresh, err := s.codec.SignRefresh(userID, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	tokenHash, err := s.hasher.Hash(refresh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	expiresAt := now.Add(s.codec.RefreshTTL())
	if decoded := s.codec.DecodeUnsafe(refresh); decoded != nil && !decoded.ExpiresAt.IsZero() {
		expiresAt = decoded.ExpiresAt
	}

	session := &models.Session{
		ID:          uuid.New(),
		UserID:      userID,
		TokenHash:   tokenHash,
		ExpiresAt:   expiresAt,
		DeviceLabel: deviceLabel,
		CreatedAt:   now,
	}

	if err := s.storage.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.TokenPair{
		AccessToken:     access,
		RefreshToken:    refresh,
		AccessExpiresAt: now.Add(s.codec.AccessTTL()),
	}, nil
}

// matchSession ищет запись сессии, чей хэш соответствует plaintext-токену.
// Хэш солёный, поэтому поиск равенством невозможен: перебираем записи
// пользователя с односторонним сравнением, O(активных сессий пользователя).
func (s *Service) matchSession(ctx context.Context, userID uuid.UUID, refreshToken string) (*models.Session, error) {
	sessions, err := s.storage.SessionsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	for i := range sessions {
		if sessions[i].Revoked {
			continue
		}

		if s.hasher.Verify(refreshToken, sessions[i].TokenHash) {
			return &sessions[i], nil
		}
	}

	return nil, nil
}

// sendWelcome отправляет приветственное письмо fire-and-forget.
// Сбой доставки логируется и никогда не влияет на результат операции.
func (s *Service) sendWelcome(ctx context.Context, user *models.User) {
	if s.mailer == nil || user.Email == "" {
		return
	}

	lg := log.From(ctx)
	email, name := user.Email, user.Name

	go func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := s.mailer.SendWelcome(sendCtx, email, name); err != nil {
			lg.Warn("welcome_email_failed",
				slog.String("email", redact.Email(email)),
				slog.String("err", err.Error()),
			)
		}
	}()
}

// normalizeEmail проверяет базовый формат email и приводит к нижнему регистру.
func normalizeEmail(raw string) (string, error) {
	email := strings.TrimSpace(raw)
	if email == "" {
		return "", ErrInvalidEmail
	}

	if _, err := mail.ParseAddress(email); err != nil {
		return "", ErrInvalidEmail
	}

	return strings.ToLower(email), nil
}

// validPhone — телефон из ровно 10 цифр.
func validPhone(phone string) bool {
	if len(phone) != 10 {
		return false
	}

	for _, r := range phone {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}

// validatePassword — минимальная политика: длина >= 8 символов.
func validatePassword(pw string) error {
	if len([]rune(pw)) < 8 {
		return ErrWeakPassword
	}

	return nil
}

// localUsername выводит хэндл при регистрации: local-part email,
// если email задан, иначе синтез из телефона.
func localUsername(email, phone string) string {
	if email != "" {
		if at := strings.IndexByte(email, '@'); at > 0 {
			return email[:at]
		}
	}

	return "u" + phone
}
