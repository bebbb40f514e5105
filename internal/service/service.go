// service содержит бизнес-логику auth-ядра:
// регистрацию/аутентификацию пользователей, унификацию OAuth-аккаунтов,
// выпуск/проверку токенов и учёт сессий через интерфейсы пакета storage.
//
// Основные аспекты:
//   - Пакет не хранит состояние запроса внутри Service; экземпляр Service
//     безопасен для конкурентного использования из разных горутин при условии,
//     что переданное хранилище (storage.Storage) потокобезопасно.
//   - Корректность конкурентных операций опирается на по-документную
//     атомарность хранилища (уникальные индексы, атомарные delete), а не на
//     внутрипроцессные блокировки.
//   - Ошибки возвращаются как сентинелы и маппятся HTTP-слоем на статусы
//     (см. комментарии к переменным ошибок ниже).
package service

import (
	"errors"

	"github.com/smolinaa/chathub-auth/internal/hasher"
	"github.com/smolinaa/chathub-auth/internal/mailer"
	"github.com/smolinaa/chathub-auth/internal/storage"
	"github.com/smolinaa/chathub-auth/internal/tokens"
)

var (
	// ErrInvalidCredentials — пара email/пароль неверна ИЛИ пользователь не найден.
	// Случаи намеренно не различаются, чтобы не допускать перечисления аккаунтов.
	// Транспорт: HTTP 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken — токен некорректен по формату/подписи, истёк или
	// не имеет соответствующей записи сессии. Одна ошибка на все случаи.
	// Транспорт: HTTP 401.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrMissingToken — refresh-токен не передан. Транспорт: HTTP 400.
	ErrMissingToken = errors.New("refresh token required")

	// ErrSessionNotFound — для предъявленного refresh-токена нет записи сессии
	// (уже разлогинен или чужой токен). Сообщается явно, а не глотается:
	// клиент должен отличать "теперь разлогинен" от "здесь и не был залогинен".
	// Транспорт: HTTP 404.
	ErrSessionNotFound = errors.New("session already expired or invalid")

	// ErrUserExists — телефон, email или хэндл уже заняты. Транспорт: HTTP 400.
	ErrUserExists = errors.New("user with provided phone or email already exists")

	// ErrUserNotFound — пользователь по ID не найден. Транспорт: HTTP 404.
	ErrUserNotFound = errors.New("user not found")

	// ErrMissingEmail — OAuth-провайдер не передал email, ключ унификации.
	// Транспорт: HTTP 400.
	ErrMissingEmail = errors.New("oauth account must provide a valid email")

	// ErrMissingPhone — не передан номер телефона. Транспорт: HTTP 400.
	ErrMissingPhone = errors.New("phone number is required")

	// ErrInvalidName — имя не проходит валидацию. Транспорт: HTTP 400.
	ErrInvalidName = errors.New("invalid name")

	// ErrInvalidEmail — email имеет некорректный формат. Транспорт: HTTP 400.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrInvalidPhone — телефон не из 10 цифр. Транспорт: HTTP 400.
	ErrInvalidPhone = errors.New("phone number must be 10 digits")

	// ErrWeakPassword — пароль короче 8 символов. Транспорт: HTTP 400.
	ErrWeakPassword = errors.New("password must be at least 8 characters")
)

// Service описывает бизнес-логику auth-ядра.
type Service struct {
	storage storage.Storage
	codec   *tokens.Codec
	hasher  *hasher.Hasher
	mailer  mailer.Mailer // может быть nil, если почта не сконфигурирована
}

// New создаёт новый экземпляр Service.
func New(st storage.Storage, codec *tokens.Codec, h *hasher.Hasher) *Service {
	return &Service{
		storage: st,
		codec:   codec,
		hasher:  h,
	}
}

// Codec возвращает кодек токенов — его же используют authentication-гейты.
func (s *Service) Codec() *tokens.Codec {
	return s.codec
}

// SetMailer устанавливает клиент исходящей почты (опционально).
func (s *Service) SetMailer(m mailer.Mailer) {
	s.mailer = m
}
