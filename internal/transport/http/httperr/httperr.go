// httperr стандартизирует ответы об ошибках HTTP-слоя.
// На вход — ошибка сервисного слоя (сентинел в цепочке wrap), на выход:
//   - корректный HTTP-статус;
//   - краткое безопасное message без утечки внутренностей.
//
// Неожиданные ошибки хранилища/инфраструктуры схлопываются в generic 500.
package httperr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/smolinaa/chathub-auth/internal/service"
	"github.com/smolinaa/chathub-auth/internal/tokens"
)

// APIError — единый формат для фронта.
// Code — короткий стабильный код для машиночитаемой обработки на FE.
// Message — безопасное человекочитаемое описание.
// RequestID — прокидывается из X-Request-Id, если есть (для трассировки).
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// ToHTTP конвертирует ошибку сервисного слоя в HTTP-статус и
// унифицированный ответ. err == nil — программная ошибка вызова:
// возвращаем 500, чтобы не замаскировать баг ответом "200 OK".
func ToHTTP(err error) (int, ErrorResponse) {
	status, code, msg := classify(err)

	return status, ErrorResponse{
		Error: APIError{
			Code:    code,
			Message: msg,
		},
	}
}

// WriteError — хелпер для HTTP-хендлеров.
// Пишет корректный статус/тело, добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// WriteStatus пишет унифицированный ответ с заданным статусом/кодом
// (для ошибок, рождающихся в самом транспорте: битый JSON, нет токена).
func WriteStatus(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	resp := ErrorResponse{Error: APIError{Code: code, Message: msg}}
	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// classify — маппинг сентинелов сервиса на HTTP-статус/FE-код/сообщение.
// Сообщения статичны и безопасны; детали остаются в логах сервера.
func classify(err error) (int, string, string) {
	switch {
	case err == nil:
		return http.StatusInternalServerError, "internal", "internal error"

	case errors.Is(err, service.ErrUserExists):
		return http.StatusBadRequest, "duplicate_identity", service.ErrUserExists.Error()

	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials", service.ErrInvalidCredentials.Error()

	case errors.Is(err, service.ErrInvalidToken), errors.Is(err, tokens.ErrInvalidToken):
		return http.StatusUnauthorized, "invalid_token", service.ErrInvalidToken.Error()

	case errors.Is(err, service.ErrMissingToken):
		return http.StatusBadRequest, "missing_token", service.ErrMissingToken.Error()

	case errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound, "session_not_found", service.ErrSessionNotFound.Error()

	case errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound, "not_found", service.ErrUserNotFound.Error()

	case errors.Is(err, service.ErrMissingEmail):
		return http.StatusBadRequest, "missing_email", service.ErrMissingEmail.Error()

	case errors.Is(err, service.ErrMissingPhone):
		return http.StatusBadRequest, "invalid_argument", service.ErrMissingPhone.Error()

	case errors.Is(err, service.ErrInvalidPhone):
		return http.StatusBadRequest, "invalid_argument", service.ErrInvalidPhone.Error()

	case errors.Is(err, service.ErrInvalidName):
		return http.StatusBadRequest, "invalid_argument", service.ErrInvalidName.Error()

	case errors.Is(err, service.ErrInvalidEmail):
		return http.StatusBadRequest, "invalid_argument", service.ErrInvalidEmail.Error()

	case errors.Is(err, service.ErrWeakPassword):
		return http.StatusBadRequest, "invalid_argument", service.ErrWeakPassword.Error()

	default:
		return http.StatusInternalServerError, "internal", "internal error"
	}
}
