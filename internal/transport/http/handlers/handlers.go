package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/smolinaa/chathub-auth/internal/models"
	"github.com/smolinaa/chathub-auth/internal/oauth"
	"github.com/smolinaa/chathub-auth/internal/service"
)

// Handlers агрегирует зависимости HTTP-хендлеров.
type Handlers struct {
	svc       *service.Service
	providers map[string]*oauth.Provider
	clientURL string
}

// New создаёт Handlers. providers может быть пустым — тогда OAuth-роуты
// отвечают 404 на незнакомых провайдерах.
func New(svc *service.Service, providers map[string]*oauth.Provider, clientURL string) *Handlers {
	return &Handlers{
		svc:       svc,
		providers: providers,
		clientURL: clientURL,
	}
}

// userResponse — безопасное представление пользователя (без password-hash).
type userResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Username      string    `json:"username"`
	Email         string    `json:"email,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	PhoneVerified bool      `json:"phone_verified"`
	Avatar        string    `json:"avatar,omitempty"`
	Provider      string    `json:"provider"`
	CreatedAt     time.Time `json:"created_at"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:            u.ID.String(),
		Name:          u.Name,
		Username:      u.Username,
		Email:         u.Email,
		Phone:         u.Phone,
		PhoneVerified: u.PhoneVerified,
		Avatar:        u.Avatar,
		Provider:      string(u.Provider),
		CreatedAt:     u.CreatedAt,
	}
}

// authResponse — пользователь + пара токенов (ответ register/login/oauth).
type authResponse struct {
	User            userResponse `json:"user"`
	AccessToken     string       `json:"access_token"`
	RefreshToken    string       `json:"refresh_token"`
	AccessExpiresAt time.Time    `json:"access_expires_at"`
}

func toAuthResponse(u *models.User, pair *models.TokenPair) authResponse {
	return authResponse{
		User:            toUserResponse(u),
		AccessToken:     pair.AccessToken,
		RefreshToken:    pair.RefreshToken,
		AccessExpiresAt: pair.AccessExpiresAt,
	}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}
