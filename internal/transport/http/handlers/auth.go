package handlers

import (
	"net/http"
	"time"

	"github.com/smolinaa/chathub-auth/internal/transport/http/httperr"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// Register — POST /auth/register.
// Успешная регистрация сразу возвращает аутентифицированную сессию.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var in registerRequest
	if err := decodeStrict(r, &in); err != nil {
		httperr.WriteStatus(w, r, http.StatusBadRequest, "invalid_argument", "invalid request body")
		return
	}

	user, pair, err := h.svc.Register(r.Context(), in.Name, in.Email, in.Phone, in.Password)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAuthResponse(user, pair))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login — POST /auth/login.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeStrict(r, &in); err != nil {
		httperr.WriteStatus(w, r, http.StatusBadRequest, "invalid_argument", "invalid request body")
		return
	}

	user, pair, err := h.svc.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toAuthResponse(user, pair))
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken     string    `json:"access_token"`
	RefreshToken    string    `json:"refresh_token"`
	AccessExpiresAt time.Time `json:"access_expires_at"`
}

// Refresh — POST /auth/refresh.
// Возвращает новый access-токен; refresh-токен тот же (ротации нет).
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var in refreshRequest
	if err := decodeStrict(r, &in); err != nil {
		httperr.WriteStatus(w, r, http.StatusBadRequest, "invalid_argument", "invalid request body")
		return
	}

	pair, err := h.svc.Refresh(r.Context(), in.RefreshToken)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, refreshResponse{
		AccessToken:     pair.AccessToken,
		RefreshToken:    pair.RefreshToken,
		AccessExpiresAt: pair.AccessExpiresAt,
	})
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Logout — POST /auth/logout. Отзывает ровно одну сессию устройства.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	var in logoutRequest
	if err := decodeStrict(r, &in); err != nil {
		httperr.WriteStatus(w, r, http.StatusBadRequest, "invalid_argument", "invalid request body")
		return
	}

	if err := h.svc.Logout(r.Context(), in.RefreshToken); err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "user logged out successfully"})
}
