package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/smolinaa/chathub-auth/internal/oauth"
	"github.com/smolinaa/chathub-auth/internal/pkg/log"
	"github.com/smolinaa/chathub-auth/internal/service"
	"github.com/smolinaa/chathub-auth/internal/transport/http/httperr"
	"github.com/smolinaa/chathub-auth/internal/transport/http/middleware"
)

// stateCookie хранит anti-CSRF state между редиректом на провайдера
// и callback'ом. TTL короткий: state живёт один обмен.
const (
	stateCookie    = "oauth_state"
	stateCookieTTL = 10 * time.Minute
)

// OAuthStart — GET /oauth/{provider}.
// Ставит state-cookie и редиректит на страницу согласия провайдера.
func (h *Handlers) OAuthStart(w http.ResponseWriter, r *http.Request) {
	provider, ok := h.provider(r)
	if !ok {
		httperr.WriteStatus(w, r, http.StatusNotFound, "not_found", "unknown oauth provider")
		return
	}

	state, err := randomState()
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int(stateCookieTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, provider.AuthCodeURL(state), http.StatusFound)
}

// OAuthCallback — GET /oauth/{provider}/callback.
// Проверяет state, обменивает code на профиль и унифицирует аккаунт.
// Результат (токены + пользователь) передаётся клиенту редиректом;
// любая ошибка — редиректом на страницу логина с текстом ошибки.
func (h *Handlers) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	logger := log.From(r.Context())

	provider, ok := h.provider(r)
	if !ok {
		h.redirectOAuthError(w, r, "unknown oauth provider")
		return
	}

	if !validState(r) {
		logger.Warn("oauth state mismatch",
			slog.String("provider", string(provider.Name())))

		h.redirectOAuthError(w, r, "invalid oauth state")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.redirectOAuthError(w, r, "authorization code missing")
		return
	}

	profile, err := provider.FetchProfile(r.Context(), code)
	if err != nil {
		logger.Error("oauth profile fetch failed",
			slog.String("provider", string(provider.Name())),
			slog.String("error", err.Error()))

		h.redirectOAuthError(w, r, "authentication failed")
		return
	}

	user, pair, err := h.svc.HandleOAuthLogin(r.Context(), profile)
	if err != nil {
		logger.Error("oauth login failed",
			slog.String("provider", string(provider.Name())),
			slog.String("error", err.Error()))

		h.redirectOAuthError(w, r, oauthErrorMessage(err))
		return
	}

	userJSON, err := json.Marshal(toUserResponse(user))
	if err != nil {
		h.redirectOAuthError(w, r, "authentication failed")
		return
	}

	// Токены уезжают клиенту в query-параметрах redirect'а —
	// контракт SPA-клиента, который забирает их на /oauth/callback.
	q := url.Values{}
	q.Set("token", pair.AccessToken)
	q.Set("refreshToken", pair.RefreshToken)
	q.Set("user", string(userJSON))

	http.Redirect(w, r, h.clientURL+"/oauth/callback?"+q.Encode(), http.StatusFound)
}

type verifyPhoneRequest struct {
	Phone string `json:"phone"`
}

// VerifyPhone — POST /oauth/verify-phone (только с access-токеном).
// Привязывает телефон к OAuth-аккаунту, отзывает все прежние сессии
// и возвращает свежую пару токенов.
func (h *Handlers) VerifyPhone(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFrom(r.Context())
	if !ok {
		httperr.WriteStatus(w, r, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	var in verifyPhoneRequest
	if err := decodeStrict(r, &in); err != nil {
		httperr.WriteStatus(w, r, http.StatusBadRequest, "invalid_argument", "invalid request body")
		return
	}

	user, pair, err := h.svc.VerifyPhone(r.Context(), userID, in.Phone)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toAuthResponse(user, pair))
}

// provider возвращает сконфигурированного провайдера из URL-параметра.
func (h *Handlers) provider(r *http.Request) (*oauth.Provider, bool) {
	p, ok := h.providers[chi.URLParam(r, "provider")]
	return p, ok
}

// validState сравнивает state из query со значением state-cookie.
func validState(r *http.Request) bool {
	state := r.URL.Query().Get("state")
	if state == "" {
		return false
	}

	cookie, err := r.Cookie(stateCookie)
	if err != nil {
		return false
	}

	return cookie.Value == state
}

// redirectOAuthError уводит браузер на страницу логина клиента с текстом ошибки.
func (h *Handlers) redirectOAuthError(w http.ResponseWriter, r *http.Request, msg string) {
	q := url.Values{}
	q.Set("error", msg)

	http.Redirect(w, r, h.clientURL+"/login?"+q.Encode(), http.StatusFound)
}

// oauthErrorMessage отдаёт наружу только сообщения известных сентинелов;
// внутренние ошибки не утекают в redirect.
func oauthErrorMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrMissingEmail):
		return service.ErrMissingEmail.Error()
	case errors.Is(err, service.ErrUserExists):
		return service.ErrUserExists.Error()
	default:
		return "authentication failed"
	}
}

func randomState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("handlers.randomState: %w", err)
	}

	return hex.EncodeToString(buf), nil
}
