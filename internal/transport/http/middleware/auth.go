package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/smolinaa/chathub-auth/internal/tokens"
	"github.com/smolinaa/chathub-auth/internal/transport/http/httperr"
)

type ctxKeyUserID struct{}

// httpAuthRejects — количество запросов, отклонённых HTTP-гейтом.
var httpAuthRejects = promauto.NewCounter(prometheus.CounterOpts{
	Name: "auth_http_gate_rejects_total",
	Help: "Requests rejected by the HTTP authentication gate.",
})

// UserIDFrom возвращает ID субъекта, положенный гейтом в контекст.
func UserIDFrom(ctx context.Context) (uuid.UUID, bool) {
	v, ok := ctx.Value(ctxKeyUserID{}).(uuid.UUID)
	return v, ok
}

// RequireAuth — authentication-гейт конвейера запросов.
//
// Порядок:
//  1. Authorization: Bearer <token> -> проверка access-токена кодеком,
//     субъект кладётся в контекст;
//  2. иначе, если allowUserIDHeader (только вне prod) — сырой X-User-Id
//     как тестовое удобство;
//  3. иначе 401, запрос дальше не идёт.
//
// Гейт выполняет чистую проверку подписи/срока и НЕ заглядывает в реестр
// сессий: access-токен действует весь свой TTL даже после logout владельца.
// Компенсация — короткий TTL access-токенов.
func RequireAuth(codec *tokens.Codec, allowUserIDHeader bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := bearerToken(r); token != "" {
				claims, err := codec.Verify(token, false)
				if err != nil {
					httpAuthRejects.Inc()
					httperr.WriteStatus(w, r, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
					return
				}

				ctx := context.WithValue(r.Context(), ctxKeyUserID{}, claims.Subject)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			if allowUserIDHeader {
				if raw := r.Header.Get("X-User-Id"); raw != "" {
					if uid, err := uuid.Parse(raw); err == nil {
						ctx := context.WithValue(r.Context(), ctxKeyUserID{}, uid)
						next.ServeHTTP(w, r.WithContext(ctx))
						return
					}
				}
			}

			httpAuthRejects.Inc()
			httperr.WriteStatus(w, r, http.StatusUnauthorized, "unauthorized", "unauthorized")
		})
	}
}

// bearerToken извлекает токен из Authorization: Bearer <token>.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}

	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) || len(auth) <= len(prefix) {
		return ""
	}

	return strings.TrimSpace(auth[len(prefix):])
}
