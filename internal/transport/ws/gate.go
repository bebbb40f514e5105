// Package ws реализует realtime-транспорт auth-сервиса поверх websocket.
//
// Транспорт делит authentication-гейт с HTTP-слоем семантически: та же
// проверка access-токена тем же кодеком, тот же единый отказ 401 без
// уточнения причины. Отличается только способ доставки токена —
// websocket-клиенты не всегда могут выставить заголовок Authorization.
package ws

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/smolinaa/chathub-auth/internal/tokens"
)

// wsAuthRejects — количество подключений, отклонённых до upgrade.
var wsAuthRejects = promauto.NewCounter(prometheus.CounterOpts{
	Name: "auth_ws_gate_rejects_total",
	Help: "Connections rejected by the websocket authentication gate.",
})

// Identity — проверенный контекст realtime-подключения.
type Identity struct {
	UserID   uuid.UUID
	DeviceID string
	Name     string
	Provider string
}

// bearerSubprotocol — имя субпротокола, которым клиент передаёт токен
// в рукопожатии: Sec-WebSocket-Protocol: bearer, <token>.
const bearerSubprotocol = "bearer"

// extractToken достаёт access-токен из рукопожатия.
//
// Приоритет источников (первый непустой выигрывает):
//  1. пара субпротоколов "bearer, <token>" — аналог auth-payload
//     браузерных realtime-клиентов, у которых нет заголовков;
//  2. Authorization: Bearer <token>;
//  3. query-параметр ?token= (легаси-клиенты).
func extractToken(r *http.Request) string {
	if protos := websocket.Subprotocols(r); len(protos) >= 2 && protos[0] == bearerSubprotocol {
		return protos[1]
	}

	if auth := r.Header.Get("Authorization"); auth != "" {
		const prefix = "Bearer "
		if strings.HasPrefix(auth, prefix) {
			return strings.TrimSpace(auth[len(prefix):])
		}
	}

	return r.URL.Query().Get("token")
}

// authenticate проверяет рукопожатие и собирает Identity подключения.
//
// allowUserIDHeader включает тестовый fallback X-User-Id — тот же
// компромисс, что и у HTTP-гейта, только вне prod.
func authenticate(codec *tokens.Codec, r *http.Request, allowUserIDHeader bool) (Identity, error) {
	const op = "ws.authenticate"

	token := extractToken(r)
	if token == "" {
		if allowUserIDHeader {
			if raw := r.Header.Get("X-User-Id"); raw != "" {
				if uid, err := uuid.Parse(raw); err == nil {
					return newIdentity(uid, "", "local", r), nil
				}
			}
		}

		return Identity{}, fmt.Errorf("%s: %w", op, tokens.ErrInvalidToken)
	}

	claims, err := codec.Verify(token, false)
	if err != nil {
		return Identity{}, fmt.Errorf("%s: %w", op, tokens.ErrInvalidToken)
	}

	provider := claims.Provider
	if provider == "" {
		provider = "local"
	}

	return newIdentity(claims.Subject, claims.Name, provider, r), nil
}

func newIdentity(userID uuid.UUID, name, provider string, r *http.Request) Identity {
	deviceID := r.URL.Query().Get("device_id")
	if deviceID == "" {
		deviceID = uuid.NewString()
	}

	return Identity{
		UserID:   userID,
		DeviceID: deviceID,
		Name:     name,
		Provider: provider,
	}
}
