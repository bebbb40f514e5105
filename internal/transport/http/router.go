// Package http собирает HTTP-поверхность auth-сервиса: chi-роутер,
// цепочку middleware и регистрацию REST-эндпойнтов.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/smolinaa/chathub-auth/internal/oauth"
	"github.com/smolinaa/chathub-auth/internal/service"
	"github.com/smolinaa/chathub-auth/internal/transport/http/handlers"
	"github.com/smolinaa/chathub-auth/internal/transport/http/middleware"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger  *slog.Logger
	Timeout time.Duration

	// AllowUserIDHeader включает тестовый fallback X-User-Id в гейте.
	// В продакшене должен быть выключен.
	AllowUserIDHeader bool

	// Realtime — опциональный websocket-хендлер; монтируется на /ws.
	Realtime http.Handler
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(svc *service.Service, providers map[string]*oauth.Provider, clientURL string, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),            // безопасно ловим паники
		middleware.RequestID(),          // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Logging(opts.Logger), // кладём request-scoped логгер в контекст и логируем
	)
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout)) // общий дедлайн запроса
	}

	h := handlers.New(svc, providers, clientURL)

	// Публичные маршруты.
	root.Post("/auth/register", h.Register)
	root.Post("/auth/login", h.Login)
	root.Post("/auth/refresh", h.Refresh)
	root.Post("/auth/logout", h.Logout)

	root.Get("/oauth/{provider}", h.OAuthStart)
	root.Get("/oauth/{provider}/callback", h.OAuthCallback)

	// Маршруты за authentication-гейтом.
	root.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(svc.Codec(), opts.AllowUserIDHeader))

		r.Post("/oauth/verify-phone", h.VerifyPhone)
		r.Get("/users/me", h.Me)
	})

	// Realtime-транспорт: гейт у него собственный (токен проверяется
	// до upgrade), поэтому RequireAuth здесь не навешиваем.
	if opts.Realtime != nil {
		root.Mount("/ws", opts.Realtime)
	}

	return root
}
