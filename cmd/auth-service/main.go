package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/smolinaa/chathub-auth/internal/config"
	"github.com/smolinaa/chathub-auth/internal/hasher"
	"github.com/smolinaa/chathub-auth/internal/mailer"
	"github.com/smolinaa/chathub-auth/internal/oauth"
	"github.com/smolinaa/chathub-auth/internal/service"
	"github.com/smolinaa/chathub-auth/internal/storage/mongo"
	"github.com/smolinaa/chathub-auth/internal/tokens"
	authhttp "github.com/smolinaa/chathub-auth/internal/transport/http"
	"github.com/smolinaa/chathub-auth/internal/transport/ws"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting auth-service", "env", cfg.Env)

	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	connectCtx, connectCancel := context.WithTimeout(rootCtx, 10*time.Second)
	defer connectCancel()

	store, err := mongo.New(connectCtx, cfg.DB.MongoURL)
	if err != nil {
		log.Error("storage_init_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer closeCancel()

		if cerr := store.Close(closeCtx); cerr != nil {
			log.Warn("storage_close_failed", slog.String("err", cerr.Error()))
		}
	}()

	log.Info("storage_initialized")

	codec, err := tokens.New(cfg.Auth)
	if err != nil {
		log.Error("token_codec_init_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	svc := service.New(store, codec, hasher.New(cfg.Auth.BcryptCost))

	if cfg.Email.APIKey != "" {
		brevo, err := mailer.NewBrevo(cfg.Email)
		if err != nil {
			log.Error("mailer_init_failed", slog.String("err", err.Error()))
			os.Exit(1)
		}

		svc.SetMailer(brevo)
		log.Info("mailer_enabled", slog.String("sender", cfg.Email.SenderEmail))
	}

	providers := buildProviders(cfg, log)

	// X-User-Id как замена токену допустим только вне prod.
	allowUserIDHeader := cfg.Env != envProd

	hub := ws.NewHub()
	realtime := ws.NewHandler(codec, hub, log, cfg.ClientURL, allowUserIDHeader)

	apiHandler := authhttp.NewRouter(svc, providers, cfg.ClientURL, authhttp.Options{
		Logger:            log,
		Timeout:           cfg.Timeouts.Request,
		AllowUserIDHeader: allowUserIDHeader,
		Realtime:          realtime,
	})

	var ready int32 // 0 — not ready; 1 — ready

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if atomic.LoadInt32(&ready) == 1 {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		}

		http.Error(w, "not ready", http.StatusServiceUnavailable)
	})

	mux.Handle("/metrics", promhttp.Handler())

	mux.Handle("/", apiHandler)

	httpAddr := cfg.HTTP.Addr()
	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", httpAddr)
	if err != nil {
		log.Error("http_listen_failed", slog.String("addr", httpAddr), slog.String("err", err.Error()))
		os.Exit(1)
	}

	log.Info("http_listen_start", slog.String("addr", httpAddr))

	serveErrCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
		}
		close(serveErrCh)
	}()

	atomic.StoreInt32(&ready, 1)
	log.Info("auth_service_ready")

	select {
	case <-rootCtx.Done():
		log.Info("shutdown_requested")
	case err := <-serveErrCh:
		if err != nil {
			log.Error("http_serve_failed", slog.String("err", err.Error()))
		}
	}

	atomic.StoreInt32(&ready, 0)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http_shutdown_incomplete", slog.String("err", err.Error()))
	} else {
		log.Info("http_stopped")
	}

	log.Info("service_stopped")
}

// buildProviders включает только сконфигурированных OAuth-провайдеров.
// Пустая карта — валидное состояние: OAuth тогда просто выключен.
func buildProviders(cfg *config.Config, log *slog.Logger) map[string]*oauth.Provider {
	providers := make(map[string]*oauth.Provider)

	if cfg.OAuth.Google.Configured() {
		providers["google"] = oauth.NewGoogle(cfg.OAuth.Google)
		log.Info("oauth_provider_enabled", slog.String("provider", "google"))
	}

	if cfg.OAuth.Github.Configured() {
		providers["github"] = oauth.NewGithub(cfg.OAuth.Github)
		log.Info("oauth_provider_enabled", slog.String("provider", "github"))
	}

	return providers
}

func setupLogger(env string) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
