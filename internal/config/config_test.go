package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// writeFile — утилита записи временного файла конфигурации.
func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(data), 0o600))
	return p
}

// Полный корректный YAML под текущую структуру config.go.
const sampleYAML = `
env: "prod"
http:
  host: "0.0.0.0"
  port: "4000"
client_url: "https://chat.example.com"
auth:
  access_secret: "file-access-secret"
  refresh_secret: "file-refresh-secret"
  access_token_ttl: "15m"
  refresh_token_ttl: "720h"
  issuer: "chathub-auth"
  bcrypt_cost: 12
db:
  mongo_url: "mongodb://127.0.0.1:27017/chathub"
oauth:
  google:
    client_id: "google-id"
    client_secret: "google-secret"
    callback_url: "https://chat.example.com/oauth/google/callback"
email:
  api_key: "brevo-key"
  sender_email: "noreply@chat.example.com"
timeouts:
  request: "3s"
`

// Некорректный YAML для проверки сообщений об ошибке.
const brokenYAML = `
env: [unclosed
`

func TestHTTPConfig_Addr(t *testing.T) {
	t.Parallel()
	cfg := HTTPConfig{Host: "0.0.0.0", Port: "4000"}
	require.Equal(t, "0.0.0.0:4000", cfg.Addr())
}

func TestLoad_WithExplicitPath_OK(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", sampleYAML)

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	require.Equal(t, "prod", cfg.Env)
	require.Equal(t, "0.0.0.0", cfg.HTTP.Host)
	require.Equal(t, "4000", cfg.HTTP.Port)
	require.Equal(t, "https://chat.example.com", cfg.ClientURL)

	require.Equal(t, "file-access-secret", cfg.Auth.AccessSecret)
	require.Equal(t, "file-refresh-secret", cfg.Auth.RefreshSecret)
	require.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenTTL)
	require.Equal(t, 720*time.Hour, cfg.Auth.RefreshTokenTTL)
	require.Equal(t, 12, cfg.Auth.BcryptCost)

	require.Equal(t, "mongodb://127.0.0.1:27017/chathub", cfg.DB.MongoURL)

	require.True(t, cfg.OAuth.Google.Configured())
	require.False(t, cfg.OAuth.Github.Configured())

	require.Equal(t, "brevo-key", cfg.Email.APIKey)
	require.Equal(t, 3*time.Second, cfg.Timeouts.Request)
}

func TestLoad_WithExplicitPath_BrokenYAML(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "broken.yaml", brokenYAML)

	_, err := Load(cfgPath)
	require.Error(t, err)
}

func TestLoad_MissingExplicitPath(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", sampleYAML)

	// ENV сильнее YAML.
	t.Setenv("JWT_ACCESS_SECRET", "env-access-secret")
	t.Setenv("HTTP_PORT", "5000")

	cfg, err := Load(cfgPath)
	require.NoError(t, err)
	require.Equal(t, "env-access-secret", cfg.Auth.AccessSecret)
	require.Equal(t, "5000", cfg.HTTP.Port)
	// Остальное — из файла.
	require.Equal(t, "file-refresh-secret", cfg.Auth.RefreshSecret)
}

func TestLoad_EnvOnly(t *testing.T) {
	t.Setenv("CLIENT_URL", "https://chat.example.com")
	t.Setenv("JWT_ACCESS_SECRET", "env-access")
	t.Setenv("JWT_REFRESH_SECRET", "env-refresh")
	t.Setenv("JWT_ACCESS_TTL", "30s")
	t.Setenv("JWT_REFRESH_TTL", "24h")
	t.Setenv("MONGO_URL", "mongodb://127.0.0.1:27017")

	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "local", cfg.Env)
	require.Equal(t, 30*time.Second, cfg.Auth.AccessTokenTTL)
	require.Equal(t, 24*time.Hour, cfg.Auth.RefreshTokenTTL)
	require.Equal(t, "chathub-auth", cfg.Auth.Issuer)
	require.Equal(t, 10, cfg.Auth.BcryptCost)
	require.Equal(t, 5*time.Second, cfg.Timeouts.Request)
}

func TestLoad_EnvOnly_MissingRequired(t *testing.T) {
	t.Setenv("CLIENT_URL", "https://chat.example.com")
	// Секреты не заданы — env-required должен сработать.
	_, err := Load("")
	require.Error(t, err)
}

func TestProviderConfig_Configured(t *testing.T) {
	t.Parallel()

	require.False(t, ProviderConfig{}.Configured())
	require.False(t, ProviderConfig{ClientID: "id"}.Configured())
	require.True(t, ProviderConfig{ClientID: "id", ClientSecret: "secret"}.Configured())
}
