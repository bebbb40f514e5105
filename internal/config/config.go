// config предоставляет структуру конфигурации сервиса и функции
// загрузки из файла/переменных окружения с предсказуемым приоритетом.
package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config — корневая конфигурация сервиса.
// Источники значений (по убыванию приоритета):
//  1. явный путь через флаг --config;
//  2. путь в переменной окружения CONFIG_PATH;
//  3. файл local.yaml из рабочей директории;
//  4. переменные окружения (cleanenv).
type Config struct {
	Env       string        `yaml:"env" env:"ENV" env-default:"local"`
	HTTP      HTTPConfig    `yaml:"http"`
	ClientURL string        `yaml:"client_url" env:"CLIENT_URL" env-required:"true"`
	Auth      AuthConfig    `yaml:"auth"`
	DB        DBConfig      `yaml:"db"`
	OAuth     OAuthConfig   `yaml:"oauth"`
	Email     EmailConfig   `yaml:"email"`
	Timeouts  TimeoutConfig `yaml:"timeouts"`
}

// TimeoutConfig — таймауты сервиса.
type TimeoutConfig struct {
	Request time.Duration `yaml:"request" env:"REQUEST_TIMEOUT" env-default:"5s"`
}

// HTTPConfig — сетевые настройки HTTP-сервера.
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"4000"`
}

// Addr возвращает адрес в формате host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

// AuthConfig содержит параметры выпуска и валидации токенов.
//
// Секреты access- и refresh-токенов независимы: утечка одного не позволяет
// подделать токены другого класса. TTL обязательны и умолчаний не имеют.
type AuthConfig struct {
	AccessSecret    string        `yaml:"access_secret" env:"JWT_ACCESS_SECRET" env-required:"true"`
	RefreshSecret   string        `yaml:"refresh_secret" env:"JWT_REFRESH_SECRET" env-required:"true"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl" env:"JWT_ACCESS_TTL" env-required:"true"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl" env:"JWT_REFRESH_TTL" env-required:"true"`
	Issuer          string        `yaml:"issuer" env:"ISSUER" env-default:"chathub-auth"`
	BcryptCost      int           `yaml:"bcrypt_cost" env:"BCRYPT_COST" env-default:"10"`
}

// DBConfig — настройки подключения к документному хранилищу.
type DBConfig struct {
	MongoURL string `yaml:"mongo_url" env:"MONGO_URL" env-required:"true"`
}

// OAuthConfig — параметры внешних провайдеров идентичности.
// Провайдер считается сконфигурированным, если заданы ClientID и ClientSecret.
type OAuthConfig struct {
	Google ProviderConfig `yaml:"google" env-prefix:"GOOGLE_"`
	Github ProviderConfig `yaml:"github" env-prefix:"GITHUB_"`
}

// ProviderConfig — креды и callback одного OAuth-провайдера.
type ProviderConfig struct {
	ClientID     string `yaml:"client_id" env:"CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" env:"CLIENT_SECRET"`
	CallbackURL  string `yaml:"callback_url" env:"CALLBACK_URL"`
}

// Configured сообщает, достаточно ли настроек для включения провайдера.
func (p ProviderConfig) Configured() bool {
	return p.ClientID != "" && p.ClientSecret != ""
}

// EmailConfig — исходящая транзакционная почта (Brevo). Опциональна:
// при пустом APIKey письма не отправляются.
type EmailConfig struct {
	APIKey      string `yaml:"api_key" env:"BREVO_API_KEY"`
	SenderEmail string `yaml:"sender_email" env:"BREVO_SENDER_EMAIL" env-default:"noreply@chathub.local"`
	SenderName  string `yaml:"sender_name" env:"BREVO_SENDER_NAME" env-default:"ChatHub"`
}

// MustLoad — обёртка над Load с panic при ошибке.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

// Load загружает конфигурацию по приоритету:
// 1) явный путь; 2) CONFIG_PATH; 3) ./local.yaml; 4) ENV.
// ВАЖНО: после чтения файла накладываем ENV-переменные поверх значений из YAML.
func Load(path string) (*Config, error) {
	var cfg Config

	// чтение файла + overlay ENV.
	tryRead := func(p string) (*Config, error) {
		if p == "" {
			return nil, fmt.Errorf("empty config path")
		}

		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return &cfg, nil
	}

	// 1) Явный путь.
	if path != "" {
		return tryRead(path)
	}

	// 2) CONFIG_PATH.
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return tryRead(envPath)
	}

	// 3) ./local.yaml.
	if _, err := os.Stat("local.yaml"); err == nil {
		return tryRead("local.yaml")
	}

	// 4) Только ENV.
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	return &cfg, nil
}
