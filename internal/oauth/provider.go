// oauth выполняет внешний OAuth2-обмен с провайдерами идентичности
// (Google, GitHub) и отдаёт сервису проверенный профиль.
// Сам протокольный обмен — внешний коллаборатор ядра: пакет не знает
// ни о токенах сервиса, ни о хранилище.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"

	"github.com/smolinaa/chathub-auth/internal/config"
	"github.com/smolinaa/chathub-auth/internal/models"
)

const (
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	githubUserInfoURL = "https://api.github.com/user"
)

// Provider — один внешний провайдер идентичности.
type Provider struct {
	name        models.Provider
	cfg         *oauth2.Config
	userInfoURL string
}

// NewGoogle создаёт провайдера Google OAuth2.
func NewGoogle(pc config.ProviderConfig) *Provider {
	return &Provider{
		name:        models.ProviderGoogle,
		userInfoURL: googleUserInfoURL,
		cfg: &oauth2.Config{
			ClientID:     pc.ClientID,
			ClientSecret: pc.ClientSecret,
			RedirectURL:  pc.CallbackURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
	}
}

// NewGithub создаёт провайдера GitHub OAuth2.
func NewGithub(pc config.ProviderConfig) *Provider {
	return &Provider{
		name:        models.ProviderGithub,
		userInfoURL: githubUserInfoURL,
		cfg: &oauth2.Config{
			ClientID:     pc.ClientID,
			ClientSecret: pc.ClientSecret,
			RedirectURL:  pc.CallbackURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
	}
}

// Name возвращает тег провайдера.
func (p *Provider) Name() models.Provider { return p.name }

// SetUserInfoURL переопределяет endpoint userinfo (для тестов).
func (p *Provider) SetUserInfoURL(u string) { p.userInfoURL = u }

// AuthCodeURL возвращает URL авторизации провайдера с anti-CSRF state.
func (p *Provider) AuthCodeURL(state string) string {
	return p.cfg.AuthCodeURL(state)
}

// FetchProfile обменивает authorization code на токен провайдера и
// забирает профиль пользователя через userinfo endpoint.
func (p *Provider) FetchProfile(ctx context.Context, code string) (models.OAuthProfile, error) {
	const op = "oauth.FetchProfile"

	token, err := p.cfg.Exchange(ctx, code)
	if err != nil {
		return models.OAuthProfile{}, fmt.Errorf("%s: code exchange: %w", op, err)
	}

	data, err := p.getUserData(ctx, token)
	if err != nil {
		return models.OAuthProfile{}, fmt.Errorf("%s: %w", op, err)
	}

	profile, err := p.parseProfile(data)
	if err != nil {
		return models.OAuthProfile{}, fmt.Errorf("%s: %w", op, err)
	}

	return profile, nil
}

func (p *Provider) getUserData(ctx context.Context, token *oauth2.Token) ([]byte, error) {
	client := p.cfg.Client(ctx, token)

	resp, err := client.Get(p.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("userinfo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("userinfo read: %w", err)
	}

	return data, nil
}

// googleUser — поля ответа Google userinfo v2.
type googleUser struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

// githubUser — поля ответа GitHub /user. Email может быть скрыт (null).
type githubUser struct {
	Name      string `json:"name"`
	Login     string `json:"login"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

func (p *Provider) parseProfile(data []byte) (models.OAuthProfile, error) {
	switch p.name {
	case models.ProviderGoogle:
		var u googleUser
		if err := json.Unmarshal(data, &u); err != nil {
			return models.OAuthProfile{}, fmt.Errorf("parse google profile: %w", err)
		}

		return models.OAuthProfile{
			Name:     u.Name,
			Email:    u.Email,
			Avatar:   u.Picture,
			Provider: models.ProviderGoogle,
		}, nil

	case models.ProviderGithub:
		var u githubUser
		if err := json.Unmarshal(data, &u); err != nil {
			return models.OAuthProfile{}, fmt.Errorf("parse github profile: %w", err)
		}

		name := u.Name
		if strings.TrimSpace(name) == "" {
			name = u.Login
		}

		// GitHub может скрывать email; синтезируем устойчивый fallback
		// из логина, чтобы унификация по email оставалась возможной.
		email := u.Email
		if strings.TrimSpace(email) == "" && u.Login != "" {
			email = u.Login + "@github-user.com"
		}

		return models.OAuthProfile{
			Name:     name,
			Email:    email,
			Avatar:   u.AvatarURL,
			Provider: models.ProviderGithub,
		}, nil

	default:
		return models.OAuthProfile{}, fmt.Errorf("unknown provider %q", p.name)
	}
}
