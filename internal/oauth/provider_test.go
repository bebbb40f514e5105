package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/smolinaa/chathub-auth/internal/config"
	"github.com/smolinaa/chathub-auth/internal/models"
)

// stubProvider — провайдер с endpoint'ами, указывающими на тестовые серверы:
// обмен кода и userinfo проходят без сети.
func stubProvider(t *testing.T, name models.Provider, userInfoBody string) *Provider {
	t.Helper()

	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"stub-token","token_type":"bearer"}`))
	}))
	t.Cleanup(tokenSrv.Close)

	userSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Contains(t, r.Header.Get("Authorization"), "stub-token")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(userInfoBody))
	}))
	t.Cleanup(userSrv.Close)

	return &Provider{
		name:        name,
		userInfoURL: userSrv.URL,
		cfg: &oauth2.Config{
			ClientID:     "test-client",
			ClientSecret: "test-secret",
			Endpoint: oauth2.Endpoint{
				AuthURL:   tokenSrv.URL + "/auth",
				TokenURL:  tokenSrv.URL + "/token",
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
	}
}

func TestFetchProfile_Google(t *testing.T) {
	t.Parallel()

	p := stubProvider(t, models.ProviderGoogle,
		`{"name":"Ann","email":"Ann@Example.com","picture":"https://avatars.example/ann.png"}`)

	profile, err := p.FetchProfile(context.Background(), "auth-code")
	require.NoError(t, err)

	require.Equal(t, models.ProviderGoogle, profile.Provider)
	require.Equal(t, "Ann", profile.Name)
	require.Equal(t, "Ann@Example.com", profile.Email)
	require.Equal(t, "https://avatars.example/ann.png", profile.Avatar)
}

func TestFetchProfile_Github(t *testing.T) {
	t.Parallel()

	p := stubProvider(t, models.ProviderGithub,
		`{"name":"Bo","login":"bo","email":"bo@corp.example","avatar_url":"https://avatars.example/bo.png"}`)

	profile, err := p.FetchProfile(context.Background(), "auth-code")
	require.NoError(t, err)

	require.Equal(t, models.ProviderGithub, profile.Provider)
	require.Equal(t, "Bo", profile.Name)
	require.Equal(t, "bo@corp.example", profile.Email)
}

func TestFetchProfile_Github_Fallbacks(t *testing.T) {
	t.Parallel()

	// GitHub скрывает email и не заполняет name: имя берётся из login,
	// email синтезируется устойчивым суффиксом.
	p := stubProvider(t, models.ProviderGithub,
		`{"name":"","login":"bo","email":null,"avatar_url":""}`)

	profile, err := p.FetchProfile(context.Background(), "auth-code")
	require.NoError(t, err)

	require.Equal(t, "bo", profile.Name)
	require.Equal(t, "bo@github-user.com", profile.Email)
}

func TestFetchProfile_UserInfoError(t *testing.T) {
	t.Parallel()

	p := stubProvider(t, models.ProviderGoogle, `{}`)

	failSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	t.Cleanup(failSrv.Close)
	p.SetUserInfoURL(failSrv.URL)

	_, err := p.FetchProfile(context.Background(), "auth-code")
	require.Error(t, err)
}

func TestAuthCodeURL_CarriesState(t *testing.T) {
	t.Parallel()

	p := NewGoogle(config.ProviderConfig{
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		CallbackURL:  "http://localhost:4000/oauth/google/callback",
	})

	u := p.AuthCodeURL("anti-csrf")
	require.Contains(t, u, "state=anti-csrf")
	require.Contains(t, u, "client_id=test-client")
}
