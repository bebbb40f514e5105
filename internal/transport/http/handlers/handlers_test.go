package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/smolinaa/chathub-auth/internal/config"
	"github.com/smolinaa/chathub-auth/internal/hasher"
	"github.com/smolinaa/chathub-auth/internal/models"
	"github.com/smolinaa/chathub-auth/internal/oauth"
	"github.com/smolinaa/chathub-auth/internal/service"
	"github.com/smolinaa/chathub-auth/internal/storage"
	"github.com/smolinaa/chathub-auth/internal/tokens"
	"github.com/smolinaa/chathub-auth/internal/transport/http/middleware"
	"github.com/smolinaa/chathub-auth/mocks"
)

const testClientURL = "http://client.local"

// memStore — стейтфул-поведение поверх MockStorage: карты в памяти
// с теми же гарантиями уникальности, что и у реального хранилища.
// Позволяет прогонять сквозные HTTP-сценарии без контейнера с БД.
type memStore struct {
	mu       sync.Mutex
	users    map[uuid.UUID]models.User
	sessions map[uuid.UUID]models.Session
}

func bindMemStore(st *mocks.MockStorage) *memStore {
	m := &memStore{
		users:    make(map[uuid.UUID]models.User),
		sessions: make(map[uuid.UUID]models.Session),
	}

	st.EXPECT().SaveUser(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, u *models.User) error {
			m.mu.Lock()
			defer m.mu.Unlock()
			for _, ex := range m.users {
				if (u.Email != "" && ex.Email == u.Email) ||
					(u.Phone != "" && ex.Phone == u.Phone) ||
					ex.Username == u.Username {
					return storage.ErrAlreadyExists
				}
			}
			m.users[u.ID] = *u
			return nil
		}).AnyTimes()

	st.EXPECT().UpdateUser(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, u *models.User) error {
			m.mu.Lock()
			defer m.mu.Unlock()
			if _, ok := m.users[u.ID]; !ok {
				return storage.ErrNotFound
			}
			for id, ex := range m.users {
				if id == u.ID {
					continue
				}
				if (u.Email != "" && ex.Email == u.Email) || (u.Phone != "" && ex.Phone == u.Phone) {
					return storage.ErrAlreadyExists
				}
			}
			m.users[u.ID] = *u
			return nil
		}).AnyTimes()

	st.EXPECT().UserByID(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, id uuid.UUID) (*models.User, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			if u, ok := m.users[id]; ok {
				u := u
				return &u, nil
			}
			return nil, storage.ErrNotFound
		}).AnyTimes()

	st.EXPECT().UserByEmail(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, email string) (*models.User, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			for _, u := range m.users {
				if u.Email != "" && u.Email == email {
					u := u
					return &u, nil
				}
			}
			return nil, storage.ErrNotFound
		}).AnyTimes()

	st.EXPECT().UserByUsername(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, username string) (*models.User, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			for _, u := range m.users {
				if u.Username == username {
					u := u
					return &u, nil
				}
			}
			return nil, storage.ErrNotFound
		}).AnyTimes()

	st.EXPECT().UserByEmailOrPhone(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, email, phone string) (*models.User, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			for _, u := range m.users {
				if (email != "" && u.Email == email) || (phone != "" && u.Phone == phone) {
					u := u
					return &u, nil
				}
			}
			return nil, storage.ErrNotFound
		}).AnyTimes()

	st.EXPECT().SaveSession(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, s *models.Session) error {
			m.mu.Lock()
			defer m.mu.Unlock()
			m.sessions[s.ID] = *s
			return nil
		}).AnyTimes()

	st.EXPECT().SessionsByUser(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, userID uuid.UUID) ([]models.Session, error) {
			m.mu.Lock()
			defer m.mu.Unlock()
			var out []models.Session
			for _, s := range m.sessions {
				if s.UserID == userID {
					out = append(out, s)
				}
			}
			return out, nil
		}).AnyTimes()

	st.EXPECT().DeleteSession(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, id uuid.UUID) error {
			m.mu.Lock()
			defer m.mu.Unlock()
			if _, ok := m.sessions[id]; !ok {
				return storage.ErrNotFound
			}
			delete(m.sessions, id)
			return nil
		}).AnyTimes()

	st.EXPECT().DeleteSessionsByUser(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, userID uuid.UUID) error {
			m.mu.Lock()
			defer m.mu.Unlock()
			for id, s := range m.sessions {
				if s.UserID == userID {
					delete(m.sessions, id)
				}
			}
			return nil
		}).AnyTimes()

	return m
}

type env struct {
	router http.Handler
	svc    *service.Service
	store  *memStore
}

func newEnv(t *testing.T) *env {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	st := mocks.NewMockStorage(ctrl)
	mem := bindMemStore(st)

	codec, err := tokens.New(config.AuthConfig{
		AccessSecret:    "handlers-access-secret",
		RefreshSecret:   "handlers-refresh-secret",
		AccessTokenTTL:  30 * time.Second,
		RefreshTokenTTL: 24 * time.Hour,
		Issuer:          "chathub-auth",
	})
	require.NoError(t, err)

	svc := service.New(st, codec, hasher.New(bcrypt.MinCost))
	h := New(svc, map[string]*oauth.Provider{}, testClientURL)

	r := chi.NewRouter()
	r.Post("/auth/register", h.Register)
	r.Post("/auth/login", h.Login)
	r.Post("/auth/refresh", h.Refresh)
	r.Post("/auth/logout", h.Logout)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(codec, false))
		r.Post("/oauth/verify-phone", h.VerifyPhone)
		r.Get("/users/me", h.Me)
	})

	return &env{router: r, svc: svc, store: mem}
}

func decodeJSON[T any](t *testing.T, body []byte) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(body, &out))

	return out
}
