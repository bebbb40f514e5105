package mongo

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/smolinaa/chathub-auth/internal/models"
	"github.com/smolinaa/chathub-auth/internal/storage"
)

// Интеграционные тесты mongo-хранилища:
// — поднимают реальный MongoDB через testcontainers-go (образ mongo:7);
// — проверяют:
//    SaveUser/UserBy*: round-trip, ErrNotFound, уникальность email/phone/username;
//    UserByEmailOrPhone: поиск по каждому ключу отдельно, пустые аргументы;
//    UpdateUser: замена документа, конфликт уникальности, ErrNotFound;
//    Save/Get/Delete для сессий, изоляция по user_id.

// Запуск локально:
//   GO_TEST_INTEGRATION=1 go test ./internal/storage/mongo -v -race -count=1

// startMongo — поднимает MongoDB через testcontainers-go и возвращает
// инициализированное хранилище с функцией очистки.
// Если переменная окружения GO_TEST_INTEGRATION не установлена — тест пропускается.
func startMongo(t *testing.T) (*Mongo, func()) {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(60 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)

	host, _ := c.Host(ctx)
	port, _ := c.MappedPort(ctx, "27017/tcp")
	uri := fmt.Sprintf("mongodb://%s:%s/chathub_test", host, port.Port())

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	st, err := New(connectCtx, uri)
	require.NoError(t, err)

	cleanup := func() {
		_ = st.Close(context.Background())
		_ = c.Terminate(context.Background())
	}
	return st, cleanup
}

func testUser(email, phone, username string) *models.User {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &models.User{
		ID:            uuid.New(),
		Name:          "Test User",
		Username:      username,
		Email:         email,
		Phone:         phone,
		PhoneVerified: phone != "",
		PasswordHash:  "$2a$10$hash",
		Provider:      models.ProviderLocal,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestIntegration_Users_SaveAndLookup(t *testing.T) {
	st, cleanup := startMongo(t)
	defer cleanup()

	ctx := context.Background()
	user := testUser("ann@example.com", "5550001111", "ann")

	require.NoError(t, st.SaveUser(ctx, user))

	byID, err := st.UserByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, user.Username, byID.Username)
	require.Equal(t, user.Email, byID.Email)
	require.True(t, byID.PhoneVerified)
	require.WithinDuration(t, user.CreatedAt, byID.CreatedAt, time.Second)

	byEmail, err := st.UserByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	require.Equal(t, user.ID, byEmail.ID)

	byUsername, err := st.UserByUsername(ctx, "ann")
	require.NoError(t, err)
	require.Equal(t, user.ID, byUsername.ID)

	_, err = st.UserByID(ctx, uuid.New())
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = st.UserByEmail(ctx, "ghost@example.com")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIntegration_Users_UniqueIndexes(t *testing.T) {
	st, cleanup := startMongo(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, st.SaveUser(ctx, testUser("ann@example.com", "5550001111", "ann")))

	// Дубликат email.
	err := st.SaveUser(ctx, testUser("ann@example.com", "5550002222", "ann2"))
	require.ErrorIs(t, err, storage.ErrAlreadyExists)

	// Дубликат phone.
	err = st.SaveUser(ctx, testUser("other@example.com", "5550001111", "ann3"))
	require.ErrorIs(t, err, storage.ErrAlreadyExists)

	// Дубликат username.
	err = st.SaveUser(ctx, testUser("third@example.com", "5550003333", "ann"))
	require.ErrorIs(t, err, storage.ErrAlreadyExists)

	// Sparse-уникальность: несколько пользователей без email/phone допустимы.
	require.NoError(t, st.SaveUser(ctx, testUser("", "", "oauth_one")))
	require.NoError(t, st.SaveUser(ctx, testUser("", "", "oauth_two")))
}

func TestIntegration_Users_ByEmailOrPhone(t *testing.T) {
	st, cleanup := startMongo(t)
	defer cleanup()

	ctx := context.Background()
	user := testUser("ann@example.com", "5550001111", "ann")
	require.NoError(t, st.SaveUser(ctx, user))

	byEmail, err := st.UserByEmailOrPhone(ctx, "ann@example.com", "")
	require.NoError(t, err)
	require.Equal(t, user.ID, byEmail.ID)

	byPhone, err := st.UserByEmailOrPhone(ctx, "", "5550001111")
	require.NoError(t, err)
	require.Equal(t, user.ID, byPhone.ID)

	_, err = st.UserByEmailOrPhone(ctx, "ghost@example.com", "5559999999")
	require.ErrorIs(t, err, storage.ErrNotFound)

	// Оба аргумента пустые — осмысленного фильтра нет.
	_, err = st.UserByEmailOrPhone(ctx, "", "")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIntegration_Users_Update(t *testing.T) {
	st, cleanup := startMongo(t)
	defer cleanup()

	ctx := context.Background()
	user := testUser("ann@example.com", "", "ann")
	require.NoError(t, st.SaveUser(ctx, user))

	user.Phone = "5550001111"
	user.PhoneVerified = true
	user.Avatar = "https://avatars.example/ann.png"
	require.NoError(t, st.UpdateUser(ctx, user))

	got, err := st.UserByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, "5550001111", got.Phone)
	require.True(t, got.PhoneVerified)
	require.Equal(t, "https://avatars.example/ann.png", got.Avatar)

	// Конфликт уникальности при обновлении.
	other := testUser("bo@example.com", "5550002222", "bo")
	require.NoError(t, st.SaveUser(ctx, other))

	other.Phone = "5550001111"
	require.ErrorIs(t, st.UpdateUser(ctx, other), storage.ErrAlreadyExists)

	// Обновление несуществующего документа.
	ghost := testUser("ghost@example.com", "5550004444", "ghost")
	require.ErrorIs(t, st.UpdateUser(ctx, ghost), storage.ErrNotFound)
}

func TestIntegration_Sessions_CRUD(t *testing.T) {
	st, cleanup := startMongo(t)
	defer cleanup()

	ctx := context.Background()
	userID := uuid.New()
	otherID := uuid.New()

	mkSession := func(uid uuid.UUID, label string) *models.Session {
		return &models.Session{
			ID:          uuid.New(),
			UserID:      uid,
			TokenHash:   "$2a$10$" + label,
			ExpiresAt:   time.Now().UTC().Add(24 * time.Hour).Truncate(time.Millisecond),
			DeviceLabel: label,
			CreatedAt:   time.Now().UTC().Truncate(time.Millisecond),
		}
	}

	s1 := mkSession(userID, "login")
	s2 := mkSession(userID, "signup")
	s3 := mkSession(otherID, "login")

	require.NoError(t, st.SaveSession(ctx, s1))
	require.NoError(t, st.SaveSession(ctx, s2))
	require.NoError(t, st.SaveSession(ctx, s3))

	// Выборка изолирована по user_id.
	sessions, err := st.SessionsByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	labels := map[string]bool{}
	for _, s := range sessions {
		require.Equal(t, userID, s.UserID)
		labels[s.DeviceLabel] = true
	}
	require.True(t, labels["login"] && labels["signup"])

	// Удаление одной записи.
	require.NoError(t, st.DeleteSession(ctx, s1.ID))
	require.ErrorIs(t, st.DeleteSession(ctx, s1.ID), storage.ErrNotFound)

	sessions, err = st.SessionsByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	// Полная зачистка пользователя не трогает чужие записи.
	require.NoError(t, st.DeleteSessionsByUser(ctx, userID))

	sessions, err = st.SessionsByUser(ctx, userID)
	require.NoError(t, err)
	require.Empty(t, sessions)

	foreign, err := st.SessionsByUser(ctx, otherID)
	require.NoError(t, err)
	require.Len(t, foreign, 1)
}

func TestDatabaseFromURI(t *testing.T) {
	t.Parallel()

	require.Equal(t, "chathub_test", databaseFromURI("mongodb://localhost:27017/chathub_test"))
	require.Equal(t, defaultDBName, databaseFromURI("mongodb://localhost:27017"))
	require.Equal(t, defaultDBName, databaseFromURI("mongodb://localhost:27017/"))
}
