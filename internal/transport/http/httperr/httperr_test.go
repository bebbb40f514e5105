package httperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/smolinaa/chathub-auth/internal/service"
	"github.com/smolinaa/chathub-auth/internal/tokens"
)

func TestToHTTP_Mapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"user_exists", service.ErrUserExists, http.StatusBadRequest, "duplicate_identity"},
		{"invalid_credentials", service.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
		{"invalid_token_service", service.ErrInvalidToken, http.StatusUnauthorized, "invalid_token"},
		{"invalid_token_codec", tokens.ErrInvalidToken, http.StatusUnauthorized, "invalid_token"},
		{"missing_token", service.ErrMissingToken, http.StatusBadRequest, "missing_token"},
		{"session_not_found", service.ErrSessionNotFound, http.StatusNotFound, "session_not_found"},
		{"user_not_found", service.ErrUserNotFound, http.StatusNotFound, "not_found"},
		{"missing_email", service.ErrMissingEmail, http.StatusBadRequest, "missing_email"},
		{"missing_phone", service.ErrMissingPhone, http.StatusBadRequest, "invalid_argument"},
		{"invalid_phone", service.ErrInvalidPhone, http.StatusBadRequest, "invalid_argument"},
		{"weak_password", service.ErrWeakPassword, http.StatusBadRequest, "invalid_argument"},
		{"unknown", errors.New("pq: connection refused"), http.StatusInternalServerError, "internal"},
		{"nil", nil, http.StatusInternalServerError, "internal"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			status, resp := ToHTTP(tc.err)
			require.Equal(t, tc.wantStatus, status)
			require.Equal(t, tc.wantCode, resp.Error.Code)
			require.NotEmpty(t, resp.Error.Message)
		})
	}
}

func TestToHTTP_WrappedSentinel(t *testing.T) {
	t.Parallel()

	// Сентинел распознаётся сквозь цепочку wrap и сообщение не содержит
	// внутренних деталей (op-контекста).
	wrapped := fmt.Errorf("service.auth.Login: %w", service.ErrInvalidCredentials)

	status, resp := ToHTTP(wrapped)
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, service.ErrInvalidCredentials.Error(), resp.Error.Message)
	require.NotContains(t, resp.Error.Message, "service.auth.Login")
}

func TestWriteError_JSONAndRequestID(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	r.Header.Set("X-Request-Id", "req-42")

	w := httptest.NewRecorder()
	WriteError(w, r, service.ErrInvalidCredentials)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "invalid_credentials", resp.Error.Code)
	require.Equal(t, "req-42", resp.Error.RequestID)
}

func TestWriteStatus(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodPost, "/auth/register", nil)
	w := httptest.NewRecorder()

	WriteStatus(w, r, http.StatusBadRequest, "invalid_argument", "invalid request body")

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "invalid_argument", resp.Error.Code)
	require.Equal(t, "invalid request body", resp.Error.Message)
	require.Empty(t, resp.Error.RequestID)
}
