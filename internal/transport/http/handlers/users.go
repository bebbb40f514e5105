package handlers

import (
	"net/http"

	"github.com/smolinaa/chathub-auth/internal/transport/http/httperr"
	"github.com/smolinaa/chathub-auth/internal/transport/http/middleware"
)

// Me — GET /users/me. Возвращает профиль аутентифицированного пользователя.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFrom(r.Context())
	if !ok {
		httperr.WriteStatus(w, r, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	user, err := h.svc.UserByID(r.Context(), userID)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}
