package ws

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/smolinaa/chathub-auth/internal/tokens"
	"github.com/smolinaa/chathub-auth/internal/transport/http/httperr"
)

// Handler принимает websocket-подключения.
// Токен проверяется ДО upgrade: неаутентифицированное рукопожатие
// получает обычный HTTP 401 и до протокола websocket не доходит.
type Handler struct {
	codec             *tokens.Codec
	hub               *Hub
	log               *slog.Logger
	clientURL         string
	allowUserIDHeader bool
	upgrader          websocket.Upgrader
}

// NewHandler создаёт websocket-хендлер поверх общего кодека токенов.
func NewHandler(codec *tokens.Codec, hub *Hub, logger *slog.Logger, clientURL string, allowUserIDHeader bool) *Handler {
	h := &Handler{
		codec:             codec,
		hub:               hub,
		log:               logger,
		clientURL:         clientURL,
		allowUserIDHeader: allowUserIDHeader,
	}

	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4 << 10,
		WriteBufferSize: 4 << 10,
		CheckOrigin:     h.checkOrigin,
	}

	return h
}

// checkOrigin разрешает рукопожатия без Origin (не-браузерные клиенты)
// и с Origin, совпадающим с URL клиентского приложения.
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	return origin == h.clientURL
}

// connectedData — полезная нагрузка приветственного события.
type connectedData struct {
	UserID      string    `json:"user_id"`
	DeviceID    string    `json:"device_id"`
	Name        string    `json:"name,omitempty"`
	Provider    string    `json:"provider"`
	ConnectedAt time.Time `json:"connected_at"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity, err := authenticate(h.codec, r, h.allowUserIDHeader)
	if err != nil {
		wsAuthRejects.Inc()
		httperr.WriteStatus(w, r, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
		return
	}

	// Если токен пришёл парой субпротоколов, подтверждаем клиенту "bearer".
	var header http.Header
	if protos := websocket.Subprotocols(r); len(protos) >= 2 && protos[0] == bearerSubprotocol {
		header = http.Header{"Sec-WebSocket-Protocol": {bearerSubprotocol}}
	}

	conn, err := h.upgrader.Upgrade(w, r, header)
	if err != nil {
		// Upgrade сам пишет ответ об ошибке.
		h.log.Warn("ws upgrade failed", slog.String("error", err.Error()))
		return
	}

	// Прочие устройства пользователя узнают о новом подключении
	// до его регистрации, чтобы не слать событие ему самому.
	h.hub.NotifyUser(identity.UserID, Event{
		Event: "device_connected",
		Data:  map[string]string{"device_id": identity.DeviceID},
	})

	client := newClient(identity, conn, h.log)
	h.hub.register(client)

	client.send <- Event{
		Event: "connected",
		Data: connectedData{
			UserID:      identity.UserID.String(),
			DeviceID:    identity.DeviceID,
			Name:        identity.Name,
			Provider:    identity.Provider,
			ConnectedAt: time.Now().UTC(),
		},
	}

	go client.writeLoop()
	client.readLoop(h.hub)
}
