package ws

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait — дедлайн на одну запись в сокет.
	writeWait = 10 * time.Second

	// pongWait — максимум тишины от клиента до принудительного закрытия.
	pongWait = 60 * time.Second

	// pingPeriod — период серверных ping'ов; обязан быть меньше pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize — лимит на входящее сообщение.
	maxMessageSize = 4 << 10
)

// Event — конверт realtime-события.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Client — одно живое websocket-подключение с проверенной Identity.
type Client struct {
	identity Identity
	conn     *websocket.Conn
	send     chan Event
	log      *slog.Logger
}

func newClient(identity Identity, conn *websocket.Conn, logger *slog.Logger) *Client {
	return &Client{
		identity: identity,
		conn:     conn,
		send:     make(chan Event, 16),
		log: logger.With(
			slog.String("user_id", identity.UserID.String()),
			slog.String("device_id", identity.DeviceID),
		),
	}
}

// readLoop читает входящие события до разрыва соединения.
// Единственное обрабатываемое событие — ping (ответ pong); остальное
// транспорт игнорирует: маршрутизация сообщений — забота других сервисов.
func (c *Client) readLoop(hub *Hub) {
	defer func() {
		hub.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var in Event
		if err := c.conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("ws read failed", slog.String("error", err.Error()))
			}

			return
		}

		if in.Event == "ping" {
			select {
			case c.send <- Event{Event: "pong"}:
			default:
			}
		}
	}
}

// writeLoop сериализует все записи в сокет: события из очереди и ping'и.
func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(event); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
