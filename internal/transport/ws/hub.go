package ws

import (
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// wsActiveConnections — текущее число живых websocket-подключений.
var wsActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "auth_ws_active_connections",
	Help: "Currently open websocket connections.",
})

// Hub ведёт реестр живых подключений, сгруппированных по пользователю.
// Один пользователь может держать несколько подключений (по устройству).
// Все методы потокобезопасны.
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]map[*Client]struct{}
}

// NewHub создаёт пустой реестр подключений.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[uuid.UUID]map[*Client]struct{}),
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.identity.UserID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.identity.UserID] = set
	}
	set[c] = struct{}{}

	wsActiveConnections.Inc()
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.identity.UserID]
	if !ok {
		return
	}

	if _, ok := set[c]; !ok {
		return
	}

	// Канал закрывается под мьютексом: NotifyUser берёт тот же мьютекс,
	// поэтому отправка в закрытый канал исключена.
	close(c.send)
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.identity.UserID)
	}

	wsActiveConnections.Dec()
}

// Connections возвращает число живых подключений пользователя.
func (h *Hub) Connections(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients[userID])
}

// NotifyUser отправляет событие во все подключения пользователя.
// Подключения с переполненной очередью отправки пропускаются: медленный
// клиент не должен блокировать рассылку остальным.
func (h *Hub) NotifyUser(userID uuid.UUID, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients[userID] {
		select {
		case c.send <- event:
		default:
		}
	}
}
