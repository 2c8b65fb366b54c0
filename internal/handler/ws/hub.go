package ws

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"ucplatform-backend/pkg/env"
	"ucplatform-backend/pkg/logger"
	"ucplatform-backend/pkg/metrics"
)

// Hub maintains the per-user channel registry. Every connected session is
// registered under its user id; a user with several open tabs has several
// sessions and each receives every event addressed to the user.
type Hub struct {
	// Registered sessions per user
	users map[uuid.UUID]map[*Client]bool

	mu sync.RWMutex

	register   chan *Client
	unregister chan *Client

	dispatcher Dispatcher
	metrics    *metrics.Metrics

	// Invoked when a user's first session connects / last session closes
	OnConnect    func(userID uuid.UUID)
	OnDisconnect func(userID uuid.UUID)

	// Concurrency limit on open WebSocket connections
	maxConnections int
	semaphore      chan struct{}
}

// Event is the outbound wire envelope
type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			// Require explicit origin
			return false
		}
		for _, allowed := range allowedOrigins() {
			if origin == allowed {
				return true
			}
		}
		return false
	},
}

// NewHub creates a hub; call Run in a goroutine before serving connections
func NewHub(dispatcher Dispatcher, m *metrics.Metrics) *Hub {
	maxConns := env.GetInt("WS_MAX_CONNECTIONS", 1000)

	return &Hub{
		users:          make(map[uuid.UUID]map[*Client]bool),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		dispatcher:     dispatcher,
		metrics:        m,
		maxConnections: maxConns,
		semaphore:      make(chan struct{}, maxConns),
	}
}

// SetDispatcher installs the inbound message dispatcher. The hub is created
// before the services that consume it, so the dispatcher is bound late,
// before Run is started.
func (h *Hub) SetDispatcher(d Dispatcher) {
	h.dispatcher = d
}

// Run processes register/unregister requests. Broadcast paths take the
// read lock directly and do not pass through this loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			first := h.users[client.userID] == nil
			if first {
				h.users[client.userID] = make(map[*Client]bool)
			}
			h.users[client.userID][client] = true
			h.mu.Unlock()

			h.metrics.WebSocketConnected()

			if first && h.OnConnect != nil {
				h.OnConnect(client.userID)
			}

		case client := <-h.unregister:
			h.mu.Lock()
			last := false
			if sessions, ok := h.users[client.userID]; ok {
				if _, exists := sessions[client]; exists {
					delete(sessions, client)
					close(client.send)
					client.cancel()
					if len(sessions) == 0 {
						delete(h.users, client.userID)
						last = true
					}
				}
			}
			h.mu.Unlock()

			h.metrics.WebSocketDisconnected()

			if last && h.OnDisconnect != nil {
				h.OnDisconnect(client.userID)
			}
		}
	}
}

// SendToUser delivers an event to every open session of one user.
// Delivery is best effort and at most once per session; when the user has
// no session the event is dropped without error.
func (h *Hub) SendToUser(userID uuid.UUID, event string, data interface{}) bool {
	raw, err := json.Marshal(Event{Event: event, Data: data})
	if err != nil {
		logger.Error("failed to marshal event",
			zap.String("event", event),
			zap.Error(err))
		return false
	}

	h.mu.RLock()
	sessions, ok := h.users[userID]
	if !ok || len(sessions) == 0 {
		h.mu.RUnlock()
		h.metrics.RecordDroppedEvent()
		return false
	}

	var stale []*Client
	for client := range sessions {
		select {
		case client.send <- raw:
		default:
			// Slow consumer, drop the session rather than block delivery
			stale = append(stale, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range stale {
		client.conn.Close()
	}

	h.metrics.RecordEvent(event)
	return true
}

// BroadcastAll delivers an event to every connected user
func (h *Hub) BroadcastAll(event string, data interface{}) {
	raw, err := json.Marshal(Event{Event: event, Data: data})
	if err != nil {
		logger.Error("failed to marshal event",
			zap.String("event", event),
			zap.Error(err))
		return
	}

	h.mu.RLock()
	var stale []*Client
	for _, sessions := range h.users {
		for client := range sessions {
			select {
			case client.send <- raw:
			default:
				stale = append(stale, client)
			}
		}
	}
	h.mu.RUnlock()

	for _, client := range stale {
		client.conn.Close()
	}

	h.metrics.RecordEvent(event)
}

// IsConnected reports whether a user has at least one open session
func (h *Hub) IsConnected(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	sessions, ok := h.users[userID]
	return ok && len(sessions) > 0
}

// ConnectedUsers returns the ids of all users with an open session
func (h *Hub) ConnectedUsers() []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(h.users))
	for id := range h.users {
		ids = append(ids, id)
	}
	return ids
}

// ServeWS upgrades an authenticated HTTP request to a WebSocket session
func (h *Hub) ServeWS(c *gin.Context) {
	select {
	case h.semaphore <- struct{}{}:
	default:
		logger.Warn("WebSocket connection rejected: max connections reached",
			zap.Int("max_connections", h.maxConnections))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "server at capacity, please try again later"})
		return
	}

	userIDVal, exists := c.Get("user_id")
	if !exists {
		<-h.semaphore
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	userID, ok := userIDVal.(uuid.UUID)
	if !ok {
		<-h.semaphore
		c.JSON(http.StatusInternalServerError, gin.H{"error": "invalid user_id"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		<-h.semaphore
		logger.Warn("WebSocket upgrade failed",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return
	}

	client := newClient(h, conn, userID)
	h.register <- client

	go client.writePump()
	go client.readPump()
}

func allowedOrigins() []string {
	return []string{
		env.GetString("WS_ALLOWED_ORIGIN", "http://localhost:3000"),
		env.GetString("WS_ALLOWED_ORIGIN_ALT", "http://localhost:8080"),
	}
}
