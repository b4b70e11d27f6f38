package middleware

import (
	"fmt"
	"log"
	"net/http"
	"sync"

	"sentinel/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Configure properly for production
	},
}

type hubClient struct {
	conn      *websocket.Conn
	sessionID string
}

// Hub fans live prediction frames out to connected dashboards. Connections
// are keyed by session so a live monitor only reaches its own browser tabs.
type Hub struct {
	clients    map[*websocket.Conn]string
	broadcast  chan []byte
	direct     chan directMessage
	register   chan hubClient
	unregister chan *websocket.Conn
	mutex      sync.RWMutex
	logger     *utils.Logger
}

type directMessage struct {
	sessionID string
	payload   []byte
}

func NewHub(logger *utils.Logger) *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]string),
		broadcast:  make(chan []byte),
		direct:     make(chan directMessage, 16),
		register:   make(chan hubClient),
		unregister: make(chan *websocket.Conn),
		logger:     logger,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client.conn] = client.sessionID
			h.mutex.Unlock()
			h.logf("WebSocket client connected (session %s)", client.sessionID)

		case conn := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			h.mutex.Unlock()
			h.logf("WebSocket client disconnected")

		case message := <-h.broadcast:
			h.deliver(message, "")

		case msg := <-h.direct:
			h.deliver(msg.payload, msg.sessionID)
		}
	}
}

// deliver writes a payload to every matching connection; an empty session ID
// matches all. Dead connections are dropped afterwards under the write lock.
func (h *Hub) deliver(payload []byte, sessionID string) {
	var failed []*websocket.Conn

	h.mutex.RLock()
	for conn, sid := range h.clients {
		if sessionID != "" && sid != sessionID {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.logf("WebSocket write error: %v", err)
			failed = append(failed, conn)
		}
	}
	h.mutex.RUnlock()

	if len(failed) == 0 {
		return
	}
	h.mutex.Lock()
	for _, conn := range failed {
		if _, ok := h.clients[conn]; ok {
			delete(h.clients, conn)
			conn.Close()
		}
	}
	h.mutex.Unlock()
}

// Broadcast delivers a message to every connected client.
func (h *Hub) Broadcast(message []byte) {
	h.broadcast <- message
}

// SendToSession delivers a message to every connection owned by a session.
// Non-blocking: frames for a hub that has fallen behind are dropped rather
// than stalling the live monitor.
func (h *Hub) SendToSession(sessionID string, payload []byte) {
	select {
	case h.direct <- directMessage{sessionID: sessionID, payload: payload}:
	default:
		h.logf("WebSocket hub backlogged; dropping frame for session %s", sessionID)
	}
}

func (h *Hub) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// HandleWebSocket upgrades the request and attaches the connection to the
// caller's session. Requires EnsureSession earlier in the chain.
func (h *Hub) HandleWebSocket() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := SessionID(c)
		if sessionID == "" {
			c.JSON(http.StatusForbidden, gin.H{"error": "no session"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			h.logf("WebSocket upgrade error: %v", err)
			return
		}

		h.register <- hubClient{conn: conn, sessionID: sessionID}

		defer func() {
			h.unregister <- conn
		}()

		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					h.logf("WebSocket error: %v", err)
				}
				break
			}
		}
	}
}

func (h *Hub) logf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if h.logger != nil {
		h.logger.Write(msg)
		return
	}
	log.Println(msg)
}
