// Package websocket owns the chat gateway: authenticated long-lived
// connections, turn intake, and delivery of streamed events published for
// each connection over Redis pub/sub.
package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"tutoria-backend/internal/chat"
	"tutoria-backend/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type connection struct {
	id      string
	userID  string
	ws      *websocket.Conn
	writeMu sync.Mutex
	cancel  context.CancelFunc
}

// write serializes frame writes; the pub/sub forwarder and the intake loop
// share the connection.
func (c *connection) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

func (c *connection) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.write(data)
}

type Hub struct {
	mu          sync.RWMutex
	conns       map[string]*connection
	subClient   *redis.Client
	pubClient   *redis.Client
	jwtSecret   []byte
	coordinator *chat.Coordinator
	turnTimeout time.Duration
}

func NewHub(subClient, pubClient *redis.Client, jwtSecret string, coordinator *chat.Coordinator, turnTimeout time.Duration) *Hub {
	return &Hub{
		conns:       make(map[string]*connection),
		subClient:   subClient,
		pubClient:   pubClient,
		jwtSecret:   []byte(jwtSecret),
		coordinator: coordinator,
		turnTimeout: turnTimeout,
	}
}

// HandleWebSocket authenticates, upgrades, acknowledges with a connection
// id, then serves turns sequentially until the client disconnects.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticate(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	conn := &connection{
		id:     uuid.NewString(),
		userID: userID,
		ws:     ws,
	}
	h.register(conn)
	defer h.unregister(conn)

	if err := conn.writeJSON(models.Ack{Message: "connected", ConnectionID: conn.id}); err != nil {
		return
	}

	h.readLoop(conn)
}

func (h *Hub) authenticate(r *http.Request) (string, bool) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		return "", false
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return h.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return "", false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", false
	}
	userID, _ := claims["user_id"].(string)
	return userID, userID != ""
}

func (h *Hub) register(conn *connection) {
	ctx, cancel := context.WithCancel(context.Background())
	conn.cancel = cancel

	h.mu.Lock()
	h.conns[conn.id] = conn
	h.mu.Unlock()

	go h.forwardUpdates(ctx, conn)

	log.Printf("WebSocket connected: user %s conn %s", conn.userID, conn.id)
}

func (h *Hub) unregister(conn *connection) {
	h.mu.Lock()
	delete(h.conns, conn.id)
	h.mu.Unlock()

	conn.cancel()
	conn.ws.Close()

	log.Printf("WebSocket disconnected: user %s conn %s", conn.userID, conn.id)
}

// forwardUpdates relays events published for this connection to the socket.
// Publish order is preserved: one subscriber goroutine per connection.
func (h *Hub) forwardUpdates(ctx context.Context, conn *connection) {
	pubsub := h.subClient.Subscribe(ctx, chat.ConnUpdatesChannel(conn.id))
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.write([]byte(msg.Payload)); err != nil {
				return
			}
		}
	}
}

// readLoop handles inbound turn requests one at a time. The loop blocks on
// Handle, so a connection never has two turns in flight and event order
// across its turns is preserved.
func (h *Hub) readLoop(conn *connection) {
	for {
		_, data, err := conn.ws.ReadMessage()
		if err != nil {
			return
		}

		var req models.TurnRequest
		if err := json.Unmarshal(data, &req); err != nil {
			h.rejectInvalid(conn, "malformed request: "+err.Error())
			continue
		}
		if req.UserInput == "" {
			h.rejectInvalid(conn, "user_input is required")
			continue
		}
		// The authenticated identity wins over whatever the payload claims.
		req.UserID = conn.userID

		ctx, cancel := context.WithTimeout(context.Background(), h.turnTimeout)
		channel := chat.NewRedisChannel(h.pubClient, conn.id)
		if _, err := h.coordinator.Handle(ctx, req, channel); err != nil {
			log.Printf("turn failed: user %s conn %s: %v", conn.userID, conn.id, err)
		}
		cancel()
	}
}

// rejectInvalid reports a malformed request directly on the socket. Nothing
// was persisted, so no coordinator involvement.
func (h *Hub) rejectInvalid(conn *connection, reason string) {
	event := models.DeliveryEvent{Type: models.EventError, Error: reason}
	if err := conn.writeJSON(event); err != nil {
		log.Printf("failed to report invalid request: conn %s: %v", conn.id, err)
	}
}
