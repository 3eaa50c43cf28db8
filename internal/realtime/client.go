package realtime

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // allow all origins in dev; restrict in production
	},
}

// Message is the WebSocket message envelope.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Identity is the authenticated principal extracted from the connect-time
// credential. The organization id here is the only trust path for room joins.
type Identity struct {
	UserID         uuid.UUID
	Email          string
	Role           string
	OrganizationID uuid.UUID
}

// Authenticator validates a bearer token and returns the caller's identity.
type Authenticator func(token string) (Identity, error)

// Client is a single live WebSocket connection.
type Client struct {
	ID       string
	Identity Identity

	// joined is the set of rooms this connection is a member of. Owned by the
	// hub and only touched under its mutex.
	joined map[uuid.UUID]bool

	hub    *Hub
	conn   *websocket.Conn
	send   chan Message
	logger *zap.Logger
}

// enqueue offers a message to the client's send buffer without blocking.
func (c *Client) enqueue(msg Message) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) sendEvent(event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	c.enqueue(Message{Event: event, Data: data})
}

// joinRequest is the client payload for join_organization and leave_organization.
type joinRequest struct {
	OrganizationID string `json:"organization_id"`
}

// ServeWs handles the WebSocket handshake and runs the connection loops.
//
// The credential is validated before the upgrade: a bad or missing token is
// refused with 401 and no connection object is ever created. A connection
// starts in no room; it must send a join_organization message, which is checked
// against the organization id embedded in its own token.
func ServeWs(hub *Hub, logger *zap.Logger, authenticate Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			// Browsers cannot set headers on WebSocket; header is a fallback
			// for non-browser clients.
			header := c.GetHeader("Authorization")
			if parts := strings.SplitN(header, " ", 2); len(parts) == 2 && parts[0] == "Bearer" {
				token = parts[1]
			}
		}
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token required"})
			return
		}
		identity, err := authenticate(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := &Client{
			ID:       uuid.New().String(),
			Identity: identity,
			joined:   make(map[uuid.UUID]bool),
			hub:      hub,
			conn:     conn,
			send:     make(chan Message, 256),
			logger:   logger,
		}
		client.sendEvent(EventConnectionEstablished, gin.H{})
		go client.writePump()
		client.readPump()
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(65536)
	_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			break
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))

		switch msg.Event {
		case "join_organization":
			c.handleJoin(msg.Data)
		case "leave_organization":
			c.handleLeave(msg.Data)
		default:
			// ignore
		}
	}
}

// handleJoin enforces single-tenant isolation: the requested room must match
// the organization id from the connection's own credential. The client-supplied
// id alone is never trusted.
func (c *Client) handleJoin(data json.RawMessage) {
	var req joinRequest
	if err := json.Unmarshal(data, &req); err != nil || req.OrganizationID == "" {
		c.sendEvent(EventError, gin.H{"message": "organization_id required"})
		return
	}
	orgID, err := uuid.Parse(req.OrganizationID)
	if err != nil {
		c.sendEvent(EventError, gin.H{"message": "invalid organization_id"})
		return
	}
	if orgID != c.Identity.OrganizationID {
		c.logger.Warn("cross-organization join refused",
			zap.String("connection_id", c.ID),
			zap.String("requested", orgID.String()),
			zap.String("own", c.Identity.OrganizationID.String()),
		)
		c.sendEvent(EventError, gin.H{"message": "Unauthorized: cannot join another organization's room"})
		return
	}
	c.hub.Join(c, orgID)
	c.sendEvent(EventJoinedOrganization, gin.H{"organization_id": orgID.String()})
}

func (c *Client) handleLeave(data json.RawMessage) {
	var req joinRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return
	}
	orgID, err := uuid.Parse(req.OrganizationID)
	if err != nil {
		return
	}
	c.hub.Leave(c, orgID)
}

func (c *Client) writePump() {
	ticker := time.NewTicker(PingInterval * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
