// Package realtime delivers organization-scoped events to connected dashboards
// over WebSocket. Each organization has one room; a connection may only ever
// join the room matching the organization in its own credentials.
package realtime

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait (seconds) are used for heartbeat.
	PingInterval = 30
	PongWait     = 60
)

// Server-to-client event names.
const (
	EventConnectionEstablished = "connection_established"
	EventJoinedOrganization    = "joined_organization"
	EventError                 = "error"
	EventAppointmentCreated    = "appointment_created"
	EventAppointmentUpdated    = "appointment_updated"
	EventAppointmentDeleted    = "appointment_deleted"
)

// RoomPublisher publishes room events to a shared backend for cross-instance broadcast.
type RoomPublisher interface {
	PublishRoomEvent(orgID uuid.UUID, event string, payload []byte) error
}

// RoomSubscriber subscribes to a room's channel and invokes handler for incoming events.
type RoomSubscriber interface {
	SubscribeRoom(orgID uuid.UUID, handler func(event string, payload []byte)) (cancel func(), err error)
}

// Hub owns room membership: organization id -> set of live connections.
// It is an injected object, not a singleton, so tests can run independent
// instances. All membership mutation happens under mu; the local registry only
// holds connections this process accepted, with the pub/sub bridge carrying
// events to rooms held by other instances.
type Hub struct {
	rooms  map[uuid.UUID]map[string]*Client
	subs   map[uuid.UUID]func() // cancel pub/sub subscription per room
	mu     sync.RWMutex
	logger *zap.Logger
	pub    RoomPublisher
	sub    RoomSubscriber
}

// NewHub creates a hub. pub and sub may be nil for single-instance deployments.
func NewHub(logger *zap.Logger, pub RoomPublisher, sub RoomSubscriber) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		rooms:  make(map[uuid.UUID]map[string]*Client),
		subs:   make(map[uuid.UUID]func()),
		logger: logger,
		pub:    pub,
		sub:    sub,
	}
}

// Join adds a connection to an organization's room. Idempotent: re-joining the
// same room is a no-op for membership. The room is created on first join, and
// the cross-instance subscription starts with it.
func (h *Hub) Join(c *Client, orgID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[orgID] == nil {
		h.rooms[orgID] = make(map[string]*Client)
		if h.sub != nil {
			cancel, err := h.sub.SubscribeRoom(orgID, func(event string, payload []byte) {
				h.Broadcast(orgID, event, json.RawMessage(payload))
			})
			if err != nil {
				h.logger.Warn("room subscribe failed", zap.Error(err), zap.String("organization_id", orgID.String()))
			} else {
				h.subs[orgID] = cancel
			}
		}
	}
	if _, ok := h.rooms[orgID][c.ID]; ok {
		return
	}
	h.rooms[orgID][c.ID] = c
	c.joined[orgID] = true
	h.logger.Debug("connection joined room",
		zap.String("connection_id", c.ID),
		zap.String("organization_id", orgID.String()),
	)
}

// Leave removes a connection from a room. The room and its subscription are
// garbage-collected when the last member leaves.
func (h *Hub) Leave(c *Client, orgID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, orgID)
}

func (h *Hub) leaveLocked(c *Client, orgID uuid.UUID) {
	room, ok := h.rooms[orgID]
	if !ok {
		return
	}
	delete(room, c.ID)
	delete(c.joined, orgID)
	if len(room) == 0 {
		delete(h.rooms, orgID)
		if cancel, ok := h.subs[orgID]; ok {
			cancel()
			delete(h.subs, orgID)
		}
	}
}

// Unregister removes a connection from every room it belonged to. Called on
// disconnect; in-flight broadcasts to other members are unaffected.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for orgID := range c.joined {
		h.leaveLocked(c, orgID)
	}
	h.logger.Debug("connection unregistered", zap.String("connection_id", c.ID))
}

// RoomSize returns the number of connections this instance holds in a room.
func (h *Hub) RoomSize(orgID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[orgID])
}

// InRoom reports whether the connection is currently a member of the room.
func (h *Hub) InRoom(c *Client, orgID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.rooms[orgID]
	if !ok {
		return false
	}
	_, ok = room[c.ID]
	return ok
}

// Broadcast sends an event to every local member of the room, and only them.
// A member whose send buffer is full is skipped: delivery is at-most-once and
// never blocks the caller.
func (h *Hub) Broadcast(orgID uuid.UUID, event string, payload interface{}) {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			h.logger.Error("broadcast marshal failed", zap.Error(err), zap.String("event", event))
			return
		}
	}
	msg := Message{Event: event, Data: data}

	h.mu.RLock()
	room := h.rooms[orgID]
	members := make([]*Client, 0, len(room))
	for _, c := range room {
		members = append(members, c)
	}
	h.mu.RUnlock()

	for _, c := range members {
		if !c.enqueue(msg) {
			h.logger.Warn("dropping event for slow connection",
				zap.String("connection_id", c.ID),
				zap.String("event", event),
			)
		}
	}
}

// BroadcastAndPublish sends to local members and publishes to the shared
// backend so members held by other instances receive the event too. Publish
// failures are logged and never surfaced to the caller: the triggering write
// already committed and is not rolled back.
func (h *Hub) BroadcastAndPublish(orgID uuid.UUID, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("broadcast marshal failed", zap.Error(err), zap.String("event", event))
		return
	}
	h.Broadcast(orgID, event, json.RawMessage(data))
	if h.pub != nil {
		if err := h.pub.PublishRoomEvent(orgID, event, data); err != nil {
			h.logger.Warn("room publish failed", zap.Error(err), zap.String("organization_id", orgID.String()))
		}
	}
}
