package realtime

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newWsServer starts a test server whose authenticator accepts "token-<org>"
// for the two fixed organizations and rejects everything else.
func newWsServer(t *testing.T, hub *Hub, org1, org2 uuid.UUID) *httptest.Server {
	t.Helper()
	authenticate := func(token string) (Identity, error) {
		switch token {
		case "token-org1":
			return Identity{UserID: uuid.New(), Role: "admin", OrganizationID: org1}, nil
		case "token-org2":
			return Identity{UserID: uuid.New(), Role: "admin", OrganizationID: org2}, nil
		}
		return Identity{}, errors.New("invalid token")
	}
	router := gin.New()
	router.GET("/ws", ServeWs(hub, zap.NewNop(), authenticate))
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func dialWs(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read event: %v", err)
	}
	return msg
}

func expectNoEvent(t *testing.T, conn *websocket.Conn, wait time.Duration) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(wait))
	var msg Message
	err := conn.ReadJSON(&msg)
	if err == nil {
		t.Fatalf("unexpected event %q", msg.Event)
	}
	var netErr interface{ Timeout() bool }
	if !errors.As(err, &netErr) || !netErr.Timeout() {
		t.Fatalf("expected read timeout, got %v", err)
	}
}

func sendJoin(t *testing.T, conn *websocket.Conn, orgID uuid.UUID) {
	t.Helper()
	data, _ := json.Marshal(map[string]string{"organization_id": orgID.String()})
	if err := conn.WriteJSON(Message{Event: "join_organization", Data: data}); err != nil {
		t.Fatalf("write join: %v", err)
	}
}

func waitForRoomSize(t *testing.T, hub *Hub, orgID uuid.UUID, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.RoomSize(orgID) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("RoomSize(%s) = %d, want %d", orgID, hub.RoomSize(orgID), want)
}

func TestConnectRejectsInvalidToken(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)
	srv := newWsServer(t, hub, uuid.New(), uuid.New())

	for _, token := range []string{"", "bogus"} {
		url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
		if token != "" {
			url += "?token=" + token
		}
		conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
		if err == nil {
			conn.Close()
			t.Fatalf("dial with token %q succeeded, want refusal", token)
		}
		if resp == nil || resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("token %q: status = %v, want 401", token, resp)
		}
	}
}

func TestConnectEstablishedThenJoinOwnOrganization(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)
	org1, org2 := uuid.New(), uuid.New()
	srv := newWsServer(t, hub, org1, org2)

	conn := dialWs(t, srv, "token-org1")

	if msg := readEvent(t, conn); msg.Event != EventConnectionEstablished {
		t.Fatalf("first event = %q, want %q", msg.Event, EventConnectionEstablished)
	}
	if hub.RoomSize(org1) != 0 {
		t.Fatal("connection must start in no room")
	}

	sendJoin(t, conn, org1)
	msg := readEvent(t, conn)
	if msg.Event != EventJoinedOrganization {
		t.Fatalf("join ack = %q, want %q", msg.Event, EventJoinedOrganization)
	}
	var ack struct {
		OrganizationID string `json:"organization_id"`
	}
	if err := json.Unmarshal(msg.Data, &ack); err != nil || ack.OrganizationID != org1.String() {
		t.Fatalf("join ack payload = %s", msg.Data)
	}
	waitForRoomSize(t, hub, org1, 1)
}

func TestCrossOrganizationJoinRefused(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)
	org1, org2 := uuid.New(), uuid.New()
	srv := newWsServer(t, hub, org1, org2)

	conn := dialWs(t, srv, "token-org1")
	readEvent(t, conn) // connection_established

	sendJoin(t, conn, org1)
	readEvent(t, conn) // joined_organization

	sendJoin(t, conn, org2)
	msg := readEvent(t, conn)
	if msg.Event != EventError {
		t.Fatalf("cross-org join produced %q, want %q", msg.Event, EventError)
	}
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(msg.Data, &payload); err != nil || !strings.HasPrefix(payload.Message, "Unauthorized") {
		t.Fatalf("error payload = %s", msg.Data)
	}
	if hub.RoomSize(org2) != 0 {
		t.Fatal("connection must never be added to the other organization's room")
	}
	waitForRoomSize(t, hub, org1, 1) // still only in its own room
}

func TestBroadcastIsolationBetweenOrganizations(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)
	org1, org2 := uuid.New(), uuid.New()
	srv := newWsServer(t, hub, org1, org2)

	conn1 := dialWs(t, srv, "token-org1")
	readEvent(t, conn1)
	sendJoin(t, conn1, org1)
	readEvent(t, conn1)

	conn2 := dialWs(t, srv, "token-org2")
	readEvent(t, conn2)
	sendJoin(t, conn2, org2)
	readEvent(t, conn2)

	waitForRoomSize(t, hub, org1, 1)
	waitForRoomSize(t, hub, org2, 1)

	hub.BroadcastAndPublish(org1, EventAppointmentCreated, map[string]string{"id": "apt-1"})

	msg := readEvent(t, conn1)
	if msg.Event != EventAppointmentCreated {
		t.Fatalf("org1 connection got %q, want %q", msg.Event, EventAppointmentCreated)
	}
	expectNoEvent(t, conn2, 300*time.Millisecond)
}

func TestDisconnectRemovesMembership(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)
	org1, org2 := uuid.New(), uuid.New()
	srv := newWsServer(t, hub, org1, org2)

	conn := dialWs(t, srv, "token-org1")
	readEvent(t, conn)
	sendJoin(t, conn, org1)
	readEvent(t, conn)
	waitForRoomSize(t, hub, org1, 1)

	conn.Close()
	waitForRoomSize(t, hub, org1, 0)

	// Broadcast to the now-empty room must not panic and reaches nobody.
	hub.BroadcastAndPublish(org1, EventAppointmentDeleted, map[string]string{"appointment_id": "apt-1"})
}
