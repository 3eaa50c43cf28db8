package realtime

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func newTestClient() *Client {
	return &Client{
		ID:     uuid.New().String(),
		joined: make(map[uuid.UUID]bool),
		send:   make(chan Message, 16),
	}
}

func drain(c *Client) []Message {
	var msgs []Message
	for {
		select {
		case m := <-c.send:
			msgs = append(msgs, m)
		default:
			return msgs
		}
	}
}

func TestJoinIsIdempotent(t *testing.T) {
	h := NewHub(zap.NewNop(), nil, nil)
	c := newTestClient()
	org := uuid.New()

	h.Join(c, org)
	h.Join(c, org)
	h.Join(c, org)

	if got := h.RoomSize(org); got != 1 {
		t.Fatalf("RoomSize = %d, want 1", got)
	}
	if !h.InRoom(c, org) {
		t.Fatal("connection should be a room member")
	}
}

func TestLeaveCollectsEmptyRoom(t *testing.T) {
	h := NewHub(zap.NewNop(), nil, nil)
	c := newTestClient()
	org := uuid.New()

	h.Join(c, org)
	h.Leave(c, org)

	if got := h.RoomSize(org); got != 0 {
		t.Fatalf("RoomSize = %d, want 0", got)
	}
	if h.InRoom(c, org) {
		t.Fatal("connection should not be a room member after leave")
	}
	// Leaving a room it never joined is a no-op.
	h.Leave(c, uuid.New())
}

func TestUnregisterRemovesFromEveryRoom(t *testing.T) {
	h := NewHub(zap.NewNop(), nil, nil)
	c := newTestClient()
	org := uuid.New()

	h.Join(c, org)
	h.Unregister(c)

	if got := h.RoomSize(org); got != 0 {
		t.Fatalf("RoomSize = %d, want 0", got)
	}

	h.Broadcast(org, EventAppointmentCreated, map[string]string{"id": "x"})
	if msgs := drain(c); len(msgs) != 0 {
		t.Fatalf("unregistered connection received %d messages", len(msgs))
	}
}

func TestBroadcastReachesOwnRoomOnly(t *testing.T) {
	h := NewHub(zap.NewNop(), nil, nil)
	org1, org2 := uuid.New(), uuid.New()
	c1, c2 := newTestClient(), newTestClient()
	h.Join(c1, org1)
	h.Join(c2, org2)

	h.Broadcast(org1, EventAppointmentCreated, map[string]string{"id": "a"})

	got1 := drain(c1)
	if len(got1) != 1 || got1[0].Event != EventAppointmentCreated {
		t.Fatalf("org1 member got %v, want one %s", got1, EventAppointmentCreated)
	}
	if got2 := drain(c2); len(got2) != 0 {
		t.Fatalf("org2 member received %d messages from org1 broadcast", len(got2))
	}
}

func TestBroadcastSkipsSlowConnection(t *testing.T) {
	h := NewHub(zap.NewNop(), nil, nil)
	org := uuid.New()
	slow := &Client{ID: "slow", joined: make(map[uuid.UUID]bool), send: make(chan Message, 1)}
	h.Join(slow, org)

	// Fill the buffer, then broadcast twice more; must not block or panic.
	h.Broadcast(org, EventAppointmentUpdated, map[string]int{"n": 1})
	h.Broadcast(org, EventAppointmentUpdated, map[string]int{"n": 2})
	h.Broadcast(org, EventAppointmentUpdated, map[string]int{"n": 3})

	if msgs := drain(slow); len(msgs) != 1 {
		t.Fatalf("slow connection buffered %d messages, want 1", len(msgs))
	}
}

func TestConcurrentMembershipMutation(t *testing.T) {
	h := NewHub(zap.NewNop(), nil, nil)
	org := uuid.New()

	var wg sync.WaitGroup
	clients := make([]*Client, 50)
	for i := range clients {
		clients[i] = newTestClient()
	}
	for _, c := range clients {
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			h.Join(c, org)
			h.Join(c, org)
			h.Broadcast(org, EventAppointmentCreated, map[string]string{"id": c.ID})
		}(c)
	}
	wg.Wait()

	if got := h.RoomSize(org); got != len(clients) {
		t.Fatalf("RoomSize = %d, want %d", got, len(clients))
	}

	for _, c := range clients {
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			h.Unregister(c)
		}(c)
	}
	wg.Wait()

	if got := h.RoomSize(org); got != 0 {
		t.Fatalf("RoomSize after unregister = %d, want 0", got)
	}
}

type fakeBridge struct {
	mu        sync.Mutex
	published []string
	subs      int
	cancels   int
}

func (f *fakeBridge) PublishRoomEvent(orgID uuid.UUID, event string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, event)
	return nil
}

func (f *fakeBridge) SubscribeRoom(orgID uuid.UUID, handler func(event string, payload []byte)) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs++
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.cancels++
	}, nil
}

func TestBroadcastAndPublishUsesBridge(t *testing.T) {
	bridge := &fakeBridge{}
	h := NewHub(zap.NewNop(), bridge, bridge)
	c := newTestClient()
	org := uuid.New()

	h.Join(c, org)
	h.BroadcastAndPublish(org, EventAppointmentDeleted, map[string]string{"appointment_id": "x"})

	bridge.mu.Lock()
	published := len(bridge.published)
	subs := bridge.subs
	bridge.mu.Unlock()
	if published != 1 {
		t.Fatalf("published %d events, want 1", published)
	}
	if subs != 1 {
		t.Fatalf("room subscriptions = %d, want 1", subs)
	}
	if msgs := drain(c); len(msgs) != 1 {
		t.Fatalf("local member got %d messages, want 1", len(msgs))
	}

	// Last member leaving cancels the room subscription.
	h.Unregister(c)
	bridge.mu.Lock()
	cancels := bridge.cancels
	bridge.mu.Unlock()
	if cancels != 1 {
		t.Fatalf("subscription cancels = %d, want 1", cancels)
	}
}
