package appointments

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/aura-booking/backend/internal/models"
	"github.com/aura-booking/backend/internal/realtime"
	"github.com/aura-booking/backend/pkg/queue"
)

func TestOverlaps(t *testing.T) {
	base := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	at := func(m int) time.Time { return base.Add(time.Duration(m) * time.Minute) }

	cases := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd time.Time
		want                       bool
	}{
		{"identical", at(0), at(30), at(0), at(30), true},
		{"contained", at(0), at(60), at(15), at(30), true},
		{"partial front", at(0), at(30), at(15), at(45), true},
		{"partial back", at(15), at(45), at(0), at(30), true},
		{"back to back", at(0), at(30), at(30), at(60), false},
		{"disjoint", at(0), at(30), at(60), at(90), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := overlaps(tc.aStart, tc.aEnd, tc.bStart, tc.bEnd); got != tc.want {
				t.Errorf("overlaps = %v, want %v", got, tc.want)
			}
			// Overlap is symmetric.
			if got := overlaps(tc.bStart, tc.bEnd, tc.aStart, tc.aEnd); got != tc.want {
				t.Errorf("overlaps (swapped) = %v, want %v", got, tc.want)
			}
		})
	}
}

type fakeHub struct {
	orgID   uuid.UUID
	event   string
	payload interface{}
	called  int
}

func (f *fakeHub) BroadcastAndPublish(orgID uuid.UUID, event string, payload interface{}) {
	f.orgID = orgID
	f.event = event
	f.payload = payload
	f.called++
}

type fakeQueue struct {
	payloads []queue.MessagePayload
	err      error
}

func (f *fakeQueue) EnqueueMessage(_ context.Context, p queue.MessagePayload) error {
	if f.err != nil {
		return f.err
	}
	f.payloads = append(f.payloads, p)
	return nil
}

func TestNotifyBroadcastsAndEnqueues(t *testing.T) {
	hub := &fakeHub{}
	q := &fakeQueue{}
	h := NewHandler(nil, nil, nil, nil, hub, q, nil)

	a := &models.Appointment{ID: uuid.New(), OrganizationID: uuid.New()}
	h.notify(context.Background(), "appointment_created", a, models.MessageTypeConfirmation)

	if hub.called != 1 || hub.orgID != a.OrganizationID || hub.event != "appointment_created" {
		t.Fatalf("unexpected broadcast: %+v", hub)
	}
	if len(q.payloads) != 1 {
		t.Fatalf("expected 1 enqueued payload, got %d", len(q.payloads))
	}
	p := q.payloads[0]
	if p.AppointmentID != a.ID || p.MessageType != models.MessageTypeConfirmation {
		t.Errorf("unexpected payload %+v", p)
	}
}

func TestNotifyWithoutMessageTypeSkipsQueue(t *testing.T) {
	q := &fakeQueue{}
	h := NewHandler(nil, nil, nil, nil, &fakeHub{}, q, nil)
	h.notify(context.Background(), "appointment_updated", &models.Appointment{ID: uuid.New()}, "")
	if len(q.payloads) != 0 {
		t.Errorf("expected no enqueue, got %d", len(q.payloads))
	}
}

func TestNotifyQueueFailureDoesNotPanic(t *testing.T) {
	q := &fakeQueue{err: errors.New("redis down")}
	h := NewHandler(nil, nil, nil, nil, &fakeHub{}, q, nil)
	h.notify(context.Background(), "appointment_created", &models.Appointment{ID: uuid.New()}, models.MessageTypeConfirmation)
}

func TestDeletedBroadcastCarriesAppointmentID(t *testing.T) {
	hub := &fakeHub{}
	h := NewHandler(nil, nil, nil, nil, hub, nil, nil)

	a := &models.Appointment{ID: uuid.New(), OrganizationID: uuid.New()}
	h.broadcastDeleted(a)

	if hub.event != realtime.EventAppointmentDeleted {
		t.Fatalf("event = %q", hub.event)
	}
	raw, err := json.Marshal(hub.payload)
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]string
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatal(err)
	}
	if got["appointment_id"] != a.ID.String() {
		t.Errorf("payload %s missing appointment_id", raw)
	}
}

func TestAsConflictMapsExclusionViolation(t *testing.T) {
	err := asConflict(&pgconn.PgError{Code: "23P01", ConstraintName: "appointments_staff_no_overlap"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	other := &pgconn.PgError{Code: "23505"}
	if got := asConflict(other); !errors.Is(got, other) {
		t.Errorf("unique violation must pass through, got %v", got)
	}
	if asConflict(nil) != nil {
		t.Error("nil must pass through")
	}
	plain := errors.New("connection reset")
	if got := asConflict(plain); !errors.Is(got, plain) {
		t.Errorf("plain error must pass through, got %v", got)
	}
}
