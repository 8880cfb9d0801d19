package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Almasmm/doctor-appointment-api/internal/storage/postgres"
)

type fakeSource struct {
	events    []postgres.StoredEvent
	published map[string]bool
}

func newFakeSource(events ...postgres.StoredEvent) *fakeSource {
	return &fakeSource{events: events, published: make(map[string]bool)}
}

func (s *fakeSource) ListUnpublished(_ context.Context, limit int) ([]postgres.StoredEvent, error) {
	var out []postgres.StoredEvent
	for _, ev := range s.events {
		if s.published[ev.ID] {
			continue
		}
		out = append(out, ev)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *fakeSource) MarkPublished(_ context.Context, id string) error {
	s.published[id] = true
	return nil
}

type fakePublisher struct {
	sent    []string
	failOn  string
	failErr error
}

func (p *fakePublisher) Publish(_ context.Context, eventType string, _ []byte) error {
	if p.failOn == eventType {
		return p.failErr
	}
	p.sent = append(p.sent, eventType)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func TestDrainPublishesAndMarks(t *testing.T) {
	source := newFakeSource(
		postgres.StoredEvent{ID: "e1", EventType: "booking.confirmed", Payload: []byte(`{}`), CreatedAt: time.Now()},
		postgres.StoredEvent{ID: "e2", EventType: "booking.cancelled", Payload: []byte(`{}`), CreatedAt: time.Now()},
	)
	pub := &fakePublisher{}
	relay := NewRelay(source, pub, time.Second, zerolog.Nop())

	if err := relay.Drain(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(pub.sent) != 2 {
		t.Fatalf("published %d events, want 2", len(pub.sent))
	}
	if !source.published["e1"] || !source.published["e2"] {
		t.Fatal("events not marked published")
	}
}

func TestDrainStopsOnPublishFailure(t *testing.T) {
	source := newFakeSource(
		postgres.StoredEvent{ID: "e1", EventType: "booking.confirmed", Payload: []byte(`{}`)},
		postgres.StoredEvent{ID: "e2", EventType: "booking.cancelled", Payload: []byte(`{}`)},
	)
	pub := &fakePublisher{failOn: "booking.cancelled", failErr: errors.New("broker down")}
	relay := NewRelay(source, pub, time.Second, zerolog.Nop())

	if err := relay.Drain(context.Background()); err == nil {
		t.Fatal("expected drain error")
	}
	if !source.published["e1"] {
		t.Fatal("first event should be marked published")
	}
	if source.published["e2"] {
		t.Fatal("failed event must stay pending")
	}

	// Broker recovers; next drain retries only the pending event.
	pub.failOn = ""
	if err := relay.Drain(context.Background()); err != nil {
		t.Fatalf("drain after recovery: %v", err)
	}
	if !source.published["e2"] {
		t.Fatal("pending event should be published after retry")
	}
}
