package postgres

import (
	"context"
	"testing"

	"github.com/Almasmm/doctor-appointment-api/internal/domain"
	"github.com/Almasmm/doctor-appointment-api/internal/testutil"
)

func TestOutboxRoundTrip(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	repo := NewOutboxRepository(pool)

	err := repo.Insert(ctx, domain.BookingEvent{
		EventType: domain.EventBookingConfirmed,
		Payload: domain.BookingConfirmedPayload{
			AppointmentID: "a1",
			UserID:        "u1",
			DoctorID:      "d1",
			SlotID:        "s1",
		},
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	pending, err := repo.ListUnpublished(ctx, 10)
	if err != nil {
		t.Fatalf("list unpublished: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected one pending event, got %d", len(pending))
	}
	if pending[0].EventType != domain.EventBookingConfirmed {
		t.Fatalf("unexpected event type %s", pending[0].EventType)
	}

	if err := repo.MarkPublished(ctx, pending[0].ID); err != nil {
		t.Fatalf("mark published: %v", err)
	}

	pending, err = repo.ListUnpublished(ctx, 10)
	if err != nil {
		t.Fatalf("list after publish: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending events, got %d", len(pending))
	}
}
