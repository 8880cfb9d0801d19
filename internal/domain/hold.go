package domain

import "time"

// Hold is a time-leased, user-scoped claim on a slot. At most one hold
// exists per slot at any time; a hold's existence implies the slot is held.
type Hold struct {
	ID        string
	SlotID    string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the hold's lease has elapsed. An expired hold is
// logically dead even if it has not been swept yet.
func (h Hold) Expired(now time.Time) bool {
	return !now.Before(h.ExpiresAt)
}
