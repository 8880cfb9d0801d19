package domain

import "time"

type SlotStatus string

const (
	SlotStatusFree    SlotStatus = "free"
	SlotStatusHeld    SlotStatus = "held"
	SlotStatusBooked  SlotStatus = "booked"
	SlotStatusBlocked SlotStatus = "blocked"
)

// ValidSlotStatus reports whether s is one of the four known slot statuses.
func ValidSlotStatus(s SlotStatus) bool {
	switch s {
	case SlotStatusFree, SlotStatusHeld, SlotStatusBooked, SlotStatusBlocked:
		return true
	}
	return false
}

// Slot is a bookable time range for a doctor. Slots are never deleted,
// only status-transitioned.
type Slot struct {
	ID       string
	DoctorID string
	StartAt  time.Time
	EndAt    time.Time
	Status   SlotStatus
}
