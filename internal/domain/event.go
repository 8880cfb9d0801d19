package domain

// Booking event types written to the outbox and published to the broker.
const (
	EventBookingConfirmed = "booking.confirmed"
	EventBookingCancelled = "booking.cancelled"
)

// BookingEvent is an outbox entry recorded in the same transaction as the
// booking mutation it describes.
type BookingEvent struct {
	EventType string
	Payload   any
}

type BookingConfirmedPayload struct {
	AppointmentID string `json:"appointmentId"`
	UserID        string `json:"userId"`
	DoctorID      string `json:"doctorId"`
	SlotID        string `json:"slotId"`
	ServiceID     string `json:"serviceId"`
	Rescheduled   bool   `json:"rescheduled"`
}

type BookingCancelledPayload struct {
	AppointmentID string `json:"appointmentId"`
	UserID        string `json:"userId"`
	SlotID        string `json:"slotId"`
}
