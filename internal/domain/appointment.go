package domain

import "time"

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
)

type AppointmentType string

const (
	AppointmentTypeOnline  AppointmentType = "online"
	AppointmentTypeOffline AppointmentType = "offline"
)

// Appointment is a confirmed booking derived from a hold on a slot.
type Appointment struct {
	ID           string
	UserID       string
	DoctorID     string
	SlotID       string
	ServiceID    string
	Type         AppointmentType
	Status       AppointmentStatus
	Reason       string
	ContactEmail string
	ContactPhone string
	CreatedAt    time.Time
}
