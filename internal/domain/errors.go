package domain

import "errors"

var (
	ErrSlotNotFound        = errors.New("slot not found")
	ErrSlotUnavailable     = errors.New("slot already taken")
	ErrAlreadyHeldByOther  = errors.New("slot already held by another user")
	ErrHoldExpired         = errors.New("hold expired")
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrServiceNotFound     = errors.New("service not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrReasonTooShort      = errors.New("reason must be at least 5 characters")
	ErrDuplicateReason     = errors.New("an appointment with this reason already exists")
	ErrEmailTaken          = errors.New("email already in use")
	ErrEmailRequired       = errors.New("email required")
	ErrInvalidStatus       = errors.New("invalid status")
	ErrInvalidID           = errors.New("invalid id")
	ErrInvalidTimeRange    = errors.New("invalid time range")
	ErrDoctorNameRequired  = errors.New("doctor name required")
	ErrServiceNameRequired = errors.New("service name required")
)
