package app

import (
	"context"
	"strings"

	"github.com/Almasmm/doctor-appointment-api/internal/clock"
	"github.com/Almasmm/doctor-appointment-api/internal/domain"
	"github.com/google/uuid"
)

type BookingRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetSlotForUpdate(ctx context.Context, slotID string) (domain.Slot, error)
	SetSlotStatus(ctx context.Context, slotID string, status domain.SlotStatus) error
	GetHoldBySlot(ctx context.Context, slotID string) (*domain.Hold, error)
	DeleteHold(ctx context.Context, holdID string) error
	CreateAppointment(ctx context.Context, appt domain.Appointment) error
	UpdateAppointment(ctx context.Context, appt domain.Appointment) error
	GetAppointment(ctx context.Context, id string) (domain.Appointment, error)
	ListAppointmentsByUser(ctx context.Context, userID string) ([]domain.Appointment, error)
	GetUser(ctx context.Context, id string) (domain.User, error)
	CountUsersByEmailExcluding(ctx context.Context, email, excludeUserID string) (int, error)
}

// OutboxWriter records a booking event inside the caller's transaction.
type OutboxWriter interface {
	Insert(ctx context.Context, event domain.BookingEvent) error
}

// BookingService converts held slots into appointments. All effects of a
// finalize (appointment row, slot transition, hold removal, outbox event)
// share one transaction, so the slot is never observably held without a
// hold or booked with a live hold.
type BookingService struct {
	repo   BookingRepository
	outbox OutboxWriter
	clock  clock.Clock
}

func NewBookingService(repo BookingRepository, outbox OutboxWriter, clk clock.Clock) *BookingService {
	return &BookingService{
		repo:   repo,
		outbox: outbox,
		clock:  clk,
	}
}

type FinalizeInput struct {
	UserID    string
	DoctorID  string
	SlotID    string
	ServiceID string
	Type      domain.AppointmentType
	Reason    string
	Email     string
	Phone     string
	// Reschedule: move this appointment to SlotID and free PreviousSlotID.
	RescheduleAppointmentID string
	PreviousSlotID          string
}

type FinalizeResult struct {
	Appointment domain.Appointment
	// PreviousSlotFreed is false when the reschedule cleanup of the old slot
	// failed; the booking itself still stands.
	PreviousSlotFreed bool
}

const minReasonLength = 5

func (s *BookingService) Finalize(ctx context.Context, in FinalizeInput) (FinalizeResult, error) {
	if err := s.ValidateBooking(ctx, in.UserID, BookingForm{Reason: in.Reason, Email: in.Email}, in.RescheduleAppointmentID); err != nil {
		return FinalizeResult{}, err
	}

	now := s.clock.Now()
	var appt domain.Appointment

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		slot, err := s.repo.GetSlotForUpdate(txCtx, in.SlotID)
		if err != nil {
			return err
		}
		if slot.Status == domain.SlotStatusBooked || slot.Status == domain.SlotStatusBlocked {
			return domain.ErrSlotUnavailable
		}

		hold, err := s.repo.GetHoldBySlot(txCtx, in.SlotID)
		if err != nil {
			return err
		}
		if hold != nil {
			switch {
			case !hold.Expired(now) && hold.UserID != in.UserID:
				return domain.ErrSlotUnavailable
			case hold.Expired(now) && hold.UserID == in.UserID:
				// The user's own lease lapsed mid-form: reclaim and refuse.
				if err := s.repo.DeleteHold(txCtx, hold.ID); err != nil {
					return err
				}
				if slot.Status == domain.SlotStatusHeld {
					if err := s.repo.SetSlotStatus(txCtx, in.SlotID, domain.SlotStatusFree); err != nil {
						return err
					}
				}
				return domain.ErrHoldExpired
			}
		}

		if in.RescheduleAppointmentID != "" {
			existing, err := s.repo.GetAppointment(txCtx, in.RescheduleAppointmentID)
			if err != nil {
				return err
			}
			appt = existing
			appt.SlotID = in.SlotID
			appt.ServiceID = in.ServiceID
			appt.Type = in.Type
			appt.Status = domain.AppointmentStatusScheduled
			appt.Reason = in.Reason
			appt.ContactEmail = in.Email
			appt.ContactPhone = in.Phone
			if err := s.repo.UpdateAppointment(txCtx, appt); err != nil {
				return err
			}
		} else {
			appt = domain.Appointment{
				ID:           uuid.NewString(),
				UserID:       in.UserID,
				DoctorID:     in.DoctorID,
				SlotID:       in.SlotID,
				ServiceID:    in.ServiceID,
				Type:         in.Type,
				Status:       domain.AppointmentStatusScheduled,
				Reason:       in.Reason,
				ContactEmail: in.Email,
				ContactPhone: in.Phone,
				CreatedAt:    now,
			}
			if err := s.repo.CreateAppointment(txCtx, appt); err != nil {
				return err
			}
		}

		if err := s.repo.SetSlotStatus(txCtx, in.SlotID, domain.SlotStatusBooked); err != nil {
			return err
		}
		if hold != nil {
			if err := s.repo.DeleteHold(txCtx, hold.ID); err != nil {
				return err
			}
		}

		return s.outbox.Insert(txCtx, domain.BookingEvent{
			EventType: domain.EventBookingConfirmed,
			Payload: domain.BookingConfirmedPayload{
				AppointmentID: appt.ID,
				UserID:        appt.UserID,
				DoctorID:      appt.DoctorID,
				SlotID:        appt.SlotID,
				ServiceID:     appt.ServiceID,
				Rescheduled:   in.RescheduleAppointmentID != "",
			},
		})
	})
	if err != nil {
		return FinalizeResult{}, err
	}

	result := FinalizeResult{Appointment: appt, PreviousSlotFreed: true}
	if in.RescheduleAppointmentID != "" && in.PreviousSlotID != "" && in.PreviousSlotID != in.SlotID {
		// Freeing the old slot is cleanup, never grounds to roll back the
		// new booking.
		if err := s.freePreviousSlot(ctx, in.PreviousSlotID); err != nil {
			result.PreviousSlotFreed = false
		}
	}
	return result, nil
}

// Cancel marks the appointment cancelled and frees its slot. Cancelling an
// already-cancelled appointment is a no-op.
func (s *BookingService) Cancel(ctx context.Context, appointmentID, userID string) (domain.Appointment, error) {
	var appt domain.Appointment

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.GetAppointment(txCtx, appointmentID)
		if err != nil {
			return err
		}
		if userID != "" && existing.UserID != userID {
			return domain.ErrAppointmentNotFound
		}
		if existing.Status == domain.AppointmentStatusCancelled {
			appt = existing
			return nil
		}

		existing.Status = domain.AppointmentStatusCancelled
		if err := s.repo.UpdateAppointment(txCtx, existing); err != nil {
			return err
		}

		slot, err := s.repo.GetSlotForUpdate(txCtx, existing.SlotID)
		if err != nil && err != domain.ErrSlotNotFound {
			return err
		}
		if err == nil && slot.Status == domain.SlotStatusBooked {
			if err := s.repo.SetSlotStatus(txCtx, existing.SlotID, domain.SlotStatusFree); err != nil {
				return err
			}
		}

		appt = existing
		return s.outbox.Insert(txCtx, domain.BookingEvent{
			EventType: domain.EventBookingCancelled,
			Payload: domain.BookingCancelledPayload{
				AppointmentID: existing.ID,
				UserID:        existing.UserID,
				SlotID:        existing.SlotID,
			},
		})
	})
	if err != nil {
		return domain.Appointment{}, err
	}
	return appt, nil
}

func (s *BookingService) GetAppointment(ctx context.Context, id string) (domain.Appointment, error) {
	return s.repo.GetAppointment(ctx, id)
}

func (s *BookingService) ListForUser(ctx context.Context, userID string) ([]domain.Appointment, error) {
	return s.repo.ListAppointmentsByUser(ctx, userID)
}

type BookingForm struct {
	Reason string
	Email  string
}

// ValidateBooking runs the pre-submit checks: reason length, duplicate
// reason against the user's existing appointments, and email uniqueness.
// All checks complete before any mutation is attempted.
func (s *BookingService) ValidateBooking(ctx context.Context, userID string, form BookingForm, excludeAppointmentID string) error {
	reason := normalizeReason(form.Reason)
	if len([]rune(reason)) < minReasonLength {
		return domain.ErrReasonTooShort
	}

	email := normalizeEmail(form.Email)
	if email == "" {
		return domain.ErrEmailRequired
	}

	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if normalizeEmail(user.Email) != email {
		count, err := s.repo.CountUsersByEmailExcluding(ctx, email, userID)
		if err != nil {
			return err
		}
		if count > 0 {
			return domain.ErrEmailTaken
		}
	}

	appts, err := s.repo.ListAppointmentsByUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, a := range appts {
		if a.ID == excludeAppointmentID {
			continue
		}
		if normalizeReason(a.Reason) == reason {
			return domain.ErrDuplicateReason
		}
	}
	return nil
}

func (s *BookingService) freePreviousSlot(ctx context.Context, slotID string) error {
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		slot, err := s.repo.GetSlotForUpdate(txCtx, slotID)
		if err != nil {
			return err
		}
		if slot.Status != domain.SlotStatusBooked {
			return nil
		}
		return s.repo.SetSlotStatus(txCtx, slotID, domain.SlotStatusFree)
	})
}

func normalizeReason(value string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(value))), " ")
}

func normalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
