package http

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Almasmm/doctor-appointment-api/internal/app"
	"github.com/Almasmm/doctor-appointment-api/internal/domain"
)

// AppointmentService is the appointment read and cancel surface.
type AppointmentService interface {
	GetAppointment(ctx context.Context, id string) (domain.Appointment, error)
	ListForUser(ctx context.Context, userID string) ([]domain.Appointment, error)
	Cancel(ctx context.Context, appointmentID, userID string) (domain.Appointment, error)
}

type appointmentResponse struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	DoctorID     string    `json:"doctorId"`
	SlotID       string    `json:"slotId"`
	ServiceID    string    `json:"serviceId"`
	Type         string    `json:"type"`
	Status       string    `json:"status"`
	Reason       string    `json:"reason"`
	ContactEmail string    `json:"contactEmail"`
	ContactPhone string    `json:"contactPhone"`
	CreatedAt    time.Time `json:"createdAt"`
}

func toAppointmentResponse(a domain.Appointment) appointmentResponse {
	return appointmentResponse{
		ID:           a.ID,
		UserID:       a.UserID,
		DoctorID:     a.DoctorID,
		SlotID:       a.SlotID,
		ServiceID:    a.ServiceID,
		Type:         string(a.Type),
		Status:       string(a.Status),
		Reason:       a.Reason,
		ContactEmail: a.ContactEmail,
		ContactPhone: a.ContactPhone,
		CreatedAt:    a.CreatedAt,
	}
}

type confirmBookingRequest struct {
	DoctorID                string `json:"doctorId"`
	ServiceID               string `json:"serviceId"`
	Type                    string `json:"type"`
	Reason                  string `json:"reason"`
	Email                   string `json:"email"`
	Phone                   string `json:"phone"`
	RescheduleAppointmentID string `json:"rescheduleAppointmentId"`
}

type confirmBookingResponse struct {
	Appointment       appointmentResponse `json:"appointment"`
	PreviousSlotFreed *bool               `json:"previousSlotFreed,omitempty"`
}

// HandleConfirmBooking finalizes the caller's held slot into a scheduled
// appointment. With rescheduleAppointmentId set, the existing appointment
// moves to the held slot and its previous slot is freed best-effort.
func HandleConfirmBooking(sessions SessionResolver, appts AppointmentService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req confirmBookingRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
		}
		uid := userID(c)

		form := app.SubmitForm{
			DoctorID:  req.DoctorID,
			ServiceID: req.ServiceID,
			Type:      domain.AppointmentType(req.Type),
			Reason:    req.Reason,
			Email:     req.Email,
			Phone:     req.Phone,
		}
		if req.RescheduleAppointmentID != "" {
			prev, err := appts.GetAppointment(c.Request().Context(), req.RescheduleAppointmentID)
			if err != nil {
				return writeDomainError(c, err)
			}
			if prev.UserID != uid {
				return c.JSON(http.StatusForbidden, echo.Map{"message": "appointment belongs to another user"})
			}
			form.RescheduleAppointmentID = prev.ID
			form.PreviousSlotID = prev.SlotID
		}

		result, _, err := sessions(uid).Submit(c.Request().Context(), form)
		if err != nil {
			return writeDomainError(c, err)
		}

		resp := confirmBookingResponse{Appointment: toAppointmentResponse(result.Appointment)}
		if req.RescheduleAppointmentID != "" {
			freed := result.PreviousSlotFreed
			resp.PreviousSlotFreed = &freed
		}
		return c.JSON(http.StatusCreated, resp)
	}
}

type updateAppointmentRequest struct {
	Status string `json:"status"`
}

// HandleUpdateAppointment currently supports one transition: cancelling.
// Cancelling frees the booked slot. Rescheduling goes through the booking
// flow with rescheduleAppointmentId instead.
func HandleUpdateAppointment(appts AppointmentService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req updateAppointmentRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
		}
		if req.Status != string(domain.AppointmentStatusCancelled) {
			return writeDomainError(c, domain.ErrInvalidStatus)
		}

		appt, err := appts.Cancel(c.Request().Context(), c.Param("id"), userID(c))
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(http.StatusOK, toAppointmentResponse(appt))
	}
}

// HandleListAppointments returns the caller's appointments, newest first.
func HandleListAppointments(appts AppointmentService) echo.HandlerFunc {
	return func(c echo.Context) error {
		list, err := appts.ListForUser(c.Request().Context(), userID(c))
		if err != nil {
			return writeDomainError(c, err)
		}
		out := make([]appointmentResponse, 0, len(list))
		for _, a := range list {
			out = append(out, toAppointmentResponse(a))
		}
		return c.JSON(http.StatusOK, out)
	}
}

// HandleGetAppointment returns one appointment, owner only.
func HandleGetAppointment(appts AppointmentService) echo.HandlerFunc {
	return func(c echo.Context) error {
		appt, err := appts.GetAppointment(c.Request().Context(), c.Param("id"))
		if err != nil {
			return writeDomainError(c, err)
		}
		if appt.UserID != userID(c) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": domain.ErrAppointmentNotFound.Error()})
		}
		return c.JSON(http.StatusOK, toAppointmentResponse(appt))
	}
}
