package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Almasmm/doctor-appointment-api/internal/app"
	"github.com/Almasmm/doctor-appointment-api/internal/domain"
)

const msgSlotTaken = "slot already taken"

// writeDomainError maps app and domain errors onto HTTP status codes. 409
// with "slot already taken" always means the caller lost the race and must
// pick another slot.
func writeDomainError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrSlotNotFound),
		errors.Is(err, domain.ErrAppointmentNotFound),
		errors.Is(err, domain.ErrDoctorNotFound),
		errors.Is(err, domain.ErrServiceNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"message": err.Error()})

	case errors.Is(err, domain.ErrSlotUnavailable),
		errors.Is(err, domain.ErrAlreadyHeldByOther):
		return c.JSON(http.StatusConflict, echo.Map{"message": msgSlotTaken})

	case errors.Is(err, domain.ErrHoldExpired):
		return c.JSON(http.StatusConflict, echo.Map{"message": "hold expired"})

	case errors.Is(err, domain.ErrDuplicateReason),
		errors.Is(err, domain.ErrEmailTaken),
		errors.Is(err, app.ErrSubmitInFlight),
		errors.Is(err, app.ErrNoActiveHold):
		return c.JSON(http.StatusConflict, echo.Map{"message": err.Error()})

	case errors.Is(err, domain.ErrReasonTooShort),
		errors.Is(err, domain.ErrEmailRequired),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidTimeRange),
		errors.Is(err, domain.ErrDoctorNameRequired),
		errors.Is(err, domain.ErrServiceNameRequired):
		return c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})

	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
}
