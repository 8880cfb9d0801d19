package http

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/Almasmm/doctor-appointment-api/internal/app"
)

// Deps carries everything the router needs.
type Deps struct {
	Slots       *app.SlotService
	Holds       *app.HoldService
	Bookings    *app.BookingService
	Directory   *app.DirectoryService
	Sessions    *app.CoordinatorRegistry
	Logger      zerolog.Logger
	JWTSecret   string
	CORSOrigins []string
}

// NewRouter wires the handlers onto an echo instance.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(Recovery(d.Logger))
	e.Use(Logger(d.Logger))
	if len(d.CORSOrigins) > 0 {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: d.CORSOrigins}))
	}

	sessions := SessionResolver(func(userID string) Session {
		return d.Sessions.For(userID)
	})

	e.GET("/health", HandleHealth())
	e.GET("/doctors", HandleListDoctors(d.Directory))
	e.GET("/services", HandleListServices(d.Directory))
	e.GET("/slots", HandleListSlots(d.Slots))
	e.GET("/slots/:id", HandleGetSlot(d.Slots))

	auth := e.Group("", Auth(d.JWTSecret))
	auth.POST("/slotHolds", HandleCreateHold(sessions))
	auth.DELETE("/slotHolds/:id", HandleReleaseHold(sessions))
	auth.GET("/slotHolds", HandleListHolds(d.Holds))
	auth.POST("/appointments", HandleConfirmBooking(sessions, d.Bookings))
	auth.PATCH("/appointments/:id", HandleUpdateAppointment(d.Bookings))
	auth.GET("/appointments", HandleListAppointments(d.Bookings))
	auth.GET("/appointments/:id", HandleGetAppointment(d.Bookings))

	// Admin surface. Auth roles are out of scope; these share the user auth.
	auth.PATCH("/slots/:id", HandleSetSlotStatus(d.Slots))
	auth.POST("/slots/bulk", HandleGenerateSlots(d.Slots))
	auth.POST("/doctors", HandleCreateDoctor(d.Directory))
	auth.POST("/services", HandleCreateService(d.Directory))

	return e
}
