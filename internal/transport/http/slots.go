// Package http exposes the booking API over echo.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Almasmm/doctor-appointment-api/internal/app"
	"github.com/Almasmm/doctor-appointment-api/internal/domain"
)

// SlotReader serves the public slot views.
type SlotReader interface {
	List(ctx context.Context, doctorID string, from, to time.Time) ([]domain.Slot, error)
	Get(ctx context.Context, id string) (domain.Slot, error)
}

// SlotAdmin covers the admin-only slot mutations.
type SlotAdmin interface {
	SetStatus(ctx context.Context, id string, status domain.SlotStatus) (domain.Slot, error)
	GenerateBulk(ctx context.Context, in app.GenerateSlotsInput) (app.GenerateSlotsResult, error)
}

type slotResponse struct {
	ID       string    `json:"id"`
	DoctorID string    `json:"doctorId"`
	StartAt  time.Time `json:"startAt"`
	EndAt    time.Time `json:"endAt"`
	Status   string    `json:"status"`
}

func toSlotResponse(s domain.Slot) slotResponse {
	return slotResponse{
		ID:       s.ID,
		DoctorID: s.DoctorID,
		StartAt:  s.StartAt,
		EndAt:    s.EndAt,
		Status:   string(s.Status),
	}
}

const defaultSlotWindow = 14 * 24 * time.Hour

// HandleListSlots returns the slot listing handler. Expired holds for the
// doctor are reclaimed before the read, so the listing never shows a stale
// held slot.
func HandleListSlots(svc SlotReader) echo.HandlerFunc {
	return func(c echo.Context) error {
		doctorID := c.QueryParam("doctorId")
		if doctorID == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "doctorId is required"})
		}

		from := time.Now().UTC()
		if raw := c.QueryParam("from"); raw != "" {
			t, err := parseTimeParam(raw)
			if err != nil {
				return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid from"})
			}
			from = t
		}
		to := from.Add(defaultSlotWindow)
		if raw := c.QueryParam("to"); raw != "" {
			t, err := parseTimeParam(raw)
			if err != nil {
				return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid to"})
			}
			to = t
		}

		slots, err := svc.List(c.Request().Context(), doctorID, from, to)
		if err != nil {
			return writeDomainError(c, err)
		}
		out := make([]slotResponse, 0, len(slots))
		for _, s := range slots {
			out = append(out, toSlotResponse(s))
		}
		return c.JSON(http.StatusOK, out)
	}
}

func HandleGetSlot(svc SlotReader) echo.HandlerFunc {
	return func(c echo.Context) error {
		slot, err := svc.Get(c.Request().Context(), c.Param("id"))
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(http.StatusOK, toSlotResponse(slot))
	}
}

type setSlotStatusRequest struct {
	Status string `json:"status"`
}

// HandleSetSlotStatus lets an admin block or unblock a slot.
func HandleSetSlotStatus(svc SlotAdmin) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req setSlotStatusRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
		}
		slot, err := svc.SetStatus(c.Request().Context(), c.Param("id"), domain.SlotStatus(req.Status))
		if err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(http.StatusOK, toSlotResponse(slot))
	}
}

type generateSlotsRequest struct {
	DoctorID    string `json:"doctorId"`
	DateFrom    string `json:"dateFrom"`
	DateTo      string `json:"dateTo"`
	WorkStart   string `json:"workStart"`
	WorkEnd     string `json:"workEnd"`
	DurationMin int    `json:"durationMin"`
	StepMin     int    `json:"stepMin"`
}

type generateSlotsResponse struct {
	Created []slotResponse `json:"created"`
	Skipped int            `json:"skipped"`
}

// HandleGenerateSlots creates free slots over a date range, skipping ranges
// that collide with existing slots.
func HandleGenerateSlots(svc SlotAdmin) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req generateSlotsRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
		}

		dateFrom, err := time.Parse("2006-01-02", req.DateFrom)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid dateFrom"})
		}
		dateTo, err := time.Parse("2006-01-02", req.DateTo)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid dateTo"})
		}
		workStart, err := parseClockOffset(req.WorkStart)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid workStart"})
		}
		workEnd, err := parseClockOffset(req.WorkEnd)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid workEnd"})
		}

		result, err := svc.GenerateBulk(c.Request().Context(), app.GenerateSlotsInput{
			DoctorID:    req.DoctorID,
			DateFrom:    dateFrom,
			DateTo:      dateTo,
			WorkStart:   workStart,
			WorkEnd:     workEnd,
			DurationMin: req.DurationMin,
			StepMin:     req.StepMin,
		})
		if err != nil {
			return writeDomainError(c, err)
		}

		created := make([]slotResponse, 0, len(result.Created))
		for _, s := range result.Created {
			created = append(created, toSlotResponse(s))
		}
		return c.JSON(http.StatusCreated, generateSlotsResponse{Created: created, Skipped: result.Skipped})
	}
}

func parseTimeParam(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

// parseClockOffset turns "09:00" into the offset from midnight.
func parseClockOffset(raw string) (time.Duration, error) {
	t, err := time.Parse("15:04", raw)
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
