package http

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Almasmm/doctor-appointment-api/internal/app"
	"github.com/Almasmm/doctor-appointment-api/internal/domain"
)

// Session is one user's reservation session. Selecting a slot releases any
// previous hold before acquiring the new one.
type Session interface {
	Select(ctx context.Context, slotID string) (app.Snapshot, error)
	Submit(ctx context.Context, form app.SubmitForm) (app.FinalizeResult, app.Snapshot, error)
	Release(ctx context.Context, holdID string) error
	Teardown(ctx context.Context)
	Snapshot() app.Snapshot
}

// SessionResolver returns the session for a user id.
type SessionResolver func(userID string) Session

// HoldLister lists a user's live holds.
type HoldLister interface {
	ActiveForUser(ctx context.Context, userID string) ([]domain.Hold, error)
}

type holdResponse struct {
	ID        string    `json:"id"`
	SlotID    string    `json:"slotId"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

func toHoldResponse(h domain.Hold) holdResponse {
	return holdResponse{
		ID:        h.ID,
		SlotID:    h.SlotID,
		UserID:    h.UserID,
		ExpiresAt: h.ExpiresAt,
		CreatedAt: h.CreatedAt,
	}
}

type createHoldRequest struct {
	SlotID string `json:"slotId"`
}

// HandleCreateHold routes the select intent through the caller's session.
// Losing the race for the slot returns 409 with "slot already taken".
func HandleCreateHold(sessions SessionResolver) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req createHoldRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
		}
		if req.SlotID == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "slotId is required"})
		}

		snap, err := sessions(userID(c)).Select(c.Request().Context(), req.SlotID)
		if err != nil {
			return writeDomainError(c, err)
		}
		if snap.Hold == nil {
			// A newer select superseded this one; the caller should follow
			// up with its latest intent.
			return c.JSON(http.StatusAccepted, echo.Map{"state": string(snap.State)})
		}
		return c.JSON(http.StatusCreated, toHoldResponse(*snap.Hold))
	}
}

// HandleReleaseHold releases a hold through the caller's session, so the
// session forgets the hold and a reselect acquires a fresh one. Idempotent:
// releasing an already released or expired hold still returns 200.
func HandleReleaseHold(sessions SessionResolver) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := sessions(userID(c)).Release(c.Request().Context(), c.Param("id")); err != nil {
			return writeDomainError(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{})
	}
}

// HandleListHolds returns the caller's live holds.
func HandleListHolds(svc HoldLister) echo.HandlerFunc {
	return func(c echo.Context) error {
		holds, err := svc.ActiveForUser(c.Request().Context(), userID(c))
		if err != nil {
			return writeDomainError(c, err)
		}
		out := make([]holdResponse, 0, len(holds))
		for _, h := range holds {
			out = append(out, toHoldResponse(h))
		}
		return c.JSON(http.StatusOK, out)
	}
}
