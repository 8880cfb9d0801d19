package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Almasmm/doctor-appointment-api/internal/app"
	"github.com/Almasmm/doctor-appointment-api/internal/domain"
)

type stubSession struct {
	snap       app.Snapshot
	selectErr  error
	result     app.FinalizeResult
	submitErr  error
	releaseErr error

	selectedSlot string
	submitted    *app.SubmitForm
	released     []string
}

func (s *stubSession) Select(_ context.Context, slotID string) (app.Snapshot, error) {
	s.selectedSlot = slotID
	return s.snap, s.selectErr
}

func (s *stubSession) Submit(_ context.Context, form app.SubmitForm) (app.FinalizeResult, app.Snapshot, error) {
	s.submitted = &form
	return s.result, s.snap, s.submitErr
}

func (s *stubSession) Release(_ context.Context, holdID string) error {
	s.released = append(s.released, holdID)
	return s.releaseErr
}

func (s *stubSession) Teardown(context.Context) {}

func (s *stubSession) Snapshot() app.Snapshot { return s.snap }

func resolverFor(s *stubSession) SessionResolver {
	return func(string) Session { return s }
}

func newTestContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(userIDKey, "user-1")
	return c, rec
}

func TestHandleCreateHold(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	heldSnap := app.Snapshot{
		State:        app.StateHeld,
		SelectedSlot: "slot-1",
		Hold: &domain.Hold{
			ID:        "hold-1",
			SlotID:    "slot-1",
			UserID:    "user-1",
			ExpiresAt: now.Add(15 * time.Minute),
			CreatedAt: now,
		},
	}

	tests := []struct {
		name           string
		body           string
		snap           app.Snapshot
		selectErr      error
		expectedStatus int
		expectedSubstr string
	}{
		{
			name:           "success",
			body:           `{"slotId":"slot-1"}`,
			snap:           heldSnap,
			expectedStatus: http.StatusCreated,
			expectedSubstr: `"id":"hold-1"`,
		},
		{
			name:           "missing slot id",
			body:           `{}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "slot booked",
			body:           `{"slotId":"slot-1"}`,
			selectErr:      domain.ErrSlotUnavailable,
			expectedStatus: http.StatusConflict,
			expectedSubstr: `"message":"slot already taken"`,
		},
		{
			name:           "held by other user",
			body:           `{"slotId":"slot-1"}`,
			selectErr:      domain.ErrAlreadyHeldByOther,
			expectedStatus: http.StatusConflict,
			expectedSubstr: `"message":"slot already taken"`,
		},
		{
			name:           "slot not found",
			body:           `{"slotId":"slot-1"}`,
			selectErr:      domain.ErrSlotNotFound,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "submit in flight",
			body:           `{"slotId":"slot-1"}`,
			selectErr:      app.ErrSubmitInFlight,
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "superseded select",
			body:           `{"slotId":"slot-1"}`,
			snap:           app.Snapshot{State: app.StateHoldPending, SelectedSlot: "slot-2"},
			expectedStatus: http.StatusAccepted,
		},
		{
			name:           "internal error",
			body:           `{"slotId":"slot-1"}`,
			selectErr:      errors.New("boom"),
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			session := &stubSession{snap: tt.snap, selectErr: tt.selectErr}
			c, rec := newTestContext(http.MethodPost, "/slotHolds", tt.body)

			if err := HandleCreateHold(resolverFor(session))(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d (%s)", tt.expectedStatus, rec.Code, rec.Body.String())
			}
			if tt.expectedSubstr != "" && !strings.Contains(rec.Body.String(), tt.expectedSubstr) {
				t.Fatalf("expected response to contain %q, got %q", tt.expectedSubstr, rec.Body.String())
			}
		})
	}
}

type stubHoldService struct {
	holds []domain.Hold
}

func (s *stubHoldService) ActiveForUser(context.Context, string) ([]domain.Hold, error) {
	return s.holds, nil
}

// Release goes through the caller's session so the session drops its own
// hold too.
func TestHandleReleaseHoldIdempotent(t *testing.T) {
	t.Parallel()

	session := &stubSession{}
	for i := 0; i < 2; i++ {
		c, rec := newTestContext(http.MethodDelete, "/slotHolds/hold-1", "")
		c.SetParamNames("id")
		c.SetParamValues("hold-1")

		if err := HandleReleaseHold(resolverFor(session))(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 on release %d, got %d", i+1, rec.Code)
		}
	}
	if len(session.released) != 2 || session.released[0] != "hold-1" {
		t.Fatalf("expected 2 session release calls for hold-1, got %v", session.released)
	}
}

func TestHandleListHolds(t *testing.T) {
	t.Parallel()

	svc := &stubHoldService{holds: []domain.Hold{{ID: "hold-1", SlotID: "slot-1", UserID: "user-1"}}}
	c, rec := newTestContext(http.MethodGet, "/slotHolds", "")

	if err := HandleListHolds(svc)(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"slotId":"slot-1"`) {
		t.Fatalf("expected hold in response, got %q", rec.Body.String())
	}
}
