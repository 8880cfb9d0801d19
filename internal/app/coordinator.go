package app

import (
	"context"
	"errors"
	"sync"

	"github.com/Almasmm/doctor-appointment-api/internal/domain"
)

// CoordinatorState is the position of one user session in the reservation
// flow.
type CoordinatorState string

const (
	StateNoSelection CoordinatorState = "no_selection"
	StateHoldPending CoordinatorState = "hold_pending"
	StateHeld        CoordinatorState = "held"
	StateSubmitting  CoordinatorState = "submitting"
	StateBooked      CoordinatorState = "booked"
	StateHoldExpired CoordinatorState = "hold_expired"
)

var (
	ErrSubmitInFlight = errors.New("booking submit already in flight")
	ErrNoActiveHold   = errors.New("no active hold to submit")
)

type holdManager interface {
	Acquire(ctx context.Context, slotID, userID string) (domain.Hold, error)
	Release(ctx context.Context, holdID string) error
	SweepHold(ctx context.Context, holdID string) (expired bool, slotID string, err error)
}

type bookingFinalizer interface {
	Finalize(ctx context.Context, in FinalizeInput) (FinalizeResult, error)
}

// Coordinator drives a single user session from selection to booking. It
// owns the session's one hold (never two at once). Rapid reselects resolve
// last-write-wins: every intent carries a sequence number and completions
// with a stale sequence are discarded. Submit is single-flight per hold.
type Coordinator struct {
	userID   string
	holds    holdManager
	bookings bookingFinalizer

	// done is called once the session reaches a terminal point (booked or
	// torn down) so the registry can drop it.
	done func()

	mu            sync.Mutex
	state         CoordinatorState
	hold          *domain.Hold
	selectedSlot  string
	requestedSlot string
	seq           uint64
	acquiring     bool
	submitting    bool
}

func NewCoordinator(userID string, holds holdManager, bookings bookingFinalizer) *Coordinator {
	return &Coordinator{
		userID:   userID,
		holds:    holds,
		bookings: bookings,
		state:    StateNoSelection,
	}
}

// Snapshot is the externally visible coordinator state.
type Snapshot struct {
	State        CoordinatorState
	SelectedSlot string
	Hold         *domain.Hold
}

func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := Snapshot{State: c.state, SelectedSlot: c.selectedSlot}
	if c.hold != nil {
		h := *c.hold
		snap.Hold = &h
	}
	return snap
}

// Select expresses intent to hold slotID. Reselecting the currently held
// slot is a no-op. If an acquire is already in flight, the new intent just
// supersedes the old one and is replayed when the in-flight call resolves.
func (c *Coordinator) Select(ctx context.Context, slotID string) (Snapshot, error) {
	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return c.Snapshot(), ErrSubmitInFlight
	}
	if c.hold != nil && c.hold.SlotID == slotID {
		c.selectedSlot = slotID
		c.state = StateHeld
		c.mu.Unlock()
		return c.Snapshot(), nil
	}

	c.seq++
	seq := c.seq
	c.requestedSlot = slotID
	c.selectedSlot = slotID
	c.state = StateHoldPending
	if c.acquiring {
		// An older intent's network call is still pending; it will notice
		// the sequence moved on and replay ours.
		c.mu.Unlock()
		return c.Snapshot(), nil
	}
	c.acquiring = true
	prev := c.hold
	c.mu.Unlock()

	return c.runSelection(ctx, slotID, seq, prev)
}

func (c *Coordinator) runSelection(ctx context.Context, slotID string, seq uint64, prev *domain.Hold) (Snapshot, error) {
	for {
		// Never hold two slots at once: release the old hold before
		// acquiring the new one.
		if prev != nil {
			if err := c.holds.Release(ctx, prev.ID); err != nil {
				c.mu.Lock()
				c.acquiring = false
				c.state = StateHeld
				c.mu.Unlock()
				return c.Snapshot(), err
			}
			c.mu.Lock()
			if c.hold != nil && c.hold.ID == prev.ID {
				c.hold = nil
			}
			c.mu.Unlock()
			prev = nil
		}

		hold, err := c.holds.Acquire(ctx, slotID, c.userID)

		c.mu.Lock()
		if seq != c.seq {
			// Stale completion: a newer selection superseded this one while
			// the call was in flight. Discard the result and replay the
			// latest intent.
			next, nextSeq := c.requestedSlot, c.seq
			c.mu.Unlock()
			if err == nil {
				_ = c.holds.Release(ctx, hold.ID)
			}
			slotID, seq = next, nextSeq
			continue
		}

		c.acquiring = false
		if err != nil {
			c.hold = nil
			c.state = StateNoSelection
			c.mu.Unlock()
			return c.Snapshot(), err
		}
		h := hold
		c.hold = &h
		c.selectedSlot = hold.SlotID
		c.state = StateHeld
		c.mu.Unlock()
		return c.Snapshot(), nil
	}
}

// SubmitForm carries the confirmation form into finalize.
type SubmitForm struct {
	DoctorID                string
	ServiceID               string
	Type                    domain.AppointmentType
	Reason                  string
	Email                   string
	Phone                   string
	RescheduleAppointmentID string
	PreviousSlotID          string
}

// Submit re-checks the hold's lease, then hands off to the finalizer. On
// ErrSlotUnavailable the selection is cleared (the user must pick another
// slot); on validation or transient errors the session stays Held so the
// same intent can be retried without re-acquiring.
func (c *Coordinator) Submit(ctx context.Context, form SubmitForm) (FinalizeResult, Snapshot, error) {
	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return FinalizeResult{}, c.Snapshot(), ErrSubmitInFlight
	}
	if c.state != StateHeld || c.hold == nil {
		c.mu.Unlock()
		return FinalizeResult{}, c.Snapshot(), ErrNoActiveHold
	}
	hold := *c.hold
	c.submitting = true
	c.state = StateSubmitting
	c.mu.Unlock()

	expired, _, err := c.holds.SweepHold(ctx, hold.ID)
	if err != nil {
		c.endSubmit(StateHeld, false)
		return FinalizeResult{}, c.Snapshot(), err
	}
	if expired {
		c.endSubmit(StateHoldExpired, true)
		return FinalizeResult{}, c.Snapshot(), domain.ErrHoldExpired
	}

	result, err := c.bookings.Finalize(ctx, FinalizeInput{
		UserID:                  c.userID,
		DoctorID:                form.DoctorID,
		SlotID:                  hold.SlotID,
		ServiceID:               form.ServiceID,
		Type:                    form.Type,
		Reason:                  form.Reason,
		Email:                   form.Email,
		Phone:                   form.Phone,
		RescheduleAppointmentID: form.RescheduleAppointmentID,
		PreviousSlotID:          form.PreviousSlotID,
	})
	switch {
	case err == nil:
		c.endSubmit(StateBooked, true)
		return result, c.Snapshot(), nil
	case errors.Is(err, domain.ErrHoldExpired):
		c.endSubmit(StateHoldExpired, true)
		return FinalizeResult{}, c.Snapshot(), err
	case errors.Is(err, domain.ErrSlotUnavailable), errors.Is(err, domain.ErrAlreadyHeldByOther):
		c.endSubmit(StateNoSelection, true)
		_ = c.holds.Release(ctx, hold.ID)
		return FinalizeResult{}, c.Snapshot(), err
	default:
		c.endSubmit(StateHeld, false)
		return FinalizeResult{}, c.Snapshot(), err
	}
}

// Release drops the hold with the given id. When it is the session's own
// hold the selection is cleared too, so a later reselect of the same slot
// acquires a fresh hold instead of trusting the dead one.
func (c *Coordinator) Release(ctx context.Context, holdID string) error {
	if err := c.holds.Release(ctx, holdID); err != nil {
		return err
	}
	c.mu.Lock()
	if c.hold != nil && c.hold.ID == holdID {
		c.hold = nil
		c.selectedSlot = ""
		c.requestedSlot = ""
		if c.state == StateHeld {
			c.state = StateNoSelection
		}
	}
	c.mu.Unlock()
	return nil
}

// Teardown releases any held slot. Called when the session ends without
// confirming; best-effort.
func (c *Coordinator) Teardown(ctx context.Context) {
	c.mu.Lock()
	hold := c.hold
	c.hold = nil
	c.selectedSlot = ""
	c.requestedSlot = ""
	c.state = StateNoSelection
	c.submitting = false
	c.mu.Unlock()

	if hold != nil {
		_ = c.holds.Release(ctx, hold.ID)
	}
	if c.done != nil {
		c.done()
	}
}

func (c *Coordinator) endSubmit(state CoordinatorState, clearHold bool) {
	c.mu.Lock()
	c.submitting = false
	c.state = state
	if clearHold {
		c.hold = nil
	}
	if state == StateBooked || state == StateHoldExpired || state == StateNoSelection {
		c.selectedSlot = ""
		c.requestedSlot = ""
	}
	c.mu.Unlock()

	if state == StateBooked && c.done != nil {
		c.done()
	}
}

// CoordinatorRegistry hands out one coordinator per user session.
type CoordinatorRegistry struct {
	holds    holdManager
	bookings bookingFinalizer

	mu sync.Mutex
	m  map[string]*Coordinator
}

func NewCoordinatorRegistry(holds holdManager, bookings bookingFinalizer) *CoordinatorRegistry {
	return &CoordinatorRegistry{
		holds:    holds,
		bookings: bookings,
		m:        make(map[string]*Coordinator),
	}
}

func (r *CoordinatorRegistry) For(userID string) *Coordinator {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.m[userID]; ok {
		return c
	}
	c := NewCoordinator(userID, r.holds, r.bookings)
	c.done = func() { r.evict(userID, c) }
	r.m[userID] = c
	return c
}

// evict removes a finished coordinator so the map does not grow without
// bound. Guarded on identity: a newer session for the same user stays.
func (r *CoordinatorRegistry) evict(userID string, c *Coordinator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.m[userID] == c {
		delete(r.m, userID)
	}
}
