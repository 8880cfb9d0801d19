package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Almasmm/doctor-appointment-api/internal/domain"
)

// fakeStore is an in-memory stand-in for the Postgres repositories. It
// enforces the same contracts the schema does: one hold per slot, one
// scheduled appointment per slot.
type fakeStore struct {
	mu     sync.Mutex
	slots  map[string]domain.Slot
	holds  map[string]domain.Hold
	appts  map[string]domain.Appointment
	users  map[string]domain.User
	events []domain.BookingEvent

	failSetSlotStatus error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		slots: make(map[string]domain.Slot),
		holds: make(map[string]domain.Hold),
		appts: make(map[string]domain.Appointment),
		users: make(map[string]domain.User),
	}
}

func (f *fakeStore) addSlot(id, doctorID string, status domain.SlotStatus, startAt time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.slots[id] = domain.Slot{
		ID:       id,
		DoctorID: doctorID,
		StartAt:  startAt,
		EndAt:    startAt.Add(30 * time.Minute),
		Status:   status,
	}
}

func (f *fakeStore) addUser(id, email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[id] = domain.User{ID: id, Email: email}
}

func (f *fakeStore) slotStatus(id string) domain.SlotStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.slots[id].Status
}

func (f *fakeStore) holdCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.holds)
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f *fakeStore) GetSlotForUpdate(_ context.Context, slotID string) (domain.Slot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	slot, ok := f.slots[slotID]
	if !ok {
		return domain.Slot{}, domain.ErrSlotNotFound
	}
	return slot, nil
}

func (f *fakeStore) GetSlot(ctx context.Context, slotID string) (domain.Slot, error) {
	return f.GetSlotForUpdate(ctx, slotID)
}

func (f *fakeStore) SetSlotStatus(_ context.Context, slotID string, status domain.SlotStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSetSlotStatus != nil {
		return f.failSetSlotStatus
	}
	slot, ok := f.slots[slotID]
	if !ok {
		return domain.ErrSlotNotFound
	}
	slot.Status = status
	f.slots[slotID] = slot
	return nil
}

func (f *fakeStore) ListSlots(_ context.Context, doctorID string, from, to time.Time) ([]domain.Slot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Slot
	for _, s := range f.slots {
		if s.DoctorID != doctorID || s.StartAt.Before(from) || s.StartAt.After(to) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartAt.Before(out[j].StartAt) })
	return out, nil
}

func (f *fakeStore) CreateSlots(_ context.Context, slots []domain.Slot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range slots {
		f.slots[s.ID] = s
	}
	return nil
}

func (f *fakeStore) GetHold(_ context.Context, id string) (*domain.Hold, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	hold, ok := f.holds[id]
	if !ok {
		return nil, nil
	}
	h := hold
	return &h, nil
}

func (f *fakeStore) GetHoldBySlot(_ context.Context, slotID string) (*domain.Hold, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, hold := range f.holds {
		if hold.SlotID == slotID {
			h := hold
			return &h, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListHoldsByUser(_ context.Context, userID string) ([]domain.Hold, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Hold
	for _, hold := range f.holds {
		if hold.UserID == userID {
			out = append(out, hold)
		}
	}
	return out, nil
}

func (f *fakeStore) ListExpiredHolds(_ context.Context, now time.Time, limit int) ([]domain.Hold, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Hold
	for _, hold := range f.holds {
		if hold.Expired(now) {
			out = append(out, hold)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeStore) ListExpiredHoldsByDoctor(_ context.Context, doctorID string, now time.Time) ([]domain.Hold, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Hold
	for _, hold := range f.holds {
		if slot, ok := f.slots[hold.SlotID]; ok && slot.DoctorID == doctorID && hold.Expired(now) {
			out = append(out, hold)
		}
	}
	return out, nil
}

// CreateHold mirrors the unique constraint on slot_holds.slot_id.
func (f *fakeStore) CreateHold(_ context.Context, hold domain.Hold) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.holds {
		if existing.SlotID == hold.SlotID {
			return domain.ErrAlreadyHeldByOther
		}
	}
	f.holds[hold.ID] = hold
	return nil
}

func (f *fakeStore) DeleteHold(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.holds, id)
	return nil
}

// CreateAppointment mirrors the partial unique index on scheduled slots.
func (f *fakeStore) CreateAppointment(_ context.Context, appt domain.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.appts {
		if existing.SlotID == appt.SlotID && existing.Status == domain.AppointmentStatusScheduled {
			return domain.ErrSlotUnavailable
		}
	}
	f.appts[appt.ID] = appt
	return nil
}

func (f *fakeStore) UpdateAppointment(_ context.Context, appt domain.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.appts[appt.ID]; !ok {
		return domain.ErrAppointmentNotFound
	}
	f.appts[appt.ID] = appt
	return nil
}

func (f *fakeStore) GetAppointment(_ context.Context, id string) (domain.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	appt, ok := f.appts[id]
	if !ok {
		return domain.Appointment{}, domain.ErrAppointmentNotFound
	}
	return appt, nil
}

func (f *fakeStore) ListAppointmentsByUser(_ context.Context, userID string) ([]domain.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Appointment
	for _, appt := range f.appts {
		if appt.UserID == userID {
			out = append(out, appt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeStore) GetUser(_ context.Context, id string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeStore) CountUsersByEmailExcluding(_ context.Context, email, excludeUserID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, user := range f.users {
		if user.ID != excludeUserID && user.Email == email {
			count++
		}
	}
	return count, nil
}

// Insert records the outbox event; used as the OutboxWriter in tests.
func (f *fakeStore) Insert(_ context.Context, event domain.BookingEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}
