package app

import (
	"context"
	"time"

	"github.com/Almasmm/doctor-appointment-api/internal/clock"
	"github.com/Almasmm/doctor-appointment-api/internal/domain"
	"github.com/google/uuid"
)

type HoldRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetSlotForUpdate(ctx context.Context, slotID string) (domain.Slot, error)
	SetSlotStatus(ctx context.Context, slotID string, status domain.SlotStatus) error
	GetHold(ctx context.Context, id string) (*domain.Hold, error)
	GetHoldBySlot(ctx context.Context, slotID string) (*domain.Hold, error)
	ListHoldsByUser(ctx context.Context, userID string) ([]domain.Hold, error)
	ListExpiredHolds(ctx context.Context, now time.Time, limit int) ([]domain.Hold, error)
	ListExpiredHoldsByDoctor(ctx context.Context, doctorID string, now time.Time) ([]domain.Hold, error)
	CreateHold(ctx context.Context, hold domain.Hold) error
	DeleteHold(ctx context.Context, id string) error
}

// HoldService is the authority over slot holds: it owns the atomic
// check-and-set that decides which of two concurrent acquirers wins.
type HoldService struct {
	repo  HoldRepository
	clock clock.Clock
	lease time.Duration
}

const defaultHoldLease = 15 * time.Minute

func NewHoldService(repo HoldRepository, clk clock.Clock, opts ...HoldServiceOption) *HoldService {
	svc := &HoldService{
		repo:  repo,
		clock: clk,
		lease: defaultHoldLease,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type HoldServiceOption func(*HoldService)

// WithLease overrides the default lease duration for new holds.
func WithLease(d time.Duration) HoldServiceOption {
	return func(s *HoldService) {
		if d > 0 {
			s.lease = d
		}
	}
}

// Lease returns the configured hold lease duration.
func (s *HoldService) Lease() time.Duration {
	return s.lease
}

// Acquire claims the slot for the user. The whole check-and-set runs in one
// transaction: the slot row is locked, a live hold by the same user is
// returned as-is, a dead hold is removed, and the insert races on the
// slot_holds unique constraint so exactly one concurrent acquirer wins.
func (s *HoldService) Acquire(ctx context.Context, slotID, userID string) (domain.Hold, error) {
	now := s.clock.Now()
	var result domain.Hold

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		slot, err := s.repo.GetSlotForUpdate(txCtx, slotID)
		if err != nil {
			return err
		}
		if slot.Status == domain.SlotStatusBooked || slot.Status == domain.SlotStatusBlocked {
			return domain.ErrSlotUnavailable
		}

		existing, err := s.repo.GetHoldBySlot(txCtx, slotID)
		if err != nil {
			return err
		}
		if existing != nil {
			if !existing.Expired(now) {
				if existing.UserID == userID {
					result = *existing
					return nil
				}
				return domain.ErrAlreadyHeldByOther
			}
			// Dead hold: reclaim it inside the same transaction.
			if err := s.repo.DeleteHold(txCtx, existing.ID); err != nil {
				return err
			}
		}

		hold := domain.Hold{
			ID:        uuid.NewString(),
			SlotID:    slotID,
			UserID:    userID,
			ExpiresAt: now.Add(s.lease),
			CreatedAt: now,
		}
		if err := s.repo.CreateHold(txCtx, hold); err != nil {
			return err
		}
		if err := s.repo.SetSlotStatus(txCtx, slotID, domain.SlotStatusHeld); err != nil {
			return err
		}

		result = hold
		return nil
	})
	if err != nil {
		return domain.Hold{}, err
	}
	return result, nil
}

// Release deletes the hold and frees its slot, but only while the slot is
// still held: a racing finalize may already have booked it. Releasing a
// missing hold is a no-op.
func (s *HoldService) Release(ctx context.Context, holdID string) error {
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		hold, err := s.repo.GetHold(txCtx, holdID)
		if err != nil {
			if err == domain.ErrInvalidID {
				return nil
			}
			return err
		}
		if hold == nil {
			return nil
		}
		if err := s.repo.DeleteHold(txCtx, hold.ID); err != nil {
			return err
		}
		return s.freeSlotIfHeld(txCtx, hold.SlotID)
	})
}

// SweepHold checks one hold's lease and reclaims it when elapsed. It reports
// the freed slot so callers can reset selection state. Tolerates the hold
// having been deleted by another client.
func (s *HoldService) SweepHold(ctx context.Context, holdID string) (expired bool, slotID string, err error) {
	now := s.clock.Now()
	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		hold, err := s.repo.GetHold(txCtx, holdID)
		if err != nil {
			if err == domain.ErrInvalidID {
				return nil
			}
			return err
		}
		if hold == nil || !hold.Expired(now) {
			return nil
		}
		if err := s.repo.DeleteHold(txCtx, hold.ID); err != nil {
			return err
		}
		if err := s.freeSlotIfHeld(txCtx, hold.SlotID); err != nil {
			return err
		}
		expired = true
		slotID = hold.SlotID
		return nil
	})
	if err != nil {
		return false, "", err
	}
	return expired, slotID, nil
}

// SweepExpired reclaims up to limit expired holds and returns how many slots
// were freed. Sweeping is idempotent: a second pass over the same holds
// finds nothing.
func (s *HoldService) SweepExpired(ctx context.Context, limit int) (int, error) {
	now := s.clock.Now()
	holds, err := s.repo.ListExpiredHolds(ctx, now, limit)
	if err != nil {
		return 0, err
	}
	return s.reclaim(ctx, holds)
}

// SweepDoctor reclaims expired holds on a doctor's slots. Called at the slot
// listing touchpoint so patients never see stale held slots.
func (s *HoldService) SweepDoctor(ctx context.Context, doctorID string) (int, error) {
	now := s.clock.Now()
	holds, err := s.repo.ListExpiredHoldsByDoctor(ctx, doctorID, now)
	if err != nil {
		return 0, err
	}
	return s.reclaim(ctx, holds)
}

// ActiveForUser returns the user's current holds, hiding expired ones.
func (s *HoldService) ActiveForUser(ctx context.Context, userID string) ([]domain.Hold, error) {
	now := s.clock.Now()
	holds, err := s.repo.ListHoldsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	active := make([]domain.Hold, 0, len(holds))
	for _, h := range holds {
		if !h.Expired(now) {
			active = append(active, h)
		}
	}
	return active, nil
}

func (s *HoldService) reclaim(ctx context.Context, holds []domain.Hold) (int, error) {
	now := s.clock.Now()
	freed := 0
	for _, hold := range holds {
		hold := hold
		err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
			// Re-read under lock: another sweeper may have raced us here.
			current, err := s.repo.GetHold(txCtx, hold.ID)
			if err != nil {
				return err
			}
			if current == nil || !current.Expired(now) {
				return nil
			}
			if err := s.repo.DeleteHold(txCtx, current.ID); err != nil {
				return err
			}
			if err := s.freeSlotIfHeld(txCtx, current.SlotID); err != nil {
				return err
			}
			freed++
			return nil
		})
		if err != nil {
			return freed, err
		}
	}
	return freed, nil
}

func (s *HoldService) freeSlotIfHeld(ctx context.Context, slotID string) error {
	slot, err := s.repo.GetSlotForUpdate(ctx, slotID)
	if err != nil {
		if err == domain.ErrSlotNotFound {
			return nil
		}
		return err
	}
	if slot.Status != domain.SlotStatusHeld {
		return nil
	}
	return s.repo.SetSlotStatus(ctx, slotID, domain.SlotStatusFree)
}
