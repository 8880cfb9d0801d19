package app

import (
	"context"
	"time"

	"github.com/Almasmm/doctor-appointment-api/internal/clock"
	"github.com/Almasmm/doctor-appointment-api/internal/domain"
	"github.com/google/uuid"
)

type SlotRepository interface {
	ListSlots(ctx context.Context, doctorID string, from, to time.Time) ([]domain.Slot, error)
	GetSlot(ctx context.Context, id string) (domain.Slot, error)
	SetSlotStatus(ctx context.Context, id string, status domain.SlotStatus) error
	CreateSlots(ctx context.Context, slots []domain.Slot) error
}

type doctorSweeper interface {
	SweepDoctor(ctx context.Context, doctorID string) (int, error)
}

// SlotService is the slot read/write surface. It is deliberately thin:
// status authority lives in the hold manager and the finalizer, which
// mutate slots through their own transactions.
type SlotService struct {
	repo    SlotRepository
	sweeper doctorSweeper
	clock   clock.Clock
}

func NewSlotService(repo SlotRepository, sweeper doctorSweeper, clk clock.Clock) *SlotService {
	return &SlotService{
		repo:    repo,
		sweeper: sweeper,
		clock:   clk,
	}
}

// List returns a doctor's slots in [from, to]. Expired holds on the
// doctor's slots are reclaimed first so callers never see stale held
// statuses.
func (s *SlotService) List(ctx context.Context, doctorID string, from, to time.Time) ([]domain.Slot, error) {
	if !to.After(from) {
		return nil, domain.ErrInvalidTimeRange
	}
	if _, err := s.sweeper.SweepDoctor(ctx, doctorID); err != nil {
		return nil, err
	}
	return s.repo.ListSlots(ctx, doctorID, from, to)
}

func (s *SlotService) Get(ctx context.Context, id string) (domain.Slot, error) {
	return s.repo.GetSlot(ctx, id)
}

// SetStatus is the administrative status override (block/unblock and manual
// correction). It validates the status value and nothing else.
func (s *SlotService) SetStatus(ctx context.Context, id string, status domain.SlotStatus) (domain.Slot, error) {
	if !domain.ValidSlotStatus(status) {
		return domain.Slot{}, domain.ErrInvalidStatus
	}
	if err := s.repo.SetSlotStatus(ctx, id, status); err != nil {
		return domain.Slot{}, err
	}
	return s.repo.GetSlot(ctx, id)
}

type GenerateSlotsInput struct {
	DoctorID    string
	DateFrom    time.Time
	DateTo      time.Time
	WorkStart   time.Duration // offset from midnight
	WorkEnd     time.Duration
	DurationMin int
	StepMin     int // defaults to DurationMin
}

type GenerateSlotsResult struct {
	Created []domain.Slot
	Skipped int
}

// GenerateBulk creates free slots over a date range, one per step inside
// the workday window. Candidates that overlap an existing slot, a slot
// created earlier in the same batch, or that start in the past are skipped.
func (s *SlotService) GenerateBulk(ctx context.Context, in GenerateSlotsInput) (GenerateSlotsResult, error) {
	if in.DoctorID == "" {
		return GenerateSlotsResult{}, domain.ErrInvalidID
	}
	if in.DurationMin <= 0 || in.DateTo.Before(in.DateFrom) || in.WorkEnd <= in.WorkStart {
		return GenerateSlotsResult{}, domain.ErrInvalidTimeRange
	}
	step := in.StepMin
	if step <= 0 {
		step = in.DurationMin
	}

	duration := time.Duration(in.DurationMin) * time.Minute
	stepDur := time.Duration(step) * time.Minute

	rangeFrom := in.DateFrom.Add(in.WorkStart)
	rangeTo := in.DateTo.Add(in.WorkEnd)
	now := s.clock.Now()
	if rangeTo.Before(now) {
		return GenerateSlotsResult{}, domain.ErrInvalidTimeRange
	}
	taken, err := s.repo.ListSlots(ctx, in.DoctorID, rangeFrom, rangeTo)
	if err != nil {
		return GenerateSlotsResult{}, err
	}

	var result GenerateSlotsResult
	for day := in.DateFrom; !day.After(in.DateTo); day = day.AddDate(0, 0, 1) {
		dayEnd := day.Add(in.WorkEnd)
		for start := day.Add(in.WorkStart); !start.Add(duration).After(dayEnd); start = start.Add(stepDur) {
			end := start.Add(duration)
			if start.Before(now) || overlapsAny(taken, start, end) {
				result.Skipped++
				continue
			}
			slot := domain.Slot{
				ID:       uuid.NewString(),
				DoctorID: in.DoctorID,
				StartAt:  start,
				EndAt:    end,
				Status:   domain.SlotStatusFree,
			}
			result.Created = append(result.Created, slot)
			// With step < duration, later candidates in this batch must be
			// checked against the ones just created as well.
			taken = append(taken, slot)
		}
	}

	if err := s.repo.CreateSlots(ctx, result.Created); err != nil {
		return GenerateSlotsResult{}, err
	}
	return result, nil
}

func overlapsAny(slots []domain.Slot, start, end time.Time) bool {
	for _, s := range slots {
		if s.StartAt.Before(end) && start.Before(s.EndAt) {
			return true
		}
	}
	return false
}
