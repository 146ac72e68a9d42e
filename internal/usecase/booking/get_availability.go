package booking

import (
	"context"

	domain "github.com/glowdesk/salon-scheduler/internal/domain/booking"
	"github.com/glowdesk/salon-scheduler/internal/httperr"
	"github.com/glowdesk/salon-scheduler/internal/models"
	"github.com/glowdesk/salon-scheduler/internal/timeutil"
	"github.com/glowdesk/salon-scheduler/internal/timezone"
)

const (
	DefaultBufferMin   = 5
	DefaultSlotStepMin = 15
)

// GetAvailability produces the discrete bookable slots for one
// provider and date (grid mode, used by legacy UIs and the provider
// dashboard scan). Capacity is staff-scoped: one staff member's
// booking never blocks another's overlapping slot, except unassigned
// provider-level bookings which block the whole roster.
type GetAvailability struct {
	repo  domain.Repository
	sched domain.ScheduleSource

	bufferMin   int
	slotStepMin int
}

// AvailabilityOptions carry the operator-configured defaults shared
// with the booking creator, so both sides of the availability
// contract pad intervals identically. A zero SlotStepMin derives the
// step from duration plus buffer.
type AvailabilityOptions struct {
	BufferMin   int
	SlotStepMin int
}

func NewGetAvailability(
	repo domain.Repository,
	sched domain.ScheduleSource,
	opts AvailabilityOptions,
) *GetAvailability {
	if opts.BufferMin <= 0 {
		opts.BufferMin = DefaultBufferMin
	}
	return &GetAvailability{
		repo:        repo,
		sched:       sched,
		bufferMin:   opts.BufferMin,
		slotStepMin: opts.SlotStepMin,
	}
}

func (uc *GetAvailability) Execute(
	ctx context.Context,
	in domain.AvailabilityInput,
) ([]domain.Slot, error) {

	if in.DurationMin <= 0 {
		return nil, httperr.Validation("invalid_duration", "service duration is required")
	}

	provider, err := uc.repo.GetProviderByID(ctx, in.ProviderID)
	if err != nil {
		return nil, err
	}

	loc := timezone.Location(provider.Timezone)
	day := in.Date.In(loc)

	sched, err := uc.sched.Schedule(ctx, provider.ID, int(day.Weekday()))
	if err != nil {
		return nil, err
	}
	if sched == nil || !sched.IsAvailable || sched.StartTime == "" || sched.EndTime == "" {
		return []domain.Slot{}, nil
	}

	staff, err := uc.sched.ActiveStaff(ctx, provider.ID)
	if err != nil {
		return nil, err
	}
	if len(staff) == 0 {
		return []domain.Slot{}, nil
	}

	buffer := in.BufferMin
	if buffer <= 0 {
		buffer = uc.bufferMin
	}

	busy, err := loadBusyIntervals(ctx, uc.repo, provider.ID, day, loc)
	if err != nil {
		return nil, err
	}

	openMin := timeutil.MinutesOfDay(sched.StartTime)
	closeMin := timeutil.MinutesOfDay(sched.EndTime)

	hasBreak := sched.HasBreak()
	var breakStart, breakEnd int
	if hasBreak {
		breakStart = timeutil.MinutesOfDay(sched.BreakStartTime)
		breakEnd = timeutil.MinutesOfDay(sched.BreakEndTime)
	}

	maxParallel := maxParallelSlots(sched, provider, len(staff))

	step := in.SlotStepMin
	if step <= 0 {
		step = uc.slotStepMin
	}
	if step <= 0 {
		step = in.DurationMin + buffer
	}

	slots := []domain.Slot{}

	for cur := openMin; cur+in.DurationMin <= closeMin; {
		slotStart := cur
		slotEnd := cur + in.DurationMin

		// a slot straddling the padded break is never emitted:
		// resume after the break instead
		if hasBreak && timeutil.Overlaps(slotStart, slotEnd, breakStart-buffer, breakEnd+buffer) {
			cur = breakEnd + buffer
			continue
		}

		overlapping := 0
		for _, iv := range busy {
			if timeutil.Overlaps(slotStart-buffer, slotEnd+buffer, iv.start-buffer, iv.end+buffer) {
				overlapping++
			}
		}

		freeStaff := 0
		var first *models.StaffMember
		for i := range staff {
			if staffBusy(staff[i].ID, busy, slotStart, slotEnd, buffer) {
				continue
			}
			freeStaff++
			if first == nil {
				first = &staff[i]
			}
		}

		if freeStaff > 0 {
			available := freeStaff
			if available > maxParallel {
				available = maxParallel
			}
			slots = append(slots, domain.Slot{
				Start:           timeutil.ClockString(slotStart),
				End:             timeutil.ClockString(slotEnd),
				StaffMemberID:   first.ID,
				StaffName:       first.Name,
				AvailableSpots:  available,
				CurrentBookings: overlapping,
			})
		}

		cur += step
	}

	return slots, nil
}

// staffBusy: a staff member is busy for a candidate when any booking
// on their timeline, or any unassigned booking, overlaps once both
// sides carry the buffer.
func staffBusy(staffID uint, busy []busyInterval, slotStart, slotEnd, buffer int) bool {
	for _, iv := range busy {
		if iv.staffID != nil && *iv.staffID != staffID {
			continue
		}
		if timeutil.Overlaps(slotStart-buffer, slotEnd+buffer, iv.start-buffer, iv.end+buffer) {
			return true
		}
	}
	return false
}
