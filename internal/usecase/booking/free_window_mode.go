package booking

import (
	"context"
	"sort"

	domain "github.com/glowdesk/salon-scheduler/internal/domain/booking"
	"github.com/glowdesk/salon-scheduler/internal/httperr"
	"github.com/glowdesk/salon-scheduler/internal/timeutil"
	"github.com/glowdesk/salon-scheduler/internal/timezone"
)

// GetFreeWindows computes each staff member's continuous free windows
// for one date (window mode). Unlike the slot grid it does not force
// bookings onto fixed boundaries, so it is the client-facing
// representation.
type GetFreeWindows struct {
	repo  domain.Repository
	sched domain.ScheduleSource

	bufferMin int
}

func NewGetFreeWindows(
	repo domain.Repository,
	sched domain.ScheduleSource,
	opts AvailabilityOptions,
) *GetFreeWindows {
	if opts.BufferMin <= 0 {
		opts.BufferMin = DefaultBufferMin
	}
	return &GetFreeWindows{repo: repo, sched: sched, bufferMin: opts.BufferMin}
}

func (uc *GetFreeWindows) Execute(
	ctx context.Context,
	in domain.FreeWindowsInput,
) ([]domain.StaffWindows, error) {

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
		return []domain.StaffWindows{}, nil
	}

	staff, err := uc.sched.ActiveStaff(ctx, provider.ID)
	if err != nil {
		return nil, err
	}
	if len(staff) == 0 {
		return []domain.StaffWindows{}, nil
	}

	buffer := in.BufferMin
	if buffer <= 0 {
		buffer = uc.bufferMin
	}

	busy, err := loadBusyIntervals(ctx, uc.repo, provider.ID, day, loc)
	if err != nil {
		return nil, err
	}

	workStart := timeutil.MinutesOfDay(sched.StartTime)
	workEnd := timeutil.MinutesOfDay(sched.EndTime)

	out := make([]domain.StaffWindows, 0, len(staff))

	for i := range staff {
		st := &staff[i]

		blocked := make([][2]int, 0, len(busy)+1)
		if sched.HasBreak() {
			blocked = append(blocked, [2]int{
				timeutil.MinutesOfDay(sched.BreakStartTime) - buffer,
				timeutil.MinutesOfDay(sched.BreakEndTime) + buffer,
			})
		}
		for _, iv := range busy {
			if iv.staffID != nil && *iv.staffID != st.ID {
				continue
			}
			blocked = append(blocked, [2]int{iv.start - buffer, iv.end + buffer})
		}

		windows := freeWindows(workStart, workEnd, mergeIntervals(blocked), in.DurationMin)

		out = append(out, domain.StaffWindows{
			StaffMemberID: st.ID,
			StaffName:     st.Name,
			Windows:       windows,
		})
	}

	return out, nil
}

// mergeIntervals sorts and coalesces overlapping or touching
// intervals.
func mergeIntervals(intervals [][2]int) [][2]int {
	if len(intervals) == 0 {
		return intervals
	}

	sort.Slice(intervals, func(i, j int) bool { return intervals[i][0] < intervals[j][0] })

	merged := [][2]int{intervals[0]}
	for _, iv := range intervals[1:] {
		last := &merged[len(merged)-1]
		if iv[0] <= last[1] {
			if iv[1] > last[1] {
				last[1] = iv[1]
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// freeWindows returns the complement of the merged blocked intervals
// within [workStart, workEnd), keeping only windows the service fits
// in.
func freeWindows(workStart, workEnd int, blocked [][2]int, durationMin int) []domain.FreeWindow {
	windows := []domain.FreeWindow{}
	cur := workStart

	emit := func(start, end int) {
		length := end - start
		if length < durationMin {
			return
		}
		windows = append(windows, domain.FreeWindow{
			Start:         timeutil.ClockString(start),
			End:           timeutil.ClockString(end),
			DurationMin:   length,
			CanFitService: true,
		})
	}

	for _, iv := range blocked {
		if iv[1] <= cur || iv[0] >= workEnd {
			continue
		}
		if iv[0] > cur {
			emit(cur, iv[0])
		}
		if iv[1] > cur {
			cur = iv[1]
		}
	}
	if cur < workEnd {
		emit(cur, workEnd)
	}

	return windows
}
