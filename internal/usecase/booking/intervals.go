package booking

import (
	"context"
	"sort"
	"time"

	domain "github.com/glowdesk/salon-scheduler/internal/domain/booking"
	"github.com/glowdesk/salon-scheduler/internal/models"
)

// busyInterval is a booking projected onto minutes-of-day in the
// provider's timezone. A nil staffID is an unassigned provider-level
// booking and blocks every staff member.
type busyInterval struct {
	start, end int
	staffID    *uint
}

func loadBusyIntervals(
	ctx context.Context,
	repo domain.Repository,
	providerID uint,
	day time.Time,
	loc *time.Location,
) ([]busyInterval, error) {

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.Add(24 * time.Hour)

	bookings, err := repo.ListBookingsForDay(ctx, providerID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	busy := make([]busyInterval, 0, len(bookings))
	for i := range bookings {
		b := &bookings[i]
		busy = append(busy, busyInterval{
			start:   minuteOfDay(b.StartTime, loc),
			end:     minuteOfDay(b.EndTime, loc),
			staffID: b.StaffMemberID,
		})
	}

	sort.Slice(busy, func(i, j int) bool { return busy[i].start < busy[j].start })
	return busy, nil
}

func minuteOfDay(t time.Time, loc *time.Location) int {
	local := t.In(loc)
	return local.Hour()*60 + local.Minute()
}

func maxParallelSlots(sched *models.ProviderSchedule, provider *models.Provider, staffCount int) int {
	max := sched.MaxSlots
	if staffCount > max {
		max = staffCount
	}
	if provider.StaffCount > max {
		max = provider.StaffCount
	}
	if max < 1 {
		max = 1
	}
	return max
}
