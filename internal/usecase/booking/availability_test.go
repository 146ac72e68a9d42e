package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/glowdesk/salon-scheduler/internal/domain/booking"
	"github.com/glowdesk/salon-scheduler/internal/httperr"
	"github.com/glowdesk/salon-scheduler/internal/models"
	"github.com/glowdesk/salon-scheduler/internal/timeutil"
	"github.com/glowdesk/salon-scheduler/internal/timezone"
)

// 2027-03-01 is a Monday.
var testDay = time.Date(2027, 3, 1, 0, 0, 0, 0, timezone.Location("Asia/Kolkata"))

func testProvider() *models.Provider {
	return &models.Provider{
		ID:                7,
		Name:              "Glow Studio",
		Slug:              "glow-studio",
		Timezone:          "Asia/Kolkata",
		MinAdvanceMinutes: 30,
		StaffCount:        1,
	}
}

func mondaySchedule() *models.ProviderSchedule {
	return &models.ProviderSchedule{
		ProviderID:     7,
		Weekday:        1,
		StartTime:      "09:00",
		EndTime:        "18:00",
		BreakStartTime: "13:00",
		BreakEndTime:   "14:00",
		IsAvailable:    true,
		MaxSlots:       1,
	}
}

func istTime(day time.Time, h, m int) time.Time {
	loc := timezone.Location("Asia/Kolkata")
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, loc)
}

func setupRepo(staffCount int) *fakeRepo {
	repo := newFakeRepo(testProvider())
	repo.schedules[1] = mondaySchedule()
	for i := 1; i <= staffCount; i++ {
		repo.staff = append(repo.staff, models.StaffMember{
			ID: uint(i), ProviderID: 7, Name: "Staff", IsActive: true,
		})
	}
	repo.services[1] = &domain.ResolvedService{
		ID: 1, Source: "provider", Name: "Haircut", DurationMin: 30, Price: 500,
	}
	return repo
}

func TestAvailabilityClosedDayIsEmpty(t *testing.T) {
	repo := setupRepo(1)
	uc := NewGetAvailability(repo, repo, AvailabilityOptions{})

	// Tuesday has no schedule row at all
	tuesday := testDay.AddDate(0, 0, 1)
	slots, err := uc.Execute(context.Background(), domain.AvailabilityInput{
		ProviderID: 7, Date: tuesday, DurationMin: 30,
	})
	require.NoError(t, err)
	assert.Empty(t, slots)

	// a row toggled unavailable behaves the same
	repo.schedules[1].IsAvailable = false
	slots, err = uc.Execute(context.Background(), domain.AvailabilityInput{
		ProviderID: 7, Date: testDay, DurationMin: 30,
	})
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestAvailabilityNoStaffIsEmpty(t *testing.T) {
	repo := setupRepo(0)
	uc := NewGetAvailability(repo, repo, AvailabilityOptions{})

	slots, err := uc.Execute(context.Background(), domain.AvailabilityInput{
		ProviderID: 7, Date: testDay, DurationMin: 30,
	})
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestAvailabilityRejectsMissingDuration(t *testing.T) {
	repo := setupRepo(1)
	uc := NewGetAvailability(repo, repo, AvailabilityOptions{})

	_, err := uc.Execute(context.Background(), domain.AvailabilityInput{
		ProviderID: 7, Date: testDay,
	})
	require.Error(t, err)
}

func TestAvailabilityIsReadIdempotent(t *testing.T) {
	repo := setupRepo(2)
	staffA := uint(1)
	repo.bookings = append(repo.bookings, &models.Booking{
		ID: 1, TokenNumber: "BK-1", ProviderID: 7, StaffMemberID: &staffA,
		StartTime: istTime(testDay, 10, 0), EndTime: istTime(testDay, 10, 30),
		Status: string(domain.StatusPending),
	})
	uc := NewGetAvailability(repo, repo, AvailabilityOptions{})

	in := domain.AvailabilityInput{ProviderID: 7, Date: testDay, DurationMin: 30}

	first, err := uc.Execute(context.Background(), in)
	require.NoError(t, err)
	second, err := uc.Execute(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAvailabilitySlotsNeverTouchPaddedBreak(t *testing.T) {
	repo := setupRepo(1)
	uc := NewGetAvailability(repo, repo, AvailabilityOptions{})

	slots, err := uc.Execute(context.Background(), domain.AvailabilityInput{
		ProviderID: 7, Date: testDay, DurationMin: 30,
	})
	require.NoError(t, err)
	require.NotEmpty(t, slots)

	breakStart := timeutil.MinutesOfDay("13:00") - DefaultBufferMin
	breakEnd := timeutil.MinutesOfDay("14:00") + DefaultBufferMin

	for _, slot := range slots {
		s := timeutil.MinutesOfDay(slot.Start)
		e := timeutil.MinutesOfDay(slot.End)
		assert.False(t, timeutil.Overlaps(s, e, breakStart, breakEnd),
			"slot %s-%s intersects padded break", slot.Start, slot.End)
	}

	// generation resumes after breakEnd + buffer
	found := false
	for _, slot := range slots {
		if slot.Start == "14:05" {
			found = true
		}
	}
	assert.True(t, found, "expected a slot at 14:05")
}

func TestAvailabilityLastSlotMayEndAtClosingTime(t *testing.T) {
	repo := setupRepo(1)
	repo.schedules[1] = &models.ProviderSchedule{
		ProviderID: 7, Weekday: 1,
		StartTime: "09:00", EndTime: "10:05",
		IsAvailable: true, MaxSlots: 1,
	}
	uc := NewGetAvailability(repo, repo, AvailabilityOptions{})

	slots, err := uc.Execute(context.Background(), domain.AvailabilityInput{
		ProviderID: 7, Date: testDay, DurationMin: 30,
	})
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, "09:00", slots[0].Start)
	assert.Equal(t, "09:35", slots[1].Start)
	assert.Equal(t, "10:05", slots[1].End)
}

func TestAvailabilityStaffIndependence(t *testing.T) {
	repo := setupRepo(2)
	staffA := uint(1)
	repo.bookings = append(repo.bookings, &models.Booking{
		ID: 1, TokenNumber: "BK-1", ProviderID: 7, StaffMemberID: &staffA,
		StartTime: istTime(testDay, 9, 0), EndTime: istTime(testDay, 9, 30),
		Status: string(domain.StatusPending),
	})
	uc := NewGetAvailability(repo, repo, AvailabilityOptions{})

	slots, err := uc.Execute(context.Background(), domain.AvailabilityInput{
		ProviderID: 7, Date: testDay, DurationMin: 30,
	})
	require.NoError(t, err)
	require.NotEmpty(t, slots)

	// staff B keeps 09:00-09:30 open even though staff A is booked
	assert.Equal(t, "09:00", slots[0].Start)
	assert.Equal(t, uint(2), slots[0].StaffMemberID)
	assert.Equal(t, 1, slots[0].AvailableSpots)
	assert.Equal(t, 1, slots[0].CurrentBookings)
}

func TestAvailabilityUnassignedBookingBlocksWholeRoster(t *testing.T) {
	repo := setupRepo(2)
	repo.bookings = append(repo.bookings, &models.Booking{
		ID: 1, TokenNumber: "BK-1", ProviderID: 7, StaffMemberID: nil,
		StartTime: istTime(testDay, 9, 0), EndTime: istTime(testDay, 9, 30),
		Status: string(domain.StatusPending),
	})
	uc := NewGetAvailability(repo, repo, AvailabilityOptions{})

	slots, err := uc.Execute(context.Background(), domain.AvailabilityInput{
		ProviderID: 7, Date: testDay, DurationMin: 30,
	})
	require.NoError(t, err)
	require.NotEmpty(t, slots)
	assert.NotEqual(t, "09:00", slots[0].Start)
}

func TestFreeWindowsStaffIndependence(t *testing.T) {
	repo := setupRepo(2)
	staffA := uint(1)
	repo.bookings = append(repo.bookings, &models.Booking{
		ID: 1, TokenNumber: "BK-1", ProviderID: 7, StaffMemberID: &staffA,
		StartTime: istTime(testDay, 9, 0), EndTime: istTime(testDay, 9, 30),
		Status: string(domain.StatusPending),
	})
	uc := NewGetFreeWindows(repo, repo, AvailabilityOptions{})

	out, err := uc.Execute(context.Background(), domain.FreeWindowsInput{
		ProviderID: 7, Date: testDay, DurationMin: 30,
	})
	require.NoError(t, err)
	require.Len(t, out, 2)

	// staff A's day opens after their padded booking
	require.NotEmpty(t, out[0].Windows)
	assert.Equal(t, uint(1), out[0].StaffMemberID)
	assert.Equal(t, "09:35", out[0].Windows[0].Start)

	// staff B still starts at opening time
	require.NotEmpty(t, out[1].Windows)
	assert.Equal(t, uint(2), out[1].StaffMemberID)
	assert.Equal(t, "09:00", out[1].Windows[0].Start)
	assert.Equal(t, "12:55", out[1].Windows[0].End)
}

func TestFreeWindowsOnlyFittingWindowsReturned(t *testing.T) {
	repo := setupRepo(1)
	staffA := uint(1)
	// leave a 20-minute gap between two bookings
	repo.bookings = append(repo.bookings,
		&models.Booking{
			ID: 1, TokenNumber: "BK-1", ProviderID: 7, StaffMemberID: &staffA,
			StartTime: istTime(testDay, 9, 0), EndTime: istTime(testDay, 10, 0),
			Status: string(domain.StatusPending),
		},
		&models.Booking{
			ID: 2, TokenNumber: "BK-2", ProviderID: 7, StaffMemberID: &staffA,
			StartTime: istTime(testDay, 10, 30), EndTime: istTime(testDay, 11, 30),
			Status: string(domain.StatusPending),
		},
	)
	uc := NewGetFreeWindows(repo, repo, AvailabilityOptions{})

	out, err := uc.Execute(context.Background(), domain.FreeWindowsInput{
		ProviderID: 7, Date: testDay, DurationMin: 30,
	})
	require.NoError(t, err)
	require.Len(t, out, 1)

	for _, w := range out[0].Windows {
		assert.True(t, w.CanFitService)
		assert.GreaterOrEqual(t, w.DurationMin, 30)
		// the 10:05-10:25 gap between padded bookings cannot fit
		assert.NotEqual(t, "10:05", w.Start)
	}
}

func TestFreeWindowsMergesAdjacentBlocks(t *testing.T) {
	repo := setupRepo(1)
	staffA := uint(1)
	// back-to-back bookings whose padded intervals touch
	repo.bookings = append(repo.bookings,
		&models.Booking{
			ID: 1, TokenNumber: "BK-1", ProviderID: 7, StaffMemberID: &staffA,
			StartTime: istTime(testDay, 9, 0), EndTime: istTime(testDay, 10, 0),
			Status: string(domain.StatusPending),
		},
		&models.Booking{
			ID: 2, TokenNumber: "BK-2", ProviderID: 7, StaffMemberID: &staffA,
			StartTime: istTime(testDay, 10, 0), EndTime: istTime(testDay, 11, 0),
			Status: string(domain.StatusPending),
		},
	)
	uc := NewGetFreeWindows(repo, repo, AvailabilityOptions{})

	out, err := uc.Execute(context.Background(), domain.FreeWindowsInput{
		ProviderID: 7, Date: testDay, DurationMin: 30,
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.NotEmpty(t, out[0].Windows)
	assert.Equal(t, "11:05", out[0].Windows[0].Start)
}

func TestFreeWindowsCancelledBookingsIgnored(t *testing.T) {
	repo := setupRepo(1)
	staffA := uint(1)
	repo.bookings = append(repo.bookings, &models.Booking{
		ID: 1, TokenNumber: "BK-1", ProviderID: 7, StaffMemberID: &staffA,
		StartTime: istTime(testDay, 9, 0), EndTime: istTime(testDay, 12, 0),
		Status: string(domain.StatusCancelled),
	})
	uc := NewGetFreeWindows(repo, repo, AvailabilityOptions{})

	out, err := uc.Execute(context.Background(), domain.FreeWindowsInput{
		ProviderID: 7, Date: testDay, DurationMin: 30,
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.NotEmpty(t, out[0].Windows)
	assert.Equal(t, "09:00", out[0].Windows[0].Start)
}

func TestAvailabilityHonorsConfiguredBuffer(t *testing.T) {
	repo := setupRepo(1)
	uc := NewGetAvailability(repo, repo, AvailabilityOptions{BufferMin: 10})

	slots, err := uc.Execute(context.Background(), domain.AvailabilityInput{
		ProviderID: 7, Date: testDay, DurationMin: 30,
	})
	require.NoError(t, err)
	require.NotEmpty(t, slots)

	// step derives from duration + configured buffer
	assert.Equal(t, "09:00", slots[0].Start)
	assert.Equal(t, "09:40", slots[1].Start)

	breakStart := timeutil.MinutesOfDay("13:00") - 10
	breakEnd := timeutil.MinutesOfDay("14:00") + 10
	resumed := false
	for _, slot := range slots {
		s := timeutil.MinutesOfDay(slot.Start)
		e := timeutil.MinutesOfDay(slot.End)
		assert.False(t, timeutil.Overlaps(s, e, breakStart, breakEnd))
		if slot.Start == "14:10" {
			resumed = true
		}
		assert.NotEqual(t, "14:05", slot.Start)
	}
	assert.True(t, resumed, "expected generation to resume at 14:10")
}

func TestAvailabilityHonorsConfiguredSlotStep(t *testing.T) {
	repo := setupRepo(1)
	uc := NewGetAvailability(repo, repo, AvailabilityOptions{SlotStepMin: 15})

	slots, err := uc.Execute(context.Background(), domain.AvailabilityInput{
		ProviderID: 7, Date: testDay, DurationMin: 30,
	})
	require.NoError(t, err)
	require.Greater(t, len(slots), 2)
	assert.Equal(t, "09:00", slots[0].Start)
	assert.Equal(t, "09:15", slots[1].Start)
}

func TestFreeWindowsHonorConfiguredBuffer(t *testing.T) {
	repo := setupRepo(1)
	uc := NewGetFreeWindows(repo, repo, AvailabilityOptions{BufferMin: 10})

	out, err := uc.Execute(context.Background(), domain.FreeWindowsInput{
		ProviderID: 7, Date: testDay, DurationMin: 30,
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Len(t, out[0].Windows, 2)
	assert.Equal(t, "12:50", out[0].Windows[0].End)
	assert.Equal(t, "14:10", out[0].Windows[1].Start)
}

// The calculator and the creator must read the same buffer: any
// advertised post-break slot has to survive commit-time validation.
func TestConfiguredBufferConsistentAcrossModes(t *testing.T) {
	repo := setupRepo(1)
	avail := NewGetAvailability(repo, repo, AvailabilityOptions{BufferMin: 10})
	create := newCreateUC(repo, CreateOptions{BufferMin: 10})
	staffA := uint(1)

	slots, err := avail.Execute(context.Background(), domain.AvailabilityInput{
		ProviderID: 7, Date: testDay, DurationMin: 30,
	})
	require.NoError(t, err)

	var firstAfterBreak string
	for _, slot := range slots {
		if timeutil.MinutesOfDay(slot.Start) >= timeutil.MinutesOfDay("14:00") {
			firstAfterBreak = slot.Start
			break
		}
	}
	require.Equal(t, "14:10", firstAfterBreak)

	// the slot-mode grid never advertises 14:05 at this buffer, and
	// the creator rejects it for the same reason
	_, err = create.Execute(context.Background(), createInput(istTime(testDay, 14, 5), &staffA))
	require.Error(t, err)
	assert.True(t, httperr.IsCode(err, "break_overlap"))

	_, err = create.Execute(context.Background(), createInput(istTime(testDay, 14, 10), &staffA))
	require.NoError(t, err)
}

func TestAvailabilityBlankScheduleTimesTreatedAsClosed(t *testing.T) {
	repo := setupRepo(1)
	repo.schedules[1] = &models.ProviderSchedule{
		ProviderID: 7, Weekday: 1, IsAvailable: true, MaxSlots: 1,
	}

	slots, err := NewGetAvailability(repo, repo, AvailabilityOptions{}).
		Execute(context.Background(), domain.AvailabilityInput{
			ProviderID: 7, Date: testDay, DurationMin: 30,
		})
	require.NoError(t, err)
	assert.Empty(t, slots)

	windows, err := NewGetFreeWindows(repo, repo, AvailabilityOptions{}).
		Execute(context.Background(), domain.FreeWindowsInput{
			ProviderID: 7, Date: testDay, DurationMin: 30,
		})
	require.NoError(t, err)
	assert.Empty(t, windows)
}
