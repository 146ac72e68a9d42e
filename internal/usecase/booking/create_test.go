package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/glowdesk/salon-scheduler/internal/audit"
	domain "github.com/glowdesk/salon-scheduler/internal/domain/booking"
	"github.com/glowdesk/salon-scheduler/internal/httperr"
	"github.com/glowdesk/salon-scheduler/internal/models"
)

func newCreateUC(repo *fakeRepo, opts CreateOptions) *CreateBooking {
	log := zap.NewNop()
	return NewCreateBooking(repo, audit.NewDispatcher(nopSink{}, log), log, opts)
}

func createInput(start time.Time, staffID *uint) CreateInput {
	return CreateInput{
		ProviderID:    7,
		StaffMemberID: staffID,
		ClientName:    "Asha",
		ClientPhone:   "+919900112233",
		Service:       domain.ServiceRef{ProviderServiceID: 1},
		StartTime:     start,
	}
}

func TestCreateBookingSuccess(t *testing.T) {
	repo := setupRepo(1)
	uc := newCreateUC(repo, CreateOptions{})
	staffA := uint(1)

	b, err := uc.Execute(context.Background(), createInput(istTime(testDay, 14, 10), &staffA))
	require.NoError(t, err)

	assert.Equal(t, string(domain.StatusPending), b.Status)
	assert.Equal(t, "Haircut", b.ServiceName)
	assert.True(t, b.EndTime.Equal(istTime(testDay, 14, 40)))
	assert.Regexp(t, `^BK-20270301-[0-9A-F]{8}$`, b.TokenNumber)

	require.Len(t, repo.bookings, 1)
	assert.Equal(t, b.TokenNumber, repo.bookings[0].TokenNumber)
}

func TestCreateBookingRejectsTooSoon(t *testing.T) {
	repo := setupRepo(1)
	uc := newCreateUC(repo, CreateOptions{})
	staffA := uint(1)

	_, err := uc.Execute(context.Background(), createInput(time.Now().Add(5*time.Minute), &staffA))
	require.Error(t, err)
	assert.Equal(t, httperr.KindRejected, httperr.KindOf(err))
	assert.True(t, httperr.IsCode(err, "too_soon"))
}

func TestCreateBookingBreakWindowEnforced(t *testing.T) {
	repo := setupRepo(1)
	uc := newCreateUC(repo, CreateOptions{})
	staffA := uint(1)

	// 13:25-13:55 falls inside the buffered 13:00-14:00 break
	_, err := uc.Execute(context.Background(), createInput(istTime(testDay, 13, 25), &staffA))
	require.Error(t, err)
	assert.Equal(t, httperr.KindRejected, httperr.KindOf(err))
	assert.True(t, httperr.IsCode(err, "break_overlap"))

	// 12:25-12:55 ends exactly where the buffered break starts
	_, err = uc.Execute(context.Background(), createInput(istTime(testDay, 12, 25), &staffA))
	require.NoError(t, err)

	// 14:10-14:40 clears the buffered break
	_, err = uc.Execute(context.Background(), createInput(istTime(testDay, 14, 10), &staffA))
	require.NoError(t, err)
}

func TestCreateBookingWorkingHoursBoundary(t *testing.T) {
	repo := setupRepo(1)
	uc := newCreateUC(repo, CreateOptions{})
	staffA := uint(1)

	// ending exactly at closing time is allowed
	b, err := uc.Execute(context.Background(), createInput(istTime(testDay, 17, 30), &staffA))
	require.NoError(t, err)
	assert.True(t, b.EndTime.Equal(istTime(testDay, 18, 0)))

	_, err = uc.Execute(context.Background(), createInput(istTime(testDay, 17, 35), &staffA))
	require.Error(t, err)
	assert.True(t, httperr.IsCode(err, "outside_working_hours"))

	_, err = uc.Execute(context.Background(), createInput(istTime(testDay, 8, 30), &staffA))
	require.Error(t, err)
	assert.True(t, httperr.IsCode(err, "outside_working_hours"))
}

func TestCreateBookingClosedDayRejected(t *testing.T) {
	repo := setupRepo(1)
	uc := newCreateUC(repo, CreateOptions{})
	staffA := uint(1)

	sunday := testDay.AddDate(0, 0, 6)
	_, err := uc.Execute(context.Background(), createInput(istTime(sunday, 10, 0), &staffA))
	require.Error(t, err)
	assert.True(t, httperr.IsCode(err, "day_unavailable"))
}

func TestCreateBookingConflictNamesWinner(t *testing.T) {
	repo := setupRepo(1)
	staffA := uint(1)
	repo.bookings = append(repo.bookings, &models.Booking{
		ID: 1, TokenNumber: "BK-20270301-WINNER01", ProviderID: 7, StaffMemberID: &staffA,
		StartTime: istTime(testDay, 14, 10), EndTime: istTime(testDay, 14, 40),
		Status: string(domain.StatusPending),
	})
	repo.nextID = 1
	uc := newCreateUC(repo, CreateOptions{})

	_, err := uc.Execute(context.Background(), createInput(istTime(testDay, 14, 10), &staffA))
	require.Error(t, err)
	assert.Equal(t, httperr.KindConflict, httperr.KindOf(err))
	assert.Equal(t, "BK-20270301-WINNER01", httperr.ConflictToken(err))
	assert.Len(t, repo.bookings, 1)
}

func TestCreateBookingBufferKeepsBackToBackApart(t *testing.T) {
	repo := setupRepo(1)
	staffA := uint(1)
	repo.bookings = append(repo.bookings, &models.Booking{
		ID: 1, TokenNumber: "BK-20270301-FIRST001", ProviderID: 7, StaffMemberID: &staffA,
		StartTime: istTime(testDay, 14, 10), EndTime: istTime(testDay, 14, 40),
		Status: string(domain.StatusPending),
	})
	repo.nextID = 1
	uc := newCreateUC(repo, CreateOptions{})

	// starting right at the previous end still violates the buffer
	_, err := uc.Execute(context.Background(), createInput(istTime(testDay, 14, 40), &staffA))
	require.Error(t, err)
	assert.Equal(t, httperr.KindConflict, httperr.KindOf(err))

	// ten minutes later both buffers are respected
	_, err = uc.Execute(context.Background(), createInput(istTime(testDay, 14, 50), &staffA))
	require.NoError(t, err)
}

func TestCreateBookingUnassignedBlocksEveryStaff(t *testing.T) {
	repo := setupRepo(2)
	repo.bookings = append(repo.bookings, &models.Booking{
		ID: 1, TokenNumber: "BK-20270301-POOL0001", ProviderID: 7, StaffMemberID: nil,
		StartTime: istTime(testDay, 14, 10), EndTime: istTime(testDay, 14, 40),
		Status: string(domain.StatusPending),
	})
	repo.nextID = 1
	uc := newCreateUC(repo, CreateOptions{})
	staffB := uint(2)

	_, err := uc.Execute(context.Background(), createInput(istTime(testDay, 14, 10), &staffB))
	require.Error(t, err)
	assert.Equal(t, httperr.KindConflict, httperr.KindOf(err))
}

func TestCreateBookingStaffTimelinesIndependent(t *testing.T) {
	repo := setupRepo(2)
	staffA, staffB := uint(1), uint(2)
	repo.bookings = append(repo.bookings, &models.Booking{
		ID: 1, TokenNumber: "BK-20270301-STAFFA01", ProviderID: 7, StaffMemberID: &staffA,
		StartTime: istTime(testDay, 14, 10), EndTime: istTime(testDay, 14, 40),
		Status: string(domain.StatusPending),
	})
	repo.nextID = 1
	uc := newCreateUC(repo, CreateOptions{})

	_, err := uc.Execute(context.Background(), createInput(istTime(testDay, 14, 10), &staffB))
	require.NoError(t, err)
	assert.Len(t, repo.bookings, 2)
}

func TestCreateBookingCancelledSlotIsReusable(t *testing.T) {
	repo := setupRepo(1)
	staffA := uint(1)
	repo.bookings = append(repo.bookings, &models.Booking{
		ID: 1, TokenNumber: "BK-20270301-GONE0001", ProviderID: 7, StaffMemberID: &staffA,
		StartTime: istTime(testDay, 14, 10), EndTime: istTime(testDay, 14, 40),
		Status: string(domain.StatusCancelled),
	})
	repo.nextID = 1
	uc := newCreateUC(repo, CreateOptions{})

	_, err := uc.Execute(context.Background(), createInput(istTime(testDay, 14, 10), &staffA))
	require.NoError(t, err)
}

func TestCreateBookingInactiveStaffRejected(t *testing.T) {
	repo := setupRepo(2)
	repo.staff[1].IsActive = false
	uc := newCreateUC(repo, CreateOptions{})
	staffB := uint(2)

	_, err := uc.Execute(context.Background(), createInput(istTime(testDay, 14, 10), &staffB))
	require.Error(t, err)
	assert.True(t, httperr.IsCode(err, "staff_inactive"))
}

func TestCreateBookingRetriesTransientFailures(t *testing.T) {
	repo := setupRepo(1)
	repo.failTransacts = 2
	uc := newCreateUC(repo, CreateOptions{MaxRetries: 3})
	staffA := uint(1)

	_, err := uc.Execute(context.Background(), createInput(istTime(testDay, 14, 10), &staffA))
	require.NoError(t, err)
	assert.Equal(t, 3, repo.transacts)
	assert.Len(t, repo.bookings, 1)
}

func TestCreateBookingRetriesExhausted(t *testing.T) {
	repo := setupRepo(1)
	repo.failTransacts = 3
	uc := newCreateUC(repo, CreateOptions{MaxRetries: 3})
	staffA := uint(1)

	_, err := uc.Execute(context.Background(), createInput(istTime(testDay, 14, 10), &staffA))
	require.Error(t, err)
	assert.Equal(t, httperr.KindRetryExhausted, httperr.KindOf(err))
	assert.True(t, httperr.IsCode(err, "max_retries_exceeded"))
	assert.Equal(t, 3, repo.transacts)
	assert.Empty(t, repo.bookings)
}

func TestCreateBookingConcurrentIdenticalRequests(t *testing.T) {
	repo := setupRepo(1)
	uc := newCreateUC(repo, CreateOptions{})
	staffA := uint(1)
	in := createInput(istTime(testDay, 14, 10), &staffA)

	type result struct {
		booking *models.Booking
		err     error
	}
	results := make([]result, 2)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b, err := uc.Execute(context.Background(), in)
			results[i] = result{b, err}
		}(i)
	}
	wg.Wait()

	var winner *models.Booking
	var loserErr error
	for _, r := range results {
		if r.err == nil {
			require.Nil(t, winner, "both requests committed")
			winner = r.booking
		} else {
			loserErr = r.err
		}
	}

	require.NotNil(t, winner, "no request committed")
	require.Error(t, loserErr)
	assert.Equal(t, httperr.KindConflict, httperr.KindOf(loserErr))
	assert.Equal(t, winner.TokenNumber, httperr.ConflictToken(loserErr))
	assert.Len(t, repo.bookings, 1)
}
