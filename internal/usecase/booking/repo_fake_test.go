package booking

import (
	"context"
	"fmt"
	"sync"
	"time"

	domain "github.com/glowdesk/salon-scheduler/internal/domain/booking"
	"github.com/glowdesk/salon-scheduler/internal/httperr"
	"github.com/glowdesk/salon-scheduler/internal/models"
	"github.com/glowdesk/salon-scheduler/internal/timeutil"
)

// fakeRepo is an in-memory repository whose Transact serializes
// callers on a mutex, standing in for the provider row lock.
type fakeRepo struct {
	mu sync.Mutex

	provider  *models.Provider
	schedules map[int]*models.ProviderSchedule
	staff     []models.StaffMember
	services  map[uint]*domain.ResolvedService

	bookings []*models.Booking
	nextID   uint

	// number of upcoming Transact calls to fail with ErrTxConflict
	failTransacts int
	transacts     int
}

func newFakeRepo(provider *models.Provider) *fakeRepo {
	return &fakeRepo{
		provider:  provider,
		schedules: map[int]*models.ProviderSchedule{},
		services:  map[uint]*domain.ResolvedService{},
	}
}

// -------- Repository --------

func (f *fakeRepo) GetProviderByID(_ context.Context, id uint) (*models.Provider, error) {
	if f.provider == nil || f.provider.ID != id {
		return nil, httperr.Validation("provider_not_found", "provider not found")
	}
	return f.provider, nil
}

func (f *fakeRepo) GetProviderBySlug(_ context.Context, slug string) (*models.Provider, error) {
	if f.provider == nil || f.provider.Slug != slug {
		return nil, httperr.Validation("provider_not_found", "provider not found")
	}
	return f.provider, nil
}

func (f *fakeRepo) GetSchedule(_ context.Context, _ uint, weekday int) (*models.ProviderSchedule, error) {
	return f.schedules[weekday], nil
}

func (f *fakeRepo) ListActiveStaff(_ context.Context, _ uint) ([]models.StaffMember, error) {
	out := []models.StaffMember{}
	for _, st := range f.staff {
		if st.IsActive {
			out = append(out, st)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetStaffMember(_ context.Context, _ uint, staffID uint) (*models.StaffMember, error) {
	for i := range f.staff {
		if f.staff[i].ID == staffID {
			return &f.staff[i], nil
		}
	}
	return nil, httperr.Validation("staff_not_found", "staff member not found")
}

func (f *fakeRepo) ResolveService(_ context.Context, _ uint, ref domain.ServiceRef) (*domain.ResolvedService, error) {
	if svc, ok := f.services[ref.ProviderServiceID]; ok {
		return svc, nil
	}
	return nil, httperr.Validation("service_not_found", "service not found")
}

func (f *fakeRepo) GetOrCreateClient(_ context.Context, name, phone, email string) (*models.Client, error) {
	return &models.Client{ID: 1, Name: name, Phone: phone, Email: email}, nil
}

func (f *fakeRepo) ListBookingsForDay(_ context.Context, _ uint, dayStart, dayEnd time.Time) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := []models.Booking{}
	for _, b := range f.bookings {
		if b.Status == string(domain.StatusCancelled) {
			continue
		}
		if !b.StartTime.Before(dayStart) && b.StartTime.Before(dayEnd) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetBookingForProvider(_ context.Context, bookingID, _ uint) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, b := range f.bookings {
		if b.ID == bookingID {
			return b, nil
		}
	}
	return nil, fmt.Errorf("booking %d not found", bookingID)
}

func (f *fakeRepo) ListBookingsForPeriod(_ context.Context, _ uint, start, end time.Time) ([]models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := []models.Booking{}
	for _, b := range f.bookings {
		if !b.StartTime.Before(start) && b.StartTime.Before(end) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeRepo) UpdateBooking(_ context.Context, b *models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, existing := range f.bookings {
		if existing.ID == b.ID {
			f.bookings[i] = b
			return nil
		}
	}
	return fmt.Errorf("booking %d not found", b.ID)
}

func (f *fakeRepo) Transact(_ context.Context, fn func(tx domain.TxRepository) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.transacts++
	if f.failTransacts > 0 {
		f.failTransacts--
		return fmt.Errorf("%w: injected serialization failure", domain.ErrTxConflict)
	}

	return fn(f)
}

// -------- TxRepository (held under f.mu) --------

func (f *fakeRepo) LockProvider(_ context.Context, providerID uint) (*models.Provider, error) {
	if f.provider == nil || f.provider.ID != providerID {
		return nil, httperr.Validation("provider_not_found", "provider not found")
	}
	return f.provider, nil
}

func (f *fakeRepo) LockStaffMember(_ context.Context, _ uint, staffID uint) (*models.StaffMember, error) {
	for i := range f.staff {
		if f.staff[i].ID == staffID {
			return &f.staff[i], nil
		}
	}
	return nil, httperr.Validation("staff_not_found", "staff member not found")
}

func (f *fakeRepo) ListConflicting(_ context.Context, _ uint, staffID *uint, from, to time.Time) ([]models.Booking, error) {
	out := []models.Booking{}
	for _, b := range f.bookings {
		if b.Status == string(domain.StatusCancelled) {
			continue
		}
		if staffID != nil && b.StaffMemberID != nil && *b.StaffMemberID != *staffID {
			continue
		}
		if timeutil.OverlapsAt(b.StartTime, b.EndTime, from, to) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeRepo) InsertBooking(_ context.Context, b *models.Booking) error {
	f.nextID++
	b.ID = f.nextID
	copied := *b
	f.bookings = append(f.bookings, &copied)
	return nil
}

var (
	_ domain.Repository     = (*fakeRepo)(nil)
	_ domain.TxRepository   = (*fakeRepo)(nil)
	_ domain.ScheduleSource = (*fakeRepo)(nil)
)

// Schedule / ActiveStaff let the fake double as the cache in
// availability tests.
func (f *fakeRepo) Schedule(ctx context.Context, providerID uint, weekday int) (*models.ProviderSchedule, error) {
	return f.GetSchedule(ctx, providerID, weekday)
}

func (f *fakeRepo) ActiveStaff(ctx context.Context, providerID uint) ([]models.StaffMember, error) {
	return f.ListActiveStaff(ctx, providerID)
}

// nopSink discards audit entries in tests.
type nopSink struct{}

func (nopSink) Log(uint, *uint, string, string, *uint, any) error { return nil }
