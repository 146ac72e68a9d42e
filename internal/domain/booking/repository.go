package booking

import (
	"context"
	"errors"
	"time"

	"github.com/glowdesk/salon-scheduler/internal/models"
)

// ErrTxConflict marks a transaction failure caused by a concurrent
// writer (serialization failure, deadlock, lock-wait timeout).
// Attempts failing with it are eligible for the retry loop; every
// other failure is final for the attempt.
var ErrTxConflict = errors.New("booking: transaction conflict")

// ServiceRef names a service in exactly one of the three sources.
type ServiceRef struct {
	LegacyID          uint `json:"legacy_id"`
	CatalogID         uint `json:"catalog_id"`
	ProviderServiceID uint `json:"provider_service_id"`
}

// ResolvedService is the uniform tuple every source resolves to.
type ResolvedService struct {
	ID          uint
	Source      string
	Name        string
	DurationMin int
	Price       float64
}

// ScheduleSource serves weekly schedule and roster reads for the
// availability calculator. The cache implements it; staleness up to
// the TTL is acceptable here and nowhere else.
type ScheduleSource interface {
	Schedule(ctx context.Context, providerID uint, weekday int) (*models.ProviderSchedule, error)
	ActiveStaff(ctx context.Context, providerID uint) ([]models.StaffMember, error)
}

type Repository interface {
	// -------- Provider --------
	GetProviderByID(ctx context.Context, id uint) (*models.Provider, error)
	GetProviderBySlug(ctx context.Context, slug string) (*models.Provider, error)

	// -------- Schedule / staff (live, uncached) --------
	GetSchedule(ctx context.Context, providerID uint, weekday int) (*models.ProviderSchedule, error)
	ListActiveStaff(ctx context.Context, providerID uint) ([]models.StaffMember, error)
	GetStaffMember(ctx context.Context, providerID, staffID uint) (*models.StaffMember, error)

	// -------- Service resolution --------
	ResolveService(ctx context.Context, providerID uint, ref ServiceRef) (*ResolvedService, error)

	// -------- Client --------
	GetOrCreateClient(ctx context.Context, name, phone, email string) (*models.Client, error)

	// -------- Booking reads --------
	ListBookingsForDay(ctx context.Context, providerID uint, dayStart, dayEnd time.Time) ([]models.Booking, error)
	GetBookingForProvider(ctx context.Context, bookingID, providerID uint) (*models.Booking, error)
	ListBookingsForPeriod(ctx context.Context, providerID uint, start, end time.Time) ([]models.Booking, error)

	// -------- Booking writes --------
	UpdateBooking(ctx context.Context, b *models.Booking) error

	// Transact runs fn inside one storage transaction. Failures caused
	// by a concurrent writer come back wrapped in ErrTxConflict.
	Transact(ctx context.Context, fn func(tx TxRepository) error) error
}

// TxRepository is the slice of the contract visible inside a booking
// transaction; its reads observe the transaction's locks.
type TxRepository interface {
	// LockProvider takes the exclusive row lock serializing booking
	// attempts for this provider.
	LockProvider(ctx context.Context, providerID uint) (*models.Provider, error)
	LockStaffMember(ctx context.Context, providerID, staffID uint) (*models.StaffMember, error)

	GetSchedule(ctx context.Context, providerID uint, weekday int) (*models.ProviderSchedule, error)

	// ListConflicting returns non-cancelled bookings for the provider
	// (narrowed to staffID + unassigned when staffID is set) whose raw
	// interval intersects [from, to).
	ListConflicting(ctx context.Context, providerID uint, staffID *uint, from, to time.Time) ([]models.Booking, error)

	InsertBooking(ctx context.Context, b *models.Booking) error
}
