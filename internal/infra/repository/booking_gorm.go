package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/glowdesk/salon-scheduler/internal/domain/booking"
	"github.com/glowdesk/salon-scheduler/internal/httperr"
	"github.com/glowdesk/salon-scheduler/internal/models"
)

type BookingGormRepository struct {
	db *gorm.DB
}

func NewBookingGormRepository(db *gorm.DB) *BookingGormRepository {
	return &BookingGormRepository{db: db}
}

// --------------------------------------------------
// Provider
// --------------------------------------------------

func (r *BookingGormRepository) GetProviderByID(
	ctx context.Context,
	id uint,
) (*models.Provider, error) {

	var provider models.Provider
	if err := r.db.WithContext(ctx).First(&provider, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httperr.Validation("provider_not_found", "provider not found")
		}
		return nil, fmt.Errorf("get provider: %w", err)
	}
	return &provider, nil
}

func (r *BookingGormRepository) GetProviderBySlug(
	ctx context.Context,
	slug string,
) (*models.Provider, error) {

	var provider models.Provider
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&provider).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httperr.Validation("provider_not_found", "provider not found")
		}
		return nil, fmt.Errorf("get provider by slug: %w", err)
	}
	return &provider, nil
}

// --------------------------------------------------
// Schedule / staff (live reads)
// --------------------------------------------------

func (r *BookingGormRepository) GetSchedule(
	ctx context.Context,
	providerID uint,
	weekday int,
) (*models.ProviderSchedule, error) {
	return getSchedule(r.db.WithContext(ctx), providerID, weekday)
}

func getSchedule(db *gorm.DB, providerID uint, weekday int) (*models.ProviderSchedule, error) {
	var sched models.ProviderSchedule
	err := db.
		Where("provider_id = ? AND weekday = ?", providerID, weekday).
		First(&sched).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// no row is a closed day, not an error
			return nil, nil
		}
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	return &sched, nil
}

func (r *BookingGormRepository) ListActiveStaff(
	ctx context.Context,
	providerID uint,
) ([]models.StaffMember, error) {

	var staff []models.StaffMember
	if err := r.db.WithContext(ctx).
		Where("provider_id = ? AND is_active = ?", providerID, true).
		Order("id ASC").
		Find(&staff).Error; err != nil {
		return nil, fmt.Errorf("list active staff: %w", err)
	}
	return staff, nil
}

func (r *BookingGormRepository) GetStaffMember(
	ctx context.Context,
	providerID, staffID uint,
) (*models.StaffMember, error) {

	var staff models.StaffMember
	err := r.db.WithContext(ctx).
		Where("id = ? AND provider_id = ?", staffID, providerID).
		First(&staff).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httperr.Validation("staff_not_found", "staff member not found")
		}
		return nil, fmt.Errorf("get staff member: %w", err)
	}
	return &staff, nil
}

// --------------------------------------------------
// Client
// --------------------------------------------------

func (r *BookingGormRepository) GetOrCreateClient(
	ctx context.Context,
	name, phone, email string,
) (*models.Client, error) {

	var client models.Client
	err := r.db.WithContext(ctx).
		Where("phone = ?", phone).
		First(&client).Error

	if err == nil {
		return &client, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find client: %w", err)
	}

	client = models.Client{
		Name:  name,
		Phone: phone,
		Email: email,
	}

	if err := r.db.WithContext(ctx).Create(&client).Error; err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	return &client, nil
}

// --------------------------------------------------
// Booking reads
// --------------------------------------------------

func (r *BookingGormRepository) ListBookingsForDay(
	ctx context.Context,
	providerID uint,
	dayStart, dayEnd time.Time,
) ([]models.Booking, error) {

	var bookings []models.Booking
	if err := r.db.WithContext(ctx).
		Where(
			"provider_id = ? AND status <> ? AND start_time >= ? AND start_time < ?",
			providerID, string(domain.StatusCancelled), dayStart, dayEnd,
		).
		Order("start_time ASC").
		Find(&bookings).Error; err != nil {
		return nil, fmt.Errorf("list bookings for day: %w", err)
	}

	return bookings, nil
}

func (r *BookingGormRepository) GetBookingForProvider(
	ctx context.Context,
	bookingID, providerID uint,
) (*models.Booking, error) {

	var b models.Booking
	if err := r.db.WithContext(ctx).
		Where("id = ? AND provider_id = ?", bookingID, providerID).
		First(&b).Error; err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}

	return &b, nil
}

func (r *BookingGormRepository) ListBookingsForPeriod(
	ctx context.Context,
	providerID uint,
	start, end time.Time,
) ([]models.Booking, error) {

	var bookings []models.Booking
	if err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("StaffMember").
		Where(
			"provider_id = ? AND start_time >= ? AND start_time < ?",
			providerID, start, end,
		).
		Order("start_time ASC").
		Find(&bookings).Error; err != nil {
		return nil, fmt.Errorf("list bookings for period: %w", err)
	}

	return bookings, nil
}

// --------------------------------------------------
// Booking writes
// --------------------------------------------------

func (r *BookingGormRepository) UpdateBooking(
	ctx context.Context,
	b *models.Booking,
) error {
	if err := r.db.WithContext(ctx).Save(b).Error; err != nil {
		return fmt.Errorf("update booking: %w", err)
	}
	return nil
}

// Transact wraps fn in one database transaction. Serialization
// failures, deadlocks and lock timeouts come back as ErrTxConflict so
// the creator's retry loop can tell racing from rejection.
func (r *BookingGormRepository) Transact(
	ctx context.Context,
	fn func(tx domain.TxRepository) error,
) error {

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&txRepository{db: tx})
	})

	if err != nil && isSerializationFailure(err) {
		return fmt.Errorf("%w: %v", domain.ErrTxConflict, err)
	}
	return err
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", // serialization_failure
			"40P01", // deadlock_detected
			"55P03": // lock_not_available
			return true
		}
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// --------------------------------------------------
// Transaction-scoped operations
// --------------------------------------------------

type txRepository struct {
	db *gorm.DB
}

func (t *txRepository) LockProvider(
	ctx context.Context,
	providerID uint,
) (*models.Provider, error) {

	var provider models.Provider
	if err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&provider, providerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httperr.Validation("provider_not_found", "provider not found")
		}
		return nil, fmt.Errorf("lock provider: %w", err)
	}
	return &provider, nil
}

func (t *txRepository) LockStaffMember(
	ctx context.Context,
	providerID, staffID uint,
) (*models.StaffMember, error) {

	var staff models.StaffMember
	if err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND provider_id = ?", staffID, providerID).
		First(&staff).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httperr.Validation("staff_not_found", "staff member not found")
		}
		return nil, fmt.Errorf("lock staff member: %w", err)
	}
	return &staff, nil
}

func (t *txRepository) GetSchedule(
	ctx context.Context,
	providerID uint,
	weekday int,
) (*models.ProviderSchedule, error) {
	return getSchedule(t.db.WithContext(ctx), providerID, weekday)
}

func (t *txRepository) ListConflicting(
	ctx context.Context,
	providerID uint,
	staffID *uint,
	from, to time.Time,
) ([]models.Booking, error) {

	q := t.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where(
			"provider_id = ? AND status <> ? AND start_time < ? AND end_time > ?",
			providerID, string(domain.StatusCancelled), to, from,
		)

	if staffID != nil {
		q = q.Where("staff_member_id = ? OR staff_member_id IS NULL", *staffID)
	}

	var conflicts []models.Booking
	if err := q.Order("start_time ASC").Find(&conflicts).Error; err != nil {
		return nil, fmt.Errorf("list conflicting bookings: %w", err)
	}

	return conflicts, nil
}

func (t *txRepository) InsertBooking(
	ctx context.Context,
	b *models.Booking,
) error {
	if err := t.db.WithContext(ctx).Create(b).Error; err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

// Compile-time checks
var (
	_ domain.Repository   = (*BookingGormRepository)(nil)
	_ domain.TxRepository = (*txRepository)(nil)
)
