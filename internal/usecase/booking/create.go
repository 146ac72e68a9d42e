package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/glowdesk/salon-scheduler/internal/audit"
	domain "github.com/glowdesk/salon-scheduler/internal/domain/booking"
	"github.com/glowdesk/salon-scheduler/internal/httperr"
	"github.com/glowdesk/salon-scheduler/internal/models"
	"github.com/glowdesk/salon-scheduler/internal/timeutil"
	"github.com/glowdesk/salon-scheduler/internal/timezone"
)

const (
	DefaultMaxRetries = 3
	DefaultTxTimeout  = 10 * time.Second

	retryBaseDelay = 100 * time.Millisecond
	retryCapDelay  = time.Second
)

// ======================================================
// INPUT
// ======================================================

type CreateInput struct {
	ProviderID    uint
	StaffMemberID *uint

	ClientName  string
	ClientPhone string
	ClientEmail string

	Service domain.ServiceRef

	// Absolute appointment start; the end is derived from the
	// resolved service duration.
	StartTime time.Time

	Notes string
}

// ======================================================
// USE CASE
// ======================================================

// CreateBooking is the sole writer of new booking rows. Every call
// ends in either a committed booking or a typed failure; conflicting
// concurrent attempts are serialized on the provider row lock, and
// exactly one of them commits.
type CreateBooking struct {
	repo  domain.Repository
	audit *audit.Dispatcher
	log   *zap.Logger

	bufferMin  int
	maxRetries int
	txTimeout  time.Duration
}

type CreateOptions struct {
	BufferMin  int
	MaxRetries int
	TxTimeout  time.Duration
}

func NewCreateBooking(
	repo domain.Repository,
	dispatcher *audit.Dispatcher,
	log *zap.Logger,
	opts CreateOptions,
) *CreateBooking {
	if opts.BufferMin <= 0 {
		opts.BufferMin = DefaultBufferMin
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.TxTimeout <= 0 {
		opts.TxTimeout = DefaultTxTimeout
	}
	return &CreateBooking{
		repo:       repo,
		audit:      dispatcher,
		log:        log,
		bufferMin:  opts.BufferMin,
		maxRetries: opts.MaxRetries,
		txTimeout:  opts.TxTimeout,
	}
}

// ======================================================
// EXECUTE
// ======================================================

func (uc *CreateBooking) Execute(
	ctx context.Context,
	in CreateInput,
) (*models.Booking, error) {

	provider, err := uc.repo.GetProviderByID(ctx, in.ProviderID)
	if err != nil {
		return nil, err
	}

	loc := timezone.Location(provider.Timezone)
	start := in.StartTime.In(loc)

	minAdvance := provider.MinAdvanceMinutes
	if minAdvance <= 0 {
		minAdvance = 120
	}
	now := timezone.NowIn(provider.Timezone)
	if start.Before(now.Add(time.Duration(minAdvance) * time.Minute)) {
		return nil, httperr.Rejected("too_soon", "requested time is in the past or too soon")
	}

	service, err := uc.repo.ResolveService(ctx, provider.ID, in.Service)
	if err != nil {
		return nil, err
	}

	end := start.Add(time.Duration(service.DurationMin) * time.Minute)

	if in.StaffMemberID != nil {
		staff, err := uc.repo.GetStaffMember(ctx, provider.ID, *in.StaffMemberID)
		if err != nil {
			return nil, err
		}
		if !staff.IsActive {
			return nil, httperr.Rejected("staff_inactive", "staff member is not active")
		}
	}

	client, err := uc.repo.GetOrCreateClient(ctx, in.ClientName, in.ClientPhone, in.ClientEmail)
	if err != nil {
		return nil, err
	}

	token := newTokenNumber(start)

	var created *models.Booking

	backoff := retry.WithMaxRetries(
		uint64(uc.maxRetries-1),
		retry.WithCappedDuration(retryCapDelay, retry.NewExponential(retryBaseDelay)),
	)

	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, uc.txTimeout)
		defer cancel()

		attemptErr := uc.attempt(attemptCtx, provider, in, service, client, token, start, end, loc, &created)
		if isTransient(attemptErr) {
			return retry.RetryableError(attemptErr)
		}
		return attemptErr
	})

	if err != nil {
		if isTransient(err) {
			uc.log.Warn("booking retries exhausted",
				zap.Uint("provider_id", provider.ID),
				zap.String("token", token),
				zap.Error(err),
			)
			return nil, httperr.RetryExhausted(err)
		}
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		ProviderID:    provider.ID,
		StaffMemberID: in.StaffMemberID,
		Action:        "booking_created",
		Entity:        "booking",
		EntityID:      &created.ID,
	})

	uc.log.Info("booking created",
		zap.Uint("provider_id", provider.ID),
		zap.String("token", created.TokenNumber),
		zap.Time("start", created.StartTime),
	)

	return created, nil
}

// attempt is one transactional pass: lock, re-check conflicts against
// live rows, re-validate working hours, insert.
func (uc *CreateBooking) attempt(
	ctx context.Context,
	provider *models.Provider,
	in CreateInput,
	service *domain.ResolvedService,
	client *models.Client,
	token string,
	start, end time.Time,
	loc *time.Location,
	created **models.Booking,
) error {

	return uc.repo.Transact(ctx, func(tx domain.TxRepository) error {

		if _, err := tx.LockProvider(ctx, provider.ID); err != nil {
			return err
		}
		if in.StaffMemberID != nil {
			if _, err := tx.LockStaffMember(ctx, provider.ID, *in.StaffMemberID); err != nil {
				return err
			}
		}

		// padding both intervals by the buffer is the same as probing
		// raw stored rows with twice the buffer on each side
		from, to := domain.Pad(start, end, 2*uc.bufferMin)
		conflicts, err := tx.ListConflicting(ctx, provider.ID, in.StaffMemberID, from, to)
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return httperr.Conflict(conflicts[0].TokenNumber)
		}

		sched, err := tx.GetSchedule(ctx, provider.ID, int(start.Weekday()))
		if err != nil {
			return err
		}
		if err := validateWithinHours(sched, start, end, loc, uc.bufferMin); err != nil {
			return err
		}

		b := &models.Booking{
			TokenNumber:   token,
			ClientID:      client.ID,
			ProviderID:    provider.ID,
			StaffMemberID: in.StaffMemberID,
			ServiceName:   service.Name,
			Price:         service.Price,
			StartTime:     start,
			// the buffer never widens the stored boundaries
			EndTime: end,
			Status:  string(domain.InitialStatus()),
			Notes:   in.Notes,
		}

		if err := tx.InsertBooking(ctx, b); err != nil {
			return err
		}

		*created = b
		return nil
	})
}

// validateWithinHours checks the request against the provider's civil
// working hours for that weekday. Bounds are compared raw (an end
// exactly at closing time passes); the break window carries the
// buffer on both sides.
func validateWithinHours(
	sched *models.ProviderSchedule,
	start, end time.Time,
	loc *time.Location,
	bufferMin int,
) error {

	if sched == nil || !sched.IsAvailable || sched.StartTime == "" || sched.EndTime == "" {
		return httperr.Rejected("day_unavailable", "provider is not available on this day")
	}

	startMin := minuteOfDay(start, loc)
	endMin := startMin + int(end.Sub(start).Minutes())

	if startMin < timeutil.MinutesOfDay(sched.StartTime) ||
		endMin > timeutil.MinutesOfDay(sched.EndTime) {
		return httperr.Rejected("outside_working_hours", "requested time is outside working hours")
	}

	if sched.HasBreak() {
		breakStart := timeutil.MinutesOfDay(sched.BreakStartTime) - bufferMin
		breakEnd := timeutil.MinutesOfDay(sched.BreakEndTime) + bufferMin
		if timeutil.Overlaps(startMin, endMin, breakStart, breakEnd) {
			return httperr.Rejected("break_overlap", "requested time overlaps the break window")
		}
	}

	return nil
}

func isTransient(err error) bool {
	return errors.Is(err, domain.ErrTxConflict) || errors.Is(err, context.DeadlineExceeded)
}

func newTokenNumber(start time.Time) string {
	ref := strings.ToUpper(uuid.NewString()[:8])
	return fmt.Sprintf("BK-%s-%s", start.Format("20060102"), ref)
}
