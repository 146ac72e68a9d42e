package booking

import (
	"context"

	"github.com/glowdesk/salon-scheduler/internal/audit"
	domain "github.com/glowdesk/salon-scheduler/internal/domain/booking"
	"github.com/glowdesk/salon-scheduler/internal/httperr"
	"github.com/glowdesk/salon-scheduler/internal/models"
	"github.com/glowdesk/salon-scheduler/internal/timezone"
)

// CancelBooking transitions a booking to cancelled, after which it is
// invisible to every conflict calculation but retained for history.
type CancelBooking struct {
	repo  domain.Repository
	audit *audit.Dispatcher
}

func NewCancelBooking(repo domain.Repository, dispatcher *audit.Dispatcher) *CancelBooking {
	return &CancelBooking{repo: repo, audit: dispatcher}
}

func (uc *CancelBooking) Execute(
	ctx context.Context,
	providerID uint,
	bookingID uint,
) (*models.Booking, error) {

	provider, err := uc.repo.GetProviderByID(ctx, providerID)
	if err != nil {
		return nil, err
	}

	b, err := uc.repo.GetBookingForProvider(ctx, bookingID, providerID)
	if err != nil {
		return nil, httperr.Validation("booking_not_found", "booking not found")
	}

	now := timezone.NowIn(provider.Timezone)
	if err := domain.Cancel(b, now); err != nil {
		return nil, err
	}

	if err := uc.repo.UpdateBooking(ctx, b); err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		ProviderID: providerID,
		Action:     "booking_cancelled",
		Entity:     "booking",
		EntityID:   &b.ID,
	})

	return b, nil
}
