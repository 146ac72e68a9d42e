package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"gorm.io/gorm"

	domain "github.com/glowdesk/salon-scheduler/internal/domain/booking"
	"github.com/glowdesk/salon-scheduler/internal/httperr"
	"github.com/glowdesk/salon-scheduler/internal/models"
)

// ResolveService turns a reference into the uniform
// {id, name, duration, price} tuple, whichever of the three service
// tables it lives in. The caller must set exactly one id.
func (r *BookingGormRepository) ResolveService(
	ctx context.Context,
	providerID uint,
	ref domain.ServiceRef,
) (*domain.ResolvedService, error) {

	switch {
	case ref.LegacyID != 0:
		return r.resolveLegacyService(ctx, providerID, ref.LegacyID)
	case ref.CatalogID != 0:
		return r.resolveCatalogService(ctx, providerID, ref.CatalogID)
	case ref.ProviderServiceID != 0:
		return r.resolveProviderService(ctx, providerID, ref.ProviderServiceID)
	default:
		return nil, httperr.Validation("service_required", "a service reference is required")
	}
}

func (r *BookingGormRepository) resolveLegacyService(
	ctx context.Context,
	providerID, serviceID uint,
) (*domain.ResolvedService, error) {

	var svc models.Service
	err := r.db.WithContext(ctx).
		Where("id = ? AND provider_id = ? AND active = ?", serviceID, providerID, true).
		First(&svc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httperr.Validation("service_not_found", "service not found")
		}
		return nil, fmt.Errorf("resolve legacy service: %w", err)
	}

	duration := svc.DurationMin
	if duration <= 0 {
		// Legacy-data repair only: some imported rows kept the
		// duration in free text. Rows that still resolve to nothing
		// are rejected rather than guessed at.
		duration = durationFromNotes(svc.Notes)
	}
	if duration <= 0 {
		return nil, httperr.Validation("service_duration_missing", "service has no usable duration")
	}

	return &domain.ResolvedService{
		ID:          svc.ID,
		Source:      "legacy",
		Name:        svc.Name,
		DurationMin: duration,
		Price:       svc.Price,
	}, nil
}

func (r *BookingGormRepository) resolveCatalogService(
	ctx context.Context,
	providerID, catalogID uint,
) (*domain.ResolvedService, error) {

	var svc models.CatalogService
	err := r.db.WithContext(ctx).
		Where("id = ? AND active = ?", catalogID, true).
		First(&svc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httperr.Validation("service_not_found", "service not found")
		}
		return nil, fmt.Errorf("resolve catalog service: %w", err)
	}

	resolved := &domain.ResolvedService{
		ID:          svc.ID,
		Source:      "catalog",
		Name:        svc.Name,
		DurationMin: svc.DurationMin,
		Price:       svc.Price,
	}

	var override models.ProviderServiceOverride
	err = r.db.WithContext(ctx).
		Where("provider_id = ? AND catalog_service_id = ?", providerID, catalogID).
		First(&override).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return resolved, nil
		}
		return nil, fmt.Errorf("resolve service override: %w", err)
	}

	if override.DurationMin != nil {
		resolved.DurationMin = *override.DurationMin
	}
	if override.Price != nil {
		resolved.Price = *override.Price
	}

	return resolved, nil
}

func (r *BookingGormRepository) resolveProviderService(
	ctx context.Context,
	providerID, serviceID uint,
) (*domain.ResolvedService, error) {

	var svc models.ProviderService
	err := r.db.WithContext(ctx).
		Where("id = ? AND provider_id = ? AND active = ?", serviceID, providerID, true).
		First(&svc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httperr.Validation("service_not_found", "service not found")
		}
		return nil, fmt.Errorf("resolve provider service: %w", err)
	}

	return &domain.ResolvedService{
		ID:          svc.ID,
		Source:      "provider",
		Name:        svc.Name,
		DurationMin: svc.DurationMin,
		Price:       svc.Price,
	}, nil
}

var notesDurationRe = regexp.MustCompile(`(?i)(\d{1,3})\s*min`)

// durationFromNotes pulls "NN min" out of a legacy row's free-text
// notes. Best effort, used only when the structured column is empty.
func durationFromNotes(notes string) int {
	m := notesDurationRe.FindStringSubmatch(notes)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}
