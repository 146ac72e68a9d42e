package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	domain "github.com/glowdesk/salon-scheduler/internal/domain/booking"
	"github.com/glowdesk/salon-scheduler/internal/httperr"
	"github.com/glowdesk/salon-scheduler/internal/models"
	ucBooking "github.com/glowdesk/salon-scheduler/internal/usecase/booking"
	"github.com/glowdesk/salon-scheduler/internal/validators"
)

////////////////////////////////////////////////////////
// HANDLER
////////////////////////////////////////////////////////

type PublicHandler struct {
	db   *gorm.DB
	repo domain.Repository

	availability *ucBooking.GetAvailability
	freeWindows  *ucBooking.GetFreeWindows
	create       *ucBooking.CreateBooking
}

func NewPublicHandler(
	db *gorm.DB,
	repo domain.Repository,
	availability *ucBooking.GetAvailability,
	freeWindows *ucBooking.GetFreeWindows,
	create *ucBooking.CreateBooking,
) *PublicHandler {
	return &PublicHandler{
		db:           db,
		repo:         repo,
		availability: availability,
		freeWindows:  freeWindows,
		create:       create,
	}
}

////////////////////////////////////////////////////////
// DTOs
////////////////////////////////////////////////////////

type PublicCreateBookingRequest struct {
	ClientName  string `json:"client_name" binding:"required"`
	ClientPhone string `json:"client_phone" binding:"required"`
	ClientEmail string `json:"client_email"`

	ServiceID        uint `json:"service_id"`
	CatalogServiceID uint `json:"catalog_service_id"`

	StaffMemberID *uint `json:"staff_member_id"`

	Date  string `json:"date" binding:"required"` // YYYY-MM-DD
	Time  string `json:"time" binding:"required"` // HH:mm
	Notes string `json:"notes"`
}

////////////////////////////////////////////////////////
// SERVICES
////////////////////////////////////////////////////////

func (h *PublicHandler) ListServices(c *gin.Context) {
	slug := c.Param("slug")

	provider, err := h.repo.GetProviderBySlug(c.Request.Context(), slug)
	if err != nil {
		httperr.NotFound(c, "provider_not_found", "Provider not found.")
		return
	}

	query := strings.TrimSpace(strings.ToLower(c.Query("query")))

	q := h.db.WithContext(c.Request.Context()).
		Where("provider_id = ? AND active = true", provider.ID)

	if query != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+query+"%")
	}

	var services []models.ProviderService
	if err := q.Order("id ASC").Find(&services).Error; err != nil {
		httperr.Internal(c, "failed_to_list_services", "Failed to list services.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"provider": provider,
		"services": services,
	})
}

////////////////////////////////////////////////////////
// AVAILABILITY
////////////////////////////////////////////////////////

// Availability serves both representations of the same day: the slot
// grid (default) and, with ?mode=windows, each staff member's
// continuous free windows.
func (h *PublicHandler) Availability(c *gin.Context) {
	slug := c.Param("slug")
	dateStr := c.Query("date")
	serviceIDStr := c.Query("service_id")

	if dateStr == "" || serviceIDStr == "" {
		httperr.BadRequest(c, "missing_params", "Date and service are required.")
		return
	}

	serviceID, err := strconv.ParseUint(serviceIDStr, 10, 64)
	if err != nil {
		httperr.BadRequest(c, "invalid_service_id", "Invalid service.")
		return
	}

	provider, err := h.repo.GetProviderBySlug(c.Request.Context(), slug)
	if err != nil {
		httperr.NotFound(c, "provider_not_found", "Provider not found.")
		return
	}

	date, err := parseDateInProvider(provider, dateStr)
	if err != nil {
		httperr.BadRequest(c, "invalid_date", "Invalid date.")
		return
	}

	service, err := h.repo.ResolveService(
		c.Request.Context(),
		provider.ID,
		domain.ServiceRef{ProviderServiceID: uint(serviceID)},
	)
	if err != nil {
		httperr.WriteError(c, err)
		return
	}

	if c.Query("mode") == "windows" {
		windows, err := h.freeWindows.Execute(c.Request.Context(), domain.FreeWindowsInput{
			ProviderID:  provider.ID,
			Date:        date,
			DurationMin: service.DurationMin,
		})
		if err != nil {
			httperr.WriteError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"date":    dateStr,
			"windows": windows,
		})
		return
	}

	slots, err := h.availability.Execute(c.Request.Context(), domain.AvailabilityInput{
		ProviderID:  provider.ID,
		Date:        date,
		DurationMin: service.DurationMin,
	})
	if err != nil {
		httperr.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date":  dateStr,
		"slots": slots,
	})
}

////////////////////////////////////////////////////////
// CREATE BOOKING
////////////////////////////////////////////////////////

func (h *PublicHandler) CreateBooking(c *gin.Context) {
	slug := c.Param("slug")

	provider, err := h.repo.GetProviderBySlug(c.Request.Context(), slug)
	if err != nil {
		httperr.NotFound(c, "provider_not_found", "Provider not found.")
		return
	}

	var req PublicCreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request payload.")
		return
	}

	if req.ClientEmail != "" && !validators.IsEmailDomainValid(req.ClientEmail) {
		httperr.BadRequest(c, "invalid_email", "Email domain does not exist.")
		return
	}

	start, err := parseDateTimeInProvider(provider, req.Date, req.Time)
	if err != nil {
		httperr.BadRequest(c, "invalid_date_or_time", "Invalid date or time.")
		return
	}

	b, err := h.create.Execute(c.Request.Context(), ucBooking.CreateInput{
		ProviderID:    provider.ID,
		StaffMemberID: req.StaffMemberID,
		ClientName:    req.ClientName,
		ClientPhone:   req.ClientPhone,
		ClientEmail:   req.ClientEmail,
		Service: domain.ServiceRef{
			ProviderServiceID: req.ServiceID,
			CatalogID:         req.CatalogServiceID,
		},
		StartTime: start,
		Notes:     req.Notes,
	})
	if err != nil {
		httperr.WriteError(c, err)
		return
	}

	c.JSON(http.StatusCreated, b)
}
