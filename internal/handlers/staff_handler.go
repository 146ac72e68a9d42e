package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/glowdesk/salon-scheduler/internal/httperr"
	"github.com/glowdesk/salon-scheduler/internal/httpresp"
	"github.com/glowdesk/salon-scheduler/internal/middleware"
	"github.com/glowdesk/salon-scheduler/internal/models"
	"github.com/glowdesk/salon-scheduler/internal/schedcache"
)

type StaffHandler struct {
	db    *gorm.DB
	cache *schedcache.Cache
	log   *zap.Logger
}

func NewStaffHandler(db *gorm.DB, cache *schedcache.Cache, log *zap.Logger) *StaffHandler {
	return &StaffHandler{db: db, cache: cache, log: log}
}

type CreateStaffRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *StaffHandler) List(c *gin.Context) {
	providerID := c.MustGet(middleware.ContextProviderID).(uint)

	var staff []models.StaffMember
	if err := h.db.WithContext(c.Request.Context()).
		Where("provider_id = ?", providerID).
		Order("id ASC").
		Find(&staff).Error; err != nil {

		httperr.Internal(c, "failed_to_list_staff", "Failed to list staff.")
		return
	}

	httpresp.List(c, staff)
}

func (h *StaffHandler) Create(c *gin.Context) {
	providerID := c.MustGet(middleware.ContextProviderID).(uint)

	var req CreateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request payload.")
		return
	}

	staff := models.StaffMember{
		ProviderID: providerID,
		Name:       req.Name,
		IsActive:   true,
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&staff).Error; err != nil {
		httperr.Internal(c, "failed_to_create_staff", "Failed to create staff member.")
		return
	}

	h.invalidate(c, providerID)

	c.JSON(http.StatusCreated, staff)
}

// Deactivate removes the staff member from the bookable roster while
// keeping the row for existing bookings that reference it.
func (h *StaffHandler) Deactivate(c *gin.Context) {
	providerID := c.MustGet(middleware.ContextProviderID).(uint)

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		httperr.BadRequest(c, "invalid_staff_id", "Invalid staff id.")
		return
	}

	var staff models.StaffMember
	if err := h.db.WithContext(c.Request.Context()).
		Where("id = ? AND provider_id = ?", id, providerID).
		First(&staff).Error; err != nil {

		httperr.NotFound(c, "staff_not_found", "Staff member not found.")
		return
	}

	staff.IsActive = false
	if err := h.db.WithContext(c.Request.Context()).Save(&staff).Error; err != nil {
		httperr.Internal(c, "failed_to_update_staff", "Failed to update staff member.")
		return
	}

	h.invalidate(c, providerID)

	c.JSON(http.StatusOK, staff)
}

func (h *StaffHandler) invalidate(c *gin.Context, providerID uint) {
	if err := h.cache.Invalidate(c.Request.Context(), providerID); err != nil {
		h.log.Warn("staff cache invalidation failed",
			zap.Uint("provider_id", providerID),
			zap.Error(err),
		)
	}
}
