package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/glowdesk/salon-scheduler/internal/httperr"
	"github.com/glowdesk/salon-scheduler/internal/middleware"
	"github.com/glowdesk/salon-scheduler/internal/models"
	"github.com/glowdesk/salon-scheduler/internal/schedcache"
	"github.com/glowdesk/salon-scheduler/internal/timeutil"
)

type ScheduleHandler struct {
	db    *gorm.DB
	cache *schedcache.Cache
	log   *zap.Logger
}

func NewScheduleHandler(db *gorm.DB, cache *schedcache.Cache, log *zap.Logger) *ScheduleHandler {
	return &ScheduleHandler{db: db, cache: cache, log: log}
}

type ScheduleDayConfig struct {
	Weekday        int    `json:"weekday" binding:"min=0,max=6"`
	IsAvailable    bool   `json:"is_available"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	BreakStartTime string `json:"break_start_time"`
	BreakEndTime   string `json:"break_end_time"`
	MaxSlots       int    `json:"max_slots"`
}

type ScheduleUpdateRequest struct {
	Days []ScheduleDayConfig `json:"days" binding:"required"`
}

func (h *ScheduleHandler) Get(c *gin.Context) {
	providerID := c.MustGet(middleware.ContextProviderID).(uint)

	var rows []models.ProviderSchedule
	if err := h.db.WithContext(c.Request.Context()).
		Where("provider_id = ?", providerID).
		Order("weekday ASC").
		Find(&rows).Error; err != nil {

		httperr.Internal(c, "failed_to_get_schedule", "Failed to load schedule.")
		return
	}

	c.JSON(http.StatusOK, rows)
}

func (h *ScheduleHandler) Update(c *gin.Context) {
	providerID := c.MustGet(middleware.ContextProviderID).(uint)

	var req ScheduleUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid request payload.")
		return
	}

	for _, d := range req.Days {
		if d.IsAvailable && !validScheduleDay(d) {
			httperr.BadRequest(c, "invalid_schedule_day", "Invalid times for an open day.")
			return
		}
	}

	// one row per (provider, weekday); a closed day keeps its row
	rows := make([]models.ProviderSchedule, 0, len(req.Days))
	for _, d := range req.Days {
		rows = append(rows, models.ProviderSchedule{
			ProviderID:     providerID,
			Weekday:        d.Weekday,
			IsAvailable:    d.IsAvailable,
			StartTime:      d.StartTime,
			EndTime:        d.EndTime,
			BreakStartTime: d.BreakStartTime,
			BreakEndTime:   d.BreakEndTime,
			MaxSlots:       d.MaxSlots,
		})
	}

	if len(rows) > 0 {
		if err := h.db.WithContext(c.Request.Context()).
			Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "provider_id"}, {Name: "weekday"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"is_available", "start_time", "end_time",
					"break_start_time", "break_end_time", "max_slots", "updated_at",
				}),
			}).
			Create(&rows).Error; err != nil {

			httperr.Internal(c, "failed_to_save_schedule", "Failed to save schedule.")
			return
		}
	}

	// evict immediately so new capacity is visible before the TTL
	if err := h.cache.Invalidate(c.Request.Context(), providerID); err != nil {
		h.log.Warn("schedule cache invalidation failed",
			zap.Uint("provider_id", providerID),
			zap.Error(err),
		)
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func validScheduleDay(d ScheduleDayConfig) bool {
	if !validClock(d.StartTime) || !validClock(d.EndTime) {
		return false
	}
	if timeutil.MinutesOfDay(d.StartTime) >= timeutil.MinutesOfDay(d.EndTime) {
		return false
	}

	hasBreakStart := d.BreakStartTime != ""
	hasBreakEnd := d.BreakEndTime != ""
	if hasBreakStart != hasBreakEnd {
		return false
	}
	if hasBreakStart {
		if !validClock(d.BreakStartTime) || !validClock(d.BreakEndTime) {
			return false
		}
		if timeutil.MinutesOfDay(d.BreakStartTime) >= timeutil.MinutesOfDay(d.BreakEndTime) {
			return false
		}
	}
	return true
}

func validClock(clock string) bool {
	if len(clock) != 5 || clock[2] != ':' {
		return false
	}
	for i, ch := range clock {
		if i == 2 {
			continue
		}
		if ch < '0' || ch > '9' {
			return false
		}
	}
	h := int(clock[0]-'0')*10 + int(clock[1]-'0')
	m := int(clock[3]-'0')*10 + int(clock[4]-'0')
	return h <= 23 && m <= 59
}
