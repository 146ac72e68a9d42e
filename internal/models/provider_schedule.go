package models

import "time"

// ProviderSchedule holds one row per (provider, weekday). Rows are never
// deleted; a closed day keeps its row with IsAvailable=false.
type ProviderSchedule struct {
	ID         uint `gorm:"primaryKey" json:"id"`
	ProviderID uint `gorm:"uniqueIndex:idx_provider_weekday" json:"provider_id"`

	Weekday int `gorm:"uniqueIndex:idx_provider_weekday" json:"weekday"`

	StartTime string `gorm:"size:5" json:"start_time"` // "HH:MM"
	EndTime   string `gorm:"size:5" json:"end_time"`

	// Optional break window, both set or both empty.
	BreakStartTime string `gorm:"size:5" json:"break_start_time"`
	BreakEndTime   string `gorm:"size:5" json:"break_end_time"`

	IsAvailable bool `json:"is_available"`
	MaxSlots    int  `gorm:"default:1" json:"max_slots"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *ProviderSchedule) HasBreak() bool {
	return s.BreakStartTime != "" && s.BreakEndTime != ""
}
