package models

import "time"

type Provider struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Name    string `gorm:"size:100;not null" json:"name"`
	Slug    string `gorm:"size:100;uniqueIndex;not null" json:"slug"`
	Phone   string `gorm:"size:20" json:"phone"`
	Address string `gorm:"size:255" json:"address"`

	// IANA timezone name. Schedule bounds are civil times in this zone.
	Timezone string `gorm:"size:64;default:'Asia/Kolkata'" json:"timezone"`

	MinAdvanceMinutes int `gorm:"default:120" json:"min_advance_minutes"`

	// Parallel-capacity hint used alongside the active staff roster.
	StaffCount int `gorm:"default:1" json:"staff_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
