package models

import "time"

// StaffMember is one independent timeline of a provider: at most one
// booking at any instant. Deactivated instead of deleted once referenced
// by a booking.
type StaffMember struct {
	ID         uint     `gorm:"primaryKey" json:"id"`
	ProviderID uint     `gorm:"index" json:"provider_id"`
	Provider   Provider `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`

	Name     string `gorm:"size:100;not null" json:"name"`
	IsActive bool   `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
