package models

import "time"

type Booking struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// Human-readable unique reference handed back to clients and
	// reported on conflicts.
	TokenNumber string `gorm:"size:40;uniqueIndex;not null" json:"token_number"`

	ClientID uint   `json:"client_id"`
	Client   Client `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"client"`

	ProviderID uint     `gorm:"index:idx_booking_provider_start" json:"provider_id"`
	Provider   Provider `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`

	// nil means an unassigned provider-level booking, which consumes
	// shared capacity and blocks every staff member's slot.
	StaffMemberID *uint        `gorm:"index" json:"staff_member_id"`
	StaffMember   *StaffMember `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"staff_member,omitempty"`

	// Captured at creation time; later changes to the service
	// definition never touch an existing booking.
	ServiceName string  `gorm:"size:100" json:"service_name"`
	Price       float64 `json:"price"`

	StartTime time.Time `gorm:"index:idx_booking_provider_start" json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	Status string `gorm:"size:20;default:'pending'" json:"status"`

	Notes       string     `gorm:"size:255" json:"notes"`
	CancelledAt *time.Time `json:"cancelled_at"`
	CompletedAt *time.Time `json:"completed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
