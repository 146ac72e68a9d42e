package booking

import "time"

type AvailabilityInput struct {
	ProviderID uint
	Date       time.Time

	// Minutes of the requested service; authoritative slot length.
	DurationMin int

	// Zero means the caller takes the defaults (15 / 5).
	SlotStepMin int
	BufferMin   int
}

// Slot is one discrete bookable candidate (mode A).
type Slot struct {
	Start string `json:"start"`
	End   string `json:"end"`

	// First staff member free for this slot.
	StaffMemberID uint   `json:"staff_member_id"`
	StaffName     string `json:"staff_name"`

	// Display aggregates across the whole roster.
	AvailableSpots  int `json:"available_spots"`
	CurrentBookings int `json:"current_bookings"`
}

type FreeWindowsInput struct {
	ProviderID  uint
	Date        time.Time
	DurationMin int
	BufferMin   int
}

// FreeWindow is one continuous gap in a staff member's day (mode B).
type FreeWindow struct {
	Start       string `json:"start"`
	End         string `json:"end"`
	DurationMin int    `json:"duration_min"`

	CanFitService bool `json:"can_fit_service"`
}

type StaffWindows struct {
	StaffMemberID uint         `json:"staff_member_id"`
	StaffName     string       `json:"staff_name"`
	Windows       []FreeWindow `json:"windows"`
}
