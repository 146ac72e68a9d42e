package dto

import (
	"time"

	"github.com/glowdesk/salon-scheduler/internal/models"
)

type BookingListDTO struct {
	ID            uint      `json:"id"`
	TokenNumber   string    `json:"token_number"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	Status        string    `json:"status"`
	ClientName    string    `json:"client_name"`
	ServiceName   string    `json:"service_name"`
	StaffMemberID *uint     `json:"staff_member_id"`
	StaffName     string    `json:"staff_name,omitempty"`
}

func FromBooking(b *models.Booking) BookingListDTO {
	out := BookingListDTO{
		ID:            b.ID,
		TokenNumber:   b.TokenNumber,
		StartTime:     b.StartTime,
		EndTime:       b.EndTime,
		Status:        b.Status,
		ClientName:    b.Client.Name,
		ServiceName:   b.ServiceName,
		StaffMemberID: b.StaffMemberID,
	}
	if b.StaffMember != nil {
		out.StaffName = b.StaffMember.Name
	}
	return out
}
