package booking

import (
	"time"

	"github.com/glowdesk/salon-scheduler/internal/models"
	"github.com/glowdesk/salon-scheduler/internal/timeutil"
)

// Conflict primitives shared by the availability calculator and the
// atomic creator. The non-overlap invariant is always evaluated on
// buffer-padded intervals; stored booking boundaries stay unbuffered.

// Pad expands [start, end) by buffer minutes on both sides.
func Pad(start, end time.Time, bufferMin int) (time.Time, time.Time) {
	d := time.Duration(bufferMin) * time.Minute
	return start.Add(-d), end.Add(d)
}

// BlocksStaff reports whether b occupies the given staff member's
// timeline. Unassigned provider-level bookings block every staff
// member.
func BlocksStaff(b *models.Booking, staffID uint) bool {
	return b.StaffMemberID == nil || *b.StaffMemberID == staffID
}

// ConflictsWith reports whether b's buffer-padded interval overlaps
// the buffer-padded [start, end). Cancelled bookings never conflict.
func ConflictsWith(b *models.Booking, start, end time.Time, bufferMin int) bool {
	if Status(b.Status) == StatusCancelled {
		return false
	}
	bs, be := Pad(b.StartTime, b.EndTime, bufferMin)
	rs, re := Pad(start, end, bufferMin)
	return timeutil.OverlapsAt(bs, be, rs, re)
}
