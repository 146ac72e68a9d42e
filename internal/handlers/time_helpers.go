package handlers

import (
	"time"

	"github.com/glowdesk/salon-scheduler/internal/models"
	"github.com/glowdesk/salon-scheduler/internal/timezone"
)

// All request dates and times are civil values in the provider's
// timezone; they only become absolute instants here.

func parseDateInProvider(provider *models.Provider, dateStr string) (time.Time, error) {
	return time.ParseInLocation(
		"2006-01-02",
		dateStr,
		timezone.Location(provider.Timezone),
	)
}

func parseDateTimeInProvider(
	provider *models.Provider,
	dateStr string,
	timeStr string,
) (time.Time, error) {
	return time.ParseInLocation(
		"2006-01-02 15:04",
		dateStr+" "+timeStr,
		timezone.Location(provider.Timezone),
	)
}
