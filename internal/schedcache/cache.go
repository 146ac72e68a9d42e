// Package schedcache is the read-through cache for a provider's weekly
// schedule and active staff roster. It exists to keep the availability
// calculator off the database for data that changes rarely; it is
// never consulted for commit-time conflict decisions.
package schedcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	booking "github.com/glowdesk/salon-scheduler/internal/domain/booking"
	"github.com/glowdesk/salon-scheduler/internal/models"
)

const DefaultTTL = 5 * time.Minute

// Loader is the live-read slice of the repository the cache fills
// misses from.
type Loader interface {
	GetSchedule(ctx context.Context, providerID uint, weekday int) (*models.ProviderSchedule, error)
	ListActiveStaff(ctx context.Context, providerID uint) ([]models.StaffMember, error)
}

type Cache struct {
	store  Store
	loader Loader
	ttl    time.Duration
	log    *zap.Logger
}

// New builds the cache instance owned by the composition root; every
// consumer receives this same instance by injection.
func New(store Store, loader Loader, ttl time.Duration, log *zap.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{store: store, loader: loader, ttl: ttl, log: log}
}

func scheduleKey(providerID uint, weekday int) string {
	return fmt.Sprintf("sched:%d:%d", providerID, weekday)
}

func staffKey(providerID uint) string {
	return fmt.Sprintf("staff:%d", providerID)
}

// Schedule returns the provider's schedule row for the weekday, or
// nil when none exists. Absent rows are not cached; a miss always
// re-queries.
func (c *Cache) Schedule(ctx context.Context, providerID uint, weekday int) (*models.ProviderSchedule, error) {
	key := scheduleKey(providerID, weekday)

	if raw, err := c.store.Get(ctx, key); err == nil {
		var sched models.ProviderSchedule
		if jsonErr := json.Unmarshal([]byte(raw), &sched); jsonErr == nil {
			return &sched, nil
		}
		c.log.Warn("schedcache: bad payload, refetching", zap.String("key", key))
	} else if err != ErrMiss {
		// cache backend down: fall through to the database
		c.log.Warn("schedcache: get failed", zap.String("key", key), zap.Error(err))
	}

	sched, err := c.loader.GetSchedule(ctx, providerID, weekday)
	if err != nil {
		return nil, err
	}
	if sched == nil {
		return nil, nil
	}

	c.put(ctx, key, sched)
	return sched, nil
}

// ActiveStaff returns the provider's active roster.
func (c *Cache) ActiveStaff(ctx context.Context, providerID uint) ([]models.StaffMember, error) {
	key := staffKey(providerID)

	if raw, err := c.store.Get(ctx, key); err == nil {
		var staff []models.StaffMember
		if jsonErr := json.Unmarshal([]byte(raw), &staff); jsonErr == nil {
			return staff, nil
		}
		c.log.Warn("schedcache: bad payload, refetching", zap.String("key", key))
	} else if err != ErrMiss {
		c.log.Warn("schedcache: get failed", zap.String("key", key), zap.Error(err))
	}

	staff, err := c.loader.ListActiveStaff(ctx, providerID)
	if err != nil {
		return nil, err
	}

	c.put(ctx, key, staff)
	return staff, nil
}

// Invalidate evicts everything cached for the provider. Must be
// called by any workflow that mutates schedule or staff rows; until
// then stale capacity can persist for up to the TTL.
func (c *Cache) Invalidate(ctx context.Context, providerID uint) error {
	keys := make([]string, 0, 8)
	for weekday := 0; weekday <= 6; weekday++ {
		keys = append(keys, scheduleKey(providerID, weekday))
	}
	keys = append(keys, staffKey(providerID))

	return c.store.Del(ctx, keys...)
}

func (c *Cache) put(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.store.Set(ctx, key, string(raw), c.ttl); err != nil {
		// advisory cache: a failed write only costs the next read a
		// database round-trip
		c.log.Warn("schedcache: set failed", zap.String("key", key), zap.Error(err))
	}
}

var _ booking.ScheduleSource = (*Cache)(nil)
