package services

import (
	"context"
	"time"

	"github.com/bluele/gcache"

	"smartbus/internal/domain/models"
)

// StopCache keeps static route stop lists for a short TTL. Live stops carry
// session progress and are never cached. Stops rewritten by `smartbus seed`
// show up once the entry expires.
type StopCache struct {
	c gcache.Cache
}

func NewStopCache(size int, ttl time.Duration) *StopCache {
	return newStopCache(size, ttl, gcache.NewRealClock())
}

func newStopCache(size int, ttl time.Duration, clock gcache.Clock) *StopCache {
	if size <= 0 {
		size = 256
	}
	return &StopCache{c: gcache.New(size).LRU().Expiration(ttl).Clock(clock).Build()}
}

// Get returns the cached stops for routeID or loads and stores them.
// A nil cache always loads.
func (s *StopCache) Get(ctx context.Context, routeID int64, load func(context.Context, int64) ([]models.Stop, error)) ([]models.Stop, error) {
	if s == nil {
		return load(ctx, routeID)
	}
	if v, err := s.c.Get(routeID); err == nil {
		if stops, ok := v.([]models.Stop); ok {
			return stops, nil
		}
	}
	stops, err := load(ctx, routeID)
	if err != nil {
		return nil, err
	}
	_ = s.c.Set(routeID, stops)
	return stops, nil
}

