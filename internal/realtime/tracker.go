package realtime

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"smartbus/internal/domain/models"
	"smartbus/internal/metrics"
	"smartbus/internal/repositories"
	"smartbus/internal/services"
)

const (
	trackedBusLimit    = 50
	notificationWindow = time.Minute
)

// Tracker periodically re-queries bus positions and fresh notifications and
// pushes them through the hub.
type Tracker struct {
	Buses         repositories.BusRepository
	Notifications repositories.NotificationRepository
	Hub           services.Broadcaster
	Interval      time.Duration
	Metrics       *metrics.Collector
	Now           func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
}

func (t *Tracker) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

// Start schedules Tick every Interval.
func (t *Tracker) Start() error {
	if t.Interval <= 0 {
		return fmt.Errorf("tracker: interval must be positive, got %s", t.Interval)
	}
	c := cron.New()
	if _, err := c.AddFunc("@every "+t.Interval.String(), t.Tick); err != nil {
		return fmt.Errorf("tracker: schedule: %w", err)
	}
	c.Start()
	t.cron = c
	log.Printf("[TRACKER] started interval=%s", t.Interval)
	return nil
}

// Stop waits for a running tick to finish or ctx to expire.
func (t *Tracker) Stop(ctx context.Context) {
	if t.cron == nil {
		return
	}
	select {
	case <-t.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// Tick runs one broadcast round. A tick that starts while the previous one
// is still running is skipped.
func (t *Tracker) Tick() {
	if !t.mu.TryLock() {
		t.Metrics.TickSkipped()
		log.Printf("[TRACKER] previous tick still running, skipping")
		return
	}
	defer t.mu.Unlock()

	start := time.Now()
	timeout := t.Interval
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	t.broadcastLocations(ctx)
	t.broadcastNotifications(ctx)
	t.Metrics.ObserveTick(time.Since(start))
}

func (t *Tracker) broadcastLocations(ctx context.Context) {
	buses, err := t.Buses.TrackingSnapshot(ctx, trackedBusLimit)
	if err != nil {
		log.Printf("[TRACKER] action=bus_locations error=%v", err)
		return
	}
	t.Hub.EmitAll(services.EventBusLocationUpdate, buses)
}

func (t *Tracker) broadcastNotifications(ctx context.Context) {
	recent, err := t.Notifications.RecentUnread(ctx, t.now().Add(-notificationWindow))
	if err != nil {
		log.Printf("[TRACKER] action=notifications error=%v", err)
		return
	}
	byUser, urgent := GroupNotifications(recent)
	for userID, items := range byUser {
		t.Hub.EmitToUser(userID, services.EventNewNotification, items)
	}
	if len(urgent) > 0 {
		t.Hub.EmitAll(services.EventUrgentNotifications, urgent)
		log.Printf("[TRACKER] broadcast urgent=%d", len(urgent))
	}
}

// GroupNotifications splits notifications into per-user push payloads and
// the urgent subset, keeping input order.
func GroupNotifications(in []models.Notification) (map[int64][]models.NotificationPush, []models.UrgentPush) {
	byUser := map[int64][]models.NotificationPush{}
	var urgent []models.UrgentPush
	for _, n := range in {
		byUser[n.UserID] = append(byUser[n.UserID], n.Push())
		if n.IsUrgent() {
			urgent = append(urgent, n.Urgent())
		}
	}
	return byUser, urgent
}
