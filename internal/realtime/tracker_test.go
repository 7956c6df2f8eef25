package realtime

import (
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"smartbus/internal/domain"
	"smartbus/internal/domain/models"
	"smartbus/internal/repositories"
)

type emitted struct {
	userID  int64
	event   string
	payload any
}

type fakeHub struct {
	mu    sync.Mutex
	calls []emitted
}

func (h *fakeHub) EmitToUser(userID int64, event string, payload any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, emitted{userID: userID, event: event, payload: payload})
}

func (h *fakeHub) EmitAll(event string, payload any) {
	h.EmitToUser(0, event, payload)
}

var notificationCols = []string{
	"notification_id", "user_id", "title", "message", "type", "priority",
	"is_read", "bus_id", "route_id", "created_at",
	"bus_number", "source_name", "destination_name",
}

func TestTickBroadcastsLocationsAndNotifications(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM buses b").
		WithArgs(trackedBusLimit).
		WillReturnRows(sqlmock.NewRows([]string{"bus_id", "bus_number", "status", "latitude", "longitude", "timestamp"}).
			AddRow(1, "PB-01", "running", 30.7, 76.7, now).
			AddRow(2, "PB-02", "available", nil, nil, nil))
	mock.ExpectQuery("WHERE n.is_read = FALSE").
		WithArgs(now.Add(-notificationWindow)).
		WillReturnRows(sqlmock.NewRows(notificationCols).
			AddRow(10, 3, "Delay", "Bus late", "bus_delay", "urgent", false, 1, nil, now, "PB-01", nil, nil).
			AddRow(11, 4, "Hi", "Welcome", "general", "low", false, nil, nil, now, nil, nil, nil))

	hub := &fakeHub{}
	tr := &Tracker{
		Buses:         repositories.BusRepository{DB: db},
		Notifications: repositories.NotificationRepository{DB: db},
		Hub:           hub,
		Interval:      time.Second,
		Now:           func() time.Time { return now },
	}
	tr.Tick()
	require.NoError(t, mock.ExpectationsWereMet())

	events := map[string]int{}
	for _, c := range hub.calls {
		events[c.event]++
	}
	require.Equal(t, 1, events["bus-location-update"])
	require.Equal(t, 2, events["new_notification"])
	require.Equal(t, 1, events["urgent_notifications"])

	locs := hub.calls[0].payload.([]models.BusLocation)
	require.Len(t, locs, 2)
	require.Nil(t, locs[1].Latitude)
}

func TestTickContinuesAfterLocationQueryFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM buses b").WillReturnError(sqlmock.ErrCancelled)
	mock.ExpectQuery("WHERE n.is_read = FALSE").
		WillReturnRows(sqlmock.NewRows(notificationCols))

	hub := &fakeHub{}
	tr := &Tracker{
		Buses:         repositories.BusRepository{DB: db},
		Notifications: repositories.NotificationRepository{DB: db},
		Hub:           hub,
		Interval:      time.Second,
	}
	tr.Tick()
	require.NoError(t, mock.ExpectationsWereMet())
	require.Empty(t, hub.calls)
}

func TestTickSkipsWhilePreviousRunning(t *testing.T) {
	hub := &fakeHub{}
	tr := &Tracker{Hub: hub, Interval: time.Second}
	tr.mu.Lock()
	tr.Tick()
	tr.mu.Unlock()
	require.Empty(t, hub.calls)
}

func TestStartRejectsZeroInterval(t *testing.T) {
	tr := &Tracker{}
	require.Error(t, tr.Start())
}

func TestGroupNotificationsKeepsOrder(t *testing.T) {
	in := []models.Notification{
		{NotificationID: 1, UserID: 7, Priority: domain.PriorityUrgent},
		{NotificationID: 2, UserID: 8, Priority: domain.PriorityMedium},
		{NotificationID: 3, UserID: 7, Priority: domain.PriorityMedium},
	}
	byUser, urgent := GroupNotifications(in)
	require.Len(t, byUser[7], 2)
	require.Equal(t, int64(1), byUser[7][0].NotificationID)
	require.Equal(t, int64(3), byUser[7][1].NotificationID)
	require.Len(t, urgent, 1)
	require.Equal(t, int64(1), urgent[0].NotificationID)
}
