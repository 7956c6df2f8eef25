package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"smartbus/internal/domain"
	"smartbus/internal/domain/models"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestMarkReadIsIdempotent(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NotificationRepository{DB: db}

	mock.ExpectExec("UPDATE notifications SET is_read = TRUE").
		WithArgs(7, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE notifications SET is_read = TRUE").
		WithArgs(7, 3).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM notifications").
		WithArgs(7, 3).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	if err := repo.MarkRead(context.Background(), 3, 7); err != nil {
		t.Fatalf("first mark read: %v", err)
	}
	if err := repo.MarkRead(context.Background(), 3, 7); err != nil {
		t.Fatalf("second mark read should succeed, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMarkReadMissingNotification(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NotificationRepository{DB: db}

	mock.ExpectExec("UPDATE notifications SET is_read = TRUE").
		WithArgs(99, 3).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM notifications").
		WithArgs(99, 3).
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	err := repo.MarkRead(context.Background(), 3, 99)
	if !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListAppliesFilters(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NotificationRepository{DB: db}
	unread := false
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`WHERE n.user_id = \? AND n.type = \? AND n.is_read = \? ORDER BY n.created_at DESC, n.priority DESC LIMIT \? OFFSET \?`).
		WithArgs(3, "bus_delay", false, 50, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"notification_id", "user_id", "title", "message", "type", "priority",
			"is_read", "bus_id", "route_id", "created_at",
			"bus_number", "source_name", "destination_name",
		}).AddRow(1, 3, "Delay", "Bus is late", "bus_delay", "high", false, 4, nil, created, "PB-01", nil, nil))

	got, err := repo.List(context.Background(), models.NotificationFilter{
		UserID: 3, Type: "bus_delay", IsRead: &unread, Limit: 50,
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(got))
	}
	n := got[0]
	if n.Type != domain.NotificationBusDelay || n.Priority != domain.PriorityHigh {
		t.Fatalf("unexpected enums: %s/%s", n.Type, n.Priority)
	}
	if n.BusID == nil || *n.BusID != 4 || n.RouteID != nil {
		t.Fatalf("unexpected bus/route ids: %v/%v", n.BusID, n.RouteID)
	}
	if n.BusNumber == nil || *n.BusNumber != "PB-01" || n.SourceName != nil {
		t.Fatalf("unexpected joined columns: %+v", n)
	}
}

func TestDeleteForeignNotification(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NotificationRepository{DB: db}
	mock.ExpectExec("DELETE FROM notifications").
		WithArgs(5, 3).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), 3, 5); !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}
