package repositories

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"

	intconfig "smartbus/internal/config"
	"smartbus/internal/domain"
	"smartbus/internal/domain/models"
)

func TestPickFallsBackToSharedDB(t *testing.T) {
	prev := intconfig.DB
	defer func() { intconfig.DB = prev }()

	intconfig.DB = nil
	if _, err := pick(nil); err != errNoDB {
		t.Fatalf("expected errNoDB, got %v", err)
	}

	db, _ := newMockDB(t)
	intconfig.DB = db
	got, err := pick(nil)
	if err != nil || got != db {
		t.Fatalf("expected shared db, got %v (%v)", got, err)
	}
}

func TestUserCreateDuplicateIsConflict(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	_, err := UserRepository{DB: db}.Create(context.Background(), models.User{Name: "Asha", Mobile: "9876543210"})
	if !domain.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestUserGetByMobileNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`FROM users WHERE mobile = \?`).
		WithArgs("9876543210").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))

	_, err := UserRepository{DB: db}.GetByMobile(context.Background(), "9876543210")
	if !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRouteSearchLowercasesTerms(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("LOWER\\(source_name\\) LIKE").
		WithArgs("%amritsar%", "%ludhiana%").
		WillReturnRows(sqlmock.NewRows([]string{"route_id", "source_name", "destination_name", "total_distance_km"}).
			AddRow(2, "Amritsar", "Ludhiana", nil))

	routes, err := RouteRepository{DB: db}.Search(context.Background(), " Amritsar", "LUDHIANA ")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(routes) != 1 || routes[0].RouteID != 2 || routes[0].TotalDistanceKm != nil {
		t.Fatalf("unexpected routes: %+v", routes)
	}
}

func TestRouteFirstIDEmpty(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT route_id FROM routes ORDER BY route_id LIMIT 1").
		WillReturnRows(sqlmock.NewRows([]string{"route_id"}))

	id, err := RouteRepository{DB: db}.FirstRouteID(context.Background())
	if err != nil || id != 0 {
		t.Fatalf("expected 0/nil, got %d/%v", id, err)
	}
}

func TestBusDetailsNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("FROM buses b").
		WithArgs(42).
		WillReturnRows(sqlmock.NewRows([]string{"bus_id"}))

	_, err := BusRepository{DB: db}.GetDetails(context.Background(), 42)
	if !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestBusSessionWithoutOpenSession(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("FROM buses b").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{
			"bus_id", "bus_number", "capacity", "status", "current_driver_id",
			"route_id", "session_id", "source_name", "destination_name", "total_distance_km",
			"latitude", "longitude", "timestamp",
		}).AddRow(1, "PB-10", 40, "available", nil, nil, nil, nil, nil, nil, nil, nil, nil))

	s, err := BusRepository{DB: db}.GetSession(context.Background(), 1)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if s.HasLiveSession() || s.ActiveRoute != nil || s.Location != nil {
		t.Fatalf("expected no live session, got %+v", s)
	}
	if s.BusNumber != "PB-10" || s.Capacity != 40 {
		t.Fatalf("unexpected bus: %+v", s.Bus)
	}
}

func TestReplaceForRoutesClearsEachRouteOnce(t *testing.T) {
	db, mock := newMockDB(t)
	lat := 31.63
	stops := []models.Stop{
		{RouteID: 1, StopName: "Stop 1 - Bus Stand", SequenceNo: 1, StopLat: &lat},
		{RouteID: 1, StopName: "Stop 2 - Golden Temple", SequenceNo: 2},
		{RouteID: 2, StopName: "Stop 1 - Clock Tower", SequenceNo: 1},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM stops WHERE route_id = \?`).WithArgs(1).WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(`DELETE FROM stops WHERE route_id = \?`).WithArgs(2).WillReturnResult(sqlmock.NewResult(0, 0))
	for range stops {
		mock.ExpectExec("INSERT INTO stops").WillReturnResult(sqlmock.NewResult(1, 1))
	}
	mock.ExpectCommit()

	n, err := StopRepository{DB: db}.ReplaceForRoutes(context.Background(), stops)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 inserted, got %d", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
