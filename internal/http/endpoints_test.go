package api

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var reportCols = []string{
	"report_id", "user_id", "name", "mobile", "bus_id", "bus_number", "report_type",
	"location_lat", "location_lon", "description", "media_url", "created_at",
}

var myReportCols = []string{
	"report_id", "bus_id", "bus_number", "report_type",
	"location_lat", "location_lon", "description", "media_url", "created_at",
}

func expectCounts(mock sqlmock.Sqlmock, counts map[string]int, tables ...string) {
	for _, tbl := range tables {
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM ` + tbl).
			WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(counts[tbl]))
	}
}

func TestBusTimelineStaticRouteWithoutStopsIs404(t *testing.T) {
	mock := withMockDB(t)
	mock.ExpectQuery("FROM buses b").
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{
			"bus_id", "bus_number", "capacity", "status", "current_driver_id",
			"route_id", "session_id", "source_name", "destination_name", "total_distance_km",
			"latitude", "longitude", "timestamp",
		}).AddRow(4, "PB-04", 40, "available", nil, nil, nil, nil, nil, nil, nil, nil, nil))
	mock.ExpectQuery("FROM routes WHERE route_id").
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"route_id", "source_name", "destination_name", "total_distance_km"}).
			AddRow(2, "Chandigarh", "Ludhiana", 100.0))
	mock.ExpectQuery("FROM stops").
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"stop_id", "route_id", "stop_name", "stop_lat", "stop_lon", "sequence_no"}))

	r := NewRouter(testEnv(t), Options{})
	w := do(r, http.MethodGet, "/api/routes/bus/4/timeline?route_id=2", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
	if msg := decode(t, w)["message"]; msg != "No stops found for the assigned route." {
		t.Fatalf("unexpected message %v", msg)
	}
}

func TestListBusesShape(t *testing.T) {
	mock := withMockDB(t)
	seen := time.Date(2026, 1, 2, 9, 30, 0, 0, time.UTC)
	mock.ExpectQuery("FROM buses b").
		WillReturnRows(sqlmock.NewRows([]string{
			"bus_id", "bus_number", "capacity", "status",
			"route_id", "source_name", "destination_name", "total_distance_km",
			"name", "mobile", "latitude", "longitude", "timestamp",
		}).
			AddRow(1, "PB-01", 40, "available", nil, nil, nil, nil, nil, nil, nil, nil, nil).
			AddRow(2, "PB-02", 52, "running", 7, "Amritsar", "Ludhiana", 140.0, "Gurpreet", "9812345678", 31.2, 75.1, seen))

	r := NewRouter(testEnv(t), Options{})
	w := do(r, http.MethodGet, "/api/buses", tokenFor(t, 1), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	buses, ok := decode(t, w)["buses"].([]any)
	if !ok || len(buses) != 2 {
		t.Fatalf("expected 2 buses, got %v", buses)
	}

	idle := buses[0].(map[string]any)
	for _, k := range []string{"route", "driver", "current_location"} {
		v, present := idle[k]
		if !present || v != nil {
			t.Fatalf("expected %s to be null, got %v (present=%v)", k, v, present)
		}
	}

	active := buses[1].(map[string]any)
	route, _ := active["route"].(map[string]any)
	if route == nil || route["route_name"] != "Amritsar to Ludhiana" || route["route_id"] != float64(7) {
		t.Fatalf("unexpected route %v", active["route"])
	}
	driver, _ := active["driver"].(map[string]any)
	if driver == nil || driver["name"] != "Gurpreet" || driver["mobile"] != "9812345678" {
		t.Fatalf("unexpected driver %v", active["driver"])
	}
	loc, _ := active["current_location"].(map[string]any)
	if loc == nil || loc["latitude"] != 31.2 || loc["longitude"] != 75.1 {
		t.Fatalf("unexpected location %v", active["current_location"])
	}
}

func TestBusTestDataCounts(t *testing.T) {
	mock := withMockDB(t)
	expectCounts(mock, map[string]int{"buses": 12, "routes": 4, "stops": 37, "drivers": 9},
		"buses", "routes", "stops", "drivers")

	r := NewRouter(testEnv(t), Options{})
	w := do(r, http.MethodGet, "/api/buses/test/data", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data, _ := decode(t, w)["data"].(map[string]any)
	want := map[string]float64{"buses_count": 12, "routes_count": 4, "stops_count": 37, "drivers_count": 9}
	for k, v := range want {
		if data[k] != v {
			t.Fatalf("%s = %v, want %v", k, data[k], v)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListRoutesShape(t *testing.T) {
	mock := withMockDB(t)
	mock.ExpectQuery("FROM routes r").
		WillReturnRows(sqlmock.NewRows([]string{
			"route_id", "source_name", "destination_name", "total_distance_km",
			"active_buses_count", "stops_count",
		}).AddRow(3, "Chandigarh", "Ludhiana", nil, 2, 5))

	r := NewRouter(testEnv(t), Options{})
	w := do(r, http.MethodGet, "/api/routes", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data, _ := decode(t, w)["data"].(map[string]any)
	routes, _ := data["routes"].([]any)
	if len(routes) != 1 {
		t.Fatalf("expected 1 route, got %v", data["routes"])
	}
	route := routes[0].(map[string]any)
	if route["route_name"] != "Chandigarh to Ludhiana" || route["active_buses_count"] != float64(2) || route["stops_count"] != float64(5) {
		t.Fatalf("unexpected route %v", route)
	}
	if v, present := route["distance_km"]; !present || v != nil {
		t.Fatalf("expected null distance_km, got %v", v)
	}
}

func TestRoutesTestDB(t *testing.T) {
	mock := withMockDB(t)
	expectCounts(mock, map[string]int{"routes": 4, "stops": 37, "buses": 12, "users": 80},
		"routes", "stops", "buses", "users")

	r := NewRouter(testEnv(t), Options{})
	w := do(r, http.MethodGet, "/api/routes/test-db", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decode(t, w)
	if body["message"] != "Connected to database successfully!" {
		t.Fatalf("unexpected message %v", body["message"])
	}
	counts, _ := body["table_counts"].(map[string]any)
	if counts["users"] != float64(80) || counts["stops"] != float64(37) {
		t.Fatalf("unexpected counts %v", counts)
	}
}

func TestRoutesTestDBFailure(t *testing.T) {
	mock := withMockDB(t)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM routes`).WillReturnError(errors.New("connection refused"))

	r := NewRouter(testEnv(t), Options{})
	w := do(r, http.MethodGet, "/api/routes/test-db", "", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if msg := decode(t, w)["message"]; msg != "Database connection failed" {
		t.Fatalf("unexpected message %v", msg)
	}
}

func TestListReports(t *testing.T) {
	mock := withMockDB(t)
	created := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM reports r").
		WithArgs(50).
		WillReturnRows(sqlmock.NewRows(reportCols).
			AddRow(9, 7, "Asha", "9876543210", 2, "PB-02", "overcrowding", 30.7, 76.7, "Full bus", "/uploads/a.jpg", created))

	r := NewRouter(testEnv(t), Options{})
	w := do(r, http.MethodGet, "/api/reports", tokenFor(t, 7), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	reports, _ := decode(t, w)["reports"].([]any)
	if len(reports) != 1 {
		t.Fatalf("expected 1 report, got %v", reports)
	}
	rep := reports[0].(map[string]any)
	if rep["user_name"] != "Asha" || rep["bus_number"] != "PB-02" || rep["media_url"] != "/uploads/a.jpg" {
		t.Fatalf("unexpected report %v", rep)
	}
}

func TestMyReports(t *testing.T) {
	mock := withMockDB(t)
	created := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("WHERE r.user_id").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows(myReportCols).
			AddRow(9, nil, nil, "breakdown", nil, nil, nil, nil, created))

	r := NewRouter(testEnv(t), Options{})
	w := do(r, http.MethodGet, "/api/reports/mine", tokenFor(t, 7), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	reports, _ := decode(t, w)["reports"].([]any)
	if len(reports) != 1 {
		t.Fatalf("expected 1 report, got %v", reports)
	}
	rep := reports[0].(map[string]any)
	if rep["report_type"] != "breakdown" || rep["bus_id"] != nil {
		t.Fatalf("unexpected report %v", rep)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func submitReport(t *testing.T, r http.Handler, token string, fields map[string]string, filename string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("media", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		_, _ = fw.Write([]byte("fake media bytes"))
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/reports", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func uploadedFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("read upload dir: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestSubmitReportStoresMedia(t *testing.T) {
	mock := withMockDB(t)
	mock.ExpectExec("INSERT INTO reports").WillReturnResult(sqlmock.NewResult(3, 1))

	env := testEnv(t)
	r := NewRouter(env, Options{})
	w := submitReport(t, r, tokenFor(t, 7), map[string]string{"reportType": "overcrowding", "busId": "2"}, "photo.PNG")
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	files := uploadedFiles(t, env.UploadDir)
	if len(files) != 1 || filepath.Ext(files[0]) != ".png" {
		t.Fatalf("expected one stored .png, got %v", files)
	}
}

func TestSubmitReportValidatesBeforeStoringMedia(t *testing.T) {
	withMockDB(t)
	env := testEnv(t)
	r := NewRouter(env, Options{})

	w := submitReport(t, r, tokenFor(t, 7), map[string]string{"reportType": "  "}, "photo.jpg")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	if files := uploadedFiles(t, env.UploadDir); len(files) != 0 {
		t.Fatalf("rejected report left files behind: %v", files)
	}
}

func TestSubmitReportRejectsNonMediaUpload(t *testing.T) {
	withMockDB(t)
	env := testEnv(t)
	r := NewRouter(env, Options{})

	w := submitReport(t, r, tokenFor(t, 7), map[string]string{"reportType": "other"}, "page.html")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "image or video") {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
	if files := uploadedFiles(t, env.UploadDir); len(files) != 0 {
		t.Fatalf("rejected upload was stored: %v", files)
	}
}

func TestSubmitReportRemovesMediaWhenInsertFails(t *testing.T) {
	mock := withMockDB(t)
	mock.ExpectExec("INSERT INTO reports").WillReturnError(errors.New("deadlock"))

	env := testEnv(t)
	r := NewRouter(env, Options{})
	w := submitReport(t, r, tokenFor(t, 7), map[string]string{"reportType": "breakdown"}, "clip.mp4")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", w.Code, w.Body.String())
	}
	if files := uploadedFiles(t, env.UploadDir); len(files) != 0 {
		t.Fatalf("failed report left files behind: %v", files)
	}
}
