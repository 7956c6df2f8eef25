package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"smartbus/internal/domain"
	"smartbus/internal/domain/models"
)

type BusRepository struct {
	DB *sql.DB
}

func (r BusRepository) db() (*sql.DB, error) { return pick(r.DB) }

const latestLocationJoin = `
	LEFT JOIN location_updates l ON b.bus_id = l.bus_id
	WHERE (l.timestamp = (SELECT MAX(timestamp) FROM location_updates l2 WHERE l2.bus_id = b.bus_id) OR l.timestamp IS NULL)`

// assignmentRow holds the nullable columns shared by the bus listing queries.
type assignmentRow struct {
	busID        int64
	busNumber    sql.NullString
	capacity     sql.NullInt64
	status       sql.NullString
	routeID      sql.NullInt64
	source       sql.NullString
	destination  sql.NullString
	distance     sql.NullFloat64
	driverID     sql.NullInt64
	driverName   sql.NullString
	driverMobile sql.NullString
	licenseNo    sql.NullString
	lat          sql.NullFloat64
	lon          sql.NullFloat64
	ts           sql.NullTime
}

func (a assignmentRow) toModel() models.BusAssignment {
	out := models.BusAssignment{Bus: models.Bus{
		BusID:     a.busID,
		BusNumber: a.busNumber.String,
		Capacity:  int(a.capacity.Int64),
		Status:    a.status.String,
	}}
	if a.routeID.Valid {
		out.Route = &models.Route{
			RouteID:         a.routeID.Int64,
			SourceName:      a.source.String,
			DestinationName: a.destination.String,
			TotalDistanceKm: nullFloat(a.distance),
		}
	}
	if a.driverName.Valid {
		out.Driver = &models.Driver{
			DriverID:  nullInt(a.driverID),
			Name:      a.driverName.String,
			Mobile:    nullString(a.driverMobile),
			LicenseNo: nullString(a.licenseNo),
		}
	}
	if a.lat.Valid && a.lon.Valid && (a.lat.Float64 != 0 || a.lon.Float64 != 0) {
		out.Location = &models.Location{
			Latitude:    a.lat.Float64,
			Longitude:   a.lon.Float64,
			LastUpdated: a.ts.Time,
		}
	}
	return out
}

// ListAssignments returns every bus with its open-session route, driver and
// most recent location.
func (r BusRepository) ListAssignments(ctx context.Context) ([]models.BusAssignment, error) {
	db, err := r.db()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT
			b.bus_id, b.bus_number, b.capacity, b.status,
			ds.route_id, r.source_name, r.destination_name, r.total_distance_km,
			d.name, d.mobile,
			l.latitude, l.longitude, l.timestamp
		FROM buses b
		LEFT JOIN driver_sessions ds ON b.bus_id = ds.bus_id AND ds.end_time IS NULL
		LEFT JOIN routes r ON ds.route_id = r.route_id
		LEFT JOIN drivers d ON ds.driver_id = d.driver_id`+latestLocationJoin+`
		ORDER BY b.bus_id
	`)
	if err != nil {
		return nil, fmt.Errorf("list buses: %w", err)
	}
	defer rows.Close()

	out := []models.BusAssignment{}
	for rows.Next() {
		var a assignmentRow
		if err := rows.Scan(
			&a.busID, &a.busNumber, &a.capacity, &a.status,
			&a.routeID, &a.source, &a.destination, &a.distance,
			&a.driverName, &a.driverMobile,
			&a.lat, &a.lon, &a.ts,
		); err != nil {
			return nil, fmt.Errorf("scan bus: %w", err)
		}
		out = append(out, a.toModel())
	}
	return out, rows.Err()
}

// GetDetails loads a single bus with driver (incl. license) and last fix.
func (r BusRepository) GetDetails(ctx context.Context, busID int64) (models.BusAssignment, error) {
	db, err := r.db()
	if err != nil {
		return models.BusAssignment{}, err
	}
	var a assignmentRow
	err = db.QueryRowContext(ctx, `
		SELECT
			b.bus_id, b.bus_number, b.capacity, b.status,
			ds.route_id, r.source_name, r.destination_name, r.total_distance_km,
			d.driver_id, d.name, d.mobile, d.license_no,
			l.latitude, l.longitude, l.timestamp
		FROM buses b
		LEFT JOIN driver_sessions ds ON b.bus_id = ds.bus_id AND ds.end_time IS NULL
		LEFT JOIN routes r ON ds.route_id = r.route_id
		LEFT JOIN drivers d ON ds.driver_id = d.driver_id`+latestLocationJoin+`
		AND b.bus_id = ?
		LIMIT 1
	`, busID).Scan(
		&a.busID, &a.busNumber, &a.capacity, &a.status,
		&a.routeID, &a.source, &a.destination, &a.distance,
		&a.driverID, &a.driverName, &a.driverMobile, &a.licenseNo,
		&a.lat, &a.lon, &a.ts,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.BusAssignment{}, domain.NotFoundError{Resource: "bus", Msg: "Bus not found.", Err: err}
	}
	if err != nil {
		return models.BusAssignment{}, fmt.Errorf("get bus %d: %w", busID, err)
	}
	out := a.toModel()
	if out.Driver != nil && out.Driver.DriverID == nil {
		out.Driver = nil
	}
	return out, nil
}

// ListForSearch returns available/running buses with their current driver
// (from buses.current_driver_id) and open-session route.
func (r BusRepository) ListForSearch(ctx context.Context) ([]models.BusAssignment, error) {
	db, err := r.db()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT
			b.bus_id, b.bus_number, b.capacity, b.status, b.current_driver_id,
			d.name, d.mobile,
			r.route_id, r.source_name, r.destination_name, r.total_distance_km
		FROM buses b
		LEFT JOIN drivers d ON b.current_driver_id = d.driver_id
		LEFT JOIN driver_sessions ds ON b.bus_id = ds.bus_id AND ds.end_time IS NULL
		LEFT JOIN routes r ON ds.route_id = r.route_id
		WHERE b.status IN ('available', 'running')
		ORDER BY b.bus_id
	`)
	if err != nil {
		return nil, fmt.Errorf("list buses for search: %w", err)
	}
	defer rows.Close()

	out := []models.BusAssignment{}
	for rows.Next() {
		var a assignmentRow
		if err := rows.Scan(
			&a.busID, &a.busNumber, &a.capacity, &a.status, &a.driverID,
			&a.driverName, &a.driverMobile,
			&a.routeID, &a.source, &a.destination, &a.distance,
		); err != nil {
			return nil, fmt.Errorf("scan bus: %w", err)
		}
		m := a.toModel()
		m.CurrentDriverID = nullInt(a.driverID)
		out = append(out, m)
	}
	return out, rows.Err()
}

// ListLocations returns the latest fix of each available/running bus,
// newest first.
func (r BusRepository) ListLocations(ctx context.Context) ([]models.BusLocation, error) {
	db, err := r.db()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT
			b.bus_id, b.bus_number, b.status,
			l.latitude, l.longitude, l.timestamp,
			r.source_name, r.destination_name
		FROM buses b
		LEFT JOIN location_updates l ON b.bus_id = l.bus_id
		LEFT JOIN driver_sessions ds ON b.bus_id = ds.bus_id AND ds.end_time IS NULL
		LEFT JOIN routes r ON ds.route_id = r.route_id
		WHERE l.timestamp = (SELECT MAX(timestamp) FROM location_updates l2 WHERE l2.bus_id = b.bus_id)
		AND b.status IN ('running', 'available')
		ORDER BY l.timestamp DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list bus locations: %w", err)
	}
	defer rows.Close()

	out := []models.BusLocation{}
	for rows.Next() {
		var (
			loc                 models.BusLocation
			lat, lon            sql.NullFloat64
			ts                  sql.NullTime
			source, destination sql.NullString
		)
		if err := rows.Scan(&loc.BusID, &loc.BusNumber, &loc.Status, &lat, &lon, &ts, &source, &destination); err != nil {
			return nil, fmt.Errorf("scan bus location: %w", err)
		}
		loc.Latitude, loc.Longitude = nullFloat(lat), nullFloat(lon)
		loc.Timestamp = nullTime(ts)
		loc.SourceName, loc.DestinationName = nullString(source), nullString(destination)
		out = append(out, loc)
	}
	return out, rows.Err()
}

// TrackingSnapshot is the payload of the periodic bus-location-update push.
func (r BusRepository) TrackingSnapshot(ctx context.Context, limit int) ([]models.BusLocation, error) {
	db, err := r.db()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT b.bus_id, b.bus_number, b.status, l.latitude, l.longitude, l.timestamp
		FROM buses b
		LEFT JOIN location_updates l ON b.bus_id = l.bus_id
		WHERE b.status IN ('available','running')
		ORDER BY l.timestamp DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("tracking snapshot: %w", err)
	}
	defer rows.Close()

	out := []models.BusLocation{}
	for rows.Next() {
		var (
			loc      models.BusLocation
			lat, lon sql.NullFloat64
			ts       sql.NullTime
		)
		if err := rows.Scan(&loc.BusID, &loc.BusNumber, &loc.Status, &lat, &lon, &ts); err != nil {
			return nil, fmt.Errorf("scan tracking row: %w", err)
		}
		loc.Latitude, loc.Longitude = nullFloat(lat), nullFloat(lon)
		loc.Timestamp = nullTime(ts)
		out = append(out, loc)
	}
	return out, rows.Err()
}

// GetSession loads a bus with its open driver session, route and newest fix.
func (r BusRepository) GetSession(ctx context.Context, busID int64) (models.BusSession, error) {
	db, err := r.db()
	if err != nil {
		return models.BusSession{}, err
	}
	var (
		a         assignmentRow
		sessionID sql.NullInt64
	)
	err = db.QueryRowContext(ctx, `
		SELECT
			b.bus_id, b.bus_number, b.capacity, b.status, b.current_driver_id,
			ds.route_id, ds.session_id,
			r.source_name, r.destination_name, r.total_distance_km,
			l.latitude, l.longitude, l.timestamp
		FROM buses b
		LEFT JOIN driver_sessions ds ON b.bus_id = ds.bus_id AND ds.end_time IS NULL
		LEFT JOIN routes r ON ds.route_id = r.route_id
		LEFT JOIN location_updates l ON b.bus_id = l.bus_id
		WHERE b.bus_id = ?
		ORDER BY l.timestamp DESC
		LIMIT 1
	`, busID).Scan(
		&a.busID, &a.busNumber, &a.capacity, &a.status, &a.driverID,
		&a.routeID, &sessionID,
		&a.source, &a.destination, &a.distance,
		&a.lat, &a.lon, &a.ts,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.BusSession{}, domain.NotFoundError{Resource: "bus", Msg: "Bus not found.", Err: err}
	}
	if err != nil {
		return models.BusSession{}, fmt.Errorf("get bus session %d: %w", busID, err)
	}
	m := a.toModel()
	m.CurrentDriverID = nullInt(a.driverID)
	return models.BusSession{
		Bus:         m.Bus,
		SessionID:   nullInt(sessionID),
		ActiveRoute: m.Route,
		Location:    m.Location,
	}, nil
}

// Counts returns row counts of the core tables, used by diagnostics.
func (r BusRepository) Counts(ctx context.Context, tables ...string) (map[string]int, error) {
	db, err := r.db()
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(tables))
	for _, t := range tables {
		n, err := countRows(ctx, db, t)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", t, err)
		}
		out[t] = n
	}
	return out, nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	i := v.Int64
	return &i
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
