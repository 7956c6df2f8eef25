package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"smartbus/internal/domain/models"
)

type StopRepository struct {
	DB *sql.DB
}

func (r StopRepository) db() (*sql.DB, error) { return pick(r.DB) }

// ListByRoute returns the stops of a route ordered by sequence_no.
func (r StopRepository) ListByRoute(ctx context.Context, routeID int64) ([]models.Stop, error) {
	db, err := r.db()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT stop_id, route_id, stop_name, stop_lat, stop_lon, sequence_no
		FROM stops
		WHERE route_id = ?
		ORDER BY sequence_no
	`, routeID)
	if err != nil {
		return nil, fmt.Errorf("list stops for route %d: %w", routeID, err)
	}
	defer rows.Close()

	out := []models.Stop{}
	for rows.Next() {
		var (
			s        models.Stop
			lat, lon sql.NullFloat64
		)
		if err := rows.Scan(&s.StopID, &s.RouteID, &s.StopName, &lat, &lon, &s.SequenceNo); err != nil {
			return nil, fmt.Errorf("scan stop: %w", err)
		}
		s.StopLat, s.StopLon = nullFloat(lat), nullFloat(lon)
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListLive joins the route's stops with the session progress and the bus ETA
// predictions. Either optional table may be absent, in which case its
// columns come back NULL.
func (r StopRepository) ListLive(ctx context.Context, routeID, sessionID, busID int64) ([]models.LiveStop, error) {
	db, err := r.db()
	if err != nil {
		return nil, err
	}
	hasProgress, err := hasTable(ctx, db, "route_progress")
	if err != nil {
		return nil, fmt.Errorf("probe route_progress: %w", err)
	}
	hasETA, err := hasTable(ctx, db, "eta_predictions")
	if err != nil {
		return nil, fmt.Errorf("probe eta_predictions: %w", err)
	}

	var (
		cols  = []string{"NULL", "NULL", "NULL", "NULL"}
		joins []string
		args  []any
	)
	if hasProgress {
		cols[0], cols[1] = "rp.arrival_time", "rp.departure_time"
		joins = append(joins, "LEFT JOIN route_progress rp ON s.stop_id = rp.stop_id AND rp.session_id = ?")
		args = append(args, sessionID)
	}
	if hasETA {
		cols[2], cols[3] = "eta.predicted_arrival", "eta.minutes_remaining"
		joins = append(joins, "LEFT JOIN eta_predictions eta ON s.stop_id = eta.stop_id AND eta.bus_id = ?")
		args = append(args, busID)
	}
	args = append(args, routeID)

	query := `
		SELECT
			s.stop_id, s.route_id, s.stop_name, s.stop_lat, s.stop_lon, s.sequence_no,
			` + strings.Join(cols, ", ") + `
		FROM stops s
		` + strings.Join(joins, "\n\t\t") + `
		WHERE s.route_id = ?
		ORDER BY s.sequence_no`
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list live stops for route %d: %w", routeID, err)
	}
	defer rows.Close()

	out := []models.LiveStop{}
	for rows.Next() {
		var (
			s                             models.LiveStop
			lat, lon                      sql.NullFloat64
			arrival, departure, predicted sql.NullTime
			minutes                       sql.NullInt64
		)
		if err := rows.Scan(
			&s.StopID, &s.RouteID, &s.StopName, &lat, &lon, &s.SequenceNo,
			&arrival, &departure, &predicted, &minutes,
		); err != nil {
			return nil, fmt.Errorf("scan live stop: %w", err)
		}
		s.StopLat, s.StopLon = nullFloat(lat), nullFloat(lon)
		s.ArrivalTime, s.DepartureTime = nullTime(arrival), nullTime(departure)
		s.PredictedArrival = nullTime(predicted)
		if minutes.Valid {
			m := int(minutes.Int64)
			s.MinutesRemaining = &m
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Summaries lists distinct stops with the number of routes that serve them
// and the comma-joined route sources.
func (r StopRepository) Summaries(ctx context.Context) ([]models.StopSummary, error) {
	db, err := r.db()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT
			s.stop_id, s.stop_name, s.stop_lat, s.stop_lon,
			COUNT(DISTINCT s.route_id) AS routes_count,
			GROUP_CONCAT(DISTINCT r.source_name ORDER BY r.source_name SEPARATOR ', ') AS regions
		FROM stops s
		LEFT JOIN routes r ON s.route_id = r.route_id
		GROUP BY s.stop_id, s.stop_name, s.stop_lat, s.stop_lon
		ORDER BY s.stop_name
	`)
	if err != nil {
		return nil, fmt.Errorf("list stop summaries: %w", err)
	}
	defer rows.Close()

	out := []models.StopSummary{}
	for rows.Next() {
		var (
			s        models.StopSummary
			lat, lon sql.NullFloat64
			regions  sql.NullString
		)
		if err := rows.Scan(&s.StopID, &s.StopName, &lat, &lon, &s.RoutesCount, &regions); err != nil {
			return nil, fmt.Errorf("scan stop summary: %w", err)
		}
		s.Latitude, s.Longitude = nullFloat(lat), nullFloat(lon)
		s.Regions = nullString(regions)
		out = append(out, s)
	}
	return out, rows.Err()
}

// ReplaceForRoutes deletes the existing stops of every route present in
// stops and inserts the new set in one transaction.
func (r StopRepository) ReplaceForRoutes(ctx context.Context, stops []models.Stop) (int, error) {
	db, err := r.db()
	if err != nil {
		return 0, err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	seen := map[int64]bool{}
	for _, s := range stops {
		if seen[s.RouteID] {
			continue
		}
		seen[s.RouteID] = true
		if _, err := tx.ExecContext(ctx, `DELETE FROM stops WHERE route_id = ?`, s.RouteID); err != nil {
			return 0, fmt.Errorf("clear stops for route %d: %w", s.RouteID, err)
		}
	}

	inserted := 0
	for _, s := range stops {
		if _, err := insertStop(ctx, tx, s); err != nil {
			return 0, err
		}
		inserted++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit stops: %w", err)
	}
	return inserted, nil
}

func insertStop(ctx context.Context, q queryer, s models.Stop) (sql.Result, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO stops (route_id, stop_name, stop_lat, stop_lon, sequence_no)
		VALUES (?, ?, ?, ?, ?)
	`, s.RouteID, s.StopName, s.StopLat, s.StopLon, s.SequenceNo)
	if err != nil {
		return nil, fmt.Errorf("insert stop %q: %w", s.StopName, err)
	}
	return res, nil
}
