package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"smartbus/internal/domain"
	"smartbus/internal/domain/models"
)

type RouteRepository struct {
	DB *sql.DB
}

func (r RouteRepository) db() (*sql.DB, error) { return pick(r.DB) }

func scanRoute(sc interface{ Scan(...any) error }) (models.Route, error) {
	var (
		rt       models.Route
		distance sql.NullFloat64
	)
	if err := sc.Scan(&rt.RouteID, &rt.SourceName, &rt.DestinationName, &distance); err != nil {
		return models.Route{}, err
	}
	rt.TotalDistanceKm = nullFloat(distance)
	return rt, nil
}

// Search matches routes whose lower-cased source and destination contain the
// given terms.
func (r RouteRepository) Search(ctx context.Context, source, destination string) ([]models.Route, error) {
	db, err := r.db()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT route_id, source_name, destination_name, total_distance_km
		FROM routes
		WHERE LOWER(source_name) LIKE ?
		AND LOWER(destination_name) LIKE ?
	`, likeTerm(source), likeTerm(destination))
	if err != nil {
		return nil, fmt.Errorf("search routes: %w", err)
	}
	defer rows.Close()

	out := []models.Route{}
	for rows.Next() {
		rt, err := scanRoute(rows)
		if err != nil {
			return nil, fmt.Errorf("scan route: %w", err)
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

func likeTerm(s string) string {
	return "%" + strings.ToLower(strings.TrimSpace(s)) + "%"
}

func (r RouteRepository) GetByID(ctx context.Context, routeID int64) (models.Route, error) {
	db, err := r.db()
	if err != nil {
		return models.Route{}, err
	}
	rt, err := scanRoute(db.QueryRowContext(ctx, `
		SELECT route_id, source_name, destination_name, total_distance_km
		FROM routes WHERE route_id = ?
	`, routeID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Route{}, domain.NotFoundError{Resource: "route", Msg: "Route not found.", Err: err}
	}
	if err != nil {
		return models.Route{}, fmt.Errorf("get route %d: %w", routeID, err)
	}
	return rt, nil
}

// FirstRouteID returns the lowest route id, or 0 when there are no routes.
func (r RouteRepository) FirstRouteID(ctx context.Context) (int64, error) {
	db, err := r.db()
	if err != nil {
		return 0, err
	}
	var id int64
	err = db.QueryRowContext(ctx, `SELECT route_id FROM routes ORDER BY route_id LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("first route: %w", err)
	}
	return id, nil
}

// WithMostStops returns the route that has the most stops, or 0 when there
// are no routes.
func (r RouteRepository) WithMostStops(ctx context.Context) (int64, error) {
	db, err := r.db()
	if err != nil {
		return 0, err
	}
	var id int64
	err = db.QueryRowContext(ctx, `
		SELECT r.route_id
		FROM routes r
		LEFT JOIN stops s ON r.route_id = s.route_id
		GROUP BY r.route_id
		ORDER BY COUNT(s.stop_id) DESC, r.route_id
		LIMIT 1
	`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("route with most stops: %w", err)
	}
	return id, nil
}

// ListSummaries returns all routes with active bus and stop counts.
func (r RouteRepository) ListSummaries(ctx context.Context) ([]models.RouteSummary, error) {
	db, err := r.db()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT
			r.route_id, r.source_name, r.destination_name, r.total_distance_km,
			COUNT(DISTINCT ds.bus_id) AS active_buses_count,
			COUNT(DISTINCT s.stop_id) AS stops_count
		FROM routes r
		LEFT JOIN driver_sessions ds ON r.route_id = ds.route_id AND ds.end_time IS NULL
		LEFT JOIN stops s ON r.route_id = s.route_id
		GROUP BY r.route_id, r.source_name, r.destination_name, r.total_distance_km
		ORDER BY r.source_name, r.destination_name
	`)
	if err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}
	defer rows.Close()

	out := []models.RouteSummary{}
	for rows.Next() {
		var (
			s        models.RouteSummary
			distance sql.NullFloat64
		)
		if err := rows.Scan(&s.RouteID, &s.SourceName, &s.DestinationName, &distance, &s.ActiveBusesCount, &s.StopsCount); err != nil {
			return nil, fmt.Errorf("scan route summary: %w", err)
		}
		s.TotalDistanceKm = nullFloat(distance)
		out = append(out, s)
	}
	return out, rows.Err()
}

// Locations lists distinct source/destination names with averaged coordinates.
func (r RouteRepository) Locations(ctx context.Context) ([]models.RouteLocation, error) {
	db, err := r.db()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT location_name, AVG(location_lat) AS latitude, AVG(location_lon) AS longitude, COUNT(*) AS routes_count
		FROM (
			SELECT source_name AS location_name, source_lat AS location_lat, source_lon AS location_lon
			FROM routes WHERE source_name IS NOT NULL
			UNION ALL
			SELECT destination_name AS location_name, destination_lat AS location_lat, destination_lon AS location_lon
			FROM routes WHERE destination_name IS NOT NULL
		) AS all_locations
		GROUP BY location_name
		ORDER BY location_name
	`)
	if err != nil {
		return nil, fmt.Errorf("list route locations: %w", err)
	}
	defer rows.Close()

	out := []models.RouteLocation{}
	for rows.Next() {
		var (
			loc      models.RouteLocation
			lat, lon sql.NullFloat64
		)
		if err := rows.Scan(&loc.Name, &lat, &lon, &loc.RoutesCount); err != nil {
			return nil, fmt.Errorf("scan route location: %w", err)
		}
		loc.Latitude, loc.Longitude = nullFloat(lat), nullFloat(lon)
		out = append(out, loc)
	}
	return out, rows.Err()
}

// Counts returns the row counts reported by the connectivity check.
func (r RouteRepository) Counts(ctx context.Context) (map[string]int, error) {
	return BusRepository{DB: r.DB}.Counts(ctx, "routes", "stops", "buses", "users")
}
