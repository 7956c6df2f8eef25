package models

import "fmt"

type Route struct {
	RouteID         int64    `json:"route_id"`
	SourceName      string   `json:"source_name"`
	DestinationName string   `json:"destination_name"`
	TotalDistanceKm *float64 `json:"total_distance_km"`
}

// Name renders the "<source> to <destination>" label used across responses.
func (r Route) Name() string {
	return fmt.Sprintf("%s to %s", r.SourceName, r.DestinationName)
}

// DistanceOr returns the route length or def when unknown or zero.
func (r Route) DistanceOr(def float64) float64 {
	if r.TotalDistanceKm == nil || *r.TotalDistanceKm == 0 {
		return def
	}
	return *r.TotalDistanceKm
}

type RouteSummary struct {
	Route
	ActiveBusesCount int `json:"active_buses_count"`
	StopsCount       int `json:"stops_count"`
}

// RouteLocation is a distinct source/destination name with averaged coordinates.
type RouteLocation struct {
	Name        string   `json:"location_name"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	RoutesCount int      `json:"routes_count"`
}
