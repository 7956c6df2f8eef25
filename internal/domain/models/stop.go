package models

import "time"

type Stop struct {
	StopID     int64    `json:"stop_id"`
	RouteID    int64    `json:"route_id"`
	StopName   string   `json:"stop_name"`
	StopLat    *float64 `json:"stop_lat"`
	StopLon    *float64 `json:"stop_lon"`
	SequenceNo int      `json:"sequence_no"`
}

// LiveStop is a stop joined with route_progress and eta_predictions.
type LiveStop struct {
	Stop
	ArrivalTime      *time.Time `json:"arrival_time"`
	DepartureTime    *time.Time `json:"departure_time"`
	PredictedArrival *time.Time `json:"predicted_arrival"`
	MinutesRemaining *int       `json:"minutes_remaining"`
}

// StopSummary is a distinct stop across routes, used by the stop picker.
type StopSummary struct {
	StopID      int64    `json:"stop_id"`
	StopName    string   `json:"stop_name"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	RoutesCount int      `json:"routes_count"`
	Regions     *string  `json:"regions"`
}
