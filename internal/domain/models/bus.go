package models

import "time"

type Bus struct {
	BusID           int64  `json:"bus_id"`
	BusNumber       string `json:"bus_number"`
	Capacity        int    `json:"capacity"`
	Status          string `json:"status"`
	CurrentDriverID *int64 `json:"current_driver_id"`
}

type Driver struct {
	DriverID  *int64  `json:"driver_id,omitempty"`
	Name      string  `json:"name"`
	Mobile    *string `json:"mobile"`
	LicenseNo *string `json:"license_no,omitempty"`
}

type Location struct {
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	LastUpdated time.Time `json:"last_updated"`
}

// BusAssignment is a bus with its open-session route, driver and latest fix.
// Route, Driver and Location stay nil when the joins found nothing.
type BusAssignment struct {
	Bus
	Route    *Route
	Driver   *Driver
	Location *Location
}

// BusSession is the bus row used by timeline building: the open driver
// session (if any) and its route.
type BusSession struct {
	Bus
	SessionID   *int64
	ActiveRoute *Route
	Location    *Location
}

// HasLiveSession reports whether the bus is on a tracked route right now.
func (b BusSession) HasLiveSession() bool {
	return b.SessionID != nil && b.ActiveRoute != nil
}

// BusLocation is one row of the real-time location feed.
type BusLocation struct {
	BusID           int64      `json:"bus_id"`
	BusNumber       string     `json:"bus_number"`
	Status          string     `json:"status"`
	Latitude        *float64   `json:"latitude"`
	Longitude       *float64   `json:"longitude"`
	Timestamp       *time.Time `json:"timestamp"`
	SourceName      *string    `json:"source_name,omitempty"`
	DestinationName *string    `json:"destination_name,omitempty"`
}
