package models

import "time"

type Report struct {
	ReportID    int64     `json:"report_id"`
	UserID      int64     `json:"user_id,omitempty"`
	UserName    *string   `json:"user_name,omitempty"`
	UserMobile  *string   `json:"user_mobile,omitempty"`
	BusID       *int64    `json:"bus_id"`
	BusNumber   *string   `json:"bus_number"`
	ReportType  string    `json:"report_type"`
	LocationLat *float64  `json:"location_lat"`
	LocationLon *float64  `json:"location_lon"`
	Description string    `json:"description"`
	MediaURL    *string   `json:"media_url"`
	CreatedAt   time.Time `json:"created_at"`
}

type NewReport struct {
	UserID      int64
	BusID       *int64
	ReportType  string
	LocationLat *float64
	LocationLon *float64
	Description string
	MediaURL    *string
}
