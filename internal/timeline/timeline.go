// Package timeline turns an ordered stop list into the completed / current /
// upcoming view shown for a bus, in both live (driver session) and static
// (schedule only) flavours.
package timeline

import (
	"fmt"
	"math"
	"strings"
	"time"

	"smartbus/internal/domain"
	"smartbus/internal/domain/models"
)

const (
	// DefaultRouteKm is used for distances when a route has no length.
	DefaultRouteKm = 100.0

	staticProgress   = 0.3
	staticStopGap    = 15 * time.Minute
	liveStopGap      = 12 * time.Minute
	scheduleStartsAt = 9
)

// Entry is one stop in a rendered timeline.
type Entry struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	ArrivalTime string            `json:"arrivalTime"`
	Status      domain.StopStatus `json:"status"`
	Distance    float64           `json:"distance"`
	ETA         string            `json:"eta"`
	Latitude    float64           `json:"latitude"`
	Longitude   float64           `json:"longitude"`
	StopOrder   int               `json:"stop_order"`
}

// Coordinates is a plain lat/lon pair.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// LastSeen describes where the bus was last observed along its timeline.
type LastSeen struct {
	StopName    string      `json:"stop_name"`
	Status      string      `json:"status"`
	Time        string      `json:"time"`
	ETA         string      `json:"eta"`
	Coordinates Coordinates `json:"coordinates"`
	Message     string      `json:"message"`
}

// Metadata carries the per-status counts of a timeline.
type Metadata struct {
	TotalStops     int    `json:"total_stops"`
	CompletedStops int    `json:"completed_stops"`
	RemainingStops int    `json:"remaining_stops"`
	DataSource     string `json:"data_source"`
}

// StatusAt labels index i relative to the current stop index.
func StatusAt(i, current int) domain.StopStatus {
	switch {
	case i < current:
		return domain.StopCompleted
	case i == current:
		return domain.StopCurrent
	default:
		return domain.StopUpcoming
	}
}

// LiveCurrentIndex picks the current stop from route progress: the first
// stop the bus has reached but not left, otherwise one past the last stop
// it departed from (clamped to the final stop).
func LiveCurrentIndex(stops []models.LiveStop) int {
	current := 0
	for i, s := range stops {
		if s.ArrivalTime != nil && s.DepartureTime == nil {
			return i
		}
		if s.DepartureTime != nil {
			current = min(i+1, len(stops)-1)
		}
	}
	return current
}

// StaticCurrentIndex places a bus without live data 30% along its route.
func StaticCurrentIndex(n int) int {
	return int(math.Floor(float64(n) * staticProgress))
}

// ThirdIndex places the bus a third of the way along (route-stops view).
func ThirdIndex(n int) int {
	return n / 3
}

// RouteDistance spreads distanceKm evenly over the stops, rounded to 0.1 km.
// The first stop sits at 0.
func RouteDistance(sequenceNo, totalStops int, distanceKm float64) float64 {
	if sequenceNo == 1 || totalStops <= 1 {
		return 0
	}
	d := float64(sequenceNo-1) * (distanceKm / float64(totalStops-1))
	return math.Round(d*10) / 10
}

// FormatClock renders 12-hour time without a leading zero, e.g. "9:15 AM".
func FormatClock(t time.Time) string {
	return t.Format("3:04 PM")
}

// FormatClockPadded renders 12-hour time with a leading zero, e.g. "09:15 AM".
func FormatClockPadded(t time.Time) string {
	return t.Format("03:04 PM")
}

// ScheduledArrival is the fixed 09:00 schedule with a gap per stop step.
func ScheduledArrival(day time.Time, steps int, gap time.Duration) time.Time {
	start := time.Date(day.Year(), day.Month(), day.Day(), scheduleStartsAt, 0, 0, 0, day.Location())
	return start.Add(time.Duration(steps) * gap)
}

// CountdownETA turns a wall-clock arrival (minute precision, same day as
// now) into "Due", "N min" or "Hh Mm".
func CountdownETA(arrival, now time.Time) string {
	scheduled := time.Date(now.Year(), now.Month(), now.Day(), arrival.Hour(), arrival.Minute(), 0, 0, now.Location())
	diff := int(math.Ceil(scheduled.Sub(now).Minutes()))
	if diff <= 0 {
		return "Due"
	}
	if diff < 60 {
		return fmt.Sprintf("%d min", diff)
	}
	return fmt.Sprintf("%dh %dm", diff/60, diff%60)
}

func liveETA(arrival time.Time, status domain.StopStatus, busStatus string, now time.Time) string {
	switch status {
	case domain.StopCompleted:
		return "Passed"
	case domain.StopCurrent:
		// buses.status is stored lowercase; "Running" is accepted too
		if strings.EqualFold(busStatus, domain.BusRunning) {
			return "2-5 min"
		}
		return "At stop"
	}
	return CountdownETA(arrival, now)
}

func coords(s models.Stop) (float64, float64) {
	var lat, lon float64
	if s.StopLat != nil {
		lat = *s.StopLat
	}
	if s.StopLon != nil {
		lon = *s.StopLon
	}
	return lat, lon
}

// BuildLive renders a timeline from session progress and ETA predictions.
// Stops without any tracked data get a 12-minute spacing around now.
func BuildLive(stops []models.LiveStop, current int, busStatus string, distanceKm float64, now time.Time) []Entry {
	out := make([]Entry, 0, len(stops))
	for i, s := range stops {
		status := StatusAt(i, current)
		var arrival, eta string
		switch {
		case s.PredictedArrival != nil:
			arrival = FormatClock(*s.PredictedArrival)
			eta = "Due"
			if s.MinutesRemaining != nil && *s.MinutesRemaining != 0 {
				eta = fmt.Sprintf("%d min", *s.MinutesRemaining)
			}
		case s.ArrivalTime != nil:
			arrival = FormatClock(*s.ArrivalTime)
			eta = "Arrived"
		default:
			base := now.Add(time.Duration(i-current) * liveStopGap)
			arrival = FormatClock(base)
			eta = liveETA(base, status, busStatus, now)
		}
		lat, lon := coords(s.Stop)
		out = append(out, Entry{
			ID:          s.StopID,
			Name:        s.StopName,
			ArrivalTime: arrival,
			Status:      status,
			Distance:    RouteDistance(s.SequenceNo, len(stops), distanceKm),
			ETA:         eta,
			Latitude:    lat,
			Longitude:   lon,
			StopOrder:   s.SequenceNo,
		})
	}
	return out
}

// BuildStatic renders a timeline from the schedule alone: arrivals every
// 15 minutes from 09:00 by sequence number.
func BuildStatic(stops []models.Stop, current int, distanceKm float64, now time.Time) []Entry {
	out := make([]Entry, 0, len(stops))
	for i, s := range stops {
		status := StatusAt(i, current)
		eta := "Passed"
		switch status {
		case domain.StopCurrent:
			eta = "5 min"
		case domain.StopUpcoming:
			if m := (i - current) * 15; m > 0 {
				eta = fmt.Sprintf("%d min", m)
			} else {
				eta = "Due"
			}
		}
		lat, lon := coords(s)
		out = append(out, Entry{
			ID:          s.StopID,
			Name:        s.StopName,
			ArrivalTime: FormatClock(ScheduledArrival(now, s.SequenceNo-1, staticStopGap)),
			Status:      status,
			Distance:    RouteDistance(s.SequenceNo, len(stops), distanceKm),
			ETA:         eta,
			Latitude:    lat,
			Longitude:   lon,
			StopOrder:   s.SequenceNo,
		})
	}
	return out
}

// BuildThirds renders the simpler route-stops view: the bus a third of the
// way along, 15-minute spacing by position and 2.5 km per stop.
func BuildThirds(stops []models.Stop, now time.Time) ([]Entry, int) {
	current := ThirdIndex(len(stops))
	out := make([]Entry, 0, len(stops))
	for i, s := range stops {
		status := StatusAt(i, current)
		eta := "Passed"
		switch status {
		case domain.StopCurrent:
			eta = "Now"
		case domain.StopUpcoming:
			eta = fmt.Sprintf("%d min", (i-current)*15)
		}
		lat, lon := coords(s)
		out = append(out, Entry{
			ID:          s.StopID,
			Name:        s.StopName,
			ArrivalTime: FormatClockPadded(ScheduledArrival(now, i, staticStopGap)),
			Status:      status,
			Distance:    math.Round(float64(i) * 2.5),
			ETA:         eta,
			Latitude:    lat,
			Longitude:   lon,
			StopOrder:   s.SequenceNo,
		})
	}
	return out, current
}

// FindLastSeen prefers the current stop, then the last completed one, then
// the first stop. It returns nil for an empty timeline.
func FindLastSeen(entries []Entry) *LastSeen {
	if len(entries) == 0 {
		return nil
	}
	var current, lastCompleted *Entry
	for i := range entries {
		switch entries[i].Status {
		case domain.StopCurrent:
			if current == nil {
				current = &entries[i]
			}
		case domain.StopCompleted:
			lastCompleted = &entries[i]
		}
	}

	stop := current
	if stop == nil {
		stop = lastCompleted
	}
	if stop == nil {
		stop = &entries[0]
	}

	seen := &LastSeen{
		StopName:    stop.Name,
		Status:      "last_completed",
		Time:        stop.ArrivalTime,
		ETA:         stop.ETA,
		Coordinates: Coordinates{Latitude: stop.Latitude, Longitude: stop.Longitude},
		Message:     "Last seen at " + stop.Name,
	}
	if current != nil {
		seen.Status = "current"
		seen.Message = "Currently at " + stop.Name
	}
	return seen
}

// Summarize counts stops per status.
func Summarize(entries []Entry, mode domain.TimelineMode) Metadata {
	md := Metadata{TotalStops: len(entries), DataSource: "static_route_data"}
	if mode == domain.ModeRealTime {
		md.DataSource = "real_time_session"
	}
	for _, e := range entries {
		switch e.Status {
		case domain.StopCompleted:
			md.CompletedStops++
		case domain.StopUpcoming:
			md.RemainingStops++
		}
	}
	return md
}
