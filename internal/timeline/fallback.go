package timeline

import (
	"fmt"
	"strings"

	"smartbus/internal/domain"
)

// intermediateStops is the hardcoded city-pair table used when no live or
// stored stops are available.
var intermediateStops = map[string]map[string][]string{
	"Amritsar": {
		"Jalandhar":  {"Tarn Taran", "Goindwal Sahib"},
		"Ludhiana":   {"Tarn Taran", "Kapurthala", "Jalandhar"},
		"Chandigarh": {"Kapurthala", "Jalandhar", "Ludhiana"},
	},
	"Chandigarh": {
		"Ludhiana":  {"Rajpura", "Patiala"},
		"Jalandhar": {"Rajpura", "Patiala", "Sangrur"},
		"Amritsar":  {"Patiala", "Sangrur", "Jalandhar"},
	},
	"Ludhiana": {
		"Jalandhar":  {"Phagwara"},
		"Amritsar":   {"Jalandhar", "Kapurthala"},
		"Chandigarh": {"Sirhind", "Rajpura"},
	},
	"Barnala": {
		"Hoshiarpur": {"Sangrur", "Ludhiana", "Jalandhar"},
	},
}

var defaultIntermediate = []string{"City Center", "Bus Stand"}

// IntermediateStops returns the stops between two cities, or a generic pair.
func IntermediateStops(source, destination string) []string {
	if stops, ok := intermediateStops[source][destination]; ok {
		return stops
	}
	return defaultIntermediate
}

// Fallback fabricates a deterministic timeline for a source/destination pair:
// the source is departed, the first intermediate stop is current.
func Fallback(source, destination string) []Entry {
	if strings.TrimSpace(source) == "" {
		source = "Source Stop"
	}
	if strings.TrimSpace(destination) == "" {
		destination = "Destination Stop"
	}
	mids := IntermediateStops(source, destination)

	out := make([]Entry, 0, len(mids)+2)
	out = append(out, Entry{
		ID:          1,
		Name:        source,
		Status:      domain.StopCompleted,
		ETA:         "Departed",
		ArrivalTime: "09:00 AM",
		StopOrder:   1,
	})
	for i, name := range mids {
		status, eta := domain.StopUpcoming, fmt.Sprintf("%d min", 15+i*12)
		if i == 0 {
			status, eta = domain.StopCurrent, "2 min"
		}
		step := i + 1
		out = append(out, Entry{
			ID:          int64(i + 2),
			Name:        name,
			Status:      status,
			ETA:         eta,
			ArrivalTime: fmt.Sprintf("%d:%02d AM", 9+step/4, (step*15)%60),
			Distance:    float64(step) * 12.5,
			StopOrder:   i + 2,
		})
	}
	n := len(mids)
	out = append(out, Entry{
		ID:          int64(n + 2),
		Name:        destination,
		Status:      domain.StopUpcoming,
		ETA:         fmt.Sprintf("%d min", 30+n*12),
		ArrivalTime: fmt.Sprintf("%d:00 AM", 10+n/4),
		Distance:    float64(n+2) * 12.5,
		StopOrder:   n + 2,
	})
	return out
}
