package utils

import (
	"strconv"
	"strings"
)

// StopLocation extracts the place from names like "Stop 1 - Medical College".
// Names without the separator are returned unchanged.
func StopLocation(stopName string) string {
	parts := strings.Split(stopName, " - ")
	if len(parts) > 1 {
		return parts[1]
	}
	return stopName
}

// LocationID builds the synthetic id of a route location, e.g.
// "location_Bus_Stand".
func LocationID(name string) string {
	return "location_" + strings.Join(strings.Fields(name), "_")
}

// ParseID parses a positive integer identifier.
func ParseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// ParseOptionalFloat returns nil for blank input or unparsable values.
func ParseOptionalFloat(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &f
}
