package utils

import "time"

const layoutClock24 = "15:04"

// FormatClock24 formats t as HH:MM.
func FormatClock24(t time.Time) string {
	return t.Format(layoutClock24)
}
