package exporter

import (
	"strconv"
	"time"
)

const dateFormat = "2006-01-02"

// formatInt formats an int64 value for CSV output
func formatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}

// formatDate writes calendar dates without a time of day.
func formatDate(t time.Time) string {
	return t.Format(dateFormat)
}
