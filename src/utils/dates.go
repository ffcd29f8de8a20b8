package utils

import (
	"time"
)

// FormatTimestamp renders t the way clients expect server timestamps:
// UTC, ISO-8601 with millisecond precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
