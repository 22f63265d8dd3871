package utils

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatBytes formats a byte count using binary units
func FormatBytes(bytes int64) string {
	if bytes < 0 {
		return "-" + humanize.IBytes(uint64(-bytes))
	}
	return humanize.IBytes(uint64(bytes))
}

// FormatAge formats a timestamp relative to now, e.g. "3 minutes ago"
func FormatAge(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}

// FormatRetention formats a retention window, e.g. "30 days"
func FormatRetention(d time.Duration) string {
	if d <= 0 {
		return "forever"
	}
	now := time.Now()
	return strings.TrimSpace(humanize.RelTime(now, now.Add(d), "", ""))
}
