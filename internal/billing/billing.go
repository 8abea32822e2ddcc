// Package billing holds the pure fare arithmetic shared by the ticket
// lifecycle and the reports.
package billing

import (
	"fmt"
	"time"
)

// NotAvailable is rendered wherever a timestamp is missing.
const NotAvailable = "N/A"

// FormatDateTime renders a timestamp as "YYYY-MM-DD HH:MM".
func FormatDateTime(t *time.Time) string {
	if t == nil {
		return NotAvailable
	}
	return t.Format("2006-01-02 15:04")
}

// Elapsed renders the time since entry, floored to whole minutes, as
// "{d}d {h}h {m}m", "{h}h {m}m" or "{m}m".
func Elapsed(entry *time.Time, now time.Time) string {
	if entry == nil {
		return NotAvailable
	}

	totalMinutes := int(now.Sub(*entry).Minutes())
	totalHours := totalMinutes / 60
	days := totalHours / 24

	hours := totalHours % 24
	minutes := totalMinutes % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}

// BillableHours is the elapsed time rounded up to whole hours: a partial
// hour is always billed as a full one.
func BillableHours(entry *time.Time, now time.Time) int {
	if entry == nil {
		return 0
	}

	elapsed := now.Sub(*entry)
	if elapsed <= 0 {
		return 0
	}

	hours := int(elapsed / time.Hour)
	if elapsed%time.Hour > 0 {
		hours++
	}
	return hours
}

// Amount is the fare due: billable hours times the hourly rate. A missing
// entry or a non-positive rate bills nothing.
func Amount(entry *time.Time, hourlyRate float64, now time.Time) float64 {
	if entry == nil || hourlyRate <= 0 {
		return 0
	}
	return float64(BillableHours(entry, now)) * hourlyRate
}

// Round2 truncates a monetary value to two decimals for presentation.
func Round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
