package metrics

import (
	"fmt"
	"time"
)

// DateRange is a trailing window ending at the most recent sample.
type DateRange string

const (
	Range7Days  DateRange = "7d"
	Range30Days DateRange = "30d"
	Range90Days DateRange = "90d"

	DefaultDateRange = Range90Days
)

func (r DateRange) days() int {
	switch r {
	case Range7Days:
		return 7
	case Range30Days:
		return 30
	default:
		return 90
	}
}

// ParseDateRange accepts "7d", "30d" or "90d". Empty selects the default.
func ParseDateRange(s string) (DateRange, error) {
	switch DateRange(s) {
	case "":
		return DefaultDateRange, nil
	case Range7Days, Range30Days, Range90Days:
		return DateRange(s), nil
	}
	return "", fmt.Errorf("invalid date range %q: expected 7d, 30d or 90d", s)
}

// FilterByDateRange keeps the points dated on or after the latest point's
// date minus the range. The input slice is not modified.
func FilterByDateRange(points []ChartDataPoint, r DateRange) []ChartDataPoint {
	if len(points) == 0 {
		return points
	}

	var latest time.Time
	for _, p := range points {
		if d, err := time.Parse(time.DateOnly, p.Date); err == nil && d.After(latest) {
			latest = d
		}
	}
	if latest.IsZero() {
		return points
	}

	start := latest.AddDate(0, 0, -r.days()).Format(time.DateOnly)
	filtered := make([]ChartDataPoint, 0, len(points))
	for _, p := range points {
		if p.Date >= start {
			filtered = append(filtered, p)
		}
	}
	return filtered
}
