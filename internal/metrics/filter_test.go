package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pointsOn(dates ...string) []ChartDataPoint {
	points := make([]ChartDataPoint, 0, len(dates))
	for _, d := range dates {
		points = append(points, ChartDataPoint{Date: d})
	}
	return points
}

func datesOf(points []ChartDataPoint) []string {
	dates := make([]string, 0, len(points))
	for _, p := range points {
		dates = append(dates, p.Date)
	}
	return dates
}

func TestFilterByDateRange(t *testing.T) {
	points := pointsOn("2024-10-01", "2024-12-31", "2025-01-01", "2025-01-23", "2025-01-24", "2025-01-31")

	tests := []struct {
		r    DateRange
		want []string
	}{
		{Range7Days, []string{"2025-01-24", "2025-01-31"}},
		{Range30Days, []string{"2025-01-01", "2025-01-23", "2025-01-24", "2025-01-31"}},
		{Range90Days, []string{"2024-12-31", "2025-01-01", "2025-01-23", "2025-01-24", "2025-01-31"}},
	}

	for _, tc := range tests {
		t.Run(string(tc.r), func(t *testing.T) {
			assert.Equal(t, tc.want, datesOf(FilterByDateRange(points, tc.r)))
		})
	}
	assert.Len(t, points, 6)
}

func TestFilterByDateRangeEmpty(t *testing.T) {
	assert.Empty(t, FilterByDateRange(nil, Range7Days))
}

func TestParseDateRange(t *testing.T) {
	r, err := ParseDateRange("")
	require.NoError(t, err)
	assert.Equal(t, DefaultDateRange, r)

	r, err = ParseDateRange("30d")
	require.NoError(t, err)
	assert.Equal(t, Range30Days, r)

	_, err = ParseDateRange("1y")
	assert.Error(t, err)
}
