package metrics

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
)

// BuildSeries builds a sheet's series with DefaultParser.
func BuildSeries(sheetTitle string, rows []RawRow) (*UrlMetrics, error) {
	return DefaultParser.BuildSeries(sheetTitle, rows)
}

// BuildSeries parses every row, drops the malformed ones and returns the
// surviving points sorted ascending by date. Rows sharing a date keep their
// sheet order. It fails with ErrNoValidData when nothing survives.
//
// The latest snapshot takes its values from the last sorted point but its
// timestamp and URL from the first raw row, which keeps sub-day precision.
func (p *Parser) BuildSeries(sheetTitle string, rows []RawRow) (*UrlMetrics, error) {
	log.Debug().Str("sheet", sheetTitle).Int("rows", len(rows)).Msg("Building series")

	points := make([]ChartDataPoint, 0, len(rows))
	for i, row := range rows {
		point := p.ParseRow(row)
		if point == nil {
			// header is sheet row 1
			log.Debug().
				Str("sheet", sheetTitle).
				Int("row", i+2).
				Msg("Skipping malformed row")
			continue
		}
		points = append(points, *point)
	}

	if len(points) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoValidData, sheetTitle)
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date < points[j].Date
	})

	first := rows[0]
	url := urlOf(first)
	if url == "" {
		url = sheetTitle
	}

	latest := points[len(points)-1]
	result := &UrlMetrics{
		URL:  url,
		Name: sheetTitle,
		Data: points,
		LatestMetrics: LatestMetrics{
			URL:                    url,
			Timestamp:              p.timestampOf(first),
			Performance:            latest.Performance,
			Accessibility:          latest.Accessibility,
			BestPractices:          latest.BestPractices,
			SEO:                    latest.SEO,
			FirstContentfulPaint:   latest.FCP,
			LargestContentfulPaint: latest.LCP,
			CumulativeLayoutShift:  latest.CLS,
			SpeedIndex:             latest.SpeedIndex,
			TotalBlockingTime:      latest.TBT,
			Desktop:                latest.Desktop,
			Mobile:                 latest.Mobile,
		},
	}

	log.Debug().
		Str("sheet", sheetTitle).
		Int("points", len(points)).
		Int("dropped", len(rows)-len(points)).
		Msg("Built series")

	return result, nil
}
