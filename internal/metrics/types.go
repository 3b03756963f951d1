package metrics

import "time"

// RawRow is one spreadsheet row keyed by column header. Values are strings or
// numbers as delivered by the Sheets API.
type RawRow map[string]interface{}

// SheetMetadata identifies one monitored URL's sheet
type SheetMetadata struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	RowCount int64  `json:"rowCount"`
}

// MetricValues holds one strategy's Lighthouse scores and web vitals.
// Time-valued fields are milliseconds.
type MetricValues struct {
	Performance   float64 `json:"performance"`
	Accessibility float64 `json:"accessibility"`
	BestPractices float64 `json:"bestPractices"`
	SEO           float64 `json:"seo"`
	FCP           float64 `json:"fcp"`
	LCP           float64 `json:"lcp"`
	CLS           float64 `json:"cls"`
	SpeedIndex    float64 `json:"speedIndex"`
	TBT           float64 `json:"tbt"`
}

// ChartDataPoint is one normalized daily sample. For split-schema rows the
// flat fields mirror Desktop.
type ChartDataPoint struct {
	Date string `json:"date"`
	MetricValues
	Desktop *MetricValues `json:"desktop,omitempty"`
	Mobile  *MetricValues `json:"mobile,omitempty"`
}

// LatestMetrics is the snapshot of the most recent sample
type LatestMetrics struct {
	URL                    string        `json:"url"`
	Timestamp              time.Time     `json:"timestamp"`
	Performance            float64       `json:"performance"`
	Accessibility          float64       `json:"accessibility"`
	BestPractices          float64       `json:"bestPractices"`
	SEO                    float64       `json:"seo"`
	FirstContentfulPaint   float64       `json:"firstContentfulPaint"`
	LargestContentfulPaint float64       `json:"largestContentfulPaint"`
	CumulativeLayoutShift  float64       `json:"cumulativeLayoutShift"`
	SpeedIndex             float64       `json:"speedIndex"`
	TotalBlockingTime      float64       `json:"totalBlockingTime"`
	Desktop                *MetricValues `json:"desktop,omitempty"`
	Mobile                 *MetricValues `json:"mobile,omitempty"`
}

// UrlMetrics is the per-sheet result. Data is sorted ascending by date and
// Name is the sheet title.
type UrlMetrics struct {
	URL           string           `json:"url"`
	Name          string           `json:"name"`
	Data          []ChartDataPoint `json:"data"`
	LatestMetrics LatestMetrics    `json:"latestMetrics"`
}
