// Package telemetry provides Prometheus instrumentation for the dashboard API.
//
// Metrics exposed:
//   - lighthouse_dashboard_cache_lookups_total: cache lookups by key family and result
//   - lighthouse_dashboard_upstream_requests_total: spreadsheet calls by operation and outcome
//   - lighthouse_dashboard_rows_dropped_total: malformed rows dropped while building series
//   - lighthouse_dashboard_bulk_aborts_total: bulk fetches cut short by rate limiting
//   - lighthouse_dashboard_http_request_duration_seconds: HTTP latency by route and status
//
// A nil *Metrics is valid and records nothing.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	CacheLookups     *prometheus.CounterVec
	UpstreamRequests *prometheus.CounterVec
	RowsDropped      prometheus.Counter
	BulkAborts       prometheus.Counter
	HTTPDuration     *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lighthouse_dashboard_cache_lookups_total",
			Help: "Cache lookups by key family and result (hit, miss, error)",
		}, []string{"family", "result"}),

		UpstreamRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lighthouse_dashboard_upstream_requests_total",
			Help: "Spreadsheet requests by operation and outcome",
		}, []string{"operation", "outcome"}),

		RowsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "lighthouse_dashboard_rows_dropped_total",
			Help: "Malformed spreadsheet rows dropped while building series",
		}),

		BulkAborts: factory.NewCounter(prometheus.CounterOpts{
			Name: "lighthouse_dashboard_bulk_aborts_total",
			Help: "Bulk metric fetches stopped early by rate limiting",
		}),

		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lighthouse_dashboard_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by route and status code",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

func (m *Metrics) RecordCacheLookup(family, result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(family, result).Inc()
}

func (m *Metrics) RecordUpstream(operation, outcome string) {
	if m == nil {
		return
	}
	m.UpstreamRequests.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) AddRowsDropped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RowsDropped.Add(float64(n))
}

func (m *Metrics) RecordBulkAbort() {
	if m == nil {
		return
	}
	m.BulkAborts.Inc()
}

func (m *Metrics) ObserveHTTP(route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPDuration.WithLabelValues(route, status).Observe(seconds)
}
