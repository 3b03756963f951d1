package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordCacheLookup("sheet_data", "hit")
	m.RecordCacheLookup("sheet_data", "hit")
	m.RecordCacheLookup("sheets_metadata", "miss")
	m.RecordUpstream("get_rows", "rate_limited")
	m.AddRowsDropped(3)
	m.AddRowsDropped(0)
	m.AddRowsDropped(-2)
	m.RecordBulkAbort()
	m.ObserveHTTP("/api/metrics", "200", 0.25)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("sheet_data", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("sheets_metadata", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("get_rows", "rate_limited")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.RowsDropped))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BulkAborts))
	assert.Equal(t, 1, testutil.CollectAndCount(m.HTTPDuration, "lighthouse_dashboard_http_request_duration_seconds"))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordCacheLookup("sheet_data", "hit")
		m.RecordUpstream("list_sheets", "ok")
		m.AddRowsDropped(1)
		m.RecordBulkAbort()
		m.ObserveHTTP("/healthcheck", "200", 0.01)
	})
}

func TestNewRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotNil(t, families)

	assert.Panics(t, func() { New(reg) })
}
