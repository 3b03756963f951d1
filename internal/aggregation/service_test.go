package aggregation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"lighthouse_dashboard/internal/cache"
	"lighthouse_dashboard/internal/metrics"
	"lighthouse_dashboard/internal/telemetry"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	mu        sync.Mutex
	sheets    []metrics.SheetMetadata
	rows      map[string][]metrics.RawRow
	rowErrs   map[string]error
	listErr   error
	listCalls int
	rowCalls  []string
}

func (g *fakeGateway) ListSheets(ctx context.Context) ([]metrics.SheetMetadata, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listCalls++
	if g.listErr != nil {
		return nil, g.listErr
	}
	return append([]metrics.SheetMetadata(nil), g.sheets...), nil
}

func (g *fakeGateway) GetRows(ctx context.Context, sheetTitle string) ([]metrics.RawRow, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rowCalls = append(g.rowCalls, sheetTitle)
	if err, ok := g.rowErrs[sheetTitle]; ok {
		return nil, err
	}
	rows, ok := g.rows[sheetTitle]
	if !ok {
		return nil, fmt.Errorf("%w: %q", metrics.ErrSheetNotFound, sheetTitle)
	}
	return rows, nil
}

// brokenCache fails every call, like an unreachable Redis.
type brokenCache struct{}

func (brokenCache) Get(context.Context, string, interface{}) (bool, error) {
	return false, errors.New("dial tcp 127.0.0.1:6379: connect: connection refused")
}

func (brokenCache) Set(context.Context, string, interface{}, time.Duration) error {
	return errors.New("dial tcp 127.0.0.1:6379: connect: connection refused")
}

func validRow(url, timestamp string, performance float64) metrics.RawRow {
	return metrics.RawRow{
		"URL":                      url,
		"Timestamp":                timestamp,
		"Performance":              performance,
		"Accessibility":            "90",
		"Best Practices":           "100",
		"SEO":                      "N/A",
		"First Contentful Paint":   "1.1 s",
		"Largest Contentful Paint": "2.0 s",
		"Cumulative Layout Shift":  0.01,
		"Speed Index":              "2.2 s",
		"Total Blocking Time":      "80 ms",
	}
}

func sheetsNamed(titles ...string) []metrics.SheetMetadata {
	out := make([]metrics.SheetMetadata, 0, len(titles))
	for i, title := range titles {
		out = append(out, metrics.SheetMetadata{ID: int64(100 + i), Title: title, RowCount: 1000})
	}
	return out
}

func newGateway(titles ...string) *fakeGateway {
	g := &fakeGateway{
		sheets:  sheetsNamed(titles...),
		rows:    make(map[string][]metrics.RawRow),
		rowErrs: make(map[string]error),
	}
	for _, title := range titles {
		g.rows[title] = []metrics.RawRow{
			validRow("https://example.com/"+title, "1/11/2025, 10.00", 80),
			validRow("https://example.com/"+title, "1/10/2025, 10.00", 70),
		}
	}
	return g
}

type sleepRecorder struct {
	calls []time.Duration
	err   error
}

func (r *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	r.calls = append(r.calls, d)
	return r.err
}

func newTestService(g Gateway, c cache.Cache, m *telemetry.Metrics) (*Service, *sleepRecorder) {
	svc := NewService(g, c, Options{SheetDelay: time.Second, Metrics: m})
	rec := &sleepRecorder{}
	svc.sleep = rec.sleep
	return svc, rec
}

func namesOf(results []metrics.UrlMetrics) []string {
	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Name)
	}
	return names
}

func TestListSheetsReadThrough(t *testing.T) {
	ctx := context.Background()
	g := newGateway("A", "B")
	svc, _ := newTestService(g, cache.NewMemoryCache(), nil)

	first, err := svc.ListSheets(ctx)
	require.NoError(t, err)
	second, err := svc.ListSheets(ctx)
	require.NoError(t, err)

	assert.Equal(t, sheetsNamed("A", "B"), first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, g.listCalls)
}

func TestListSheetsRateLimited(t *testing.T) {
	ctx := context.Background()
	g := newGateway("A")
	g.listErr = fmt.Errorf("%w: quota exceeded", metrics.ErrRateLimited)
	svc, _ := newTestService(g, cache.NewMemoryCache(), nil)

	_, err := svc.ListSheets(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, metrics.ErrRateLimited))

	g.listErr = nil
	got, err := svc.ListSheets(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 2, g.listCalls)
}

func TestGetMetricsForSheetReadThrough(t *testing.T) {
	ctx := context.Background()
	g := newGateway("A")
	svc, _ := newTestService(g, cache.NewMemoryCache(), nil)

	first, err := svc.GetMetricsForSheet(ctx, "A")
	require.NoError(t, err)
	second, err := svc.GetMetricsForSheet(ctx, "A")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"A"}, g.rowCalls)
	assert.Equal(t, "https://example.com/A", first.URL)
	require.Len(t, first.Data, 2)
	assert.Equal(t, "2025-01-10", first.Data[0].Date)
	assert.Equal(t, 80.0, first.LatestMetrics.Performance)
	assert.Equal(t, time.Date(2025, 1, 11, 10, 0, 0, 0, time.UTC), first.LatestMetrics.Timestamp)
}

func TestGetMetricsForSheetTypedErrors(t *testing.T) {
	ctx := context.Background()
	g := newGateway("A")
	g.rows["Empty"] = []metrics.RawRow{{"Timestamp": "1/1/2025, 10.00"}}
	g.rowErrs["Busy"] = fmt.Errorf("%w: quota exceeded", metrics.ErrRateLimited)
	g.rowErrs["Broken"] = errors.New("boom")
	c := cache.NewMemoryCache()
	svc, _ := newTestService(g, c, nil)

	_, err := svc.GetMetricsForSheet(ctx, "Missing")
	assert.ErrorIs(t, err, metrics.ErrSheetNotFound)

	_, err = svc.GetMetricsForSheet(ctx, "Empty")
	assert.ErrorIs(t, err, metrics.ErrNoValidData)
	assert.NotErrorIs(t, err, metrics.ErrSheetNotFound)

	_, err = svc.GetMetricsForSheet(ctx, "Busy")
	assert.ErrorIs(t, err, metrics.ErrRateLimited)

	_, err = svc.GetMetricsForSheet(ctx, "Broken")
	require.Error(t, err)
	assert.NotErrorIs(t, err, metrics.ErrRateLimited)

	var cached metrics.UrlMetrics
	found, err := c.Get(ctx, cache.SheetDataKey("Empty"), &cached)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCacheUnavailableFallsThrough(t *testing.T) {
	ctx := context.Background()
	g := newGateway("A", "B")
	reg := prometheus.NewRegistry()
	m := telemetry.New(reg)
	svc, _ := newTestService(g, brokenCache{}, m)

	sheets, err := svc.ListSheets(ctx)
	require.NoError(t, err)
	assert.Len(t, sheets, 2)

	result, err := svc.GetMetricsForSheet(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, "A", result.Name)

	_, err = svc.GetMetricsForSheet(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "A"}, g.rowCalls)

	all, err := svc.GetAllMetrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, namesOf(all))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("sheets_metadata", "error")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("sheet_data", "error")))
}

func TestNilCacheIsAllowed(t *testing.T) {
	g := newGateway("A")
	svc, _ := newTestService(g, nil, nil)

	result, err := svc.GetMetricsForSheet(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, "A", result.Name)
}

func TestGetAllMetricsStopsAtRateLimit(t *testing.T) {
	ctx := context.Background()
	g := newGateway("A", "B", "C")
	g.rowErrs["B"] = fmt.Errorf("%w: quota exceeded", metrics.ErrRateLimited)
	reg := prometheus.NewRegistry()
	m := telemetry.New(reg)
	svc, rec := newTestService(g, cache.NewMemoryCache(), m)

	results, err := svc.GetAllMetrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, namesOf(results))
	assert.Equal(t, []string{"A", "B"}, g.rowCalls)
	assert.Equal(t, []time.Duration{time.Second}, rec.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BulkAborts))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("get_rows", "rate_limited")))
}

func TestGetAllMetricsSkipsFailingSheets(t *testing.T) {
	ctx := context.Background()
	g := newGateway("A", "B", "C", "D")
	g.rows["B"] = []metrics.RawRow{{"URL": "https://example.com/B"}}
	g.rowErrs["C"] = errors.New("backend error")
	reg := prometheus.NewRegistry()
	m := telemetry.New(reg)
	svc, rec := newTestService(g, cache.NewMemoryCache(), m)

	results, err := svc.GetAllMetrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "D"}, namesOf(results))
	assert.Equal(t, []string{"A", "B", "C", "D"}, g.rowCalls)
	assert.Len(t, rec.calls, 3)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.BulkAborts))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RowsDropped))
}

func TestGetAllMetricsNoDelayBetweenCachedSheets(t *testing.T) {
	ctx := context.Background()
	g := newGateway("A", "B", "C")
	svc, rec := newTestService(g, cache.NewMemoryCache(), nil)

	first, err := svc.GetAllMetrics(ctx)
	require.NoError(t, err)
	assert.Len(t, rec.calls, 2)

	rec.calls = nil
	second, err := svc.GetAllMetrics(ctx)
	require.NoError(t, err)
	assert.Empty(t, rec.calls)
	assert.Equal(t, first, second)
	assert.Len(t, g.rowCalls, 3)
}

func TestGetAllMetricsListFailure(t *testing.T) {
	g := newGateway("A")
	g.listErr = fmt.Errorf("%w: quota exceeded", metrics.ErrRateLimited)
	svc, _ := newTestService(g, cache.NewMemoryCache(), nil)

	results, err := svc.GetAllMetrics(context.Background())
	assert.ErrorIs(t, err, metrics.ErrRateLimited)
	assert.Nil(t, results)
}

func TestGetAllMetricsCancelledDuringDelay(t *testing.T) {
	g := newGateway("A", "B", "C")
	svc, rec := newTestService(g, cache.NewMemoryCache(), nil)
	rec.err = context.Canceled

	results, err := svc.GetAllMetrics(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"A"}, namesOf(results))
}

func TestSleepContext(t *testing.T) {
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}
