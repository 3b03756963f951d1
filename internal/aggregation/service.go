// Package aggregation answers the dashboard's queries by combining the
// spreadsheet gateway, the snapshot cache and the series builder.
package aggregation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lighthouse_dashboard/internal/cache"
	"lighthouse_dashboard/internal/metrics"
	"lighthouse_dashboard/internal/telemetry"

	"github.com/rs/zerolog/log"
)

// DefaultSheetDelay spaces upstream reads in the bulk path.
const DefaultSheetDelay = time.Second

// Gateway is the spreadsheet source. ListSheets must already exclude the
// dashboard tab.
type Gateway interface {
	ListSheets(ctx context.Context) ([]metrics.SheetMetadata, error)
	GetRows(ctx context.Context, sheetTitle string) ([]metrics.RawRow, error)
}

type Options struct {
	TTL        time.Duration
	SheetDelay time.Duration
	Parser     *metrics.Parser
	Metrics    *telemetry.Metrics
}

type Service struct {
	gateway Gateway
	cache   cache.Cache
	parser  *metrics.Parser
	ttl     time.Duration
	delay   time.Duration
	metrics *telemetry.Metrics
	sleep   func(context.Context, time.Duration) error
}

func NewService(gateway Gateway, c cache.Cache, opts Options) *Service {
	if opts.TTL <= 0 {
		opts.TTL = cache.DefaultTTL
	}
	if opts.Parser == nil {
		opts.Parser = metrics.DefaultParser
	}
	if opts.SheetDelay < 0 {
		opts.SheetDelay = 0
	}
	return &Service{
		gateway: gateway,
		cache:   c,
		parser:  opts.Parser,
		ttl:     opts.TTL,
		delay:   opts.SheetDelay,
		metrics: opts.Metrics,
		sleep:   sleepContext,
	}
}

// ListSheets returns the monitored sheets, cache first.
func (s *Service) ListSheets(ctx context.Context) ([]metrics.SheetMetadata, error) {
	var cached []metrics.SheetMetadata
	if s.cacheGet(ctx, cache.SheetsMetadataKey, &cached) {
		return cached, nil
	}

	sheets, err := s.gateway.ListSheets(ctx)
	s.recordUpstream("list_sheets", err)
	if err != nil {
		return nil, fmt.Errorf("failed to list sheets: %w", err)
	}

	s.cacheSet(ctx, cache.SheetsMetadataKey, sheets)
	return sheets, nil
}

// GetMetricsForSheet returns one sheet's series, cache first. Errors wrap
// metrics.ErrSheetNotFound, metrics.ErrNoValidData or metrics.ErrRateLimited
// where they apply.
func (s *Service) GetMetricsForSheet(ctx context.Context, sheetTitle string) (*metrics.UrlMetrics, error) {
	result, _, err := s.getMetrics(ctx, sheetTitle)
	return result, err
}

func (s *Service) getMetrics(ctx context.Context, sheetTitle string) (*metrics.UrlMetrics, bool, error) {
	key := cache.SheetDataKey(sheetTitle)

	var cached metrics.UrlMetrics
	if s.cacheGet(ctx, key, &cached) {
		return &cached, false, nil
	}

	rows, err := s.gateway.GetRows(ctx, sheetTitle)
	s.recordUpstream("get_rows", err)
	if err != nil {
		return nil, true, fmt.Errorf("failed to get rows for sheet %q: %w", sheetTitle, err)
	}

	result, err := s.parser.BuildSeries(sheetTitle, rows)
	if err != nil {
		s.metrics.AddRowsDropped(len(rows))
		return nil, true, err
	}
	s.metrics.AddRowsDropped(len(rows) - len(result.Data))

	s.cacheSet(ctx, key, result)
	return result, true, nil
}

// GetAllMetrics walks every monitored sheet in order, one at a time. Reads
// that reach the spreadsheet are spaced by the sheet delay. A failing sheet is
// logged and skipped, except when the source is rate limiting: then the walk
// stops and the sheets gathered so far are returned without error.
func (s *Service) GetAllMetrics(ctx context.Context) ([]metrics.UrlMetrics, error) {
	sheets, err := s.ListSheets(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]metrics.UrlMetrics, 0, len(sheets))
	wentUpstream := false
	for _, sheet := range sheets {
		if wentUpstream && s.delay > 0 {
			if err := s.sleep(ctx, s.delay); err != nil {
				return results, err
			}
		}

		result, upstream, err := s.getMetrics(ctx, sheet.Title)
		wentUpstream = upstream
		if err != nil {
			if errors.Is(err, metrics.ErrRateLimited) {
				log.Warn().
					Err(err).
					Str("sheet", sheet.Title).
					Int("collected", len(results)).
					Int("total", len(sheets)).
					Msg("Rate limited, returning partial results")
				s.metrics.RecordBulkAbort()
				return results, nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return results, ctxErr
			}
			log.Warn().Err(err).Str("sheet", sheet.Title).Msg("Skipping sheet")
			continue
		}
		results = append(results, *result)
	}

	log.Debug().
		Int("sheets", len(sheets)).
		Int("collected", len(results)).
		Msg("Collected metrics for all sheets")
	return results, nil
}

// cacheGet reports a hit. Backend failures count as misses.
func (s *Service) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}

	found, err := s.cache.Get(ctx, key, dest)
	family := cache.Family(key)
	switch {
	case err != nil:
		log.Warn().Err(err).Str("key", key).Msg("Cache read failed, falling through to spreadsheet")
		s.metrics.RecordCacheLookup(family, "error")
		return false
	case found:
		log.Debug().Str("key", key).Msg("Cache hit")
		s.metrics.RecordCacheLookup(family, "hit")
		return true
	default:
		s.metrics.RecordCacheLookup(family, "miss")
		return false
	}
}

func (s *Service) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
}

func (s *Service) recordUpstream(operation string, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, metrics.ErrRateLimited):
		outcome = "rate_limited"
	case errors.Is(err, metrics.ErrSheetNotFound):
		outcome = "not_found"
	default:
		outcome = "error"
	}
	s.metrics.RecordUpstream(operation, outcome)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
