package app

import (
	"context"
	"time"

	"lighthouse_dashboard/internal/metrics"

	"github.com/rs/zerolog/log"
)

type bulkFetcher interface {
	GetAllMetrics(ctx context.Context) ([]metrics.UrlMetrics, error)
}

// RunCacheWarmer walks every sheet immediately and then on each tick until
// ctx is done. Reads are cache first, so only expired snapshots reach the
// spreadsheet.
func RunCacheWarmer(ctx context.Context, fetcher bulkFetcher, interval time.Duration) {
	log.Info().Dur("interval", interval).Msg("Starting cache warmer. Running immediately and then on every tick...")

	warmOnce(ctx, fetcher)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("Cache warmer stopped")
			return
		case <-ticker.C:
			warmOnce(ctx, fetcher)
		}
	}
}

func warmOnce(ctx context.Context, fetcher bulkFetcher) {
	start := time.Now()
	results, err := fetcher.GetAllMetrics(ctx)
	if err != nil {
		log.Warn().Err(err).Int("sheets", len(results)).Msg("Cache warm-up incomplete")
		return
	}
	log.Info().
		Int("sheets", len(results)).
		Dur("elapsed", time.Since(start)).
		Msg("Cache warm-up finished")
}
