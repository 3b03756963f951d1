package config

import (
	"time"

	"lighthouse_dashboard/internal/retry"
)

type ResilienceConfig struct {
	SheetList    retry.Config
	SheetRead    retry.Config
	CacheConnect retry.Config
}

// Upstream presets back off on throttling before the error is surfaced as
// rate limited. Keep the totals well under a request's lifetime.
var DefaultResilienceConfig = ResilienceConfig{
	SheetList: retry.Config{
		Name:       "sheet_list",
		MaxRetries: 2,
		BaseDelay:  2 * time.Second,
		MaxDelay:   10 * time.Second,
		Timeout:    15 * time.Second,
	},
	SheetRead: retry.Config{
		Name:       "sheet_read",
		MaxRetries: 2,
		BaseDelay:  2 * time.Second,
		MaxDelay:   10 * time.Second,
		Timeout:    30 * time.Second,
	},
	CacheConnect: retry.Config{
		Name:       "cache_connect",
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   5 * time.Second,
		Timeout:    5 * time.Second,
	},
}
