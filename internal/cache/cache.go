// Package cache holds time-boxed JSON snapshots of upstream responses.
//
// Two implementations share the Cache interface: RedisCache for deployments
// and MemoryCache for local runs and tests. Neither is authoritative; entries
// are never invalidated early and simply expire after their TTL.
package cache

import (
	"context"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	// SheetsMetadataKey holds the sheet listing.
	SheetsMetadataKey = "sheets:metadata"
	sheetDataPrefix   = "sheet:data:"

	// DefaultTTL applies to both key families.
	DefaultTTL = 24 * time.Hour
)

// Cache is a read-through snapshot store. Get reports a miss with false and a
// nil error; errors mean the backend itself failed.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// SheetDataKey returns the per-sheet key for a sheet title.
func SheetDataKey(title string) string {
	return sheetDataPrefix + title
}

// Family names the key family for metrics labels.
func Family(key string) string {
	switch {
	case key == SheetsMetadataKey:
		return "sheets_metadata"
	case strings.HasPrefix(key, sheetDataPrefix):
		return "sheet_data"
	default:
		return "other"
	}
}
