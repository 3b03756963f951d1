package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"lighthouse_dashboard/internal/config"
	"lighthouse_dashboard/internal/metrics"
	"lighthouse_dashboard/internal/retry"

	"github.com/rs/zerolog/log"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// DefaultPropertiesTTL bounds how long tab properties from the last listing
// are reused to validate reads.
const DefaultPropertiesTTL = time.Minute

// Client reads one spreadsheet whose tabs each track a monitored URL. The
// first tab is the dashboard and carries no metric rows.
type Client struct {
	service       *sheets.Service
	spreadsheetID string
	resilience    config.ResilienceConfig

	propertiesTTL time.Duration
	now           func() time.Time

	mu         sync.Mutex
	properties []*sheets.SheetProperties
	loadedAt   time.Time
}

func NewClient(ctx context.Context, spreadsheetID string, opts ...option.ClientOption) (*Client, error) {
	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Client{
		service:       service,
		spreadsheetID: spreadsheetID,
		resilience:    config.DefaultResilienceConfig,
		propertiesTTL: DefaultPropertiesTTL,
		now:           time.Now,
	}, nil
}

// ListSheets returns every tab except the one at index 0.
func (c *Client) ListSheets(ctx context.Context) ([]metrics.SheetMetadata, error) {
	all, err := c.loadSheets(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]metrics.SheetMetadata, 0, len(all))
	for i, props := range all {
		if i == 0 || props == nil {
			continue
		}
		var rowCount int64
		if props.GridProperties != nil {
			rowCount = props.GridProperties.RowCount
		}
		result = append(result, metrics.SheetMetadata{
			ID:       props.SheetId,
			Title:    props.Title,
			RowCount: rowCount,
		})
	}

	log.Debug().Int("sheets", len(result)).Msg("Listed sheets")
	return result, nil
}

// GetRows reads a tab and maps each data row by the header row. The title is
// checked against recently listed tabs; a title missing from them triggers
// one fresh listing before it is reported as not found.
func (c *Client) GetRows(ctx context.Context, sheetTitle string) ([]metrics.RawRow, error) {
	all, fresh, err := c.recentSheets(ctx)
	if err != nil {
		return nil, err
	}

	if !hasTitle(all, sheetTitle) && !fresh {
		if all, err = c.loadSheets(ctx); err != nil {
			return nil, err
		}
	}
	if !hasTitle(all, sheetTitle) {
		return nil, fmt.Errorf("%w: %q", metrics.ErrSheetNotFound, sheetTitle)
	}

	cfg := c.resilience.SheetRead
	cfg.RetryIf = isRetryable
	resp, err := retry.WithRetry(ctx, cfg, func(ctx context.Context) (*sheets.ValueRange, error) {
		return c.service.Spreadsheets.Values.Get(c.spreadsheetID, quoteSheetTitle(sheetTitle)).
			Context(ctx).
			Do()
	})
	if err != nil {
		return nil, classify(fmt.Errorf("failed to read sheet %q: %w", sheetTitle, err))
	}

	rows := RowsFromValues(resp.Values)
	log.Debug().
		Str("sheet", sheetTitle).
		Int("rows", len(rows)).
		Msg("Read sheet rows")
	return rows, nil
}

// recentSheets returns the remembered tab properties while they are younger
// than the TTL, loading them otherwise. fresh reports a load on this call.
func (c *Client) recentSheets(ctx context.Context) ([]*sheets.SheetProperties, bool, error) {
	c.mu.Lock()
	props, loadedAt := c.properties, c.loadedAt
	c.mu.Unlock()

	if props != nil && c.now().Sub(loadedAt) < c.propertiesTTL {
		return props, false, nil
	}

	props, err := c.loadSheets(ctx)
	return props, true, err
}

func hasTitle(all []*sheets.SheetProperties, title string) bool {
	for _, props := range all {
		if props != nil && props.Title == title {
			return true
		}
	}
	return false
}

// loadSheets fetches the tab properties and remembers them.
func (c *Client) loadSheets(ctx context.Context) ([]*sheets.SheetProperties, error) {
	cfg := c.resilience.SheetList
	cfg.RetryIf = isRetryable
	resp, err := retry.WithRetry(ctx, cfg, func(ctx context.Context) (*sheets.Spreadsheet, error) {
		return c.service.Spreadsheets.Get(c.spreadsheetID).
			Fields("sheets.properties").
			Context(ctx).
			Do()
	})
	if err != nil {
		return nil, classify(fmt.Errorf("failed to load spreadsheet: %w", err))
	}

	props := make([]*sheets.SheetProperties, 0, len(resp.Sheets))
	for _, sh := range resp.Sheets {
		props = append(props, sh.Properties)
	}

	c.mu.Lock()
	c.properties = props
	c.loadedAt = c.now()
	c.mu.Unlock()

	return props, nil
}

// RowsFromValues turns a values grid into header-keyed rows. Cells past the
// header width or under an empty header are ignored, and empty rows skipped.
// Trailing blank cells are omitted by the API, so those columns are absent.
func RowsFromValues(values [][]interface{}) []metrics.RawRow {
	if len(values) == 0 {
		return nil
	}

	headers := make([]string, len(values[0]))
	for i, cell := range values[0] {
		headers[i] = strings.TrimSpace(fmt.Sprintf("%v", cell))
	}

	rows := make([]metrics.RawRow, 0, len(values)-1)
	for _, cells := range values[1:] {
		if len(cells) == 0 {
			continue
		}
		row := make(metrics.RawRow, len(cells))
		for i, cell := range cells {
			if i >= len(headers) || headers[i] == "" {
				continue
			}
			row[headers[i]] = cell
		}
		rows = append(rows, row)
	}
	return rows
}

func quoteSheetTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func isRateLimit(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.Code == http.StatusTooManyRequests {
		return true
	}
	for _, item := range apiErr.Errors {
		if item.Reason == "rateLimitExceeded" || item.Reason == "userRateLimitExceeded" {
			return true
		}
	}
	return false
}

func isRetryable(err error) bool {
	if isRateLimit(err) {
		return true
	}
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code >= http.StatusInternalServerError
}

// classify tags throttling errors with metrics.ErrRateLimited.
func classify(err error) error {
	if isRateLimit(err) {
		return fmt.Errorf("%w: %v", metrics.ErrRateLimited, err)
	}
	return err
}
