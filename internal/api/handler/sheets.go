package handler

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"lighthouse_dashboard/internal/metrics"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/hlog"
)

// MetricsService is the query side the handlers need.
type MetricsService interface {
	ListSheets(ctx context.Context) ([]metrics.SheetMetadata, error)
	GetMetricsForSheet(ctx context.Context, sheetTitle string) (*metrics.UrlMetrics, error)
	GetAllMetrics(ctx context.Context) ([]metrics.UrlMetrics, error)
}

var errInvalidToken = errors.New("invalid sheet token")

// EncodeSheetToken returns the path token for a sheet title.
func EncodeSheetToken(title string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(title))
}

// DecodeSheetToken accepts URL-safe or standard base64, padded or not.
func DecodeSheetToken(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errInvalidToken
	}

	encodings := []*base64.Encoding{
		base64.RawURLEncoding,
		base64.URLEncoding,
		base64.RawStdEncoding,
		base64.StdEncoding,
	}
	for _, enc := range encodings {
		decoded, err := enc.DecodeString(token)
		if err != nil {
			continue
		}
		if len(decoded) == 0 || !utf8.Valid(decoded) {
			return "", errInvalidToken
		}
		return string(decoded), nil
	}
	return "", errInvalidToken
}

func ListSheets(service MetricsService) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sheets, err := service.ListSheets(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}

		hlog.FromRequest(r).Debug().Int("sheets", len(sheets)).Msg("sheets: listed monitored sheets")
		writeJSON(w, r, http.StatusOK, sheets)
	})
}

func GetSheetMetrics(service MetricsService) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := hlog.FromRequest(r)

		token := httprouter.ParamsFromContext(r.Context()).ByName("token")
		title, err := DecodeSheetToken(token)
		if err != nil {
			logger.Warn().Str("token", token).Msg("sheets: invalid sheet token")
			writeBadRequest(w, r, err.Error())
			return
		}

		dateRange, err := metrics.ParseDateRange(r.URL.Query().Get("range"))
		if err != nil {
			writeBadRequest(w, r, err.Error())
			return
		}

		result, err := service.GetMetricsForSheet(r.Context(), title)
		if err != nil {
			writeError(w, r, err)
			return
		}

		filtered := *result
		filtered.Data = metrics.FilterByDateRange(result.Data, dateRange)

		logger.Debug().
			Str("sheet", title).
			Str("range", string(dateRange)).
			Int("points", len(filtered.Data)).
			Msg("sheets: returning sheet metrics")
		writeJSON(w, r, http.StatusOK, filtered)
	})
}

func GetAllMetrics(service MetricsService) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dateRange, err := metrics.ParseDateRange(r.URL.Query().Get("range"))
		if err != nil {
			writeBadRequest(w, r, err.Error())
			return
		}

		results, err := service.GetAllMetrics(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}

		filtered := make([]metrics.UrlMetrics, 0, len(results))
		for _, result := range results {
			result.Data = metrics.FilterByDateRange(result.Data, dateRange)
			filtered = append(filtered, result)
		}

		hlog.FromRequest(r).Debug().
			Str("range", string(dateRange)).
			Int("sheets", len(filtered)).
			Msg("metrics: returning metrics for all sheets")
		writeJSON(w, r, http.StatusOK, filtered)
	})
}
