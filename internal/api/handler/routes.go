package handler

import (
	"net/http"

	"lighthouse_dashboard/internal/api/router"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func Healthcheck() []router.Route {
	return []router.Route{
		{
			Path:    "/healthcheck",
			Method:  http.MethodGet,
			Handler: HealthcheckHandler(),
		},
	}
}

func Sheets(service MetricsService) []router.Route {
	return []router.Route{
		{
			Path:    "/api/sheets",
			Method:  http.MethodGet,
			Handler: ListSheets(service),
		},
		{
			Path:    "/api/sheets/:token",
			Method:  http.MethodGet,
			Handler: GetSheetMetrics(service),
		},
		{
			Path:    "/api/metrics",
			Method:  http.MethodGet,
			Handler: GetAllMetrics(service),
		},
	}
}

func Prometheus(gatherer prometheus.Gatherer) []router.Route {
	return []router.Route{
		{
			Path:    "/metrics",
			Method:  http.MethodGet,
			Handler: promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}),
		},
	}
}
