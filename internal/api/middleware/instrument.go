package middleware

import (
	"net/http"
	"strconv"
	"time"

	"lighthouse_dashboard/internal/telemetry"

	"github.com/rs/zerolog/hlog"
)

// Instrument returns a per-route middleware that observes request duration
// labelled by the route pattern.
func Instrument(m *telemetry.Metrics) func(pattern string) func(http.Handler) http.Handler {
	return func(pattern string) func(http.Handler) http.Handler {
		return hlog.AccessHandler(func(r *http.Request, status, _ int, duration time.Duration) {
			m.ObserveHTTP(pattern, strconv.Itoa(status), duration.Seconds())
		})
	}
}
