package middleware

import (
	"net/http"
	"time"

	"github.com/justinas/alice"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
)

// Logging attaches a request-scoped logger carrying a request id, method, URL
// and remote address, and writes one access line per request.
func Logging() func(http.Handler) http.Handler {
	chain := alice.New(
		hlog.NewHandler(log.Logger),
		hlog.RequestIDHandler("request_id", "X-Request-Id"),
		hlog.MethodHandler("method"),
		hlog.URLHandler("url"),
		hlog.RemoteAddrHandler("remote_addr"),
		hlog.AccessHandler(logAccess),
	)
	return chain.Then
}

func logAccess(r *http.Request, status, size int, duration time.Duration) {
	logger := hlog.FromRequest(r)

	var event *zerolog.Event
	switch {
	case status >= http.StatusInternalServerError:
		event = logger.Error()
	case status >= http.StatusBadRequest:
		event = logger.Warn()
	default:
		event = logger.Info()
	}

	event.
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Msg("Request completed")

	if duration > 5*time.Second {
		logger.Warn().Dur("duration", duration).Msg("Slow request")
	}
}
