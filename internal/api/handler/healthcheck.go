package handler

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/hlog"
)

func HealthcheckHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := w.Write([]byte(time.Now().UTC().Format(time.RFC3339)))
		if err != nil {
			hlog.FromRequest(r).Warn().Err(err).Msg("error responding to healthcheck")
		}
	})
}
