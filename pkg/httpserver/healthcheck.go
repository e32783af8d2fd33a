package httpserver

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/authzkit/pkg/logger"
)

// HealthCheckHandler returns an HTTP handler usable for liveness and
// readiness probes. With no dependency checks it answers "ALIVE"; with
// checks it runs them all and answers "READY" or "NOT_READY".
func HealthCheckHandler(ctx context.Context, log *slog.Logger, checks ...func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if len(checks) == 0 {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ALIVE"))
			return
		}

		for _, check := range checks {
			if err := check(ctx); err != nil {
				log.ErrorContext(ctx, "readiness check failed", logger.Error(err))
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte("NOT_READY"))
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("READY"))
	}
}
