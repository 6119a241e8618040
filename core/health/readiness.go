package health

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/rtss/core/handler"
	"github.com/dmitrymomot/rtss/core/logger"
	"github.com/dmitrymomot/rtss/core/response"
)

// Check reports whether one dependency is usable.
type Check func(context.Context) error

// Readiness returns "READY" when every check passes and 503 on the first
// failure. Nil checks are skipped.
func Readiness(log *slog.Logger, checks ...Check) handler.HandlerFunc {
	if log == nil {
		log = logger.Nop()
	}
	return func(r *http.Request) handler.Response {
		ctx := r.Context()
		for _, check := range checks {
			if check == nil {
				continue
			}
			if err := check(ctx); err != nil {
				log.ErrorContext(ctx, "readiness check failed", logger.Error(err))
				return response.Error(response.ErrServiceUnavailable.WithError(err))
			}
		}
		return response.String("READY")
	}
}
