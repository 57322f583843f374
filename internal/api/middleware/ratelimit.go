package middleware

import (
	"net/http"
	"strconv"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"

	"github.com/vitiscan/treatment-plan/internal/config"
	"github.com/vitiscan/treatment-plan/internal/pkg/response"
)

// RateLimit limits requests per client IP with an in-memory fixed window.
// A disabled config yields a pass-through middleware.
func RateLimit(cfg config.RateLimitConfig) func(next http.Handler) http.Handler {
	if !cfg.Enabled {
		return func(next http.Handler) http.Handler { return next }
	}

	instance := limiter.New(memory.NewStore(), limiter.Rate{
		Period: cfg.Period,
		Limit:  cfg.Limit,
	})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lctx, err := instance.Get(r.Context(), instance.GetIPKey(r))
			if err != nil {
				// Store failures must not block traffic.
				ctxzap.Warn(r.Context(), "rate limiter unavailable", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))

			if lctx.Reached {
				ctxzap.Warn(r.Context(), "rate limit reached", zap.String("remote_addr", r.RemoteAddr))
				response.Error(w, http.StatusTooManyRequests, "rate limit exceeded, retry later")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
