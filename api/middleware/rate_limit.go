package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/api/responses"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/config"
	pkgerrors "github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/errors"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/logger"
)

type rateLimiterStore interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	RateLimitKey(scope string) string
}

// CreateRateLimit throttles the create-transaction endpoint per client IP.
// Every request costs a gateway call, so an unthrottled storefront bug can
// mint Snap transactions at line rate. Without a redis store the limiter is
// a no-op and the endpoint runs open.
func CreateRateLimit(cfg config.RateLimitConfig, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil || cfg.CreateWindow <= 0 || cfg.CreateIPLimit <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			ip := clientIP(r)
			if ip == "" {
				next.ServeHTTP(w, r)
				return
			}

			key := store.RateLimitKey(fmt.Sprintf("create:ip:%s", ip))
			count, err := store.IncrWithTTL(ctx, key, cfg.CreateWindow)
			if err != nil {
				// Redis being down should not block payments.
				if logg != nil {
					logg.Warn(logg.WithField(ctx, "error", err.Error()), "rate limit store unavailable, letting request through")
				}
				next.ServeHTTP(w, r)
				return
			}
			if count > int64(cfg.CreateIPLimit) {
				if logg != nil {
					logCtx := logg.WithFields(ctx, map[string]any{
						"ip":             ip,
						"attempts":       count,
						"limit":          cfg.CreateIPLimit,
						"window_seconds": int(cfg.CreateWindow.Seconds()),
					})
					logg.Warn(logCtx, "payments.rate_limit.blocked")
				}
				responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "terlalu banyak permintaan, coba lagi sebentar"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
