package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/api/controllers"
	paymentcontrollers "github.com/YayasanAt-Tauhid/Catering-At-Tauhid/api/controllers/payments"
	webhookcontrollers "github.com/YayasanAt-Tauhid/Catering-At-Tauhid/api/controllers/webhooks"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/api/middleware"
	paymentsvc "github.com/YayasanAt-Tauhid/Catering-At-Tauhid/internal/payments"
	midtranswebhook "github.com/YayasanAt-Tauhid/Catering-At-Tauhid/internal/webhooks/midtrans"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/config"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/db"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/logger"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	gatherer prometheus.Gatherer,
	createService *paymentsvc.CreateService,
	webhookService *midtranswebhook.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, readiness(dbP, redisClient)))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/midtrans", webhookcontrollers.MidtransNotification(webhookService, logg))
	})

	r.Route("/api/v1/payments", func(r chi.Router) {
		r.Use(middleware.OptionalAuth(cfg.JWT, logg))
		createLimit := middleware.CreateRateLimit(cfg.RateLimit, nil, logg)
		if redisClient != nil {
			createLimit = middleware.CreateRateLimit(cfg.RateLimit, redisClient, logg)
		}
		r.With(createLimit).Post("/transactions", paymentcontrollers.CreateTransaction(createService, logg))
	})

	return r
}

// readiness pings the stores the payment path depends on. Redis is optional
// wiring, and the rate limiter fails open without it, so a missing client is
// not a readiness failure.
func readiness(dbP db.Pinger, redisClient *redis.Client) func() error {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if dbP != nil {
			if err := dbP.Ping(ctx); err != nil {
				return err
			}
		}
		if redisClient != nil {
			if err := redisClient.Ping(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}
