package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/bookify-backend/api/controllers"
	paymentcontrollers "github.com/angelmondragon/bookify-backend/api/controllers/payments"
	webhookcontrollers "github.com/angelmondragon/bookify-backend/api/controllers/webhooks"
	"github.com/angelmondragon/bookify-backend/api/middleware"
	"github.com/angelmondragon/bookify-backend/internal/payments"
	razorpaywebhook "github.com/angelmondragon/bookify-backend/internal/webhooks/razorpay"
	"github.com/angelmondragon/bookify-backend/pkg/config"
	"github.com/angelmondragon/bookify-backend/pkg/logger"
	"github.com/angelmondragon/bookify-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/bookify-backend/pkg/redis"
)

// RedisStore is the slice of the Redis client the HTTP layer uses.
type RedisStore interface {
	pkgredis.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
	Ping(ctx context.Context) error
}

type webhookVerifier interface {
	VerifyWebhookSignature(body []byte, signature string) bool
}

type webhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

// Deps carries everything the router wires into handlers. Redis may be nil, in
// which case idempotency keys and rate limiting are skipped.
type Deps struct {
	Config          *config.Config
	Logger          *logger.Logger
	DB              controllers.Pinger
	Redis           RedisStore
	Payments        payments.Service
	WebhookService  *razorpaywebhook.Service
	WebhookGuard    webhookGuard
	WebhookVerifier webhookVerifier
	Metrics         prometheus.Gatherer
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	var idempotencyStore pkgredis.IdempotencyStore
	readiness := map[string]controllers.Pinger{"db": deps.DB}
	if deps.Redis != nil {
		idempotencyStore = deps.Redis
		readiness["redis"] = deps.Redis
	}

	verifyPolicy := middleware.NewRateLimitPolicy("verify", cfg.RateLimit.VerifyWindow, cfg.RateLimit.VerifyLimit)
	var limiter interface {
		FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
	}
	if deps.Redis != nil {
		limiter = deps.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Metrics))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/razorpay", webhookcontrollers.RazorpayWebhook(webhookService(deps.WebhookService), deps.WebhookVerifier, deps.WebhookGuard, logg))
	})

	r.Route("/api/v1/payments", func(r chi.Router) {
		r.Get("/config", controllers.CheckoutConfig(cfg.Razorpay))
		r.With(middleware.RateLimit(verifyPolicy, limiter, logg)).
			Post("/verify", paymentcontrollers.VerifyPayment(deps.Payments, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.With(middleware.Idempotency(idempotencyStore, middleware.OrderIdempotencyTTL, logg)).
				Post("/order", paymentcontrollers.CreateOrder(deps.Payments, logg))
			r.With(middleware.Idempotency(idempotencyStore, middleware.CancelIdempotencyTTL, logg)).
				Post("/cancel", paymentcontrollers.CancelPayment(deps.Payments, logg))
			r.Get("/orders", paymentcontrollers.ListOrders(deps.Payments, logg))
			r.Get("/orders/{orderId}", paymentcontrollers.GetOrder(deps.Payments, logg))
		})
	})

	return r
}

// webhookService keeps a nil *Service from becoming a non-nil interface.
func webhookService(svc *razorpaywebhook.Service) webhookcontrollers.RazorpayWebhookService {
	if svc == nil {
		return nil
	}
	return svc
}
