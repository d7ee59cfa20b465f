package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yacbhl71/DELICES-DALGERIE-sub001/api/controllers"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/api/middleware"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/internal/inventory"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/internal/orders"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/internal/promos"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/config"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/db"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/logger"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	gatherer prometheus.Gatherer,
	inventoryService inventory.Service,
	promoService promos.Service,
	orderService orders.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	var (
		redisP           redis.Pinger
		idempotencyStore redis.IdempotencyStore
		rateLimiter      middleware.RateLimiterStore
	)
	if redisClient != nil {
		redisP = redisClient
		idempotencyStore = redisClient
		rateLimiter = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.ActorContext(logg))

			r.Route("/inventory", func(r chi.Router) {
				r.Get("/", controllers.InventoryQuery(inventoryService, logg))
				r.Post("/{productId}/adjust", controllers.InventoryAdjust(inventoryService, logg))
				r.Get("/{productId}/adjustments", controllers.InventoryAdjustments(inventoryService, logg))
			})

			r.Route("/promo-codes", func(r chi.Router) {
				r.Get("/", controllers.PromoCodeList(promoService, logg))
				r.Post("/", controllers.PromoCodeCreate(promoService, logg))
				r.Put("/{promoCodeId}", controllers.PromoCodeUpdate(promoService, logg))
				r.Post("/{promoCodeId}/deactivate", controllers.PromoCodeDeactivate(promoService, logg))
				r.Delete("/{promoCodeId}", controllers.PromoCodeDelete(promoService, logg))
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(
				middleware.RateLimit(
					middleware.NewRateLimitPolicy("promo-public", cfg.RateLimit.Window, cfg.RateLimit.IPLimit),
					rateLimiter,
					logg,
				),
				middleware.Idempotency(idempotencyStore, cfg.Promo.RedeemIdempotencyTTL, logg),
			)

			r.Post("/promo-codes/validate", controllers.PromoValidate(promoService, logg))
			r.Post("/promo-codes/redeem", controllers.PromoRedeem(promoService, logg))
			r.Post("/orders", controllers.PlaceOrder(orderService, logg))
		})
	})

	return r
}
