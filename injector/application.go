package injector

import (
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/safatanc/travel-checkout/internal/app/deliveries"
	"github.com/safatanc/travel-checkout/internal/infrastructures"
	"github.com/safatanc/travel-checkout/pkg/ratelimit"
)

// Application represents the main application container for travel-checkout
type Application struct {
	HealthHandler       *deliveries.HealthHandler
	MetricsHandler      *deliveries.MetricsHandler
	CheckoutHandler     *deliveries.CheckoutHandler
	Publisher           infrastructures.EventPublisher
}

// RegisterRoutes registers all application routes using a Fiber router
func (app *Application) RegisterRoutes(router fiber.Router) {
	app.HealthHandler.RegisterRoutes(router)
	app.MetricsHandler.RegisterRoutes(router)
	app.CheckoutHandler.RegisterRoutes(router)
}

// Close releases the connections held by the application
func (app *Application) Close() error {
	return app.Publisher.Close()
}

func provideRateLimiter(client *redis.Client, cfg *infrastructures.AppConfig) *ratelimit.RedisRateLimiter {
	return ratelimit.NewRedisRateLimiter(client, cfg.RateLimitPrefix)
}
