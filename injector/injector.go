//go:build wireinject
// +build wireinject

package injector

import (
	"github.com/google/wire"
	"github.com/safatanc/travel-checkout/internal/app/deliveries"
	"github.com/safatanc/travel-checkout/internal/app/middlewares"
	"github.com/safatanc/travel-checkout/internal/app/services"
	"github.com/safatanc/travel-checkout/internal/infrastructures"
	"github.com/safatanc/travel-checkout/pkg/ratelimit"
)

// Infrastructure providers
var infrastructureSet = wire.NewSet(
	infrastructures.NewDatabase,
	infrastructures.NewRedisClient,
	infrastructures.NewValidator,
	infrastructures.NewBillingConfig,
	infrastructures.NewBillingClient,
	infrastructures.NewEventPublisher,
	provideRateLimiter,
	wire.Bind(new(ratelimit.RateLimiter), new(*ratelimit.RedisRateLimiter)),
)

// Service providers
var serviceSet = wire.NewSet(
	services.NewConnectService,
	services.NewUserService,
	services.NewPackageService,
	services.NewAvailabilityService,
	services.NewPricingService,
	services.NewReviewService,
	services.NewBillingService,
	services.NewAuditService,
	services.NewCouponService,
	services.NewGiftCardService,
	services.NewCheckoutService,
)

// Middleware providers
var middlewareSet = wire.NewSet(
	middlewares.NewAuthMiddleware,
	middlewares.NewRateLimitMiddleware,
)

// Handler providers
var handlerSet = wire.NewSet(
	deliveries.NewHealthHandler,
	deliveries.NewMetricsHandler,
	deliveries.NewCheckoutHandler,
	wire.Struct(new(Application), "*"),
)

// InitializeApplication initializes the application with all its dependencies
func InitializeApplication(cfg *infrastructures.AppConfig) (*Application, error) {
	wire.Build(
		infrastructureSet,
		serviceSet,
		middlewareSet,
		handlerSet,
	)
	return &Application{}, nil
}
