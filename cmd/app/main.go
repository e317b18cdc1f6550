package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/safatanc/travel-checkout/injector"
	"github.com/safatanc/travel-checkout/internal/infrastructures"
	"github.com/safatanc/travel-checkout/internal/metrics"
)

func main() {
	logger := infrastructures.GetLogger()
	cfg := infrastructures.LoadConfig()
	metrics.Register()

	app, err := injector.InitializeApplication(cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize application: %v", err)
	}

	// Fiber configuration
	config := fiber.Config{
		ReadTimeout:  time.Second * 60,
		WriteTimeout: time.Second * 60,
		IdleTimeout:  time.Second * 60,
	}

	router := fiber.New(config)

	// Add CORS middleware
	router.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		AllowMethods:  "GET, POST, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, X-RateLimit-Limit, X-RateLimit-Remaining, X-RateLimit-Reset",
		MaxAge:        300,
	}))

	app.RegisterRoutes(router)

	go func() {
		logger.WithField("addr", cfg.HTTPAddr).Info("starting travel-checkout")
		if err := router.Listen(cfg.HTTPAddr); err != nil {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down travel-checkout")
	if err := router.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Errorf("Failed to shut down server: %v", err)
	}
	if err := app.Close(); err != nil {
		logger.Errorf("Failed to close application: %v", err)
	}
}
