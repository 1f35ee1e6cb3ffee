package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/dream-journal-backend/internal/apps"
	"github.com/ahmetcoskunkizilkaya/dream-journal-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/dream-journal-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/dream-journal-backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"gorm.io/gorm"
)

type Handlers struct {
	Auth    *handlers.AuthHandler
	Health  *handlers.HealthHandler
	Profile *handlers.ProfileHandler
}

func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	h Handlers,
	plugins []apps.Plugin,
) {
	// Stored dream illustrations
	app.Static("/media", cfg.MediaDir, fiber.Static{MaxAge: 86400})

	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", h.Health.Check)

	// Auth-specific rate limit: 10 req/min per IP (stricter)
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", h.Auth.Register)
	auth.Post("/login", h.Auth.Login)
	auth.Post("/refresh", h.Auth.Refresh)

	// Protected routes (JWT required) - apply middleware to individual routes
	// so it never touches the public ones above.
	api.Post("/auth/logout", middleware.JWTProtected(cfg), h.Auth.Logout)
	api.Delete("/auth/account", middleware.JWTProtected(cfg), h.Auth.DeleteAccount)
	api.Get("/profile", middleware.JWTProtected(cfg), h.Profile.Get)
	api.Put("/profile", middleware.JWTProtected(cfg), h.Profile.Update)

	// Plugin routes
	protected := api.Group("/p", middleware.JWTProtected(cfg))
	for _, p := range plugins {
		p.RegisterRoutes(protected, db, cfg)
	}
}
