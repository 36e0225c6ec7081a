// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/virtuve/class-booking/internal/config"
	"github.com/virtuve/class-booking/internal/handler"
	"github.com/virtuve/class-booking/internal/middleware"
)

// Handlers bundles every handler the server exposes.
type Handlers struct {
	Auth       *handler.AuthHandler
	Class      *handler.ClassHandler
	AdminClass *handler.AdminClassHandler
	Booking    *handler.BookingHandler
	Webhook    *handler.WebhookHandler
	Meta       *handler.MetaHandler
}

// Register wires all routes onto the Echo instance.  Public catalog
// reads sit behind the Redis response cache, the booking endpoints
// behind the rate limiter.  Class management lives on /api/classes next
// to the public reads, distinguished by method and guarded per-route by
// the admin JWT; /api/admin carries the session endpoints and the
// ledger stats supplement.
func Register(e *echo.Echo, cfg config.Config, rdb *redis.Client, h Handlers) {
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{cfg.FrontendURL},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization},
	}))

	e.GET("/healthz", handler.Health)

	// The frontend fetches its publishable key here before /api exists
	// in its base URL, matching the path it has always used.
	e.GET("/config", h.Meta.Config)

	// Stripe posts raw JSON here; the route stays outside /api so the
	// CORS and rate-limit policies of the browser API do not apply.
	e.POST("/webhook", h.Webhook.Handle)

	api := e.Group("/api")
	api.GET("/config", h.Meta.Config)

	// Public catalog, cached; writes on the same paths require the
	// admin token.
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	guard := []echo.MiddlewareFunc{middleware.JWTAuth(cfg.JWTSecret), middleware.RequireRole("ADMIN")}
	api.GET("/classes", h.Class.List, cache)
	api.GET("/classes/:id", h.Class.Get, cache)
	api.POST("/classes", h.AdminClass.Create, guard...)
	api.PUT("/classes/:id", h.AdminClass.Update, guard...)
	api.DELETE("/classes/:id", h.AdminClass.Delete, guard...)

	// Booking lifecycle, rate limited per client IP.
	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	api.POST("/create-payment-intent", h.Booking.CreatePaymentIntent, limit)
	api.POST("/confirm-booking", h.Booking.ConfirmBooking, limit)
	api.POST("/cancel-booking", h.Booking.CancelBooking, limit)
	api.GET("/bookings/email/:email", h.Booking.ListByEmail, limit)

	// Admin session and supplements.
	api.POST("/admin/login", h.Auth.Login, limit)
	api.POST("/admin/logout", h.Auth.Logout)

	admin := api.Group("/admin", guard...)
	admin.GET("/check", h.Auth.Check)
	admin.GET("/classes/:id/stats", h.AdminClass.Stats)
	admin.GET("/bookings", h.Booking.ListAll)
}
