package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/virtuve/class-booking/internal/config"
	"github.com/virtuve/class-booking/internal/database"
	"github.com/virtuve/class-booking/internal/handler"
	"github.com/virtuve/class-booking/internal/payment"
	"github.com/virtuve/class-booking/internal/queue"
	"github.com/virtuve/class-booking/internal/repository"
	"github.com/virtuve/class-booking/internal/router"
	"github.com/virtuve/class-booking/internal/service"
)

func main() {
	// A missing .env is fine in production where the environment is real.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(ctx, db); err != nil {
		cancel()
		log.Fatalf("migrate: %v", err)
	}
	cancel()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; response cache and rate limiting disabled")
	}

	classes := repository.NewClassRepo(db)
	bookings := repository.NewBookingRepo(db)
	gateway := payment.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	notifier := queue.NewPublisher(cfg.AMQPURL)
	bookingSvc := service.NewBookingService(classes, bookings, gateway, notifier)

	go func() {
		if err := queue.StartNotificationConsumer(cfg.AMQPURL); err != nil {
			log.Printf("notification consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	router.Register(e, cfg, rdb, router.Handlers{
		Auth:       handler.NewAuthHandler(cfg),
		Class:      handler.NewClassHandler(classes),
		AdminClass: handler.NewAdminClassHandler(classes, bookings),
		Booking:    handler.NewBookingHandler(bookingSvc),
		Webhook:    handler.NewWebhookHandler(gateway),
		Meta:       handler.NewMetaHandler(cfg),
	})

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
