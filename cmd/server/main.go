package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/honeynil/TravelBookingService/internal/api"
	"github.com/honeynil/TravelBookingService/internal/config"
	"github.com/honeynil/TravelBookingService/internal/handler"
	"github.com/honeynil/TravelBookingService/internal/infrastructure/gateway"
	"github.com/honeynil/TravelBookingService/internal/infrastructure/kafka"
	"github.com/honeynil/TravelBookingService/internal/infrastructure/mailer"
	"github.com/honeynil/TravelBookingService/internal/infrastructure/redis"
	"github.com/honeynil/TravelBookingService/internal/notifications"
	"github.com/honeynil/TravelBookingService/internal/observability"
	core "github.com/honeynil/TravelBookingService/internal/repository/postgres"
	service "github.com/honeynil/TravelBookingService/internal/services"
)

const verifyLockWait = 2 * time.Second

func main() {
	cfg := config.Load()

	telemetry := observability.Setup(observability.Options{
		ServiceName:  "travel-booking-service",
		OTLPEndpoint: cfg.OTLPEndpoint,
		LogLevel:     cfg.LogLevel,
	})
	defer telemetry.Shutdown(context.Background())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("postgres", cfg.PostgresDSN)
	if err != nil {
		slog.Error("failed to open Postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := core.Migrate(ctx, db); err != nil {
		slog.Error("failed to migrate schema", "error", err)
		os.Exit(1)
	}

	redisClient, err := redis.NewClient(cfg.RedisAddr)
	if err != nil {
		os.Exit(1)
	}
	defer redisClient.Close()

	userRepo := core.NewPostgresUserRepository(db)
	listingRepo := core.NewPostgresListingRepository(db)
	bookingRepo := core.NewPostgresBookingRepository(db)
	paymentRepo := core.NewPostgresPaymentRepository(db)
	reviewRepo := core.NewPostgresReviewRepository(db)

	notificationProducer := kafka.NewProducer(cfg.KafkaBrokers, cfg.Notifications.Topic, true)
	deadLetterProducer := kafka.NewProducer(cfg.KafkaBrokers, cfg.Notifications.DLQTopic, false)
	defer notificationProducer.Close()
	defer deadLetterProducer.Close()
	dispatcher := notifications.NewDispatcher(notificationProducer)

	gatewayClient := gateway.NewClient(gateway.Config{
		BaseURL:   cfg.Gateway.BaseURL,
		SecretKey: cfg.Gateway.SecretKey,
		Timeout:   cfg.Gateway.Timeout,
	})
	locker := redis.NewLocker(redisClient, cfg.VerifyLockTTL, verifyLockWait)

	authSvc := service.NewAuthService(userRepo, redisClient, cfg.JWTSecret)
	listingSvc := service.NewListingService(listingRepo, reviewRepo)
	bookingSvc := service.NewBookingService(bookingRepo, listingRepo, dispatcher)
	paymentSvc := service.NewPaymentService(bookingRepo, paymentRepo, gatewayClient, dispatcher, locker, service.PaymentConfig{
		Currency:  cfg.Payment.Currency,
		ReturnURL: cfg.Payment.ReturnURL,
	})

	notificationHandler := notifications.NewHandler(
		bookingRepo,
		paymentRepo,
		listingRepo,
		userRepo,
		mailer.NewResendMailer(cfg.Mail.ResendAPIKey, cfg.Mail.From),
	)
	consumer := kafka.NewConsumer(
		cfg.KafkaBrokers,
		cfg.Notifications.Topic,
		cfg.Notifications.Group,
		notificationHandler,
		deadLetterProducer,
		cfg.Notifications.MaxAttempts,
	)
	defer consumer.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		consumer.Consume(ctx)
	}()

	h := handler.NewHandler(authSvc, listingSvc, bookingSvc, paymentSvc)
	router := api.SetupRouter(h, redisClient, cfg.JWTSecret)

	servers := []*http.Server{{Addr: cfg.HTTPAddr, Handler: router}}
	if cfg.MetricsAddr != "" {
		servers = append(servers, &http.Server{Addr: cfg.MetricsAddr, Handler: telemetry.MetricsHandler})
	}
	for _, srv := range servers {
		go func(srv *http.Server) {
			slog.Info("starting server", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("server failed", "addr", srv.Addr, "error", err)
				stop()
			}
		}(srv)
	}

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", "addr", srv.Addr, "error", err)
		}
	}
	wg.Wait()
	slog.Info("server stopped")
}
