package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/fisiocare/booking-api/internal/config"
	appointmentHandler "github.com/fisiocare/booking-api/internal/handler/appointment"
	healthHandler "github.com/fisiocare/booking-api/internal/handler/health"
	notificationHandler "github.com/fisiocare/booking-api/internal/handler/notification"
	"github.com/fisiocare/booking-api/internal/middleware"
	"github.com/fisiocare/booking-api/internal/repository/postgres"
	"github.com/fisiocare/booking-api/internal/router"
	appointmentService "github.com/fisiocare/booking-api/internal/service/appointment"
	authService "github.com/fisiocare/booking-api/internal/service/auth"
	notificationService "github.com/fisiocare/booking-api/internal/service/notification"
	"github.com/fisiocare/booking-api/pkg/logger"
	"github.com/fisiocare/booking-api/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)
	m := metrics.NewMetrics("booking_api")

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	appointmentRepo := postgres.NewAppointmentRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	notificationSvc := notificationService.NewService(notificationRepo, outboxRepo, appLogger)
	appointmentSvc := appointmentService.NewService(appointmentRepo, notificationSvc, appLogger)
	authSvc := authService.NewService(authService.Config{
		Secret:      cfg.JWT.Secret,
		ExpiryHours: cfg.JWT.ExpiryHours,
	})

	authMiddleware := middleware.NewAuthMiddleware(authSvc)

	r := router.NewRouter(
		authMiddleware,
		appointmentHandler.NewHandler(appointmentSvc),
		notificationHandler.NewHandler(notificationSvc),
		healthHandler.NewHandler(db),
		m,
		router.Config{
			RateLimit:  rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst:  cfg.RateLimit.Burst,
			CORSConfig: middleware.DefaultCORSConfig(),
		},
	)
	r.Setup()

	timeout := time.Duration(cfg.Server.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}

	go func() {
		appLogger.Info("starting booking API", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	appLogger.Info("server exited properly")
}
