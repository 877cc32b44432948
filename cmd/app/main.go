package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/flightticket/config"
	"github.com/Domenick1991/flightticket/internal/bootstrap"
	"github.com/Domenick1991/flightticket/internal/cache"
	"github.com/Domenick1991/flightticket/internal/kafka"
	"github.com/Domenick1991/flightticket/internal/notify"
	"github.com/Domenick1991/flightticket/internal/repository"
	"github.com/Domenick1991/flightticket/internal/service/auth"
	"github.com/Domenick1991/flightticket/internal/service/booking"
	"github.com/Domenick1991/flightticket/internal/service/cities"
	"github.com/Domenick1991/flightticket/internal/service/flights"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := run(); err != nil {
		slog.Error("app stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := repository.Migrate(ctx, pool); err != nil {
		return err
	}

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.FlightsCacheTTL)*time.Second)
	defer redisCache.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()
	if err := producer.CheckConnection(ctx); err != nil {
		slog.Warn("kafka unavailable, ticket notifications will be dropped", "error", err)
	}

	notifier := notify.NewKafkaNotifier(producer, cfg.Kafka.NotificationsTopic,
		time.Duration(cfg.Booking.NotifyTimeout)*time.Second)
	defer notifier.Close()

	txManager := repository.NewTxManager(pool)
	seats := repository.NewSeatLedger()
	flightRepo := repository.NewFlightRepository(pool, seats)
	ticketRepo := repository.NewTicketRepository(pool)
	cityRepo := repository.NewCityRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	transactor := booking.NewTransactor(txManager, flightRepo, seats, ticketRepo,
		booking.WithNotifier(notifier),
		booking.WithFlightsCache(redisCache),
	)
	cityService := cities.NewCityService(cityRepo, redisCache)
	flightService := flights.NewFlightService(flightRepo, seats, ticketRepo, txManager, cityService, transactor, redisCache)
	authService := auth.NewAuthService(userRepo, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())

	if err := authService.EnsureAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
		return err
	}

	return bootstrap.Run(ctx, cfg, bootstrap.Services{
		Auth:     authService,
		Flights:  flightService,
		Bookings: transactor,
		Cities:   cityService,
		Checks: map[string]bootstrap.Pinger{
			"postgres": pool,
			"redis":    redisCache,
		},
	})
}
