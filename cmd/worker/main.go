package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/Domenick1991/flightticket/config"
	"github.com/Domenick1991/flightticket/internal/cache"
	"github.com/Domenick1991/flightticket/internal/email"
	"github.com/Domenick1991/flightticket/internal/kafka"
	"github.com/Domenick1991/flightticket/internal/repository"
	"github.com/Domenick1991/flightticket/internal/service/booking"
	"github.com/jackc/pgx/v5/pgxpool"
	kafkaGo "github.com/segmentio/kafka-go"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := run(); err != nil {
		slog.Error("worker stopped", "error", err)
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

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.FlightsCacheTTL)*time.Second)
	defer redisCache.Close()

	seats := repository.NewSeatLedger()
	transactor := booking.NewTransactor(
		repository.NewTxManager(pool),
		repository.NewFlightRepository(pool, seats),
		seats,
		repository.NewTicketRepository(pool),
		booking.WithFlightsCache(redisCache),
	)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
	defer consumer.Close()

	sender := email.NewSender(cfg.SMTP)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		err := consumer.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
			event, err := kafka.DecodeTicketEvent(msg.Value)
			if err != nil {
				slog.Warn("skipping undecodable event", "offset", msg.Offset, "error", err)
				return nil
			}
			if err := sender.Send(ctx, event); err != nil {
				slog.Error("ticket mail failed", "ticket_id", event.TicketID, "event", event.Type, "error", err)
			}
			return nil
		})
		if err != nil {
			slog.Error("consumer stopped", "error", err)
		}
	}()

	reconcileTicker := time.NewTicker(time.Duration(cfg.Worker.ReconcileMinutes) * time.Minute)
	defer reconcileTicker.Stop()

	reconcile(ctx, transactor)
	for {
		select {
		case <-reconcileTicker.C:
			reconcile(ctx, transactor)
		case <-ctx.Done():
			slog.Info("shutting down worker")
			wg.Wait()
			return nil
		}
	}
}

func reconcile(ctx context.Context, svc booking.BookingUseCase) {
	repaired, err := svc.ReconcileAll(ctx)
	if err != nil {
		slog.Error("reconcile seat availability", "error", err)
		return
	}
	if len(repaired) > 0 {
		slog.Info("repaired seat availability", "flights", repaired)
	}
}
