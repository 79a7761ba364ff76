package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/Domenick1991/airreservation/config"
	"github.com/Domenick1991/airreservation/internal/bootstrap"
	"github.com/Domenick1991/airreservation/internal/email"
	"github.com/Domenick1991/airreservation/internal/kafka"
	"github.com/Domenick1991/airreservation/internal/logging"
	"github.com/Domenick1991/airreservation/internal/service/flights"
	"github.com/Domenick1991/airreservation/internal/service/seats"
	"github.com/Domenick1991/airreservation/internal/worker"
	"github.com/joho/godotenv"
	"github.com/juju/clock"
	"github.com/sirupsen/logrus"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		logrus.Fatalf("init logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, closeStore, err := bootstrap.OpenRepositories(ctx, cfg.Database, log)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer closeStore()

	flightOpts := []flights.FlightServiceOption{flights.WithLogger(log)}
	if cfg.Kafka.Enabled() {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, log)
		defer producer.Close()
		events := kafka.NewEventPublisher(producer, cfg.Kafka.BookingEventsTopic, cfg.Kafka.NotificationsTopic)
		flightOpts = append(flightOpts, flights.WithEventPublisher(events))
	}
	inventory := seats.NewInventoryService(repos.Seats, seats.WithLogger(log))
	flightService := flights.NewFlightService(repos.Flights, inventory, flightOpts...)

	var wg sync.WaitGroup

	if cfg.Kafka.Enabled() {
		topic := cfg.Kafka.NotificationsTopic
		if topic == "" {
			topic = cfg.Kafka.BookingEventsTopic
		}
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, topic, log)
		defer consumer.Close()

		sender := email.NewSender(repos.Users, repos.Bookings, log)
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := consumer.Consume(ctx, worker.NotificationHandler(sender, log))
			if err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("notification consumer stopped")
				stop()
			}
		}()
		log.WithField("topic", topic).Info("consuming notifications")
	} else {
		log.Warn("kafka is not configured, notifications are disabled")
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.CompletionSweep(ctx, flightService, clock.WallClock, cfg.Worker.CompletionSweep(), log)
	}()
	log.WithField("interval", cfg.Worker.CompletionSweep().String()).Info("flight completion sweep started")

	<-ctx.Done()
	log.Info("shutting down worker")
	wg.Wait()
}
