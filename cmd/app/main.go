package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/airreservation/api"
	"github.com/Domenick1991/airreservation/config"
	"github.com/Domenick1991/airreservation/internal/bootstrap"
	"github.com/Domenick1991/airreservation/internal/cache"
	"github.com/Domenick1991/airreservation/internal/kafka"
	"github.com/Domenick1991/airreservation/internal/logging"
	"github.com/Domenick1991/airreservation/internal/service/auth"
	"github.com/Domenick1991/airreservation/internal/service/booking"
	"github.com/Domenick1991/airreservation/internal/service/flights"
	"github.com/Domenick1991/airreservation/internal/service/passengers"
	"github.com/Domenick1991/airreservation/internal/service/seats"
	"github.com/Domenick1991/airreservation/internal/service/users"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// A missing .env file is fine; real deployments set the environment.
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
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, closeStore, err := bootstrap.OpenRepositories(ctx, cfg.Database, log)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer closeStore()

	flightOpts := []flights.FlightServiceOption{flights.WithLogger(log)}
	bookingOpts := []booking.BookingServiceOption{
		booking.WithLogger(log),
		booking.WithReferenceAttempts(cfg.Booking.ReferenceAttempts),
	}
	authOpts := []auth.AuthServiceOption{
		auth.WithLogger(log),
		auth.WithSessionTTL(cfg.Auth.SessionTTL()),
	}

	if cfg.Kafka.Enabled() {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, log)
		defer producer.Close()
		if err := producer.CheckConnection(ctx); err != nil {
			log.WithError(err).Warn("kafka is unreachable, event publishing may fail")
		}
		events := kafka.NewEventPublisher(producer, cfg.Kafka.BookingEventsTopic, cfg.Kafka.NotificationsTopic)
		flightOpts = append(flightOpts, flights.WithEventPublisher(events))
		bookingOpts = append(bookingOpts, booking.WithEventPublisher(events))
	}

	if cfg.Redis.Enabled() {
		sessions := cache.NewRedisCache(cfg.Redis)
		defer sessions.Close()
		if err := sessions.Ping(ctx); err != nil {
			log.Fatalf("connect redis: %v", err)
		}
		authOpts = append(authOpts, auth.WithSessionStore(sessions))
	}

	inventory := seats.NewInventoryService(repos.Seats, seats.WithLogger(log))
	flightService := flights.NewFlightService(repos.Flights, inventory, flightOpts...)
	bookingService := booking.NewBookingService(repos.Bookings, repos.Flights, repos.Passengers, inventory, bookingOpts...)
	passengerService := passengers.NewPassengerService(repos.Passengers)
	userService := users.NewUserService(repos.Users,
		users.WithBcryptCost(cfg.Auth.BcryptCost),
		users.WithLogger(log),
	)
	authService := auth.NewAuthService(userService, cfg.Auth.JWTSecret, authOpts...)

	if err := bootstrap.EnsureAdmin(ctx, userService, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword, log); err != nil {
		log.Fatalf("seed administrator: %v", err)
	}

	router := api.NewRouter(api.Handlers{
		Auth:       api.NewAuthHandler(authService),
		Flights:    api.NewFlightHandler(flightService, inventory, bookingService, passengerService),
		Bookings:   api.NewBookingHandler(bookingService, passengerService),
		Passengers: api.NewPassengerHandler(passengerService),
		Users:      api.NewUserHandler(userService),
	}, authService, log)

	services := bootstrap.Services{
		Auth:      authService,
		Flights:   flightService,
		Inventory: inventory,
		Bookings:  bookingService,
	}
	if err := bootstrap.Run(ctx, cfg, router, services, log); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
