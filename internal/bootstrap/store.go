package bootstrap

import (
	"context"
	"fmt"

	"github.com/Domenick1991/airreservation/config"
	"github.com/Domenick1991/airreservation/internal/repository"
	"github.com/Domenick1991/airreservation/internal/repository/memory"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

type Repositories struct {
	Flights    repository.FlightRepository
	Seats      repository.SeatRepository
	Bookings   repository.BookingRepository
	Passengers repository.PassengerRepository
	Users      repository.UserRepository
}

// OpenRepositories connects the configured store. The returned close function
// is never nil.
func OpenRepositories(ctx context.Context, cfg config.DatabaseConfig, log logrus.FieldLogger) (*Repositories, func(), error) {
	if cfg.Driver == config.DriverMemory {
		log.Warn("using in-memory store, data is lost on restart")
		store := memory.New()
		return &Repositories{
			Flights:    store.Flights(),
			Seats:      store.Seats(),
			Bookings:   store.Bookings(),
			Passengers: store.Passengers(),
			Users:      store.Users(),
		}, func() {}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping postgres: %w", err)
	}
	if cfg.Migrate {
		if err := repository.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		log.Info("database schema is up to date")
	}

	return &Repositories{
		Flights:    repository.NewFlightRepository(pool),
		Seats:      repository.NewSeatRepository(pool),
		Bookings:   repository.NewBookingRepository(pool),
		Passengers: repository.NewPassengerRepository(pool),
		Users:      repository.NewUserRepository(pool),
	}, pool.Close, nil
}
