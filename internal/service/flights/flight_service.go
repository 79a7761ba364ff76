package flights

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/Domenick1991/airreservation/internal/kafka"
	"github.com/Domenick1991/airreservation/internal/repository"
	"github.com/Domenick1991/airreservation/internal/service/seats"
	"github.com/juju/clock"
	"github.com/sirupsen/logrus"
)

type FlightUseCase interface {
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	List(ctx context.Context) ([]domain.Flight, error)
	Search(ctx context.Context, filter domain.FlightSearch) ([]domain.Flight, error)
	Create(ctx context.Context, flight *domain.Flight) error
	Update(ctx context.Context, flight *domain.Flight) error
	Cancel(ctx context.Context, id int64) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	AvailableSeatCount(ctx context.Context, id int64) (int, error)
	CompleteArrivedFlights(ctx context.Context) ([]int64, error)
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, event kafka.BookingEvent) error
}

type FlightService struct {
	repo   repository.FlightRepository
	seats  seats.InventoryUseCase
	events EventPublisher
	clock  clock.Clock
	log    logrus.FieldLogger
}

type FlightServiceOption func(*FlightService)

func WithEventPublisher(events EventPublisher) FlightServiceOption {
	return func(s *FlightService) {
		s.events = events
	}
}

func WithClock(c clock.Clock) FlightServiceOption {
	return func(s *FlightService) {
		s.clock = c
	}
}

func WithLogger(log logrus.FieldLogger) FlightServiceOption {
	return func(s *FlightService) {
		s.log = log
	}
}

func NewFlightService(repo repository.FlightRepository, inventory seats.InventoryUseCase, opts ...FlightServiceOption) *FlightService {
	s := &FlightService{
		repo:  repo,
		seats: inventory,
		clock: clock.WallClock,
		log:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *FlightService) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *FlightService) List(ctx context.Context) ([]domain.Flight, error) {
	return s.repo.List(ctx)
}

// Search only returns scheduled flights. Empty filters match everything.
func (s *FlightService) Search(ctx context.Context, filter domain.FlightSearch) ([]domain.Flight, error) {
	return s.repo.Search(ctx, filter)
}

// Create persists the flight and generates its seat map. A seat generation
// failure leaves the flight in place with a partial map.
func (s *FlightService) Create(ctx context.Context, flight *domain.Flight) error {
	if flight.DepartureTime.Before(s.clock.Now()) {
		return domain.ErrDepartureInPast
	}
	if err := validateFlight(flight); err != nil {
		return err
	}
	if flight.Status == "" {
		flight.Status = domain.FlightStatusScheduled
	}

	if err := s.repo.Create(ctx, flight); err != nil {
		return err
	}
	if err := s.seats.GenerateSeats(ctx, flight.ID, flight.TotalSeats); err != nil {
		return fmt.Errorf("flight %d created with incomplete seat map: %w", flight.ID, err)
	}

	s.log.WithFields(logrus.Fields{
		"flight_id":     flight.ID,
		"flight_number": flight.FlightNumber,
		"seats":         flight.TotalSeats,
	}).Info("flight created")
	return nil
}

// Update rejects changes to departed flights. A changed seat count discards
// the whole seat map, including assignments, and generates a fresh one.
func (s *FlightService) Update(ctx context.Context, flight *domain.Flight) error {
	existing, err := s.repo.GetByID(ctx, flight.ID)
	if err != nil {
		return err
	}
	if existing.Departed(s.clock.Now()) {
		return domain.ErrFlightDeparted
	}
	if err := validateFlight(flight); err != nil {
		return err
	}
	if flight.Status == "" {
		flight.Status = existing.Status
	}

	if flight.TotalSeats != existing.TotalSeats {
		if err := s.seats.DeleteAllForFlight(ctx, flight.ID); err != nil {
			return err
		}
		if err := s.seats.GenerateSeats(ctx, flight.ID, flight.TotalSeats); err != nil {
			return err
		}
		s.log.WithFields(logrus.Fields{
			"flight_id": flight.ID,
			"old_seats": existing.TotalSeats,
			"new_seats": flight.TotalSeats,
		}).Warn("seat map regenerated")
	}

	return s.repo.Update(ctx, flight)
}

// Cancel marks the flight cancelled. Bookings on it keep their status and
// seats. Returns false when the flight does not exist.
func (s *FlightService) Cancel(ctx context.Context, id int64) (bool, error) {
	flight, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return notFoundAsFalse(err)
	}

	flight.Status = domain.FlightStatusCancelled
	if err := s.repo.Update(ctx, flight); err != nil {
		return notFoundAsFalse(err)
	}

	s.publish(ctx, kafka.BookingEvent{
		Type:     kafka.EventFlightCancelled,
		FlightID: id,
		Status:   string(domain.FlightStatusCancelled),
	})
	return true, nil
}

// Delete removes the flight's seats and then the flight. Bookings that
// reference it are left untouched.
func (s *FlightService) Delete(ctx context.Context, id int64) (bool, error) {
	if err := s.seats.DeleteAllForFlight(ctx, id); err != nil {
		return false, err
	}
	return s.repo.Delete(ctx, id)
}

func (s *FlightService) AvailableSeatCount(ctx context.Context, id int64) (int, error) {
	return s.repo.CountAvailableSeats(ctx, id)
}

// CompleteArrivedFlights marks scheduled and delayed flights whose arrival
// time has passed as completed.
func (s *FlightService) CompleteArrivedFlights(ctx context.Context) ([]int64, error) {
	ids, err := s.repo.CompleteArrivedBefore(ctx, s.clock.Now())
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		s.publish(ctx, kafka.BookingEvent{
			Type:     kafka.EventFlightCompleted,
			FlightID: id,
			Status:   string(domain.FlightStatusCompleted),
		})
	}
	if len(ids) > 0 {
		s.log.WithField("count", len(ids)).Info("flights completed")
	}
	return ids, nil
}

func (s *FlightService) publish(ctx context.Context, event kafka.BookingEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishEvent(ctx, event); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"event":     event.Type,
			"flight_id": event.FlightID,
		}).Warn("failed to publish flight event")
	}
}

func validateFlight(flight *domain.Flight) error {
	if !flight.ArrivalTime.After(flight.DepartureTime) {
		return domain.ErrArrivalBeforeDeparture
	}
	if flight.TotalSeats < 0 {
		return domain.ErrNegativeSeatCount
	}
	if flight.Status != "" && !flight.Status.Valid() {
		return domain.ErrInvalidFlightStatus
	}
	return nil
}

func notFoundAsFalse(err error) (bool, error) {
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	return false, err
}

var _ FlightUseCase = (*FlightService)(nil)
