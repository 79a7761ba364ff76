package booking

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

const DefaultReferenceAttempts = 5

type BookingUseCase interface {
	CreateBooking(ctx context.Context, flightID, userID int64) (string, error)
	CancelBooking(ctx context.Context, bookingID int64) (bool, error)
	AssignSeat(ctx context.Context, bookingID, seatID, passengerID int64) error
	GetBookingSeats(ctx context.Context, bookingID int64) ([]domain.Seat, error)
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetByReference(ctx context.Context, reference string) (*domain.Booking, error)
	List(ctx context.Context) ([]domain.Booking, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error)
	ListByFlight(ctx context.Context, flightID int64) ([]domain.Booking, error)
	DeleteBooking(ctx context.Context, bookingID int64) (bool, error)
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, event kafka.BookingEvent) error
}

type BookingService struct {
	bookings          repository.BookingRepository
	flights           repository.FlightRepository
	passengers        repository.PassengerRepository
	seats             seats.InventoryUseCase
	events            EventPublisher
	clock             clock.Clock
	log               logrus.FieldLogger
	newReference      func() string
	referenceAttempts int
}

type BookingServiceOption func(*BookingService)

func WithEventPublisher(events EventPublisher) BookingServiceOption {
	return func(s *BookingService) {
		s.events = events
	}
}

func WithClock(c clock.Clock) BookingServiceOption {
	return func(s *BookingService) {
		s.clock = c
	}
}

func WithLogger(log logrus.FieldLogger) BookingServiceOption {
	return func(s *BookingService) {
		s.log = log
	}
}

// WithReferenceAttempts bounds how many references are tried when the store
// reports a duplicate. Values below 1 mean a single attempt.
func WithReferenceAttempts(n int) BookingServiceOption {
	return func(s *BookingService) {
		s.referenceAttempts = n
	}
}

func WithReferenceGenerator(gen func() string) BookingServiceOption {
	return func(s *BookingService) {
		s.newReference = gen
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	flights repository.FlightRepository,
	passengers repository.PassengerRepository,
	inventory seats.InventoryUseCase,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:          bookings,
		flights:           flights,
		passengers:        passengers,
		seats:             inventory,
		clock:             clock.WallClock,
		log:               logrus.StandardLogger(),
		newReference:      NewReference,
		referenceAttempts: DefaultReferenceAttempts,
	}
	for _, opt := range opts {
		opt(service)
	}
	if service.referenceAttempts < 1 {
		service.referenceAttempts = 1
	}
	return service
}

// CreateBooking checks that the flight can still be booked and has at least
// one free seat, then stores a confirmed booking. No seat is reserved here.
func (s *BookingService) CreateBooking(ctx context.Context, flightID, userID int64) (string, error) {
	flight, err := s.flights.GetByID(ctx, flightID)
	if err != nil {
		return "", err
	}
	if flight.Status == domain.FlightStatusCancelled {
		return "", domain.ErrFlightCancelled
	}
	if flight.Departed(s.clock.Now()) {
		return "", domain.ErrBookingAfterDeparture
	}

	available, err := s.seats.ListAvailable(ctx, flightID)
	if err != nil {
		return "", err
	}
	if len(available) == 0 {
		return "", domain.ErrNoAvailableSeats
	}

	booking := &domain.Booking{
		FlightID: flightID,
		UserID:   userID,
		Status:   domain.BookingStatusConfirmed,
	}
	for attempt := 1; ; attempt++ {
		booking.Reference = s.newReference()
		err = s.bookings.Create(ctx, booking)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrDuplicate) || attempt >= s.referenceAttempts {
			return "", err
		}
		s.log.WithFields(logrus.Fields{
			"reference": booking.Reference,
			"attempt":   attempt,
		}).Warn("booking reference collision, retrying")
	}

	s.log.WithFields(logrus.Fields{
		"reference": booking.Reference,
		"flight_id": flightID,
		"user_id":   userID,
	}).Info("booking created")
	s.publish(ctx, kafka.BookingEvent{
		Type:      kafka.EventBookingCreated,
		Reference: booking.Reference,
		BookingID: booking.ID,
		FlightID:  booking.FlightID,
		UserID:    booking.UserID,
		Status:    string(booking.Status),
	})
	return booking.Reference, nil
}

// CancelBooking releases the booking's seats and then marks it cancelled.
// The two writes are independent. Returns false when the booking does not
// exist; cancelling a cancelled booking succeeds.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID int64) (bool, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	if err := s.seats.ReleaseAllForBooking(ctx, bookingID); err != nil {
		return false, err
	}
	ok, err := s.bookings.UpdateStatus(ctx, bookingID, domain.BookingStatusCancelled)
	if err != nil || !ok {
		return ok, err
	}

	if booking.Status != domain.BookingStatusCancelled {
		s.publish(ctx, kafka.BookingEvent{
			Type:      kafka.EventBookingCancelled,
			Reference: booking.Reference,
			BookingID: booking.ID,
			FlightID:  booking.FlightID,
			UserID:    booking.UserID,
			Status:    string(domain.BookingStatusCancelled),
		})
	}
	return true, nil
}

func (s *BookingService) AssignSeat(ctx context.Context, bookingID, seatID, passengerID int64) error {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrInvalidBooking
		}
		return err
	}
	if booking.Status == domain.BookingStatusCancelled {
		return domain.ErrInvalidBooking
	}

	seat, err := s.seats.GetByID(ctx, seatID)
	if err != nil {
		return err
	}
	if seat.FlightID != booking.FlightID {
		return domain.ErrSeatFlightMismatch
	}
	if !seat.IsAvailable {
		return domain.ErrSeatUnavailable
	}
	if _, err := s.passengers.GetByID(ctx, passengerID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrPassengerNotFound
		}
		return err
	}

	assigned, err := s.seats.Assign(ctx, seatID, bookingID, passengerID)
	if err != nil {
		return err
	}
	if !assigned {
		// lost the guarded update to a concurrent assignment
		return fmt.Errorf("seat %s: %w", seat.SeatNumber, domain.ErrSeatUnavailable)
	}

	s.publish(ctx, kafka.BookingEvent{
		Type:        kafka.EventSeatAssigned,
		Reference:   booking.Reference,
		BookingID:   booking.ID,
		FlightID:    booking.FlightID,
		UserID:      booking.UserID,
		SeatID:      seat.ID,
		SeatNumber:  seat.SeatNumber,
		PassengerID: passengerID,
		Status:      string(booking.Status),
	})
	return nil
}

func (s *BookingService) GetBookingSeats(ctx context.Context, bookingID int64) ([]domain.Seat, error) {
	return s.seats.ListByBooking(ctx, bookingID)
}

func (s *BookingService) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	return s.bookings.GetByID(ctx, id)
}

func (s *BookingService) GetByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	return s.bookings.GetByReference(ctx, reference)
}

func (s *BookingService) List(ctx context.Context) ([]domain.Booking, error) {
	return s.bookings.List(ctx)
}

func (s *BookingService) ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error) {
	return s.bookings.ListByUser(ctx, userID)
}

func (s *BookingService) ListByFlight(ctx context.Context, flightID int64) ([]domain.Booking, error) {
	return s.bookings.ListByFlight(ctx, flightID)
}

// DeleteBooking is an administrative override: it frees the booking's seats
// and removes the row.
func (s *BookingService) DeleteBooking(ctx context.Context, bookingID int64) (bool, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if err := s.seats.ReleaseAllForBooking(ctx, bookingID); err != nil {
		return false, err
	}
	deleted, err := s.bookings.Delete(ctx, bookingID)
	if err != nil || !deleted {
		return deleted, err
	}

	s.log.WithField("reference", booking.Reference).Warn("booking deleted")
	s.publish(ctx, kafka.BookingEvent{
		Type:      kafka.EventBookingDeleted,
		Reference: booking.Reference,
		BookingID: booking.ID,
		FlightID:  booking.FlightID,
		UserID:    booking.UserID,
	})
	return true, nil
}

func (s *BookingService) publish(ctx context.Context, event kafka.BookingEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishEvent(ctx, event); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"event":     event.Type,
			"reference": event.Reference,
			"flight_id": event.FlightID,
		}).Warn("failed to publish booking event")
	}
}

var _ BookingUseCase = (*BookingService)(nil)
