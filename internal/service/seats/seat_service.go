package seats

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/Domenick1991/airreservation/internal/repository"
	"github.com/sirupsen/logrus"
)

// SeatsPerRow is the width of the cosmetic row/column label scheme.
const SeatsPerRow = 6

var columns = [SeatsPerRow]string{"A", "B", "C", "D", "E", "F"}

type InventoryUseCase interface {
	GenerateSeats(ctx context.Context, flightID int64, totalSeats int) error
	GetByID(ctx context.Context, seatID int64) (*domain.Seat, error)
	ListAvailable(ctx context.Context, flightID int64) ([]domain.Seat, error)
	ListByFlight(ctx context.Context, flightID int64) ([]domain.Seat, error)
	ListByBooking(ctx context.Context, bookingID int64) ([]domain.Seat, error)
	Assign(ctx context.Context, seatID, bookingID, passengerID int64) (bool, error)
	Release(ctx context.Context, seatID int64) error
	ReleaseAllForBooking(ctx context.Context, bookingID int64) error
	DeleteAllForFlight(ctx context.Context, flightID int64) error
}

type InventoryService struct {
	seats repository.SeatRepository
	log   logrus.FieldLogger
}

type InventoryOption func(*InventoryService)

func WithLogger(log logrus.FieldLogger) InventoryOption {
	return func(s *InventoryService) {
		s.log = log
	}
}

func NewInventoryService(seats repository.SeatRepository, opts ...InventoryOption) *InventoryService {
	s := &InventoryService{
		seats: seats,
		log:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Labels returns the first n seat labels: 1A..1F, 2A..2F and so on. The last
// row is partial when n is not a multiple of SeatsPerRow.
func Labels(n int) []string {
	if n <= 0 {
		return nil
	}
	labels := make([]string, 0, n)
	for i := 0; i < n; i++ {
		labels = append(labels, strconv.Itoa(i/SeatsPerRow+1)+columns[i%SeatsPerRow])
	}
	return labels
}

// GenerateSeats inserts the seats one by one and stops at the first failure;
// seats inserted before it are kept.
func (s *InventoryService) GenerateSeats(ctx context.Context, flightID int64, totalSeats int) error {
	if totalSeats < 0 {
		return domain.ErrNegativeSeatCount
	}
	for _, label := range Labels(totalSeats) {
		seat := &domain.Seat{
			FlightID:    flightID,
			SeatNumber:  label,
			IsAvailable: true,
		}
		if err := s.seats.Create(ctx, seat); err != nil {
			return fmt.Errorf("generate seat %s: %w", label, err)
		}
	}
	s.log.WithFields(logrus.Fields{"flight_id": flightID, "seats": totalSeats}).Debug("seat map generated")
	return nil
}

func (s *InventoryService) GetByID(ctx context.Context, seatID int64) (*domain.Seat, error) {
	return s.seats.GetByID(ctx, seatID)
}

func (s *InventoryService) ListAvailable(ctx context.Context, flightID int64) ([]domain.Seat, error) {
	return s.seats.ListAvailableByFlight(ctx, flightID)
}

func (s *InventoryService) ListByFlight(ctx context.Context, flightID int64) ([]domain.Seat, error) {
	return s.seats.ListByFlight(ctx, flightID)
}

func (s *InventoryService) ListByBooking(ctx context.Context, bookingID int64) ([]domain.Seat, error) {
	return s.seats.ListByBooking(ctx, bookingID)
}

// Assign is a compare-and-swap on the availability flag. false means the seat
// was taken in the meantime or does not exist; it is not an error.
func (s *InventoryService) Assign(ctx context.Context, seatID, bookingID, passengerID int64) (bool, error) {
	return s.seats.Assign(ctx, seatID, bookingID, passengerID)
}

func (s *InventoryService) Release(ctx context.Context, seatID int64) error {
	return s.seats.Release(ctx, seatID)
}

func (s *InventoryService) ReleaseAllForBooking(ctx context.Context, bookingID int64) error {
	return s.seats.ReleaseByBooking(ctx, bookingID)
}

func (s *InventoryService) DeleteAllForFlight(ctx context.Context, flightID int64) error {
	return s.seats.DeleteByFlight(ctx, flightID)
}

var _ InventoryUseCase = (*InventoryService)(nil)
