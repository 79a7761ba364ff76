package passengers

import (
	"context"
	"strings"

	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/Domenick1991/airreservation/internal/repository"
)

type PassengerUseCase interface {
	GetByID(ctx context.Context, id int64) (*domain.Passenger, error)
	List(ctx context.Context) ([]domain.Passenger, error)
	ListByFlight(ctx context.Context, flightID int64) ([]domain.Passenger, error)
	ListByBooking(ctx context.Context, bookingID int64) ([]domain.Passenger, error)
	Create(ctx context.Context, passenger *domain.Passenger) error
	Update(ctx context.Context, passenger *domain.Passenger) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type PassengerService struct {
	repo repository.PassengerRepository
}

func NewPassengerService(repo repository.PassengerRepository) *PassengerService {
	return &PassengerService{repo: repo}
}

func (s *PassengerService) GetByID(ctx context.Context, id int64) (*domain.Passenger, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *PassengerService) List(ctx context.Context) ([]domain.Passenger, error) {
	return s.repo.List(ctx)
}

// ListByFlight returns the passengers seated on the flight.
func (s *PassengerService) ListByFlight(ctx context.Context, flightID int64) ([]domain.Passenger, error) {
	return s.repo.ListByFlight(ctx, flightID)
}

func (s *PassengerService) ListByBooking(ctx context.Context, bookingID int64) ([]domain.Passenger, error) {
	return s.repo.ListByBooking(ctx, bookingID)
}

func (s *PassengerService) Create(ctx context.Context, passenger *domain.Passenger) error {
	if err := normalize(passenger); err != nil {
		return err
	}
	return s.repo.Create(ctx, passenger)
}

func (s *PassengerService) Update(ctx context.Context, passenger *domain.Passenger) (bool, error) {
	if err := normalize(passenger); err != nil {
		return false, err
	}
	return s.repo.Update(ctx, passenger)
}

func (s *PassengerService) Delete(ctx context.Context, id int64) (bool, error) {
	return s.repo.Delete(ctx, id)
}

func normalize(p *domain.Passenger) error {
	p.FullName = strings.TrimSpace(p.FullName)
	p.Email = strings.TrimSpace(p.Email)
	p.Phone = strings.TrimSpace(p.Phone)
	if p.FullName == "" {
		return domain.ErrFullNameRequired
	}
	return nil
}

var _ PassengerUseCase = (*PassengerService)(nil)
