package flights

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/Domenick1991/airreservation/internal/kafka"
	"github.com/Domenick1991/airreservation/internal/repository/memory"
	"github.com/Domenick1991/airreservation/internal/service/seats"
	"github.com/juju/clock/testclock"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type MockFlightRepository struct {
	mock.Mock
}

func (m *MockFlightRepository) Create(ctx context.Context, flight *domain.Flight) error {
	args := m.Called(ctx, flight)
	return args.Error(0)
}

func (m *MockFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) Search(ctx context.Context, filter domain.FlightSearch) ([]domain.Flight, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) Update(ctx context.Context, flight *domain.Flight) error {
	args := m.Called(ctx, flight)
	return args.Error(0)
}

func (m *MockFlightRepository) Delete(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockFlightRepository) CountAvailableSeats(ctx context.Context, flightID int64) (int, error) {
	args := m.Called(ctx, flightID)
	return args.Int(0), args.Error(1)
}

func (m *MockFlightRepository) CompleteArrivedBefore(ctx context.Context, deadline time.Time) ([]int64, error) {
	args := m.Called(ctx, deadline)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

type MockInventory struct {
	mock.Mock
	seats.InventoryUseCase
}

func (m *MockInventory) GenerateSeats(ctx context.Context, flightID int64, totalSeats int) error {
	args := m.Called(ctx, flightID, totalSeats)
	return args.Error(0)
}

func (m *MockInventory) DeleteAllForFlight(ctx context.Context, flightID int64) error {
	args := m.Called(ctx, flightID)
	return args.Error(0)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishEvent(ctx context.Context, event kafka.BookingEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func newFlight(id int64, seatsCount int) *domain.Flight {
	return &domain.Flight{
		ID:            id,
		FlightNumber:  "AR101",
		Origin:        "Lisbon",
		Destination:   "Oslo",
		DepartureTime: now.Add(48 * time.Hour),
		ArrivalTime:   now.Add(52 * time.Hour),
		TotalSeats:    seatsCount,
		Status:        domain.FlightStatusScheduled,
	}
}

func newService(repo *MockFlightRepository, inv *MockInventory, opts ...FlightServiceOption) *FlightService {
	logger, _ := test.NewNullLogger()
	opts = append([]FlightServiceOption{WithClock(testclock.NewClock(now)), WithLogger(logger)}, opts...)
	return NewFlightService(repo, inv, opts...)
}

func TestFlightService_Create_Success(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockInv := &MockInventory{}
	service := newService(mockRepo, mockInv)
	ctx := context.Background()

	flight := newFlight(0, 8)
	flight.Status = ""

	mockRepo.On("Create", ctx, flight).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Flight).ID = 7
	}).Return(nil)
	mockInv.On("GenerateSeats", ctx, int64(7), 8).Return(nil)

	err := service.Create(ctx, flight)

	assert.NoError(t, err)
	assert.Equal(t, int64(7), flight.ID)
	assert.Equal(t, domain.FlightStatusScheduled, flight.Status)
	mockRepo.AssertExpectations(t)
	mockInv.AssertExpectations(t)
}

func TestFlightService_Create_Validation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(f *domain.Flight)
		want   error
	}{
		{
			name:   "departure in the past",
			modify: func(f *domain.Flight) { f.DepartureTime = now.Add(-time.Minute) },
			want:   domain.ErrDepartureInPast,
		},
		{
			name:   "arrival before departure",
			modify: func(f *domain.Flight) { f.ArrivalTime = f.DepartureTime.Add(-time.Hour) },
			want:   domain.ErrArrivalBeforeDeparture,
		},
		{
			name:   "arrival equal to departure",
			modify: func(f *domain.Flight) { f.ArrivalTime = f.DepartureTime },
			want:   domain.ErrArrivalBeforeDeparture,
		},
		{
			name:   "negative seat count",
			modify: func(f *domain.Flight) { f.TotalSeats = -1 },
			want:   domain.ErrNegativeSeatCount,
		},
		{
			name:   "unknown status",
			modify: func(f *domain.Flight) { f.Status = "BOARDING" },
			want:   domain.ErrInvalidFlightStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &MockFlightRepository{}
			mockInv := &MockInventory{}
			service := newService(mockRepo, mockInv)

			flight := newFlight(0, 6)
			tt.modify(flight)

			err := service.Create(context.Background(), flight)

			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, domain.ErrValidation)
			mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			mockInv.AssertNotCalled(t, "GenerateSeats", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestFlightService_Create_SeatGenerationFails(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockInv := &MockInventory{}
	service := newService(mockRepo, mockInv)
	ctx := context.Background()

	flight := newFlight(0, 6)
	dbErr := errors.New("connection reset")

	mockRepo.On("Create", ctx, flight).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Flight).ID = 3
	}).Return(nil)
	mockInv.On("GenerateSeats", ctx, int64(3), 6).Return(dbErr)

	err := service.Create(ctx, flight)

	assert.ErrorIs(t, err, dbErr)
	assert.Contains(t, err.Error(), "flight 3")
}

func TestFlightService_Update_NotFound(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockInv := &MockInventory{}
	service := newService(mockRepo, mockInv)
	ctx := context.Background()

	mockRepo.On("GetByID", ctx, int64(99)).Return(nil, domain.ErrFlightNotFound)

	err := service.Update(ctx, newFlight(99, 6))

	assert.ErrorIs(t, err, domain.ErrNotFound)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestFlightService_Update_Departed(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockInv := &MockInventory{}
	service := newService(mockRepo, mockInv)
	ctx := context.Background()

	existing := newFlight(5, 6)
	existing.DepartureTime = now.Add(-time.Hour)
	existing.ArrivalTime = now.Add(time.Hour)
	mockRepo.On("GetByID", ctx, int64(5)).Return(existing, nil)

	err := service.Update(ctx, newFlight(5, 6))

	assert.ErrorIs(t, err, domain.ErrFlightDeparted)
	assert.ErrorIs(t, err, domain.ErrState)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestFlightService_Update_InvalidOrdering(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockInv := &MockInventory{}
	service := newService(mockRepo, mockInv)
	ctx := context.Background()

	mockRepo.On("GetByID", ctx, int64(5)).Return(newFlight(5, 6), nil)

	updated := newFlight(5, 6)
	updated.ArrivalTime = updated.DepartureTime.Add(-time.Minute)

	err := service.Update(ctx, updated)

	assert.ErrorIs(t, err, domain.ErrArrivalBeforeDeparture)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestFlightService_Update_SameSeatCountKeepsSeatMap(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockInv := &MockInventory{}
	service := newService(mockRepo, mockInv)
	ctx := context.Background()

	mockRepo.On("GetByID", ctx, int64(5)).Return(newFlight(5, 6), nil)

	updated := newFlight(5, 6)
	updated.Status = ""
	updated.Destination = "Bergen"
	mockRepo.On("Update", ctx, updated).Return(nil)

	err := service.Update(ctx, updated)

	assert.NoError(t, err)
	assert.Equal(t, domain.FlightStatusScheduled, updated.Status)
	mockInv.AssertNotCalled(t, "DeleteAllForFlight", mock.Anything, mock.Anything)
	mockInv.AssertNotCalled(t, "GenerateSeats", mock.Anything, mock.Anything, mock.Anything)
	mockRepo.AssertExpectations(t)
}

func TestFlightService_Update_SeatCountChangeRegenerates(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockInv := &MockInventory{}
	service := newService(mockRepo, mockInv)
	ctx := context.Background()

	mockRepo.On("GetByID", ctx, int64(5)).Return(newFlight(5, 6), nil)
	mockInv.On("DeleteAllForFlight", ctx, int64(5)).Return(nil).Once()
	mockInv.On("GenerateSeats", ctx, int64(5), 4).Return(nil).Once()

	updated := newFlight(5, 4)
	mockRepo.On("Update", ctx, updated).Return(nil)

	err := service.Update(ctx, updated)

	assert.NoError(t, err)
	mockInv.AssertExpectations(t)
	mockRepo.AssertExpectations(t)
}

func TestFlightService_Cancel(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockInv := &MockInventory{}
	mockEvents := &MockEventPublisher{}
	service := newService(mockRepo, mockInv, WithEventPublisher(mockEvents))
	ctx := context.Background()

	mockRepo.On("GetByID", ctx, int64(5)).Return(newFlight(5, 6), nil)
	mockRepo.On("Update", ctx, mock.MatchedBy(func(f *domain.Flight) bool {
		return f.ID == 5 && f.Status == domain.FlightStatusCancelled
	})).Return(nil)
	mockEvents.On("PublishEvent", ctx, mock.MatchedBy(func(e kafka.BookingEvent) bool {
		return e.Type == kafka.EventFlightCancelled && e.FlightID == 5
	})).Return(nil)

	ok, err := service.Cancel(ctx, 5)

	assert.NoError(t, err)
	assert.True(t, ok)
	mockRepo.AssertExpectations(t)
	mockEvents.AssertExpectations(t)
	mockInv.AssertNotCalled(t, "DeleteAllForFlight", mock.Anything, mock.Anything)
}

func TestFlightService_Cancel_NotFound(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	service := newService(mockRepo, &MockInventory{})
	ctx := context.Background()

	mockRepo.On("GetByID", ctx, int64(42)).Return(nil, domain.ErrFlightNotFound)

	ok, err := service.Cancel(ctx, 42)

	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestFlightService_Cancel_PublishFailureIsLogged(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockEvents := &MockEventPublisher{}
	logger, hook := test.NewNullLogger()
	service := newService(mockRepo, &MockInventory{}, WithEventPublisher(mockEvents), WithLogger(logger))
	ctx := context.Background()

	mockRepo.On("GetByID", ctx, int64(5)).Return(newFlight(5, 6), nil)
	mockRepo.On("Update", ctx, mock.Anything).Return(nil)
	mockEvents.On("PublishEvent", ctx, mock.Anything).Return(errors.New("broker down"))

	ok, err := service.Cancel(ctx, 5)

	assert.NoError(t, err)
	assert.True(t, ok)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestFlightService_Delete(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockInv := &MockInventory{}
	service := newService(mockRepo, mockInv)
	ctx := context.Background()

	mockInv.On("DeleteAllForFlight", ctx, int64(5)).Return(nil)
	mockRepo.On("Delete", ctx, int64(5)).Return(true, nil)

	ok, err := service.Delete(ctx, 5)

	assert.NoError(t, err)
	assert.True(t, ok)

	mockInv.AssertExpectations(t)
	mockRepo.AssertExpectations(t)
}

func TestFlightService_CompleteArrivedFlights(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockEvents := &MockEventPublisher{}
	service := newService(mockRepo, &MockInventory{}, WithEventPublisher(mockEvents))
	ctx := context.Background()

	mockRepo.On("CompleteArrivedBefore", ctx, now).Return([]int64{2, 4}, nil)
	mockEvents.On("PublishEvent", ctx, mock.MatchedBy(func(e kafka.BookingEvent) bool {
		return e.Type == kafka.EventFlightCompleted
	})).Return(nil).Twice()

	ids, err := service.CompleteArrivedFlights(ctx)

	assert.NoError(t, err)
	assert.Equal(t, []int64{2, 4}, ids)
	mockEvents.AssertExpectations(t)
}

func TestFlightService_SeatCountChangeScenario(t *testing.T) {
	store := memory.New()
	inventory := seats.NewInventoryService(store.Seats())
	logger, _ := test.NewNullLogger()
	service := NewFlightService(store.Flights(), inventory,
		WithClock(testclock.NewClock(now)), WithLogger(logger))
	ctx := context.Background()

	flight := newFlight(0, 6)
	require.NoError(t, service.Create(ctx, flight))

	initial, err := inventory.ListByFlight(ctx, flight.ID)
	require.NoError(t, err)
	require.Len(t, initial, 6)

	assigned, err := inventory.Assign(ctx, initial[0].ID, 100, 200)
	require.NoError(t, err)
	require.True(t, assigned)

	flight.TotalSeats = 4
	require.NoError(t, service.Update(ctx, flight))

	regenerated, err := inventory.ListByFlight(ctx, flight.ID)
	require.NoError(t, err)
	require.Len(t, regenerated, 4)

	labels := make([]string, 0, len(regenerated))
	for _, seat := range regenerated {
		labels = append(labels, seat.SeatNumber)
		assert.True(t, seat.IsAvailable)
		assert.Nil(t, seat.BookingID)
		assert.Nil(t, seat.PassengerID)
		for _, old := range initial {
			assert.NotEqual(t, old.ID, seat.ID)
		}
	}
	assert.Equal(t, []string{"1A", "1B", "1C", "1D"}, labels)

	bookingSeats, err := inventory.ListByBooking(ctx, 100)
	require.NoError(t, err)
	assert.Empty(t, bookingSeats)

	count, err := service.AvailableSeatCount(ctx, flight.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}
