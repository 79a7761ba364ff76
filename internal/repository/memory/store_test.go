package memory

import (
	"context"
	"testing"
	"time"

	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedFlight(t *testing.T, s *Store, seats ...string) (*domain.Flight, []domain.Seat) {
	t.Helper()
	ctx := context.Background()
	f := &domain.Flight{
		FlightNumber:  "AR100",
		Origin:        "London",
		Destination:   "Paris",
		DepartureTime: time.Now().Add(24 * time.Hour),
		ArrivalTime:   time.Now().Add(26 * time.Hour),
		TotalSeats:    len(seats),
	}
	require.NoError(t, s.Flights().Create(ctx, f))
	for _, label := range seats {
		require.NoError(t, s.Seats().Create(ctx, &domain.Seat{FlightID: f.ID, SeatNumber: label, IsAvailable: true}))
	}
	list, err := s.Seats().ListByFlight(ctx, f.ID)
	require.NoError(t, err)
	return f, list
}

func TestStore_AssignIsGuarded(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, seats := seedFlight(t, s, "1A")

	ok, err := s.Seats().Assign(ctx, seats[0].ID, 10, 20)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Seats().Assign(ctx, seats[0].ID, 11, 21)
	require.NoError(t, err)
	assert.False(t, ok)

	seat, err := s.Seats().GetByID(ctx, seats[0].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), *seat.BookingID)
	assert.Equal(t, int64(20), *seat.PassengerID)
	assert.False(t, seat.IsAvailable)

	ok, err = s.Seats().Assign(ctx, 9999, 1, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_ReleaseIsIdempotent(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, seats := seedFlight(t, s, "1A")

	require.NoError(t, s.Seats().Release(ctx, seats[0].ID))
	require.NoError(t, s.Seats().Release(ctx, seats[0].ID))

	seat, err := s.Seats().GetByID(ctx, seats[0].ID)
	require.NoError(t, err)
	assert.True(t, seat.IsAvailable)
	assert.Nil(t, seat.BookingID)
	assert.Nil(t, seat.PassengerID)
}

func TestStore_SeatsOrderedByLabel(t *testing.T) {
	s := New()
	_, seats := seedFlight(t, s, "2A", "10A", "1B", "1A")

	labels := make([]string, 0, len(seats))
	for _, seat := range seats {
		labels = append(labels, seat.SeatNumber)
	}
	assert.Equal(t, []string{"10A", "1A", "1B", "2A"}, labels)
}

func TestStore_DuplicateReference(t *testing.T) {
	s := New()
	ctx := context.Background()
	user := &domain.User{Username: "jane", Role: domain.RolePassenger, IsActive: true}
	require.NoError(t, s.Users().Create(ctx, user))

	first := &domain.Booking{Reference: "ABC123", FlightID: 1, UserID: user.ID, Status: domain.BookingStatusConfirmed}
	require.NoError(t, s.Bookings().Create(ctx, first))

	second := &domain.Booking{Reference: "ABC123", FlightID: 2, UserID: user.ID, Status: domain.BookingStatusConfirmed}
	err := s.Bookings().Create(ctx, second)
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	got, err := s.Bookings().GetByReference(ctx, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
}

func TestStore_DuplicateUsername(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Users().Create(ctx, &domain.User{Username: "jane"}))
	assert.ErrorIs(t, s.Users().Create(ctx, &domain.User{Username: "jane"}), domain.ErrDuplicate)
}

func TestStore_SearchOnlyScheduled(t *testing.T) {
	s := New()
	ctx := context.Background()
	scheduled, _ := seedFlight(t, s)
	cancelled, _ := seedFlight(t, s)
	cancelled.Status = domain.FlightStatusCancelled
	require.NoError(t, s.Flights().Update(ctx, cancelled))

	day := scheduled.DepartureTime
	found, err := s.Flights().Search(ctx, domain.FlightSearch{Origin: "lon", Destination: "PAR", Date: &day})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, scheduled.ID, found[0].ID)
}

func TestStore_PassengersThroughSeats(t *testing.T) {
	s := New()
	ctx := context.Background()
	f, seats := seedFlight(t, s, "1A", "1B")
	p := &domain.Passenger{FullName: "Ann Lee"}
	require.NoError(t, s.Passengers().Create(ctx, p))

	_, err := s.Seats().Assign(ctx, seats[0].ID, 7, p.ID)
	require.NoError(t, err)
	_, err = s.Seats().Assign(ctx, seats[1].ID, 7, p.ID)
	require.NoError(t, err)

	byFlight, err := s.Passengers().ListByFlight(ctx, f.ID)
	require.NoError(t, err)
	assert.Len(t, byFlight, 1)

	byBooking, err := s.Passengers().ListByBooking(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, byBooking, 1)
}
