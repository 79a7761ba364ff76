// Package memory keeps every table in process memory behind one mutex. It
// implements the same repository interfaces as the PostgreSQL layer and is
// used by tests and by the "memory" database driver.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/Domenick1991/airreservation/internal/repository"
)

type Store struct {
	mu  sync.Mutex
	now func() time.Time

	seq        int64
	flights    map[int64]domain.Flight
	seats      map[int64]domain.Seat
	bookings   map[int64]domain.Booking
	passengers map[int64]domain.Passenger
	users      map[int64]domain.User
}

func New() *Store {
	return &Store{
		now:        time.Now,
		flights:    make(map[int64]domain.Flight),
		seats:      make(map[int64]domain.Seat),
		bookings:   make(map[int64]domain.Booking),
		passengers: make(map[int64]domain.Passenger),
		users:      make(map[int64]domain.User),
	}
}

func (s *Store) Flights() repository.FlightRepository       { return flightRepo{s} }
func (s *Store) Seats() repository.SeatRepository           { return seatRepo{s} }
func (s *Store) Bookings() repository.BookingRepository     { return bookingRepo{s} }
func (s *Store) Passengers() repository.PassengerRepository { return passengerRepo{s} }
func (s *Store) Users() repository.UserRepository           { return userRepo{s} }

func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

type flightRepo struct{ s *Store }

func (r flightRepo) Create(_ context.Context, f *domain.Flight) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if f.Status == "" {
		f.Status = domain.FlightStatusScheduled
	}
	f.ID = r.s.nextID()
	f.CreatedAt = r.s.now()
	r.s.flights[f.ID] = *f
	return nil
}

func (r flightRepo) GetByID(_ context.Context, id int64) (*domain.Flight, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.flights[id]
	if !ok {
		return nil, domain.ErrFlightNotFound
	}
	return &f, nil
}

func (r flightRepo) List(_ context.Context) ([]domain.Flight, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]domain.Flight, 0, len(r.s.flights))
	for _, f := range r.s.flights {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DepartureTime.After(out[j].DepartureTime) })
	return out, nil
}

func (r flightRepo) Search(_ context.Context, filter domain.FlightSearch) ([]domain.Flight, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]domain.Flight, 0)
	for _, f := range r.s.flights {
		if f.Status != domain.FlightStatusScheduled {
			continue
		}
		if filter.Origin != "" && !containsFold(f.Origin, filter.Origin) {
			continue
		}
		if filter.Destination != "" && !containsFold(f.Destination, filter.Destination) {
			continue
		}
		if filter.Date != nil && !sameDay(f.DepartureTime, *filter.Date) {
			continue
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DepartureTime.Before(out[j].DepartureTime) })
	return out, nil
}

func (r flightRepo) Update(_ context.Context, f *domain.Flight) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.flights[f.ID]
	if !ok {
		return domain.ErrFlightNotFound
	}
	f.CreatedAt = stored.CreatedAt
	r.s.flights[f.ID] = *f
	return nil
}

func (r flightRepo) Delete(_ context.Context, id int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.flights[id]; !ok {
		return false, nil
	}
	delete(r.s.flights, id)
	for sid, seat := range r.s.seats {
		if seat.FlightID == id {
			delete(r.s.seats, sid)
		}
	}
	return true, nil
}

func (r flightRepo) CountAvailableSeats(_ context.Context, flightID int64) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, seat := range r.s.seats {
		if seat.FlightID == flightID && seat.IsAvailable {
			n++
		}
	}
	return n, nil
}

func (r flightRepo) CompleteArrivedBefore(_ context.Context, deadline time.Time) ([]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var ids []int64
	for id, f := range r.s.flights {
		if f.Status != domain.FlightStatusScheduled && f.Status != domain.FlightStatusDelayed {
			continue
		}
		if f.ArrivalTime.After(deadline) {
			continue
		}
		f.Status = domain.FlightStatusCompleted
		r.s.flights[id] = f
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

type seatRepo struct{ s *Store }

func (r seatRepo) Create(_ context.Context, seat *domain.Seat) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.flights[seat.FlightID]; !ok {
		return fmt.Errorf("insert seat %s: flight %d does not exist", seat.SeatNumber, seat.FlightID)
	}
	seat.ID = r.s.nextID()
	r.s.seats[seat.ID] = *seat
	return nil
}

func (r seatRepo) GetByID(_ context.Context, id int64) (*domain.Seat, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	seat, ok := r.s.seats[id]
	if !ok {
		return nil, domain.ErrSeatNotFound
	}
	return &seat, nil
}

func (r seatRepo) ListByFlight(_ context.Context, flightID int64) ([]domain.Seat, error) {
	return r.filter(func(s domain.Seat) bool { return s.FlightID == flightID }), nil
}

func (r seatRepo) ListAvailableByFlight(_ context.Context, flightID int64) ([]domain.Seat, error) {
	return r.filter(func(s domain.Seat) bool { return s.FlightID == flightID && s.IsAvailable }), nil
}

func (r seatRepo) ListByBooking(_ context.Context, bookingID int64) ([]domain.Seat, error) {
	return r.filter(func(s domain.Seat) bool { return s.BookingID != nil && *s.BookingID == bookingID }), nil
}

func (r seatRepo) Assign(_ context.Context, seatID, bookingID, passengerID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	seat, ok := r.s.seats[seatID]
	if !ok || !seat.IsAvailable {
		return false, nil
	}
	seat.BookingID = &bookingID
	seat.PassengerID = &passengerID
	seat.IsAvailable = false
	r.s.seats[seatID] = seat
	return true, nil
}

func (r seatRepo) Release(_ context.Context, seatID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if seat, ok := r.s.seats[seatID]; ok {
		r.s.seats[seatID] = released(seat)
	}
	return nil
}

func (r seatRepo) ReleaseByBooking(_ context.Context, bookingID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, seat := range r.s.seats {
		if seat.BookingID != nil && *seat.BookingID == bookingID {
			r.s.seats[id] = released(seat)
		}
	}
	return nil
}

func (r seatRepo) DeleteByFlight(_ context.Context, flightID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, seat := range r.s.seats {
		if seat.FlightID == flightID {
			delete(r.s.seats, id)
		}
	}
	return nil
}

func (r seatRepo) filter(keep func(domain.Seat) bool) []domain.Seat {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]domain.Seat, 0)
	for _, seat := range r.s.seats {
		if keep(seat) {
			out = append(out, seat)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SeatNumber == out[j].SeatNumber {
			return out[i].ID < out[j].ID
		}
		return out[i].SeatNumber < out[j].SeatNumber
	})
	return out
}

func released(seat domain.Seat) domain.Seat {
	seat.BookingID = nil
	seat.PassengerID = nil
	seat.IsAvailable = true
	return seat
}

type bookingRepo struct{ s *Store }

func (r bookingRepo) Create(_ context.Context, b *domain.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.bookings {
		if existing.Reference == b.Reference {
			return fmt.Errorf("insert booking %s: %w: booking_reference", b.Reference, domain.ErrDuplicate)
		}
	}
	if _, ok := r.s.users[b.UserID]; !ok {
		return fmt.Errorf("insert booking %s: user %d does not exist", b.Reference, b.UserID)
	}
	b.ID = r.s.nextID()
	b.CreatedAt = r.s.now()
	r.s.bookings[b.ID] = *b
	return nil
}

func (r bookingRepo) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	return &b, nil
}

func (r bookingRepo) GetByReference(_ context.Context, reference string) (*domain.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.bookings {
		if b.Reference == reference {
			return &b, nil
		}
	}
	return nil, domain.ErrBookingNotFound
}

func (r bookingRepo) List(_ context.Context) ([]domain.Booking, error) {
	return r.filter(func(domain.Booking) bool { return true }), nil
}

func (r bookingRepo) ListByUser(_ context.Context, userID int64) ([]domain.Booking, error) {
	return r.filter(func(b domain.Booking) bool { return b.UserID == userID }), nil
}

func (r bookingRepo) ListByFlight(_ context.Context, flightID int64) ([]domain.Booking, error) {
	return r.filter(func(b domain.Booking) bool { return b.FlightID == flightID }), nil
}

func (r bookingRepo) UpdateStatus(_ context.Context, id int64, status domain.BookingStatus) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[id]
	if !ok {
		return false, nil
	}
	b.Status = status
	r.s.bookings[id] = b
	return true, nil
}

func (r bookingRepo) Delete(_ context.Context, id int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.bookings[id]; !ok {
		return false, nil
	}
	for _, seat := range r.s.seats {
		if seat.BookingID != nil && *seat.BookingID == id {
			return false, fmt.Errorf("delete booking %d: still referenced by seat %d", id, seat.ID)
		}
	}
	delete(r.s.bookings, id)
	return true, nil
}

// filter returns bookings newest first, ties broken by id.
func (r bookingRepo) filter(keep func(domain.Booking) bool) []domain.Booking {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]domain.Booking, 0)
	for _, b := range r.s.bookings {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

type passengerRepo struct{ s *Store }

func (r passengerRepo) Create(_ context.Context, p *domain.Passenger) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p.ID = r.s.nextID()
	p.CreatedAt = r.s.now()
	r.s.passengers[p.ID] = *p
	return nil
}

func (r passengerRepo) GetByID(_ context.Context, id int64) (*domain.Passenger, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.passengers[id]
	if !ok {
		return nil, domain.ErrPassengerNotFound
	}
	return &p, nil
}

func (r passengerRepo) List(_ context.Context) ([]domain.Passenger, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]domain.Passenger, 0, len(r.s.passengers))
	for _, p := range r.s.passengers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r passengerRepo) ListByFlight(_ context.Context, flightID int64) ([]domain.Passenger, error) {
	return r.throughSeats(func(s domain.Seat) bool { return s.FlightID == flightID }), nil
}

func (r passengerRepo) ListByBooking(_ context.Context, bookingID int64) ([]domain.Passenger, error) {
	return r.throughSeats(func(s domain.Seat) bool { return s.BookingID != nil && *s.BookingID == bookingID }), nil
}

func (r passengerRepo) Update(_ context.Context, p *domain.Passenger) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.passengers[p.ID]
	if !ok {
		return false, nil
	}
	p.CreatedAt = stored.CreatedAt
	r.s.passengers[p.ID] = *p
	return true, nil
}

func (r passengerRepo) Delete(_ context.Context, id int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.passengers[id]; !ok {
		return false, nil
	}
	for _, seat := range r.s.seats {
		if seat.PassengerID != nil && *seat.PassengerID == id {
			return false, fmt.Errorf("delete passenger %d: still referenced by seat %d", id, seat.ID)
		}
	}
	delete(r.s.passengers, id)
	return true, nil
}

// throughSeats returns the distinct passengers seated on matching seats,
// ordered by name.
func (r passengerRepo) throughSeats(match func(domain.Seat) bool) []domain.Passenger {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	seen := make(map[int64]bool)
	out := make([]domain.Passenger, 0)
	for _, seat := range r.s.seats {
		if seat.PassengerID == nil || !match(seat) || seen[*seat.PassengerID] {
			continue
		}
		seen[*seat.PassengerID] = true
		if p, ok := r.s.passengers[*seat.PassengerID]; ok {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out
}

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, u *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.usernameTaken(u.Username, 0) {
		return fmt.Errorf("insert user %s: %w: username", u.Username, domain.ErrDuplicate)
	}
	u.ID = r.s.nextID()
	u.CreatedAt = r.s.now()
	r.s.users[u.ID] = *u
	return nil
}

func (r userRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (r userRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r userRepo) List(_ context.Context) ([]domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]domain.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r userRepo) Update(_ context.Context, u *domain.User) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.users[u.ID]
	if !ok {
		return false, nil
	}
	if r.usernameTaken(u.Username, u.ID) {
		return false, fmt.Errorf("update user %d: %w: username", u.ID, domain.ErrDuplicate)
	}
	u.CreatedAt = stored.CreatedAt
	r.s.users[u.ID] = *u
	return true, nil
}

func (r userRepo) Deactivate(_ context.Context, id int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return false, nil
	}
	u.IsActive = false
	r.s.users[id] = u
	return true, nil
}

func (r userRepo) usernameTaken(username string, exceptID int64) bool {
	for id, u := range r.s.users {
		if id != exceptID && u.Username == username {
			return true
		}
	}
	return false
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func sameDay(a, b time.Time) bool {
	return a.Format(time.DateOnly) == b.Format(time.DateOnly)
}
