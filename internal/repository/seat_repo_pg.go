package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SeatRepository interface {
	Create(ctx context.Context, seat *domain.Seat) error
	GetByID(ctx context.Context, id int64) (*domain.Seat, error)
	ListByFlight(ctx context.Context, flightID int64) ([]domain.Seat, error)
	ListAvailableByFlight(ctx context.Context, flightID int64) ([]domain.Seat, error)
	ListByBooking(ctx context.Context, bookingID int64) ([]domain.Seat, error)
	// Assign reports whether the seat was available and is now bound to the
	// booking and passenger.
	Assign(ctx context.Context, seatID, bookingID, passengerID int64) (bool, error)
	Release(ctx context.Context, seatID int64) error
	ReleaseByBooking(ctx context.Context, bookingID int64) error
	DeleteByFlight(ctx context.Context, flightID int64) error
}

type PGSeatRepository struct {
	db *pgxpool.Pool
}

func NewSeatRepository(db *pgxpool.Pool) SeatRepository {
	return &PGSeatRepository{db: db}
}

// Labels are compared byte-wise so that ordering does not depend on the
// database collation.
const (
	seatColumns = `id, flight_id, seat_number, booking_id, passenger_id, is_available`
	seatOrder   = ` ORDER BY seat_number COLLATE "C"`
)

func (r *PGSeatRepository) Create(ctx context.Context, seat *domain.Seat) error {
	err := r.db.QueryRow(ctx, `INSERT INTO seats (flight_id, seat_number, booking_id, passenger_id, is_available)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`, seat.FlightID, seat.SeatNumber, seat.BookingID, seat.PassengerID, seat.IsAvailable).
		Scan(&seat.ID)
	if err != nil {
		return fmt.Errorf("insert seat %s for flight %d: %w", seat.SeatNumber, seat.FlightID, wrapPGError(err))
	}
	return nil
}

func (r *PGSeatRepository) GetByID(ctx context.Context, id int64) (*domain.Seat, error) {
	row := r.db.QueryRow(ctx, `SELECT `+seatColumns+` FROM seats WHERE id=$1`, id)
	s, err := scanSeat(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSeatNotFound
		}
		return nil, fmt.Errorf("get seat %d: %w", id, err)
	}
	return s, nil
}

func (r *PGSeatRepository) ListByFlight(ctx context.Context, flightID int64) ([]domain.Seat, error) {
	return r.query(ctx, `SELECT `+seatColumns+` FROM seats WHERE flight_id=$1`+seatOrder, flightID)
}

func (r *PGSeatRepository) ListAvailableByFlight(ctx context.Context, flightID int64) ([]domain.Seat, error) {
	return r.query(ctx, `SELECT `+seatColumns+` FROM seats WHERE flight_id=$1 AND is_available = TRUE`+seatOrder, flightID)
}

func (r *PGSeatRepository) ListByBooking(ctx context.Context, bookingID int64) ([]domain.Seat, error) {
	return r.query(ctx, `SELECT `+seatColumns+` FROM seats WHERE booking_id=$1`+seatOrder, bookingID)
}

func (r *PGSeatRepository) Assign(ctx context.Context, seatID, bookingID, passengerID int64) (bool, error) {
	cmd, err := r.db.Exec(ctx, `UPDATE seats SET booking_id=$1, passenger_id=$2, is_available = FALSE
		WHERE id=$3 AND is_available = TRUE`, bookingID, passengerID, seatID)
	if err != nil {
		return false, fmt.Errorf("assign seat %d: %w", seatID, err)
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *PGSeatRepository) Release(ctx context.Context, seatID int64) error {
	if _, err := r.db.Exec(ctx, `UPDATE seats SET booking_id = NULL, passenger_id = NULL, is_available = TRUE WHERE id=$1`, seatID); err != nil {
		return fmt.Errorf("release seat %d: %w", seatID, err)
	}
	return nil
}

func (r *PGSeatRepository) ReleaseByBooking(ctx context.Context, bookingID int64) error {
	if _, err := r.db.Exec(ctx, `UPDATE seats SET booking_id = NULL, passenger_id = NULL, is_available = TRUE WHERE booking_id=$1`, bookingID); err != nil {
		return fmt.Errorf("release seats of booking %d: %w", bookingID, err)
	}
	return nil
}

func (r *PGSeatRepository) DeleteByFlight(ctx context.Context, flightID int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM seats WHERE flight_id=$1`, flightID); err != nil {
		return fmt.Errorf("delete seats of flight %d: %w", flightID, err)
	}
	return nil
}

func (r *PGSeatRepository) query(ctx context.Context, query string, args ...any) ([]domain.Seat, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query seats: %w", err)
	}
	defer rows.Close()

	seats := make([]domain.Seat, 0)
	for rows.Next() {
		s, err := scanSeat(rows)
		if err != nil {
			return nil, err
		}
		seats = append(seats, *s)
	}
	return seats, rows.Err()
}

func scanSeat(row pgx.Row) (*domain.Seat, error) {
	var s domain.Seat
	if err := row.Scan(&s.ID, &s.FlightID, &s.SeatNumber, &s.BookingID, &s.PassengerID, &s.IsAvailable); err != nil {
		return nil, err
	}
	return &s, nil
}

var _ SeatRepository = (*PGSeatRepository)(nil)
