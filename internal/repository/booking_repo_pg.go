package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository interface {
	// Create returns an error wrapping domain.ErrDuplicate when the
	// reference is already taken.
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetByReference(ctx context.Context, reference string) (*domain.Booking, error)
	List(ctx context.Context) ([]domain.Booking, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error)
	ListByFlight(ctx context.Context, flightID int64) ([]domain.Booking, error)
	UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, booking_reference, flight_id, user_id, status, created_at`

func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	err := r.db.QueryRow(ctx, `INSERT INTO bookings (booking_reference, flight_id, user_id, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`, booking.Reference, booking.FlightID, booking.UserID, booking.Status).
		Scan(&booking.ID, &booking.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert booking %s: %w", booking.Reference, wrapPGError(err))
	}
	return nil
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	return r.get(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id)
}

func (r *PGBookingRepository) GetByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	return r.get(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE booking_reference=$1`, reference)
}

func (r *PGBookingRepository) List(ctx context.Context) ([]domain.Booking, error) {
	return r.query(ctx, `SELECT `+bookingColumns+` FROM bookings ORDER BY created_at DESC`)
}

func (r *PGBookingRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error) {
	return r.query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE user_id=$1 ORDER BY created_at DESC`, userID)
}

func (r *PGBookingRepository) ListByFlight(ctx context.Context, flightID int64) ([]domain.Booking, error) {
	return r.query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE flight_id=$1 ORDER BY created_at DESC`, flightID)
}

func (r *PGBookingRepository) UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) (bool, error) {
	cmd, err := r.db.Exec(ctx, `UPDATE bookings SET status=$1 WHERE id=$2`, status, id)
	if err != nil {
		return false, fmt.Errorf("update booking %d status: %w", id, err)
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *PGBookingRepository) Delete(ctx context.Context, id int64) (bool, error) {
	cmd, err := r.db.Exec(ctx, `DELETE FROM bookings WHERE id=$1`, id)
	if err != nil {
		return false, fmt.Errorf("delete booking %d: %w", id, err)
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *PGBookingRepository) get(ctx context.Context, query string, arg any) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return b, nil
}

func (r *PGBookingRepository) query(ctx context.Context, query string, args ...any) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.Reference, &b.FlightID, &b.UserID, &b.Status, &b.CreatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
