package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PassengerRepository interface {
	Create(ctx context.Context, passenger *domain.Passenger) error
	GetByID(ctx context.Context, id int64) (*domain.Passenger, error)
	List(ctx context.Context) ([]domain.Passenger, error)
	ListByFlight(ctx context.Context, flightID int64) ([]domain.Passenger, error)
	ListByBooking(ctx context.Context, bookingID int64) ([]domain.Passenger, error)
	Update(ctx context.Context, passenger *domain.Passenger) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type PGPassengerRepository struct {
	db *pgxpool.Pool
}

func NewPassengerRepository(db *pgxpool.Pool) PassengerRepository {
	return &PGPassengerRepository{db: db}
}

const passengerColumns = `p.id, p.full_name, p.date_of_birth, p.email, p.phone, p.created_at`

func (r *PGPassengerRepository) Create(ctx context.Context, p *domain.Passenger) error {
	err := r.db.QueryRow(ctx, `INSERT INTO passengers (full_name, date_of_birth, email, phone)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`, p.FullName, p.DateOfBirth, p.Email, p.Phone).
		Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert passenger: %w", wrapPGError(err))
	}
	return nil
}

func (r *PGPassengerRepository) GetByID(ctx context.Context, id int64) (*domain.Passenger, error) {
	p, err := scanPassenger(r.db.QueryRow(ctx, `SELECT `+passengerColumns+` FROM passengers p WHERE p.id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPassengerNotFound
		}
		return nil, fmt.Errorf("get passenger %d: %w", id, err)
	}
	return p, nil
}

func (r *PGPassengerRepository) List(ctx context.Context) ([]domain.Passenger, error) {
	return r.query(ctx, `SELECT `+passengerColumns+` FROM passengers p ORDER BY p.created_at DESC`)
}

func (r *PGPassengerRepository) ListByFlight(ctx context.Context, flightID int64) ([]domain.Passenger, error) {
	return r.query(ctx, `SELECT DISTINCT `+passengerColumns+` FROM passengers p
		JOIN seats s ON s.passenger_id = p.id
		WHERE s.flight_id=$1
		ORDER BY p.full_name`, flightID)
}

func (r *PGPassengerRepository) ListByBooking(ctx context.Context, bookingID int64) ([]domain.Passenger, error) {
	return r.query(ctx, `SELECT DISTINCT `+passengerColumns+` FROM passengers p
		JOIN seats s ON s.passenger_id = p.id
		WHERE s.booking_id=$1
		ORDER BY p.full_name`, bookingID)
}

func (r *PGPassengerRepository) Update(ctx context.Context, p *domain.Passenger) (bool, error) {
	cmd, err := r.db.Exec(ctx, `UPDATE passengers SET full_name=$1, date_of_birth=$2, email=$3, phone=$4 WHERE id=$5`,
		p.FullName, p.DateOfBirth, p.Email, p.Phone, p.ID)
	if err != nil {
		return false, fmt.Errorf("update passenger %d: %w", p.ID, err)
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *PGPassengerRepository) Delete(ctx context.Context, id int64) (bool, error) {
	cmd, err := r.db.Exec(ctx, `DELETE FROM passengers WHERE id=$1`, id)
	if err != nil {
		return false, fmt.Errorf("delete passenger %d: %w", id, err)
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *PGPassengerRepository) query(ctx context.Context, query string, args ...any) ([]domain.Passenger, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query passengers: %w", err)
	}
	defer rows.Close()

	passengers := make([]domain.Passenger, 0)
	for rows.Next() {
		p, err := scanPassenger(rows)
		if err != nil {
			return nil, err
		}
		passengers = append(passengers, *p)
	}
	return passengers, rows.Err()
}

func scanPassenger(row pgx.Row) (*domain.Passenger, error) {
	var p domain.Passenger
	if err := row.Scan(&p.ID, &p.FullName, &p.DateOfBirth, &p.Email, &p.Phone, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

var _ PassengerRepository = (*PGPassengerRepository)(nil)
