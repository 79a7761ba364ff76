package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FlightRepository interface {
	Create(ctx context.Context, flight *domain.Flight) error
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	List(ctx context.Context) ([]domain.Flight, error)
	Search(ctx context.Context, filter domain.FlightSearch) ([]domain.Flight, error)
	Update(ctx context.Context, flight *domain.Flight) error
	Delete(ctx context.Context, id int64) (bool, error)
	CountAvailableSeats(ctx context.Context, flightID int64) (int, error)
	CompleteArrivedBefore(ctx context.Context, deadline time.Time) ([]int64, error)
}

type PGFlightRepository struct {
	db *pgxpool.Pool
}

func NewFlightRepository(db *pgxpool.Pool) FlightRepository {
	return &PGFlightRepository{db: db}
}

const flightColumns = `id, flight_number, origin, destination, departure_time, arrival_time, total_seats, status, created_at`

func (r *PGFlightRepository) Create(ctx context.Context, flight *domain.Flight) error {
	if flight.Status == "" {
		flight.Status = domain.FlightStatusScheduled
	}
	err := r.db.QueryRow(ctx, `INSERT INTO flights (flight_number, origin, destination, departure_time, arrival_time, total_seats, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		flight.FlightNumber, flight.Origin, flight.Destination, flight.DepartureTime, flight.ArrivalTime, flight.TotalSeats, flight.Status).
		Scan(&flight.ID, &flight.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert flight: %w", wrapPGError(err))
	}
	return nil
}

func (r *PGFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	row := r.db.QueryRow(ctx, `SELECT `+flightColumns+` FROM flights WHERE id=$1`, id)
	f, err := scanFlight(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrFlightNotFound
		}
		return nil, fmt.Errorf("get flight %d: %w", id, err)
	}
	return f, nil
}

func (r *PGFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	return r.query(ctx, `SELECT `+flightColumns+` FROM flights ORDER BY departure_time DESC`)
}

func (r *PGFlightRepository) Search(ctx context.Context, filter domain.FlightSearch) ([]domain.Flight, error) {
	query, args := buildFlightSearch(filter)
	return r.query(ctx, query, args...)
}

// buildFlightSearch only ever returns SCHEDULED flights; origin and
// destination match as case-insensitive substrings, date on the calendar day
// of departure.
func buildFlightSearch(filter domain.FlightSearch) (string, []any) {
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(`SELECT ` + flightColumns + ` FROM flights WHERE status = 'SCHEDULED'`)
	if filter.Origin != "" {
		args = append(args, containsPattern(filter.Origin))
		fmt.Fprintf(&sb, ` AND origin ILIKE $%d ESCAPE '\'`, len(args))
	}
	if filter.Destination != "" {
		args = append(args, containsPattern(filter.Destination))
		fmt.Fprintf(&sb, ` AND destination ILIKE $%d ESCAPE '\'`, len(args))
	}
	if filter.Date != nil {
		args = append(args, filter.Date.Format(time.DateOnly))
		fmt.Fprintf(&sb, " AND departure_time::date = $%d::date", len(args))
	}
	sb.WriteString(" ORDER BY departure_time")
	return sb.String(), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern matches s literally anywhere in the column.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func (r *PGFlightRepository) Update(ctx context.Context, flight *domain.Flight) error {
	cmd, err := r.db.Exec(ctx, `UPDATE flights
		SET flight_number=$1, origin=$2, destination=$3, departure_time=$4, arrival_time=$5, total_seats=$6, status=$7
		WHERE id=$8`,
		flight.FlightNumber, flight.Origin, flight.Destination, flight.DepartureTime, flight.ArrivalTime, flight.TotalSeats, flight.Status, flight.ID)
	if err != nil {
		return fmt.Errorf("update flight %d: %w", flight.ID, wrapPGError(err))
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrFlightNotFound
	}
	return nil
}

func (r *PGFlightRepository) Delete(ctx context.Context, id int64) (bool, error) {
	cmd, err := r.db.Exec(ctx, `DELETE FROM flights WHERE id=$1`, id)
	if err != nil {
		return false, fmt.Errorf("delete flight %d: %w", id, err)
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *PGFlightRepository) CountAvailableSeats(ctx context.Context, flightID int64) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM seats WHERE flight_id=$1 AND is_available = TRUE`, flightID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count available seats for flight %d: %w", flightID, err)
	}
	return n, nil
}

func (r *PGFlightRepository) CompleteArrivedBefore(ctx context.Context, deadline time.Time) ([]int64, error) {
	rows, err := r.db.Query(ctx, `UPDATE flights SET status=$1
		WHERE status IN ($2, $3) AND arrival_time <= $4
		RETURNING id`, domain.FlightStatusCompleted, domain.FlightStatusScheduled, domain.FlightStatusDelayed, deadline)
	if err != nil {
		return nil, fmt.Errorf("complete arrived flights: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PGFlightRepository) query(ctx context.Context, query string, args ...any) ([]domain.Flight, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query flights: %w", err)
	}
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, err
		}
		flights = append(flights, *f)
	}
	return flights, rows.Err()
}

func scanFlight(row pgx.Row) (*domain.Flight, error) {
	var f domain.Flight
	if err := row.Scan(&f.ID, &f.FlightNumber, &f.Origin, &f.Destination, &f.DepartureTime, &f.ArrivalTime, &f.TotalSeats, &f.Status, &f.CreatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

var _ FlightRepository = (*PGFlightRepository)(nil)
