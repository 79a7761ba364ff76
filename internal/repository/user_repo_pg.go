package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository interface {
	// Create returns an error wrapping domain.ErrDuplicate when the username
	// is taken.
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, user *domain.User) (bool, error)
	Deactivate(ctx context.Context, id int64) (bool, error)
}

type PGUserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) UserRepository {
	return &PGUserRepository{db: db}
}

const userColumns = `id, username, password, full_name, email, role, is_active, created_at`

func (r *PGUserRepository) Create(ctx context.Context, u *domain.User) error {
	err := r.db.QueryRow(ctx, `INSERT INTO users (username, password, full_name, email, role, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`, u.Username, u.Password, u.FullName, u.Email, u.Role, u.IsActive).
		Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert user %s: %w", u.Username, wrapPGError(err))
	}
	return nil
}

func (r *PGUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

func (r *PGUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE username=$1`, username)
}

func (r *PGUserRepository) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *PGUserRepository) Update(ctx context.Context, u *domain.User) (bool, error) {
	cmd, err := r.db.Exec(ctx, `UPDATE users SET username=$1, password=$2, full_name=$3, email=$4, role=$5, is_active=$6 WHERE id=$7`,
		u.Username, u.Password, u.FullName, u.Email, u.Role, u.IsActive, u.ID)
	if err != nil {
		return false, fmt.Errorf("update user %d: %w", u.ID, wrapPGError(err))
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *PGUserRepository) Deactivate(ctx context.Context, id int64) (bool, error) {
	cmd, err := r.db.Exec(ctx, `UPDATE users SET is_active = FALSE WHERE id=$1`, id)
	if err != nil {
		return false, fmt.Errorf("deactivate user %d: %w", id, err)
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *PGUserRepository) get(ctx context.Context, query string, arg any) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Username, &u.Password, &u.FullName, &u.Email, &u.Role, &u.IsActive, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

var _ UserRepository = (*PGUserRepository)(nil)
