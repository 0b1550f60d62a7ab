package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/KLAI0I/icu-nurse-dashboard/internal/domain"
	"github.com/KLAI0I/icu-nurse-dashboard/internal/persistence"
)

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (email, password_hash, role, staff_id, is_active)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at`

	err := persistence.Conn(ctx, r.pool).QueryRow(ctx, query,
		strings.ToLower(user.Email),
		user.PasswordHash,
		user.Role,
		user.StaffID,
		user.IsActive,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if persistence.IsUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET email=$1, password_hash=$2, role=$3, staff_id=$4, is_active=$5, updated_at=NOW()
        WHERE id=$6
        RETURNING updated_at`

	err := persistence.Conn(ctx, r.pool).QueryRow(ctx, query,
		strings.ToLower(user.Email),
		user.PasswordHash,
		user.Role,
		user.StaffID,
		user.IsActive,
		user.ID,
	).Scan(&user.UpdatedAt)
	if persistence.IsUniqueViolation(err) {
		return ErrConflict
	}
	return mapNoRows(err)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	const query = `
        SELECT id, email, password_hash, role, staff_id, is_active, created_at, updated_at
        FROM users WHERE id=$1`
	return scanUser(persistence.Conn(ctx, r.pool).QueryRow(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = `
        SELECT id, email, password_hash, role, staff_id, is_active, created_at, updated_at
        FROM users WHERE email=$1`
	return scanUser(persistence.Conn(ctx, r.pool).QueryRow(ctx, query, strings.ToLower(email)))
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	const query = `
        SELECT id, email, password_hash, role, staff_id, is_active, created_at, updated_at
        FROM users ORDER BY created_at DESC`
	rows, err := persistence.Conn(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *user)
	}
	return result, rows.Err()
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.StaffID,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, mapNoRows(err)
	}
	return &user, nil
}
