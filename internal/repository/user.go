package repository

import (
	"context"
	"fmt"

	"github.com/campuspoints/platform/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type userRepo struct{}

// NewUserRepository returns a pgx-backed UserRepository.
func NewUserRepository() UserRepository {
	return &userRepo{}
}

const userColumns = `id, name, email, role, balance, verified, suspicious, created_at, updated_at`

func (r *userRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.User, error) {
	row := db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *userRepo) LockForUpdate(ctx context.Context, db DBTX, id uuid.UUID) (*domain.User, error) {
	row := db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id)
	return scanUser(row)
}

func (r *userRepo) Create(ctx context.Context, db DBTX, user *domain.User) error {
	_, err := db.Exec(ctx, `
		INSERT INTO users (id, name, email, role, balance, verified, suspicious)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID,
		user.Name,
		user.Email,
		int(user.Role),
		Int64ToNumeric(user.Balance),
		user.Verified,
		user.Suspicious,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *userRepo) ApplyBalanceDelta(ctx context.Context, db DBTX, id uuid.UUID, delta int64) (*domain.User, error) {
	row := db.QueryRow(ctx, `
		UPDATE users SET balance = balance + $1, updated_at = now()
		WHERE id = $2
		RETURNING `+userColumns,
		Int64ToNumeric(delta), id)
	return scanUser(row)
}

func (r *userRepo) SetFlags(ctx context.Context, db DBTX, id uuid.UUID, verified, suspicious bool) (*domain.User, error) {
	row := db.QueryRow(ctx, `
		UPDATE users SET verified = $1, suspicious = $2, updated_at = now()
		WHERE id = $3
		RETURNING `+userColumns,
		verified, suspicious, id)
	return scanUser(row)
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	var role int
	var balNum pgtype.Numeric
	err := row.Scan(&u.ID, &u.Name, &u.Email, &role, &balNum,
		&u.Verified, &u.Suspicious, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	u.Role = domain.Role(role)
	u.Balance, err = NumericToInt64(balNum)
	if err != nil {
		return nil, fmt.Errorf("convert balance: %w", err)
	}
	return &u, nil
}
