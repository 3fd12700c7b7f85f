package repository

import (
	"context"
	"errors"

	"github.com/campuspoints/platform/internal/domain"
	"github.com/jackc/pgx/v5"
)

// PgAuthUserRepository implements AuthUserRepository using pgx.
// Credentials live apart from the balance-bearing users row; the two
// tables share the same id and are written together at registration.
type PgAuthUserRepository struct{}

// NewPgAuthUserRepository creates a new PgAuthUserRepository.
func NewPgAuthUserRepository() *PgAuthUserRepository {
	return &PgAuthUserRepository{}
}

// FindByEmail returns the credentials row for an email, or nil when
// no account exists. Login treats nil and a bad password identically
// so the response does not leak which emails are registered.
func (r *PgAuthUserRepository) FindByEmail(ctx context.Context, db DBTX, email string) (*domain.AuthUser, error) {
	row := db.QueryRow(ctx, `
		SELECT id, email, password_hash, created_at, updated_at
		FROM auth_users
		WHERE email = $1`, email)

	u := &domain.AuthUser{}
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

// Create inserts a credentials row. The unique index on email
// backstops the registration pre-check under concurrent signups.
func (r *PgAuthUserRepository) Create(ctx context.Context, db DBTX, user *domain.AuthUser) error {
	_, err := db.Exec(ctx, `
		INSERT INTO auth_users (id, email, password_hash)
		VALUES ($1, $2, $3)`,
		user.ID, user.Email, user.PasswordHash)
	return err
}
