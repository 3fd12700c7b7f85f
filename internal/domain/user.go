package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents a users row. The balance field is mutated only by the
// ledger engine's atomic operations; never written outside a command.
type User struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       Role      `json:"role"`
	Balance    int64     `json:"balance"`
	Verified   bool      `json:"verified"`
	Suspicious bool      `json:"suspicious"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Actor is the authenticated identity an engine command runs as,
// resolved by the authorization layer before the engine is invoked.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// AuthUser holds credentials from auth_users.
type AuthUser struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
