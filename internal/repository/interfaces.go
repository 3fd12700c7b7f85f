package repository

import (
	"context"
	"time"

	"github.com/campuspoints/platform/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX abstracts pgx.Tx and pgxpool.Pool so repositories work with both.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// UserRepository provides access to users.
type UserRepository interface {
	// FindByID returns a user by ID, or nil if absent.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.User, error)

	// LockForUpdate acquires a row-level lock (SELECT FOR UPDATE) and
	// returns the user. Must be called within a transaction.
	LockForUpdate(ctx context.Context, db DBTX, id uuid.UUID) (*domain.User, error)

	// Create inserts a new user.
	Create(ctx context.Context, db DBTX, user *domain.User) error

	// ApplyBalanceDelta adjusts the balance with server-side arithmetic
	// and returns the updated row.
	ApplyBalanceDelta(ctx context.Context, db DBTX, id uuid.UUID, delta int64) (*domain.User, error)

	// SetFlags updates the verified and suspicious flags.
	SetFlags(ctx context.Context, db DBTX, id uuid.UUID, verified, suspicious bool) (*domain.User, error)
}

// TransactionRepository provides access to transactions and the
// transaction_promotions join table.
type TransactionRepository interface {
	// Insert creates a new ledger entry and its promotion attachments.
	// Returns the inserted row.
	Insert(ctx context.Context, db DBTX, params domain.PostEntryParams) (*domain.Transaction, error)

	// FindByID returns a transaction with its promotion ids, or nil.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Transaction, error)

	// Exists reports whether a transaction row exists.
	Exists(ctx context.Context, db DBTX, id uuid.UUID) (bool, error)

	// ListByUser returns transactions for a user, newest first, with
	// cursor-based pagination.
	ListByUser(ctx context.Context, db DBTX, userID uuid.UUID, cursor *string, limit int) ([]domain.Transaction, error)

	// ListAllByUser returns the user's full history, oldest first.
	// Used by the ledger audit to recompute balances.
	ListAllByUser(ctx context.Context, db DBTX, userID uuid.UUID) ([]domain.Transaction, error)

	// SumRedemptionsSince returns the total points held by the user's
	// non-suspicious redemptions created after the given time, open
	// requests included. The result is positive.
	SumRedemptionsSince(ctx context.Context, db DBTX, userID uuid.UUID, since time.Time) (int64, error)

	// SetSuspicious updates the suspicious flag and returns the row.
	SetSuspicious(ctx context.Context, db DBTX, id uuid.UUID, suspicious bool) (*domain.Transaction, error)

	// MarkProcessed stamps processed_by on a redemption and returns the
	// row. Fails if already stamped.
	MarkProcessed(ctx context.Context, db DBTX, id, processorID uuid.UUID) (*domain.Transaction, error)
}

// PromotionRepository provides access to promotions and the per-user
// usage relation.
type PromotionRepository interface {
	// FindByID returns a promotion by ID, or nil.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Promotion, error)

	// ListActiveAutomatic returns automatic promotions whose window
	// covers now.
	ListActiveAutomatic(ctx context.Context, db DBTX, now time.Time) ([]domain.Promotion, error)

	// ListActive returns promotions of any kind whose window covers now.
	ListActive(ctx context.Context, db DBTX, now time.Time) ([]domain.Promotion, error)

	// Create inserts a promotion.
	Create(ctx context.Context, db DBTX, p *domain.Promotion) error

	// GetUsage returns the usage marker for (user, promotion), or nil
	// if none exists.
	GetUsage(ctx context.Context, db DBTX, userID, promotionID uuid.UUID) (*domain.PromotionUsage, error)

	// Consume marks a one-time promotion used for a user, creating the
	// usage row if absent. The marker never reverts.
	Consume(ctx context.Context, db DBTX, userID, promotionID uuid.UUID) error
}

// EventRepository provides access to events and their guest lists.
type EventRepository interface {
	// FindByID returns an event by ID, or nil.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Event, error)

	// LockForUpdate acquires a row-level lock on the event, serializing
	// budget draw-downs. Must be called within a transaction.
	LockForUpdate(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Event, error)

	// Create inserts an event with a zero awarded counter.
	Create(ctx context.Context, db DBTX, e *domain.Event) error

	// AddGuest adds a user to the guest list. Idempotent.
	AddGuest(ctx context.Context, db DBTX, eventID, userID uuid.UUID) error

	// AddOrganizer adds a user to the organizer list. Idempotent.
	AddOrganizer(ctx context.Context, db DBTX, eventID, userID uuid.UUID) error

	// IsGuest reports whether the user is a current guest.
	IsGuest(ctx context.Context, db DBTX, eventID, userID uuid.UUID) (bool, error)

	// IsOrganizer reports whether the user organizes the event.
	IsOrganizer(ctx context.Context, db DBTX, eventID, userID uuid.UUID) (bool, error)

	// ListGuestIDs returns the ids of all current guests.
	ListGuestIDs(ctx context.Context, db DBTX, eventID uuid.UUID) ([]uuid.UUID, error)

	// AddAwarded increments points_awarded and returns the updated row.
	AddAwarded(ctx context.Context, db DBTX, id uuid.UUID, points int64) (*domain.Event, error)
}

// OutboxRepository provides access to the event_outbox table.
type OutboxRepository interface {
	// Insert writes an outbox event (within the same transaction as the ledger entry).
	Insert(ctx context.Context, db DBTX, draft domain.OutboxDraft) error

	// FetchUnpublished returns unpublished events for the outbox
	// poller, oldest first.
	FetchUnpublished(ctx context.Context, db DBTX, limit int) ([]domain.OutboxDraft, error)

	// MarkPublished stamps events as published.
	MarkPublished(ctx context.Context, db DBTX, eventIDs []uuid.UUID) error
}

// AuthUserRepository provides access to auth_users.
type AuthUserRepository interface {
	// FindByEmail returns an auth user by email.
	FindByEmail(ctx context.Context, db DBTX, email string) (*domain.AuthUser, error)

	// Create inserts a new auth user.
	Create(ctx context.Context, db DBTX, user *domain.AuthUser) error
}
