// Package ledger implements the points ledger engine: one command per
// transaction kind, each computing a signed point delta, persisting a
// transaction record, and atomically updating the affected balances.
//
// Every command takes a repository.DBTX and must run inside a caller-
// owned database transaction (the service layer wraps commands in
// pgx.BeginTxFunc). A failed command aborts the whole transaction and
// nothing is partially applied.
package ledger

import (
	"context"
	"fmt"

	"github.com/campuspoints/platform/internal/domain"
	"github.com/campuspoints/platform/internal/promotion"
	"github.com/campuspoints/platform/internal/repository"
	"github.com/google/uuid"
)

// Engine provides the ledger operations. The foundational primitives:
//
//  1. LockUserForUpdate — row-level pessimistic lock on a balance row
//  2. PostEntry — atomic balance update + append-only insert + outbox event
//
// All commands delegate to these.
type Engine struct {
	users        repository.UserRepository
	transactions repository.TransactionRepository
	promotions   repository.PromotionRepository
	events       repository.EventRepository
	outbox       repository.OutboxRepository
	resolver     *promotion.Resolver
}

// NewEngine creates a ledger engine with the given repositories.
func NewEngine(
	users repository.UserRepository,
	transactions repository.TransactionRepository,
	promotions repository.PromotionRepository,
	events repository.EventRepository,
	outbox repository.OutboxRepository,
	resolver *promotion.Resolver,
) *Engine {
	return &Engine{
		users:        users,
		transactions: transactions,
		promotions:   promotions,
		events:       events,
		outbox:       outbox,
		resolver:     resolver,
	}
}

// LockUserForUpdate acquires a row-level lock and returns the user.
// Must be called within a transaction.
func (e *Engine) LockUserForUpdate(ctx context.Context, db repository.DBTX, userID uuid.UUID) (*domain.User, error) {
	user, err := e.users.LockForUpdate(ctx, db, userID)
	if err != nil {
		return nil, fmt.Errorf("lock user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound("user", userID.String())
	}
	return user, nil
}

// PostEntry atomically updates the subject's balance and inserts a
// ledger entry. This is the core write primitive.
//
// Steps:
//  1. Apply the balance delta using server-side arithmetic
//  2. Insert the transaction row with its promotion attachments
//  3. Insert the outbox event
//
// All 3 steps run within the caller's transaction. BalanceDelta may be
// zero (recorded-but-not-credited purchases, redemption requests).
func (e *Engine) PostEntry(ctx context.Context, db repository.DBTX, params domain.PostEntryParams) (*domain.Transaction, *domain.User, error) {
	updatedUser, err := e.users.ApplyBalanceDelta(ctx, db, params.UserID, params.BalanceDelta)
	if err != nil {
		return nil, nil, fmt.Errorf("apply balance delta: %w", err)
	}

	entry, err := e.transactions.Insert(ctx, db, params)
	if err != nil {
		return nil, nil, fmt.Errorf("insert transaction: %w", err)
	}

	// Same transaction as the ledger entry for atomicity.
	if err := e.outbox.Insert(ctx, db, domain.NewTransactionPostedEvent(entry)); err != nil {
		return nil, nil, fmt.Errorf("insert outbox event: %w", err)
	}

	return entry, updatedUser, nil
}

// consumePromotions marks every resolved one-time promotion used for
// the subject. Called only after the owning transaction row exists, so
// a failed persist never consumes anything.
func (e *Engine) consumePromotions(ctx context.Context, db repository.DBTX, userID uuid.UUID, res *promotion.Resolution) error {
	for _, id := range res.OneTimeIDs() {
		if err := e.promotions.Consume(ctx, db, userID, id); err != nil {
			return fmt.Errorf("consume promotion %s: %w", id, err)
		}
	}
	return nil
}
