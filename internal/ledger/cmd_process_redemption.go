package ledger

import (
	"context"
	"fmt"

	"github.com/campuspoints/platform/internal/domain"
	"github.com/campuspoints/platform/internal/repository"
)

// ExecuteProcessRedemption moves a redemption from Requested to
// Processed, the only transition the state machine has. The deduction
// deferred at request time is applied here, after re-checking balance
// sufficiency under the row lock: two requests racing over the same
// points both get created, and the second one to be processed fails
// here instead of driving the balance negative.
func (e *Engine) ExecuteProcessRedemption(ctx context.Context, db repository.DBTX, params domain.ProcessRedemptionParams) (*domain.CommandResult, error) {
	if !params.Actor.Role.AtLeast(domain.RoleCashier) {
		return nil, domain.ErrForbidden("processing redemptions requires cashier role")
	}

	tx, err := e.transactions.FindByID(ctx, db, params.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("process redemption: find transaction: %w", err)
	}
	if tx == nil {
		return nil, domain.ErrNotFound("transaction", params.TransactionID.String())
	}
	if tx.Type != domain.TxRedemption {
		return nil, domain.ErrValidation(fmt.Sprintf("transaction %s is not a redemption", tx.ID))
	}
	if tx.ProcessedBy != nil {
		return nil, domain.ErrPrecondition(fmt.Sprintf("redemption %s already processed", tx.ID))
	}

	user, err := e.LockUserForUpdate(ctx, db, tx.UserID)
	if err != nil {
		return nil, fmt.Errorf("process redemption: %w", err)
	}

	redeemed := tx.RedeemedAmount()
	if user.Balance < redeemed {
		return nil, domain.ErrInsufficientBalance()
	}

	// The guarded update loses to a concurrent processor; surface that
	// as a conflict for retry-side handling rather than deduct twice.
	stamped, err := e.transactions.MarkProcessed(ctx, db, tx.ID, params.Actor.ID)
	if err != nil {
		return nil, fmt.Errorf("process redemption: %w", err)
	}
	if stamped == nil {
		return nil, domain.ErrConflict(fmt.Sprintf("redemption %s processed concurrently", tx.ID))
	}

	updatedUser, err := e.users.ApplyBalanceDelta(ctx, db, user.ID, -redeemed)
	if err != nil {
		return nil, fmt.Errorf("process redemption: deduct: %w", err)
	}

	if err := e.outbox.Insert(ctx, db, domain.NewRedemptionProcessedEvent(stamped)); err != nil {
		return nil, fmt.Errorf("insert outbox event: %w", err)
	}

	return &domain.CommandResult{Transaction: stamped, User: updatedUser}, nil
}
