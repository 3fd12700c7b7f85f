package ledger

import (
	"context"
	"fmt"

	"github.com/campuspoints/platform/internal/domain"
	"github.com/campuspoints/platform/internal/repository"
)

// ExecuteToggleSuspicious flips a transaction's suspicious flag and
// reverses or reapplies its balance effect exactly once. Setting the
// flag to its current value is a no-op. The reversal is computed from
// the stored amount, never recomputed from business rules, so it is
// exact regardless of how the amount was originally derived.
//
// A redemption that has not been processed contributes nothing to the
// balance yet, so toggling it moves only the flag.
func (e *Engine) ExecuteToggleSuspicious(ctx context.Context, db repository.DBTX, params domain.ToggleSuspiciousParams) (*domain.CommandResult, error) {
	if !params.Actor.Role.AtLeast(domain.RoleManager) {
		return nil, domain.ErrForbidden("toggling suspicious requires manager role")
	}

	tx, err := e.transactions.FindByID(ctx, db, params.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("toggle suspicious: find transaction: %w", err)
	}
	if tx == nil {
		return nil, domain.ErrNotFound("transaction", params.TransactionID.String())
	}

	if tx.Suspicious == params.Suspicious {
		user, err := e.users.FindByID(ctx, db, tx.UserID)
		if err != nil {
			return nil, fmt.Errorf("toggle suspicious: find user: %w", err)
		}
		return &domain.CommandResult{Transaction: tx, User: user}, nil
	}

	user, err := e.LockUserForUpdate(ctx, db, tx.UserID)
	if err != nil {
		return nil, fmt.Errorf("toggle suspicious: %w", err)
	}

	var delta int64
	if tx.Type != domain.TxRedemption || tx.ProcessedBy != nil {
		if params.Suspicious {
			delta = -tx.Amount
		} else {
			delta = tx.Amount
		}
	}

	updated, err := e.transactions.SetSuspicious(ctx, db, tx.ID, params.Suspicious)
	if err != nil {
		return nil, fmt.Errorf("toggle suspicious: %w", err)
	}
	if updated == nil {
		return nil, domain.ErrConflict(fmt.Sprintf("transaction %s mutated concurrently", tx.ID))
	}

	updatedUser := user
	if delta != 0 {
		updatedUser, err = e.users.ApplyBalanceDelta(ctx, db, user.ID, delta)
		if err != nil {
			return nil, fmt.Errorf("toggle suspicious: adjust balance: %w", err)
		}
	}

	if err := e.outbox.Insert(ctx, db, domain.NewSuspiciousToggledEvent(updated, delta)); err != nil {
		return nil, fmt.Errorf("insert outbox event: %w", err)
	}

	return &domain.CommandResult{Transaction: updated, User: updatedUser}, nil
}
