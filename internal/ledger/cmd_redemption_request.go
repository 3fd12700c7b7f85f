package ledger

import (
	"context"
	"fmt"

	"github.com/campuspoints/platform/internal/domain"
	"github.com/campuspoints/platform/internal/repository"
)

// ExecuteRedemptionRequest opens the first phase of a redemption. The
// eventual deduction is recorded as a negative amount but the balance
// is not touched; sufficiency is checked again, under lock, when a
// cashier processes the request.
func (e *Engine) ExecuteRedemptionRequest(ctx context.Context, db repository.DBTX, params domain.RedemptionRequestParams) (*domain.CommandResult, error) {
	if err := domain.ValidatePositiveAmount(params.Amount); err != nil {
		return nil, err
	}

	user, err := e.LockUserForUpdate(ctx, db, params.Actor.ID)
	if err != nil {
		return nil, fmt.Errorf("redemption request: %w", err)
	}
	if !user.Verified {
		return nil, domain.ErrPrecondition("user is not verified")
	}
	if user.Balance < params.Amount {
		return nil, domain.ErrInsufficientBalance()
	}

	entry, updatedUser, err := e.PostEntry(ctx, db, domain.PostEntryParams{
		UserID:       user.ID,
		Type:         domain.TxRedemption,
		Amount:       -params.Amount,
		BalanceDelta: 0,
		Remark:       params.Remark,
		CreatedBy:    params.Actor.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("redemption request post: %w", err)
	}

	return &domain.CommandResult{Transaction: entry, User: updatedUser}, nil
}
