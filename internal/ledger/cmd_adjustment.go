package ledger

import (
	"context"
	"fmt"

	"github.com/campuspoints/platform/internal/domain"
	"github.com/campuspoints/platform/internal/repository"
	"github.com/shopspring/decimal"
)

// ExecuteAdjustment credits a manager-issued correction directly to the
// customer's balance. The amount may be positive or negative but never
// zero, and the corrected transaction must exist (referential check
// only). Promotions are resolved and attached the same way purchases
// do, against a zero spending amount; the credited amount is the
// correction itself, never run through the accrual formula, and the
// suspicious-cashier suppression does not apply.
func (e *Engine) ExecuteAdjustment(ctx context.Context, db repository.DBTX, params domain.AdjustmentParams) (*domain.CommandResult, error) {
	if !params.Actor.Role.AtLeast(domain.RoleManager) {
		return nil, domain.ErrForbidden("adjustment requires manager role")
	}
	if err := domain.ValidateNonZeroAmount(params.Amount); err != nil {
		return nil, err
	}

	exists, err := e.transactions.Exists(ctx, db, params.RelatedID)
	if err != nil {
		return nil, fmt.Errorf("adjustment: check related: %w", err)
	}
	if !exists {
		return nil, domain.ErrNotFound("transaction", params.RelatedID.String())
	}

	customer, err := e.LockUserForUpdate(ctx, db, params.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("adjustment: %w", err)
	}

	res, err := e.resolver.Resolve(ctx, db, customer.ID, decimal.Zero, params.PromotionIDs)
	if err != nil {
		return nil, err
	}

	relatedID := params.RelatedID
	entry, updatedUser, err := e.PostEntry(ctx, db, domain.PostEntryParams{
		UserID:       customer.ID,
		Type:         domain.TxAdjustment,
		Amount:       params.Amount,
		BalanceDelta: params.Amount,
		RelatedID:    &relatedID,
		Remark:       params.Remark,
		PromotionIDs: res.IDs(),
		CreatedBy:    params.Actor.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("adjustment post: %w", err)
	}

	if err := e.consumePromotions(ctx, db, customer.ID, res); err != nil {
		return nil, err
	}

	return &domain.CommandResult{Transaction: entry, User: updatedUser}, nil
}
