package ledger

import (
	"context"
	"fmt"

	"github.com/campuspoints/platform/internal/domain"
	"github.com/campuspoints/platform/internal/repository"
)

// ExecutePurchase records a purchase and credits the earned points to
// the customer. Pattern: role floor → lock → resolve promotions →
// PostEntry → consume.
//
// earned = round(spent × 4) base accrual plus the resolved promotion
// bonus. A purchase made by a suspicious cashier records the full
// earned amount for audit but credits zero, and the row itself is
// flagged suspicious.
func (e *Engine) ExecutePurchase(ctx context.Context, db repository.DBTX, params domain.PurchaseParams) (*domain.CommandResult, error) {
	if !params.Actor.Role.AtLeast(domain.RoleCashier) {
		return nil, domain.ErrForbidden("purchase requires cashier role")
	}
	if err := domain.ValidatePositiveSpent(params.Spent); err != nil {
		return nil, err
	}

	cashier, err := e.users.FindByID(ctx, db, params.Actor.ID)
	if err != nil {
		return nil, fmt.Errorf("purchase: find cashier: %w", err)
	}
	if cashier == nil {
		return nil, domain.ErrNotFound("user", params.Actor.ID.String())
	}

	customer, err := e.LockUserForUpdate(ctx, db, params.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("purchase: %w", err)
	}

	res, err := e.resolver.Resolve(ctx, db, customer.ID, params.Spent, params.PromotionIDs)
	if err != nil {
		return nil, err
	}

	earned := domain.BasePurchasePoints(params.Spent) + res.Bonus

	credited := earned
	if cashier.Suspicious {
		credited = 0
	}

	spent := params.Spent
	entry, updatedUser, err := e.PostEntry(ctx, db, domain.PostEntryParams{
		UserID:       customer.ID,
		Type:         domain.TxPurchase,
		Amount:       earned,
		BalanceDelta: credited,
		Spent:        &spent,
		Suspicious:   cashier.Suspicious,
		Remark:       params.Remark,
		PromotionIDs: res.IDs(),
		CreatedBy:    params.Actor.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("purchase post: %w", err)
	}

	if err := e.consumePromotions(ctx, db, customer.ID, res); err != nil {
		return nil, err
	}

	return &domain.CommandResult{Transaction: entry, User: updatedUser}, nil
}
