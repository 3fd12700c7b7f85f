package projection

import (
	"context"
	"fmt"
	"time"
)

// BalanceProjection is a per-user balance read model folded from
// ledger events. A projection may lag the primary database; it is
// never consulted by the ledger itself.
type BalanceProjection struct {
	UserID           string `json:"user_id"`
	Balance          int64  `json:"balance"`
	TransactionCount int64  `json:"transaction_count"`
	UpdatedAt        string `json:"updated_at"`
}

func balanceKey(userID string) string {
	return fmt.Sprintf("projection:balance:%s", userID)
}

// ApplyAmount folds one credited or deducted amount into the user's
// projection and returns the updated state. A missing projection
// starts from zero.
func ApplyAmount(ctx context.Context, store Store, userID string, amount int64) (BalanceProjection, error) {
	p, err := GetBalance(ctx, store, userID)
	if err != nil {
		p = &BalanceProjection{UserID: userID}
	}

	p.Balance += amount
	p.TransactionCount++
	p.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	if err := SetJSON(ctx, store, balanceKey(userID), p, 0); err != nil {
		return BalanceProjection{}, err
	}
	return *p, nil
}

// GetBalance retrieves a user's balance projection.
func GetBalance(ctx context.Context, store Store, userID string) (*BalanceProjection, error) {
	var p BalanceProjection
	if err := GetJSON(ctx, store, balanceKey(userID), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// InvalidateBalance removes a user's projection. Used when an event
// cannot be folded incrementally, such as a suspicious flag toggle
// reversing an earlier row; the projection rebuilds from later events.
func InvalidateBalance(ctx context.Context, store Store, userID string) error {
	return store.Delete(ctx, balanceKey(userID))
}
