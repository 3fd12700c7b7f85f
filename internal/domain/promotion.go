package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PromotionKind distinguishes always-on promotions from per-user
// single-use ones.
type PromotionKind string

const (
	PromoAutomatic PromotionKind = "automatic"
	PromoOneTime   PromotionKind = "one_time"
)

// Promotion represents a promotions row.
//
// MinSpending is a floor on the purchase currency amount; Rate is a
// fractional bonus per currency unit spent; Points is a flat bonus.
// Any of the three may be absent.
type Promotion struct {
	ID          uuid.UUID        `json:"id"`
	Name        string           `json:"name"`
	Kind        PromotionKind    `json:"kind"`
	StartTime   time.Time        `json:"start_time"`
	EndTime     time.Time        `json:"end_time"`
	MinSpending *decimal.Decimal `json:"min_spending,omitempty"`
	Rate        *decimal.Decimal `json:"rate,omitempty"`
	Points      *int64           `json:"points,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// ActiveAt reports whether the promotion's time window covers now.
func (p *Promotion) ActiveAt(now time.Time) bool {
	return !now.Before(p.StartTime) && !now.After(p.EndTime)
}

// MinSpendingMet reports whether spent satisfies the promotion's
// minimum-spend floor. A nil floor always passes.
func (p *Promotion) MinSpendingMet(spent decimal.Decimal) bool {
	return p.MinSpending == nil || spent.GreaterThanOrEqual(*p.MinSpending)
}

// Bonus computes the promotion's point bonus for a currency amount:
// the flat points plus round(spent × 100 × rate).
func (p *Promotion) Bonus(spent decimal.Decimal) int64 {
	var bonus int64
	if p.Points != nil {
		bonus += *p.Points
	}
	if p.Rate != nil {
		bonus += spent.Mul(decimal.NewFromInt(100)).Mul(*p.Rate).Round(0).IntPart()
	}
	return bonus
}

// PromotionUsage is the per-user consumption marker for one-time
// promotions. Once Used is true it never reverts.
type PromotionUsage struct {
	UserID      uuid.UUID `json:"user_id"`
	PromotionID uuid.UUID `json:"promotion_id"`
	Used        bool      `json:"used"`
}
