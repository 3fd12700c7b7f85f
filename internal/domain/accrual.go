package domain

import "github.com/shopspring/decimal"

// BasePurchasePoints is the base accrual for a purchase: one point per
// $0.25 spent, i.e. round(spent × 4), before any promotion bonus.
func BasePurchasePoints(spent decimal.Decimal) int64 {
	return spent.Mul(decimal.NewFromInt(4)).Round(0).IntPart()
}
