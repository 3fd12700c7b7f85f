// Package policy holds pure evaluation rules applied on top of the
// ledger: redemption caps and account risk scoring. Policies never
// touch the database; callers gather the inputs.
package policy

// RedemptionLimitPolicy caps how many points a user may redeem.
type RedemptionLimitPolicy struct {
	SingleRedemptionMax int64 `json:"single_redemption_max"` // points per request
	DailyRedemptionMax  int64 `json:"daily_redemption_max"`  // points per rolling day
}

// DefaultRedemptionLimits returns the platform-wide redemption caps.
func DefaultRedemptionLimits() RedemptionLimitPolicy {
	return RedemptionLimitPolicy{
		SingleRedemptionMax: 10_000,
		DailyRedemptionMax:  25_000,
	}
}

// RedemptionEvaluation holds the result of a redemption limits check.
type RedemptionEvaluation struct {
	Allowed       bool   `json:"allowed"`
	BreachedLimit string `json:"breached_limit,omitempty"`
	LimitValue    int64  `json:"limit_value,omitempty"`
	RequestedAmt  int64  `json:"requested_amount,omitempty"`
}

// EvaluateRedemptionLimits checks a redemption amount against the caps.
// dailyRedeemed is the user's running redemption total for the current
// rolling day, open requests included since they hold budget.
func EvaluateRedemptionLimits(policy RedemptionLimitPolicy, amount, dailyRedeemed int64) RedemptionEvaluation {
	if policy.SingleRedemptionMax > 0 && amount > policy.SingleRedemptionMax {
		return RedemptionEvaluation{
			Allowed:       false,
			BreachedLimit: "single_redemption",
			LimitValue:    policy.SingleRedemptionMax,
			RequestedAmt:  amount,
		}
	}

	if policy.DailyRedemptionMax > 0 && dailyRedeemed+amount > policy.DailyRedemptionMax {
		return RedemptionEvaluation{
			Allowed:       false,
			BreachedLimit: "daily_redemption",
			LimitValue:    policy.DailyRedemptionMax,
			RequestedAmt:  dailyRedeemed + amount,
		}
	}

	return RedemptionEvaluation{Allowed: true}
}
