package policy

// RiskLevel classifies account risk.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// AccountRiskSignals holds the raw inputs for risk evaluation,
// gathered from a user's transaction history.
type AccountRiskSignals struct {
	TransactionVelocity int `json:"transaction_velocity"` // transactions in the last hour
	FlaggedTransactions int `json:"flagged_transactions"` // rows marked suspicious
	PendingRedemptions  int `json:"pending_redemptions"`  // requested but unprocessed
	LargeAdjustments    int `json:"large_adjustments"`    // manual corrections of 1000 points or more
}

// AccountRiskResult holds the evaluated risk.
type AccountRiskResult struct {
	Level RiskLevel `json:"level"`
	Score int       `json:"score"`
	Flags []string  `json:"flags,omitempty"`
}

// EvaluateAccountRisk computes a risk score from account signals.
func EvaluateAccountRisk(signals AccountRiskSignals) AccountRiskResult {
	var score int
	var flags []string

	if signals.TransactionVelocity > 30 {
		score += 30
		flags = append(flags, "high_velocity")
	} else if signals.TransactionVelocity > 15 {
		score += 15
		flags = append(flags, "elevated_velocity")
	}

	if signals.FlaggedTransactions > 3 {
		score += 40
		flags = append(flags, "flagged_history")
	} else if signals.FlaggedTransactions > 0 {
		score += 20
		flags = append(flags, "flagged_transactions")
	}

	if signals.PendingRedemptions > 5 {
		score += 25
		flags = append(flags, "redemption_backlog")
	}

	if signals.LargeAdjustments > 0 {
		score += 15
		flags = append(flags, "large_adjustments")
	}

	level := RiskLow
	if score >= 60 {
		level = RiskHigh
	} else if score >= 30 {
		level = RiskMedium
	}

	return AccountRiskResult{Level: level, Score: score, Flags: flags}
}
