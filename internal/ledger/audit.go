package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/campuspoints/platform/internal/domain"
	"github.com/campuspoints/platform/internal/policy"
	"github.com/campuspoints/platform/internal/repository"
	"github.com/google/uuid"
)

// AuditResult holds the outcome of a ledger audit run for one user.
type AuditResult struct {
	UserID           uuid.UUID                `json:"user_id"`
	TransactionCount int                      `json:"transaction_count"`
	RecordedBalance  int64                    `json:"recorded_balance"`
	ComputedBalance  int64                    `json:"computed_balance"`
	Invariants       []InvariantCheck         `json:"invariants"`
	AllPassed        bool                     `json:"all_passed"`
	Risk             policy.AccountRiskResult `json:"risk"`
}

// InvariantCheck records a single invariant validation.
type InvariantCheck struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// AuditUser recomputes a user's balance from their transaction history
// and checks it against the stored balance row.
//
// The ledger identity: balance equals the sum of all non-suspicious
// transaction amounts, with redemptions counted only once processed.
// Suspicious rows contribute nothing: a suspicious-cashier purchase
// records the earned amount without crediting it, and a later
// suspicious flag toggle reversed the row's effect.
func (e *Engine) AuditUser(ctx context.Context, db repository.DBTX, userID uuid.UUID) (*AuditResult, error) {
	user, err := e.users.FindByID(ctx, db, userID)
	if err != nil {
		return nil, fmt.Errorf("audit: find user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound("user", userID.String())
	}

	history, err := e.transactions.ListAllByUser(ctx, db, userID)
	if err != nil {
		return nil, fmt.Errorf("audit: list history: %w", err)
	}

	computed := ComputeBalance(history)

	checks := []InvariantCheck{
		{
			Name:   "balance matches history",
			Passed: computed == user.Balance,
			Detail: fmt.Sprintf("computed %d, stored %d", computed, user.Balance),
		},
		{
			Name:   "balance non-negative",
			Passed: user.Balance >= 0,
			Detail: fmt.Sprintf("stored %d", user.Balance),
		},
	}

	allPassed := true
	for _, c := range checks {
		if !c.Passed {
			allPassed = false
		}
	}

	return &AuditResult{
		UserID:           userID,
		TransactionCount: len(history),
		RecordedBalance:  user.Balance,
		ComputedBalance:  computed,
		Invariants:       checks,
		AllPassed:        allPassed,
		Risk:             policy.EvaluateAccountRisk(riskSignals(history, time.Now())),
	}, nil
}

// riskSignals folds a history into the inputs the risk policy scores.
func riskSignals(history []domain.Transaction, now time.Time) policy.AccountRiskSignals {
	var signals policy.AccountRiskSignals
	cutoff := now.Add(-time.Hour)
	for _, tx := range history {
		if tx.CreatedAt.After(cutoff) {
			signals.TransactionVelocity++
		}
		if tx.Suspicious {
			signals.FlaggedTransactions++
		}
		if tx.Type == domain.TxRedemption && tx.ProcessedBy == nil {
			signals.PendingRedemptions++
		}
		if tx.Type == domain.TxAdjustment && (tx.Amount >= 1000 || tx.Amount <= -1000) {
			signals.LargeAdjustments++
		}
	}
	return signals
}

// ComputeBalance folds a transaction history into the balance the
// ledger identity predicts.
func ComputeBalance(history []domain.Transaction) int64 {
	var balance int64
	for _, tx := range history {
		if tx.Suspicious {
			continue
		}
		if tx.Type == domain.TxRedemption && tx.ProcessedBy == nil {
			continue
		}
		balance += tx.Amount
	}
	return balance
}
