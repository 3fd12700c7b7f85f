package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType enumerates the five ledger transaction kinds.
type TransactionType string

const (
	TxPurchase   TransactionType = "purchase"
	TxAdjustment TransactionType = "adjustment"
	TxTransfer   TransactionType = "transfer"
	TxRedemption TransactionType = "redemption"
	TxEvent      TransactionType = "event"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	switch t {
	case TxPurchase, TxAdjustment, TxTransfer, TxRedemption, TxEvent:
		return true
	}
	return false
}

// Transaction represents a transactions row. Rows are immutable once
// created except for two controlled mutations: the suspicious flag and
// the redemption processed_by stamp.
//
// Amount is the signed point delta recorded for the ledger subject.
// A transfer produces two rows, one per party, each carrying the
// counterparty's user id in RelatedID. A redemption row carries the
// eventual deduction as a negative amount; the balance is only touched
// once the redemption is processed.
type Transaction struct {
	ID           uuid.UUID        `json:"id"`
	UserID       uuid.UUID        `json:"user_id"`
	Type         TransactionType  `json:"type"`
	Amount       int64            `json:"amount"`
	Spent        *decimal.Decimal `json:"spent,omitempty"`
	RelatedID    *uuid.UUID       `json:"related_id,omitempty"`
	Suspicious   bool             `json:"suspicious"`
	Remark       string           `json:"remark,omitempty"`
	PromotionIDs []uuid.UUID      `json:"promotion_ids,omitempty"`
	CreatedBy    uuid.UUID        `json:"created_by"`
	ProcessedBy  *uuid.UUID       `json:"processed_by,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

// Processed reports whether a redemption has reached its terminal state.
func (t *Transaction) Processed() bool {
	return t.Type == TxRedemption && t.ProcessedBy != nil
}

// RedeemedAmount is the positive number of points a redemption deducts
// once processed.
func (t *Transaction) RedeemedAmount() int64 {
	if t.Amount < 0 {
		return -t.Amount
	}
	return t.Amount
}
