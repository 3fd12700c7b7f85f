package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PostEntryParams is the input to the atomic PostEntry operation.
//
// Amount is the signed delta recorded on the transaction row;
// BalanceDelta is the delta actually applied to the user's balance.
// The two differ for suspicious-cashier purchases (full amount
// recorded, zero credited) and redemption requests (deduction recorded,
// applied only at processing time).
type PostEntryParams struct {
	UserID       uuid.UUID
	Type         TransactionType
	Amount       int64
	BalanceDelta int64
	Spent        *decimal.Decimal
	RelatedID    *uuid.UUID
	Suspicious   bool
	Remark       string
	PromotionIDs []uuid.UUID
	CreatedBy    uuid.UUID
}

// CommandResult is the return value of single-subject ledger commands.
type CommandResult struct {
	Transaction *Transaction
	User        *User
}

// TransferResult carries both rows of a completed transfer.
type TransferResult struct {
	SenderTransaction    *Transaction
	RecipientTransaction *Transaction
	Sender               *User
	Recipient            *User
}

// AwardResult carries the outcome of an event award. Single-target
// awards produce one transaction; batch awards one per guest.
type AwardResult struct {
	Transactions []Transaction `json:"transactions"`
	Event        *Event        `json:"event"`
}

// PurchaseParams holds the input for ExecutePurchase.
type PurchaseParams struct {
	Actor        Actor
	CustomerID   uuid.UUID
	Spent        decimal.Decimal
	PromotionIDs []uuid.UUID
	Remark       string
}

// AdjustmentParams holds the input for ExecuteAdjustment.
type AdjustmentParams struct {
	Actor        Actor
	CustomerID   uuid.UUID
	Amount       int64
	RelatedID    uuid.UUID
	PromotionIDs []uuid.UUID
	Remark       string
}

// TransferParams holds the input for ExecuteTransfer. The actor is the
// sender.
type TransferParams struct {
	Actor       Actor
	RecipientID uuid.UUID
	Amount      int64
	Remark      string
}

// RedemptionRequestParams holds the input for ExecuteRedemptionRequest.
// The actor is the redeeming user.
type RedemptionRequestParams struct {
	Actor  Actor
	Amount int64
	Remark string
}

// ProcessRedemptionParams holds the input for ExecuteProcessRedemption.
type ProcessRedemptionParams struct {
	Actor         Actor
	TransactionID uuid.UUID
}

// EventAwardParams holds the input for ExecuteEventAward. A nil
// TargetUserID awards every guest of the event.
type EventAwardParams struct {
	Actor        Actor
	EventID      uuid.UUID
	Amount       int64
	TargetUserID *uuid.UUID
	Remark       string
}

// ToggleSuspiciousParams holds the input for ExecuteToggleSuspicious.
type ToggleSuspiciousParams struct {
	Actor         Actor
	TransactionID uuid.UUID
	Suspicious    bool
}
