package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AggregateType identifies the aggregate an outbox event belongs to.
type AggregateType string

const (
	AggregateLedger AggregateType = "ledger"
	AggregateUser   AggregateType = "user"
)

// EventType identifies an outbox event kind.
type EventType string

const (
	EventTransactionPosted   EventType = "transaction_posted"
	EventRedemptionProcessed EventType = "redemption_processed"
	EventSuspiciousToggled   EventType = "suspicious_toggled"
	EventUserCreated         EventType = "user_created"
)

// OutboxDraft is an event row written inside the same database
// transaction as the ledger entry it describes.
type OutboxDraft struct {
	EventID       uuid.UUID       `json:"event_id"`
	AggregateType AggregateType   `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     EventType       `json:"event_type"`
	PartitionKey  string          `json:"partition_key"`
	Headers       json.RawMessage `json:"headers"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// NewTransactionPostedEvent creates the standard ledger event for a
// committed transaction row.
func NewTransactionPostedEvent(tx *Transaction) OutboxDraft {
	payload, _ := json.Marshal(tx)
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateLedger,
		AggregateID:   tx.UserID.String(),
		EventType:     EventTransactionPosted,
		PartitionKey:  tx.UserID.String(),
		Headers:       json.RawMessage(`{}`),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}

// NewRedemptionProcessedEvent records a redemption reaching its
// terminal state.
func NewRedemptionProcessedEvent(tx *Transaction) OutboxDraft {
	payload, _ := json.Marshal(tx)
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateLedger,
		AggregateID:   tx.UserID.String(),
		EventType:     EventRedemptionProcessed,
		PartitionKey:  tx.UserID.String(),
		Headers:       json.RawMessage(`{}`),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}

// NewSuspiciousToggledEvent records a suspicious-flag reversal.
func NewSuspiciousToggledEvent(tx *Transaction, delta int64) OutboxDraft {
	payload, _ := json.Marshal(map[string]interface{}{
		"transaction_id": tx.ID.String(),
		"user_id":        tx.UserID.String(),
		"suspicious":     tx.Suspicious,
		"balance_delta":  delta,
	})
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateLedger,
		AggregateID:   tx.UserID.String(),
		EventType:     EventSuspiciousToggled,
		PartitionKey:  tx.UserID.String(),
		Headers:       json.RawMessage(`{}`),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}

// NewUserCreatedEvent creates a user lifecycle event.
func NewUserCreatedEvent(userID uuid.UUID, email string, role Role) OutboxDraft {
	payload, _ := json.Marshal(map[string]string{
		"user_id": userID.String(),
		"email":   email,
		"role":    role.String(),
	})
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateUser,
		AggregateID:   userID.String(),
		EventType:     EventUserCreated,
		PartitionKey:  userID.String(),
		Headers:       json.RawMessage(`{}`),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}
