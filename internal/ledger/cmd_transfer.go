package ledger

import (
	"bytes"
	"context"
	"fmt"

	"github.com/campuspoints/platform/internal/domain"
	"github.com/campuspoints/platform/internal/repository"
	"github.com/google/uuid"
)

// ExecuteTransfer moves points from the acting user to a recipient.
// Both rows and both balance changes commit together or not at all,
// so the total points in circulation is invariant under transfer.
//
// Preconditions: the sender is verified, the amount is positive, the
// sender holds at least that many points, and the recipient exists.
func (e *Engine) ExecuteTransfer(ctx context.Context, db repository.DBTX, params domain.TransferParams) (*domain.TransferResult, error) {
	if err := domain.ValidatePositiveAmount(params.Amount); err != nil {
		return nil, err
	}
	senderID := params.Actor.ID
	if senderID == params.RecipientID {
		return nil, domain.ErrValidation("cannot transfer to self")
	}

	// Lock both rows in UUID order so concurrent opposing transfers
	// never deadlock.
	first, second := senderID, params.RecipientID
	if bytes.Compare(second[:], first[:]) < 0 {
		first, second = second, first
	}
	locked := make(map[uuid.UUID]*domain.User, 2)
	firstUser, err := e.LockUserForUpdate(ctx, db, first)
	if err != nil {
		return nil, fmt.Errorf("transfer: %w", err)
	}
	locked[first] = firstUser
	secondUser, err := e.LockUserForUpdate(ctx, db, second)
	if err != nil {
		return nil, fmt.Errorf("transfer: %w", err)
	}
	locked[second] = secondUser

	sender := locked[senderID]
	if !sender.Verified {
		return nil, domain.ErrPrecondition("sender is not verified")
	}
	if sender.Balance < params.Amount {
		return nil, domain.ErrInsufficientBalance()
	}

	recipientID := params.RecipientID
	senderEntry, updatedSender, err := e.PostEntry(ctx, db, domain.PostEntryParams{
		UserID:       senderID,
		Type:         domain.TxTransfer,
		Amount:       -params.Amount,
		BalanceDelta: -params.Amount,
		RelatedID:    &recipientID,
		Remark:       params.Remark,
		CreatedBy:    senderID,
	})
	if err != nil {
		return nil, fmt.Errorf("transfer sender post: %w", err)
	}

	recipientEntry, updatedRecipient, err := e.PostEntry(ctx, db, domain.PostEntryParams{
		UserID:       recipientID,
		Type:         domain.TxTransfer,
		Amount:       params.Amount,
		BalanceDelta: params.Amount,
		RelatedID:    &senderID,
		Remark:       params.Remark,
		CreatedBy:    senderID,
	})
	if err != nil {
		return nil, fmt.Errorf("transfer recipient post: %w", err)
	}

	return &domain.TransferResult{
		SenderTransaction:    senderEntry,
		RecipientTransaction: recipientEntry,
		Sender:               updatedSender,
		Recipient:            updatedRecipient,
	}, nil
}
