package ledger

import (
	"context"
	"testing"

	"github.com/campuspoints/platform/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestTransferConservesTotal(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	sender := env.seedUser(domain.RoleRegular, 100, true)
	recipient := env.seedUser(domain.RoleRegular, 5, false)

	res, err := env.engine.ExecuteTransfer(ctx, nil, domain.TransferParams{
		Actor:       actorOf(sender),
		RecipientID: recipient.ID,
		Amount:      40,
		Remark:      "lunch split",
	})
	require.NoError(t, err)

	require.Equal(t, int64(60), res.Sender.Balance)
	require.Equal(t, int64(45), res.Recipient.Balance)
	require.Equal(t, int64(0), res.SenderTransaction.Amount+res.RecipientTransaction.Amount)

	// each row points at the counterparty
	require.Equal(t, recipient.ID, *res.SenderTransaction.RelatedID)
	require.Equal(t, sender.ID, *res.RecipientTransaction.RelatedID)
	require.Equal(t, sender.ID, res.SenderTransaction.CreatedBy)
	require.Equal(t, sender.ID, res.RecipientTransaction.CreatedBy)
}

func TestTransferUnverifiedSender(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	sender := env.seedUser(domain.RoleRegular, 100, false)
	recipient := env.seedUser(domain.RoleRegular, 0, true)

	_, err := env.engine.ExecuteTransfer(ctx, nil, domain.TransferParams{
		Actor:       actorOf(sender),
		RecipientID: recipient.ID,
		Amount:      10,
	})
	requireAppCode(t, err, "PRECONDITION_FAILED")
}

func TestTransferInsufficientBalance(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	sender := env.seedUser(domain.RoleRegular, 30, true)
	recipient := env.seedUser(domain.RoleRegular, 0, true)

	_, err := env.engine.ExecuteTransfer(ctx, nil, domain.TransferParams{
		Actor:       actorOf(sender),
		RecipientID: recipient.ID,
		Amount:      31,
	})
	requireAppCode(t, err, "PRECONDITION_FAILED")

	// nothing moved, nothing recorded
	require.Equal(t, int64(30), env.store.users[sender.ID].Balance)
	require.Empty(t, env.store.transactions)
}

func TestTransferToSelf(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	sender := env.seedUser(domain.RoleRegular, 100, true)

	_, err := env.engine.ExecuteTransfer(ctx, nil, domain.TransferParams{
		Actor:       actorOf(sender),
		RecipientID: sender.ID,
		Amount:      10,
	})
	requireAppCode(t, err, "VALIDATION_ERROR")
}

func TestTransferUnknownRecipient(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	sender := env.seedUser(domain.RoleRegular, 100, true)

	_, err := env.engine.ExecuteTransfer(ctx, nil, domain.TransferParams{
		Actor:       actorOf(sender),
		RecipientID: uuid.New(),
		Amount:      10,
	})
	requireAppCode(t, err, "NOT_FOUND")
}

func TestTransferRejectsNonPositiveAmount(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	sender := env.seedUser(domain.RoleRegular, 100, true)
	recipient := env.seedUser(domain.RoleRegular, 0, true)

	for _, amount := range []int64{0, -5} {
		_, err := env.engine.ExecuteTransfer(ctx, nil, domain.TransferParams{
			Actor:       actorOf(sender),
			RecipientID: recipient.ID,
			Amount:      amount,
		})
		requireAppCode(t, err, "VALIDATION_ERROR")
	}
}
