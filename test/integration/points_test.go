//go:build integration

package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/campuspoints/platform/internal/domain"
	"github.com/campuspoints/platform/test/integration/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ─── Purchase Tests ─────────────────────────────────────────────────────────

func TestPurchase_Success(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, customerID := env.RegisterUser("Customer", testutil.UniqueEmail("customer"), "securepass123")
	_, cashierID := env.RegisterUser("Cashier", "cashier@campus.edu", "securepass123")
	cashierToken := env.PromoteUser(cashierID, domain.RoleCashier, "cashier@campus.edu", "securepass123")

	resp := env.AuthPOST("/points/purchases", map[string]interface{}{
		"customer_id": customerID, "spent": 19.99, "remark": "bookstore",
	}, cashierToken)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var tx domain.Transaction
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tx))
	assert.Equal(t, domain.TxPurchase, tx.Type)
	assert.Equal(t, int64(80), tx.Amount) // round(19.99 × 4)
	assert.Equal(t, customerID, tx.UserID)
	assert.Equal(t, cashierID, tx.CreatedBy)
	assert.False(t, tx.Suspicious)

	testutil.AssertBalance(t, env, customerID, 80)
}

func TestPurchase_RegularUserForbidden(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, _ := env.RegisterUser("Regular", testutil.UniqueEmail("regular"), "securepass123")
	_, customerID := env.RegisterUser("Customer", testutil.UniqueEmail("customer"), "securepass123")

	resp := env.AuthPOST("/points/purchases", map[string]interface{}{
		"customer_id": customerID, "spent": 10.00,
	}, token)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestPurchase_NegativeSpent(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, customerID := env.RegisterUser("Customer", testutil.UniqueEmail("customer"), "securepass123")
	_, cashierID := env.RegisterUser("Cashier", "negcashier@campus.edu", "securepass123")
	cashierToken := env.PromoteUser(cashierID, domain.RoleCashier, "negcashier@campus.edu", "securepass123")

	resp := env.AuthPOST("/points/purchases", map[string]interface{}{
		"customer_id": customerID, "spent": -5.00,
	}, cashierToken)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPurchase_UnknownCustomer(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, cashierID := env.RegisterUser("Cashier", "nfcashier@campus.edu", "securepass123")
	cashierToken := env.PromoteUser(cashierID, domain.RoleCashier, "nfcashier@campus.edu", "securepass123")

	resp := env.AuthPOST("/points/purchases", map[string]interface{}{
		"customer_id": uuid.New(), "spent": 10.00,
	}, cashierToken)
	defer resp.Body.Close()

	testutil.AssertStatus(t, resp, http.StatusNotFound)
	testutil.AssertErrorCode(t, resp, "NOT_FOUND")
}

func TestPurchase_SuspiciousCashierCreditsNothing(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, customerID := env.RegisterUser("Customer", testutil.UniqueEmail("customer"), "securepass123")
	_, cashierID := env.RegisterUser("Cashier", "suscashier@campus.edu", "securepass123")
	cashierToken := env.PromoteUser(cashierID, domain.RoleCashier, "suscashier@campus.edu", "securepass123")

	_, err := env.Pool.Exec(t.Context(),
		"UPDATE users SET suspicious = true WHERE id = $1", cashierID)
	require.NoError(t, err)

	resp := env.AuthPOST("/points/purchases", map[string]interface{}{
		"customer_id": customerID, "spent": 25.00,
	}, cashierToken)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var tx domain.Transaction
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tx))
	assert.Equal(t, int64(100), tx.Amount) // full earned amount is recorded
	assert.True(t, tx.Suspicious)

	// but nothing is credited
	testutil.AssertBalance(t, env, customerID, 0)
}

func TestPurchase_EmitsOutboxEvent(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, customerID := env.RegisterUser("Customer", testutil.UniqueEmail("customer"), "securepass123")
	_, cashierID := env.RegisterUser("Cashier", "obcashier@campus.edu", "securepass123")
	cashierToken := env.PromoteUser(cashierID, domain.RoleCashier, "obcashier@campus.edu", "securepass123")

	resp := env.AuthPOST("/points/purchases", map[string]interface{}{
		"customer_id": customerID, "spent": 10.00,
	}, cashierToken)
	resp.Body.Close()

	assert.Equal(t, 1, testutil.CountOutboxEvents(t, env, customerID))
}

// ─── Balance Tests ──────────────────────────────────────────────────────────

func TestBalance_StartsAtZero(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, _ := env.RegisterUser("Zero", testutil.UniqueEmail("zero"), "securepass123")

	resp := env.AuthGET("/points/balance", token)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Balance    int64 `json:"balance"`
		Verified   bool  `json:"verified"`
		Suspicious bool  `json:"suspicious"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, int64(0), result.Balance)
	assert.False(t, result.Verified)
}

func TestBalance_ReflectsCredits(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, userID := env.RegisterUser("Credited", testutil.UniqueEmail("credited"), "securepass123")
	env.DirectCredit(userID, 350)

	resp := env.AuthGET("/points/balance", token)
	defer resp.Body.Close()

	var result struct {
		Balance int64 `json:"balance"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, int64(350), result.Balance)
}

// ─── Transfer Tests ─────────────────────────────────────────────────────────

func TestTransfer_Success(t *testing.T) {
	env := testutil.NewTestEnv(t)
	senderToken, senderID := env.RegisterUser("Sender", testutil.UniqueEmail("sender"), "securepass123")
	_, recipientID := env.RegisterUser("Recipient", testutil.UniqueEmail("recipient"), "securepass123")
	env.VerifyUser(senderID)
	env.DirectCredit(senderID, 100)

	resp := env.AuthPOST("/points/transfers", map[string]interface{}{
		"recipient_id": recipientID, "amount": 40, "remark": "lunch",
	}, senderToken)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var tx domain.Transaction
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tx))
	assert.Equal(t, domain.TxTransfer, tx.Type)
	assert.Equal(t, int64(-40), tx.Amount)
	assert.Equal(t, recipientID, *tx.RelatedID)

	testutil.AssertBalance(t, env, senderID, 60)
	testutil.AssertBalance(t, env, recipientID, 40)
}

func TestTransfer_CreatesBothRows(t *testing.T) {
	env := testutil.NewTestEnv(t)
	senderToken, senderID := env.RegisterUser("Sender", testutil.UniqueEmail("sender"), "securepass123")
	_, recipientID := env.RegisterUser("Recipient", testutil.UniqueEmail("recipient"), "securepass123")
	env.VerifyUser(senderID)
	env.DirectCredit(senderID, 100)

	resp := env.AuthPOST("/points/transfers", map[string]interface{}{
		"recipient_id": recipientID, "amount": 25,
	}, senderToken)
	resp.Body.Close()

	var amount int64
	var relatedID uuid.UUID
	err := env.Pool.QueryRow(t.Context(), `
		SELECT amount, related_id FROM transactions
		WHERE user_id = $1 AND type = 'transfer'`, recipientID).Scan(&amount, &relatedID)
	require.NoError(t, err)
	assert.Equal(t, int64(25), amount)
	assert.Equal(t, senderID, relatedID)
}

func TestTransfer_UnverifiedSender(t *testing.T) {
	env := testutil.NewTestEnv(t)
	senderToken, senderID := env.RegisterUser("Sender", testutil.UniqueEmail("sender"), "securepass123")
	_, recipientID := env.RegisterUser("Recipient", testutil.UniqueEmail("recipient"), "securepass123")
	env.DirectCredit(senderID, 100)

	resp := env.AuthPOST("/points/transfers", map[string]interface{}{
		"recipient_id": recipientID, "amount": 40,
	}, senderToken)
	defer resp.Body.Close()

	testutil.AssertStatus(t, resp, http.StatusPreconditionFailed)
	testutil.AssertErrorCode(t, resp, "PRECONDITION_FAILED")
	testutil.AssertBalance(t, env, senderID, 100)
}

func TestTransfer_InsufficientBalance(t *testing.T) {
	env := testutil.NewTestEnv(t)
	senderToken, senderID := env.RegisterUser("Sender", testutil.UniqueEmail("sender"), "securepass123")
	_, recipientID := env.RegisterUser("Recipient", testutil.UniqueEmail("recipient"), "securepass123")
	env.VerifyUser(senderID)
	env.DirectCredit(senderID, 30)

	resp := env.AuthPOST("/points/transfers", map[string]interface{}{
		"recipient_id": recipientID, "amount": 40,
	}, senderToken)
	defer resp.Body.Close()

	testutil.AssertStatus(t, resp, http.StatusPreconditionFailed)
	testutil.AssertBalance(t, env, senderID, 30)
	testutil.AssertBalance(t, env, recipientID, 0)
}

func TestTransfer_ToSelf(t *testing.T) {
	env := testutil.NewTestEnv(t)
	senderToken, senderID := env.RegisterUser("Sender", testutil.UniqueEmail("sender"), "securepass123")
	env.VerifyUser(senderID)
	env.DirectCredit(senderID, 100)

	resp := env.AuthPOST("/points/transfers", map[string]interface{}{
		"recipient_id": senderID, "amount": 10,
	}, senderToken)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// ─── Adjustment Tests ───────────────────────────────────────────────────────

func TestAdjustment_Success(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, customerID := env.RegisterUser("Customer", testutil.UniqueEmail("customer"), "securepass123")
	_, managerID := env.RegisterUser("Manager", "adjmanager@campus.edu", "securepass123")
	managerToken := env.PromoteUser(managerID, domain.RoleManager, "adjmanager@campus.edu", "securepass123")
	cashierToken := managerToken // manager clears the cashier floor too

	purchase := env.AuthPOST("/points/purchases", map[string]interface{}{
		"customer_id": customerID, "spent": 20.00,
	}, cashierToken)
	var purchaseTx domain.Transaction
	require.NoError(t, json.NewDecoder(purchase.Body).Decode(&purchaseTx))
	purchase.Body.Close()
	testutil.AssertBalance(t, env, customerID, 80)

	resp := env.AuthPOST("/points/adjustments", map[string]interface{}{
		"user_id": customerID, "amount": -30, "related_id": purchaseTx.ID, "remark": "mischarge",
	}, managerToken)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var tx domain.Transaction
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tx))
	assert.Equal(t, domain.TxAdjustment, tx.Type)
	assert.Equal(t, int64(-30), tx.Amount)
	assert.Equal(t, purchaseTx.ID, *tx.RelatedID)

	testutil.AssertBalance(t, env, customerID, 50)
}

func TestAdjustment_UnknownRelatedTransaction(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, customerID := env.RegisterUser("Customer", testutil.UniqueEmail("customer"), "securepass123")
	_, managerID := env.RegisterUser("Manager", "adjnf@campus.edu", "securepass123")
	managerToken := env.PromoteUser(managerID, domain.RoleManager, "adjnf@campus.edu", "securepass123")

	resp := env.AuthPOST("/points/adjustments", map[string]interface{}{
		"user_id": customerID, "amount": 10, "related_id": uuid.New(),
	}, managerToken)
	defer resp.Body.Close()

	testutil.AssertStatus(t, resp, http.StatusNotFound)
}

func TestAdjustment_CashierForbidden(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, customerID := env.RegisterUser("Customer", testutil.UniqueEmail("customer"), "securepass123")
	_, cashierID := env.RegisterUser("Cashier", "adjcashier@campus.edu", "securepass123")
	cashierToken := env.PromoteUser(cashierID, domain.RoleCashier, "adjcashier@campus.edu", "securepass123")

	resp := env.AuthPOST("/points/adjustments", map[string]interface{}{
		"user_id": customerID, "amount": 10, "related_id": uuid.New(),
	}, cashierToken)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

// ─── Transaction Listing Tests ──────────────────────────────────────────────

func TestTransactions_ListOwn(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, userID := env.RegisterUser("Lister", testutil.UniqueEmail("lister"), "securepass123")
	env.DirectCredit(userID, 100)
	env.DirectCredit(userID, 200)

	resp := env.AuthGET("/points/transactions", token)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Transactions []domain.Transaction `json:"transactions"`
		NextCursor   *string              `json:"next_cursor"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Len(t, result.Transactions, 2)
	assert.Nil(t, result.NextCursor)
}

func TestTransactions_Pagination(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, userID := env.RegisterUser("Paged", testutil.UniqueEmail("paged"), "securepass123")
	for i := 0; i < 5; i++ {
		env.DirectCredit(userID, 10)
	}

	resp := env.AuthGET("/points/transactions?limit=3", token)
	defer resp.Body.Close()

	var page struct {
		Transactions []domain.Transaction `json:"transactions"`
		NextCursor   *string              `json:"next_cursor"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	assert.Len(t, page.Transactions, 3)
	require.NotNil(t, page.NextCursor)

	resp2 := env.AuthGET(fmt.Sprintf("/points/transactions?limit=3&cursor=%s", *page.NextCursor), token)
	defer resp2.Body.Close()

	var page2 struct {
		Transactions []domain.Transaction `json:"transactions"`
		NextCursor   *string              `json:"next_cursor"`
	}
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&page2))
	assert.Len(t, page2.Transactions, 2)
	assert.Nil(t, page2.NextCursor)
}
