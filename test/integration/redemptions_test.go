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

func requestRedemption(t *testing.T, env *testutil.TestEnv, token string, amount int64) domain.Transaction {
	t.Helper()
	resp := env.AuthPOST("/points/redemptions", map[string]interface{}{
		"amount": amount,
	}, token)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("redemption request: expected 201, got %d", resp.StatusCode)
	}
	var tx domain.Transaction
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tx))
	return tx
}

// ─── Request Phase ──────────────────────────────────────────────────────────

func TestRedemption_RequestDoesNotDeduct(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, userID := env.RegisterUser("Redeemer", testutil.UniqueEmail("redeemer"), "securepass123")
	env.VerifyUser(userID)
	env.DirectCredit(userID, 500)

	tx := requestRedemption(t, env, token, 200)

	assert.Equal(t, domain.TxRedemption, tx.Type)
	assert.Equal(t, int64(-200), tx.Amount)
	assert.Nil(t, tx.ProcessedBy)

	// The deduction waits for the processing phase.
	testutil.AssertBalance(t, env, userID, 500)
}

func TestRedemption_RequestUnverified(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, userID := env.RegisterUser("Unverified", testutil.UniqueEmail("unverified"), "securepass123")
	env.DirectCredit(userID, 500)

	resp := env.AuthPOST("/points/redemptions", map[string]interface{}{"amount": 100}, token)
	defer resp.Body.Close()

	testutil.AssertStatus(t, resp, http.StatusPreconditionFailed)
}

func TestRedemption_RequestInsufficientBalance(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, userID := env.RegisterUser("Broke", testutil.UniqueEmail("broke"), "securepass123")
	env.VerifyUser(userID)
	env.DirectCredit(userID, 50)

	resp := env.AuthPOST("/points/redemptions", map[string]interface{}{"amount": 100}, token)
	defer resp.Body.Close()

	testutil.AssertStatus(t, resp, http.StatusPreconditionFailed)
}

func TestRedemption_RequestZeroAmount(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, userID := env.RegisterUser("Zero", testutil.UniqueEmail("zeroredeem"), "securepass123")
	env.VerifyUser(userID)

	resp := env.AuthPOST("/points/redemptions", map[string]interface{}{"amount": 0}, token)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// ─── Processing Phase ───────────────────────────────────────────────────────

func TestRedemption_ProcessDeducts(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, userID := env.RegisterUser("Redeemer", testutil.UniqueEmail("redeemer"), "securepass123")
	env.VerifyUser(userID)
	env.DirectCredit(userID, 500)
	_, cashierID := env.RegisterUser("Cashier", "redcashier@campus.edu", "securepass123")
	cashierToken := env.PromoteUser(cashierID, domain.RoleCashier, "redcashier@campus.edu", "securepass123")

	tx := requestRedemption(t, env, token, 200)

	resp := env.AuthPOST(fmt.Sprintf("/points/redemptions/%s/process", tx.ID), nil, cashierToken)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var processed domain.Transaction
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&processed))
	require.NotNil(t, processed.ProcessedBy)
	assert.Equal(t, cashierID, *processed.ProcessedBy)

	testutil.AssertBalance(t, env, userID, 300)
}

func TestRedemption_ProcessTwice(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, userID := env.RegisterUser("Redeemer", testutil.UniqueEmail("redeemer"), "securepass123")
	env.VerifyUser(userID)
	env.DirectCredit(userID, 500)
	_, cashierID := env.RegisterUser("Cashier", "twicecashier@campus.edu", "securepass123")
	cashierToken := env.PromoteUser(cashierID, domain.RoleCashier, "twicecashier@campus.edu", "securepass123")

	tx := requestRedemption(t, env, token, 200)

	first := env.AuthPOST(fmt.Sprintf("/points/redemptions/%s/process", tx.ID), nil, cashierToken)
	first.Body.Close()

	second := env.AuthPOST(fmt.Sprintf("/points/redemptions/%s/process", tx.ID), nil, cashierToken)
	defer second.Body.Close()

	testutil.AssertStatus(t, second, http.StatusPreconditionFailed)
	testutil.AssertBalance(t, env, userID, 300) // deducted exactly once
}

func TestRedemption_ProcessRacingRequests(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, userID := env.RegisterUser("Racer", testutil.UniqueEmail("racer"), "securepass123")
	env.VerifyUser(userID)
	env.DirectCredit(userID, 300)
	_, cashierID := env.RegisterUser("Cashier", "racecashier@campus.edu", "securepass123")
	cashierToken := env.PromoteUser(cashierID, domain.RoleCashier, "racecashier@campus.edu", "securepass123")

	// Both requests clear the optimistic check at request time...
	first := requestRedemption(t, env, token, 200)
	second := requestRedemption(t, env, token, 200)

	resp1 := env.AuthPOST(fmt.Sprintf("/points/redemptions/%s/process", first.ID), nil, cashierToken)
	resp1.Body.Close()
	assert.Equal(t, http.StatusOK, resp1.StatusCode)

	// ...but only one survives the re-check under lock.
	resp2 := env.AuthPOST(fmt.Sprintf("/points/redemptions/%s/process", second.ID), nil, cashierToken)
	defer resp2.Body.Close()
	testutil.AssertStatus(t, resp2, http.StatusPreconditionFailed)

	testutil.AssertBalance(t, env, userID, 100)
}

func TestRedemption_ProcessNonRedemption(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, customerID := env.RegisterUser("Customer", testutil.UniqueEmail("customer"), "securepass123")
	_, cashierID := env.RegisterUser("Cashier", "wrongtype@campus.edu", "securepass123")
	cashierToken := env.PromoteUser(cashierID, domain.RoleCashier, "wrongtype@campus.edu", "securepass123")

	purchase := env.AuthPOST("/points/purchases", map[string]interface{}{
		"customer_id": customerID, "spent": 10.00,
	}, cashierToken)
	var purchaseTx domain.Transaction
	require.NoError(t, json.NewDecoder(purchase.Body).Decode(&purchaseTx))
	purchase.Body.Close()

	resp := env.AuthPOST(fmt.Sprintf("/points/redemptions/%s/process", purchaseTx.ID), nil, cashierToken)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRedemption_ProcessUnknownTransaction(t *testing.T) {
	env := testutil.NewTestEnv(t)
	_, cashierID := env.RegisterUser("Cashier", "nfprocess@campus.edu", "securepass123")
	cashierToken := env.PromoteUser(cashierID, domain.RoleCashier, "nfprocess@campus.edu", "securepass123")

	resp := env.AuthPOST(fmt.Sprintf("/points/redemptions/%s/process", uuid.New()), nil, cashierToken)
	defer resp.Body.Close()

	testutil.AssertStatus(t, resp, http.StatusNotFound)
}

func TestRedemption_RegularUserCannotProcess(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, userID := env.RegisterUser("Redeemer", testutil.UniqueEmail("redeemer"), "securepass123")
	env.VerifyUser(userID)
	env.DirectCredit(userID, 500)

	tx := requestRedemption(t, env, token, 100)

	// Requesting your own redemption does not let you process it.
	resp := env.AuthPOST(fmt.Sprintf("/points/redemptions/%s/process", tx.ID), nil, token)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

// ─── Redemption Caps ────────────────────────────────────────────────────────

func TestRedemption_SingleRequestCap(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, userID := env.RegisterUser("Whale", testutil.UniqueEmail("whale"), "securepass123")
	env.VerifyUser(userID)
	env.DirectCredit(userID, 30_000)

	resp := env.AuthPOST("/points/redemptions", map[string]interface{}{
		"amount": 10_001,
	}, token)
	defer resp.Body.Close()

	testutil.AssertStatus(t, resp, http.StatusPreconditionFailed)
	testutil.AssertErrorCode(t, resp, "PRECONDITION_FAILED")
}

func TestRedemption_DailyCap(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, userID := env.RegisterUser("Daily Whale", testutil.UniqueEmail("dailywhale"), "securepass123")
	env.VerifyUser(userID)
	env.DirectCredit(userID, 40_000)

	// Two requests at the single cap leave 5_000 of daily headroom.
	requestRedemption(t, env, token, 10_000)
	requestRedemption(t, env, token, 10_000)

	resp := env.AuthPOST("/points/redemptions", map[string]interface{}{
		"amount": 6_000,
	}, token)
	defer resp.Body.Close()

	testutil.AssertStatus(t, resp, http.StatusPreconditionFailed)
}

func TestRedemption_UnderCapsSucceeds(t *testing.T) {
	env := testutil.NewTestEnv(t)
	token, userID := env.RegisterUser("Moderate", testutil.UniqueEmail("moderate"), "securepass123")
	env.VerifyUser(userID)
	env.DirectCredit(userID, 30_000)

	requestRedemption(t, env, token, 10_000)
	requestRedemption(t, env, token, 10_000)
	requestRedemption(t, env, token, 5_000)
}
