package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleOrdering(t *testing.T) {
	assert.True(t, RoleCashier.AtLeast(RoleRegular))
	assert.True(t, RoleManager.AtLeast(RoleCashier))
	assert.True(t, RoleSuperuser.AtLeast(RoleManager))
	assert.True(t, RoleManager.AtLeast(RoleManager))
	assert.False(t, RoleRegular.AtLeast(RoleCashier))
	assert.False(t, RoleCashier.AtLeast(RoleManager))
}

func TestParseRole(t *testing.T) {
	t.Run("round trips every role", func(t *testing.T) {
		for _, r := range []Role{RoleRegular, RoleCashier, RoleManager, RoleSuperuser} {
			parsed, err := ParseRole(r.String())
			require.NoError(t, err)
			assert.Equal(t, r, parsed)
		}
	})

	t.Run("rejects unknown name", func(t *testing.T) {
		_, err := ParseRole("janitor")
		assert.Error(t, err)
	})
}

func TestBasePurchasePoints(t *testing.T) {
	cases := []struct {
		spent string
		want  int64
	}{
		{"20.00", 80},
		{"0.25", 1},
		{"1.00", 4},
		{"19.99", 80},  // rounds 79.96
		{"0.10", 0},    // rounds 0.4 down
		{"0.13", 1},    // rounds 0.52 up
	}
	for _, c := range cases {
		t.Run(c.spent, func(t *testing.T) {
			spent := decimal.RequireFromString(c.spent)
			assert.Equal(t, c.want, BasePurchasePoints(spent))
		})
	}
}

func TestPromotionBonus(t *testing.T) {
	rate := decimal.RequireFromString("0.02")
	flat := int64(25)

	t.Run("rate bonus", func(t *testing.T) {
		p := Promotion{Rate: &rate}
		// 20.00 × 100 × 0.02 = 40
		assert.Equal(t, int64(40), p.Bonus(decimal.RequireFromString("20.00")))
	})

	t.Run("flat bonus", func(t *testing.T) {
		p := Promotion{Points: &flat}
		assert.Equal(t, int64(25), p.Bonus(decimal.RequireFromString("5.00")))
	})

	t.Run("combined", func(t *testing.T) {
		p := Promotion{Rate: &rate, Points: &flat}
		assert.Equal(t, int64(65), p.Bonus(decimal.RequireFromString("20.00")))
	})

	t.Run("no rate no points", func(t *testing.T) {
		p := Promotion{}
		assert.Equal(t, int64(0), p.Bonus(decimal.RequireFromString("100.00")))
	})
}

func TestPromotionActiveAt(t *testing.T) {
	now := time.Now()
	p := Promotion{StartTime: now.Add(-time.Hour), EndTime: now.Add(time.Hour)}

	assert.True(t, p.ActiveAt(now))
	assert.True(t, p.ActiveAt(p.StartTime))
	assert.True(t, p.ActiveAt(p.EndTime))
	assert.False(t, p.ActiveAt(now.Add(-2*time.Hour)))
	assert.False(t, p.ActiveAt(now.Add(2*time.Hour)))
}

func TestPromotionMinSpendingMet(t *testing.T) {
	floor := decimal.RequireFromString("10.00")
	p := Promotion{MinSpending: &floor}

	assert.True(t, p.MinSpendingMet(decimal.RequireFromString("10.00")))
	assert.True(t, p.MinSpendingMet(decimal.RequireFromString("20.00")))
	assert.False(t, p.MinSpendingMet(decimal.RequireFromString("9.99")))

	noFloor := Promotion{}
	assert.True(t, noFloor.MinSpendingMet(decimal.Zero))
}

func TestEventBudget(t *testing.T) {
	e := Event{TotalPoints: 100, PointsAwarded: 90, EndTime: time.Now().Add(time.Hour)}
	assert.Equal(t, int64(10), e.Remaining())
	assert.False(t, e.Ended(time.Now()))

	past := Event{EndTime: time.Now().Add(-time.Minute)}
	assert.True(t, past.Ended(time.Now()))
}

func TestTransactionRedemptionHelpers(t *testing.T) {
	processedBy := uuid.New()
	tx := Transaction{Type: TxRedemption, Amount: -50}

	assert.False(t, tx.Processed())
	assert.Equal(t, int64(50), tx.RedeemedAmount())

	tx.ProcessedBy = &processedBy
	assert.True(t, tx.Processed())
}

func TestValidators(t *testing.T) {
	assert.NoError(t, ValidatePositiveAmount(1))
	assert.Error(t, ValidatePositiveAmount(0))
	assert.Error(t, ValidatePositiveAmount(-5))

	assert.NoError(t, ValidateNonZeroAmount(-5))
	assert.NoError(t, ValidateNonZeroAmount(5))
	assert.Error(t, ValidateNonZeroAmount(0))

	assert.NoError(t, ValidatePositiveSpent(decimal.RequireFromString("0.01")))
	assert.Error(t, ValidatePositiveSpent(decimal.Zero))
	assert.Error(t, ValidatePositiveSpent(decimal.RequireFromString("-1")))

	assert.NoError(t, ValidateEmail("student@campus.edu"))
	assert.Error(t, ValidateEmail(""))
	assert.Error(t, ValidateEmail("not-an-email"))
}

func TestAppError(t *testing.T) {
	err := ErrPrecondition("insufficient balance")
	assert.Equal(t, "PRECONDITION_FAILED", err.Code)
	assert.Equal(t, 412, err.Status)
	assert.Contains(t, err.Error(), "insufficient balance")

	nf := ErrNotFound("user", "abc")
	assert.Equal(t, 404, nf.Status)
	assert.Contains(t, nf.Message, "user abc")
}
