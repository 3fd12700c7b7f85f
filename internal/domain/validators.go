package domain

import (
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail checks if an email address is valid.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// ValidatePositiveAmount rejects zero or negative point amounts.
func ValidatePositiveAmount(amount int64) error {
	if amount <= 0 {
		return ErrValidation(fmt.Sprintf("amount must be positive, got %d", amount))
	}
	return nil
}

// ValidateNonZeroAmount rejects zero point amounts. Adjustments may be
// positive or negative corrections but never empty.
func ValidateNonZeroAmount(amount int64) error {
	if amount == 0 {
		return ErrValidation("amount must be non-zero")
	}
	return nil
}

// ValidatePositiveSpent rejects zero or negative currency amounts.
func ValidatePositiveSpent(spent decimal.Decimal) error {
	if spent.LessThanOrEqual(decimal.Zero) {
		return ErrValidation(fmt.Sprintf("spent amount must be positive, got %s", spent))
	}
	return nil
}
