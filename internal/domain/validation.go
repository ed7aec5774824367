package domain

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidCurrency = errors.New("invalid currency code")
	ErrAmountTooLarge  = errors.New("amount exceeds maximum allowed")
	ErrInvalidBalance  = errors.New("invalid balance")
)

// Validation constants
const (
	// MoneyScale is the number of fractional digits of every amount and balance.
	MoneyScale         = 2
	MaxAccountIDLength = 64
	MaxTransferAmount  = "1000000000000" // 1 trillion
)

var maxTransferAmount = decimal.RequireFromString(MaxTransferAmount)

// Valid currency codes (ISO 4217)
var validCurrencies = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "JPY": true,
	"CNY": true, "AUD": true, "CAD": true, "CHF": true,
	"SEK": true, "NZD": true, "KRW": true, "SGD": true,
	"NOK": true, "MXN": true, "INR": true, "BRL": true,
	"ZAR": true, "PLN": true, "TRY": true, "HKD": true,
	"DKK": true, "CZK": true, "HUF": true, "RON": true,
}

// NormalizeCurrency upper-cases and trims a currency code.
func NormalizeCurrency(currency string) string {
	return strings.ToUpper(strings.TrimSpace(currency))
}

// ValidateCurrency validates a normalized currency code.
func ValidateCurrency(currency string) error {
	if len(currency) != 3 || !validCurrencies[currency] {
		return fmt.Errorf("%w: %q is not a supported ISO 4217 currency code", ErrInvalidCurrency, currency)
	}

	return nil
}

// ValidateOperationID checks that id is a UUID.
func ValidateOperationID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: operation ID is required", ErrInvalidOperationID)
	}

	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidOperationID, err)
	}

	return nil
}

// ValidateAccountID checks that id is non-empty, bounded and free of whitespace.
func ValidateAccountID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: account ID is required", ErrInvalidAccountID)
	}

	if len(id) > MaxAccountIDLength {
		return fmt.Errorf("%w: exceeds %d characters", ErrInvalidAccountID, MaxAccountIDLength)
	}

	for _, r := range id {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return fmt.Errorf("%w: contains whitespace", ErrInvalidAccountID)
		}
	}

	return nil
}

// Scale returns the number of fractional digits d was written with.
func Scale(d decimal.Decimal) int32 {
	if d.Exponent() >= 0 {
		return 0
	}
	return -d.Exponent()
}

// ValidateAmount checks that amount is positive, bounded and has exactly
// MoneyScale fractional digits.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	}

	if Scale(amount) != MoneyScale {
		return fmt.Errorf("%w: amount must have exactly %d digits after the decimal point", ErrInvalidAmount, MoneyScale)
	}

	if amount.GreaterThan(maxTransferAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxTransferAmount)
	}

	return nil
}

// ValidateBalance checks an opening balance: non-negative with at most
// MoneyScale fractional digits.
func ValidateBalance(balance decimal.Decimal) error {
	if balance.IsNegative() {
		return fmt.Errorf("%w: balance cannot be negative", ErrInvalidBalance)
	}

	if Scale(balance) > MoneyScale {
		return fmt.Errorf("%w: balance cannot have more than %d digits after the decimal point", ErrInvalidBalance, MoneyScale)
	}

	return nil
}
