package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// MinAmount is the smallest amount any operation accepts.
var MinAmount = decimal.NewFromInt(1)

const MinPasswordLength = 8

// MaxAmountLength bounds the raw amount text. Amounts are plain decimals;
// exponent notation is rejected so a short input cannot expand.
const MaxAmountLength = 64

// Error is a client-side validation failure on a single form field.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &Error{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ValidateAddress validates an address for the given network. Toronet
// addresses share the Ethereum hex format; an empty network means Toronet.
func ValidateAddress(address string, network string) error {
	if strings.TrimSpace(address) == "" {
		return invalid("address", "address cannot be empty")
	}

	switch strings.ToLower(network) {
	case "", "toronet", "ethereum":
		if !strings.HasPrefix(strings.ToLower(address), "0x") || !common.IsHexAddress(address) {
			return invalid("address", "invalid %s address format", networkName(network))
		}
	default:
		return invalid("address", "unsupported network %q", network)
	}

	return nil
}

func networkName(network string) string {
	switch strings.ToLower(network) {
	case "ethereum":
		return "Ethereum"
	}
	return "Toronet"
}

// ParseAmount parses a user-supplied decimal string and enforces the
// minimum amount. The value is not rounded.
func ParseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, invalid("amount", "amount is required")
	}
	if len(raw) > MaxAmountLength || strings.ContainsAny(raw, "eE") {
		return decimal.Zero, invalid("amount", "amount must be a number")
	}

	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, invalid("amount", "amount must be a number")
	}

	if err := ValidateAmount(amount); err != nil {
		return decimal.Zero, err
	}
	return amount, nil
}

// ValidateAmount checks the amount floor.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThan(MinAmount) {
		return invalid("amount", "amount must be at least %s", MinAmount)
	}
	return nil
}

// ValidatePassword applies the registration policy.
func ValidatePassword(password, confirm string) error {
	if len(password) < MinPasswordLength {
		return invalid("password", "password must be at least %d characters", MinPasswordLength)
	}

	var upper, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}

	if !special {
		return invalid("password", "password must contain a special character")
	}
	if !digit {
		return invalid("password", "password must contain a number")
	}
	if !upper {
		return invalid("password", "password must contain a capital letter")
	}
	if password != confirm {
		return invalid("confirm", "passwords do not match")
	}
	return nil
}
