package transfer

import (
	"fmt"
	"math/big"
	"strings"
)

// NativeDecimals is the fixed precision of the chain's base asset
const NativeDecimals = 18

// ValidateAmount checks that an amount string is a well-formed positive
// decimal. Shape and positivity need no knowledge of the asset's precision;
// ToBaseUnits additionally enforces the fraction length.
func ValidateAmount(amount string) error {
	_, _, err := splitAmount(amount)
	return err
}

// ToBaseUnits converts a human-unit decimal string to the asset's base-unit
// integer representation. The conversion is exact: "12.345678" with 6 decimals
// becomes 12345678, and fractions longer than the asset's precision are
// rejected rather than truncated.
func ToBaseUnits(amount string, decimals uint8) (*big.Int, error) {
	whole, frac, err := splitAmount(amount)
	if err != nil {
		return nil, err
	}
	if len(frac) > int(decimals) {
		return nil, fmt.Errorf("amount %s has more than %d decimal places", amount, decimals)
	}

	// Pad the fraction out to the asset's precision and treat the whole
	// string as one integer in base units.
	padded := whole + frac + strings.Repeat("0", int(decimals)-len(frac))
	baseUnits, ok := new(big.Int).SetString(padded, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount format: %s", amount)
	}

	return baseUnits, nil
}

func splitAmount(amount string) (whole, frac string, err error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return "", "", fmt.Errorf("amount is required")
	}
	if strings.HasPrefix(amount, "-") || strings.HasPrefix(amount, "+") {
		return "", "", fmt.Errorf("invalid amount format: %s", amount)
	}

	whole = amount
	if i := strings.IndexByte(amount, '.'); i >= 0 {
		whole, frac = amount[:i], amount[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if !isDigits(whole) || (frac != "" && !isDigits(frac)) {
		return "", "", fmt.Errorf("invalid amount format: %s", amount)
	}
	if strings.Trim(whole+frac, "0") == "" {
		return "", "", fmt.Errorf("amount must be greater than 0")
	}
	return whole, frac, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
