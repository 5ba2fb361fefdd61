package ctf

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// ConditionalTokenDecimals is the fixed precision of outcome tokens and of the
// USDC collateral backing them.
const ConditionalTokenDecimals = 6

// ErrInvalidAmount is returned for nil, zero or negative conversion amounts.
var ErrInvalidAmount = errors.New("amount must be greater than zero")

// ParseAmount converts a human readable token amount ("10", "2.5") into base
// units. More than ConditionalTokenDecimals fractional digits is an error.
func ParseAmount(raw string) (*big.Int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, errors.New("empty amount")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if d.Sign() <= 0 {
		return nil, fmt.Errorf("amount %q: %w", s, ErrInvalidAmount)
	}
	scaled := d.Shift(ConditionalTokenDecimals)
	if !scaled.IsInteger() {
		return nil, fmt.Errorf("amount %q has more than %d decimal places", s, ConditionalTokenDecimals)
	}
	return scaled.BigInt(), nil
}

// FormatAmount renders base units back into a decimal string.
func FormatAmount(units *big.Int) string {
	if units == nil {
		return "0"
	}
	return decimal.NewFromBigInt(units, -ConditionalTokenDecimals).String()
}

func validateAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	return nil
}
