package chain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	gwerr "github.com/scifier/blockchain-gateway/pkg/errors"
)

// Normalize scales amount by 10^exponent and truncates the result toward
// zero at decimalPlaces digits after the point, so negative amounts lose
// magnitude like positive ones. It is used to move between a chain's base
// unit and its display unit.
//
//	Normalize("0.1", 18, 18)                 == "100000000000000000"
//	Normalize("100000000000000000", -18, 18) == "0.1"
//	Normalize("0.12345678", 0, 4)            == "0.1234"
//	Normalize("-0.12345678", 0, 4)           == "-0.1234"
func Normalize(amount string, exponent, decimalPlaces int32) (string, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return "", fmt.Errorf("%w: %q", gwerr.ErrInvalidAmount, amount)
	}
	return d.Shift(exponent).Truncate(decimalPlaces).String(), nil
}

// ParseDecimalAmount parses a non-negative decimal amount into the smallest
// unit with the given decimal places. Excess precision is floored.
// For example, "1.5" with 18 decimals returns 1500000000000000000.
func ParseDecimalAmount(amount string, decimalPlaces int32) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" || strings.HasPrefix(amount, "-") {
		return nil, fmt.Errorf("%w: %q", gwerr.ErrInvalidAmount, amount)
	}

	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", gwerr.ErrInvalidAmount, amount)
	}

	return d.Shift(decimalPlaces).Floor().BigInt(), nil
}

// FormatDecimalAmount converts a smallest-unit amount to a human-readable
// string. Trailing zeros after the decimal point are removed.
// For example, 1500000000000000000 with 18 decimals returns "1.5".
func FormatDecimalAmount(amount *big.Int, decimalPlaces int32) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -decimalPlaces).String()
}
