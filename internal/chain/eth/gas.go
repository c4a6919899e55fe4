package eth

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	gwerr "github.com/scifier/blockchain-gateway/pkg/errors"
)

// GasSpeed scales the node's suggested gas price.
type GasSpeed string

const (
	// GasSpeedSlow pays 20% below the suggested price.
	GasSpeedSlow GasSpeed = "slow"
	// GasSpeedMedium pays the suggested price.
	GasSpeedMedium GasSpeed = "medium"
	// GasSpeedFast pays 20% above the suggested price.
	GasSpeedFast GasSpeed = "fast"

	// GasLimitTransfer is the intrinsic gas of a plain value transfer.
	GasLimitTransfer uint64 = 21000

	// GasEstimateCap bounds gas estimation for a transfer.
	GasEstimateCap uint64 = 30000
)

//nolint:gochecknoglobals // fixed multipliers
var (
	slowMultiplier = decimal.RequireFromString("0.8")
	fastMultiplier = decimal.RequireFromString("1.2")
)

// ParseGasSpeed parses a speed name. Empty means medium.
func ParseGasSpeed(s string) (GasSpeed, error) {
	switch GasSpeed(strings.ToLower(strings.TrimSpace(s))) {
	case GasSpeedSlow:
		return GasSpeedSlow, nil
	case "", GasSpeedMedium:
		return GasSpeedMedium, nil
	case GasSpeedFast:
		return GasSpeedFast, nil
	default:
		return "", gwerr.WithDetails(gwerr.ErrInvalidInput, map[string]string{
			"speed":   s,
			"allowed": "slow, medium, or fast",
		})
	}
}

// Apply scales a suggested price for the speed, flooring to whole wei.
func (s GasSpeed) Apply(suggested *big.Int) *big.Int {
	if suggested == nil {
		return nil
	}
	switch s {
	case GasSpeedSlow:
		return scale(suggested, slowMultiplier)
	case GasSpeedFast:
		return scale(suggested, fastMultiplier)
	default:
		return new(big.Int).Set(suggested)
	}
}

func scale(n *big.Int, m decimal.Decimal) *big.Int {
	return decimal.NewFromBigInt(n, 0).Mul(m).Floor().BigInt()
}

// Fee returns gas * gasPrice.
func Fee(gas uint64, gasPrice *big.Int) *big.Int {
	if gasPrice == nil {
		return new(big.Int)
	}
	return new(big.Int).Mul(new(big.Int).SetUint64(gas), gasPrice)
}

// FormatGasPrice formats a wei price as Gwei with two decimals.
func FormatGasPrice(weiPrice *big.Int) string {
	if weiPrice == nil {
		return "0.00 Gwei"
	}
	return decimal.NewFromBigInt(weiPrice, -9).StringFixed(2) + " Gwei"
}
