package eth

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"

	gwerr "github.com/scifier/blockchain-gateway/pkg/errors"
)

// IsValidAddress reports whether address is 0x followed by 40 hex digits.
// The checksum is not verified.
func IsValidAddress(address string) bool {
	return len(address) == 42 && strings.HasPrefix(address, "0x") && common.IsHexAddress(address)
}

// ToChecksumAddress returns the EIP-55 form of address, or address unchanged
// if it is not valid.
func ToChecksumAddress(address string) string {
	if !IsValidAddress(address) {
		return address
	}
	return common.HexToAddress(address).Hex()
}

// ValidateAddress checks the format and, for mixed-case input, the EIP-55
// checksum. All-lowercase and all-uppercase addresses carry no checksum.
func ValidateAddress(address string) error {
	if !IsValidAddress(address) {
		return gwerr.WithDetails(gwerr.ErrInvalidAddress, map[string]string{
			"address": address,
		})
	}

	digits := address[2:]
	if digits == strings.ToLower(digits) || digits == strings.ToUpper(digits) {
		return nil
	}

	if expected := ToChecksumAddress(address); address != expected {
		return gwerr.WithDetails(gwerr.ErrInvalidAddress, map[string]string{
			"reason":   "bad checksum",
			"expected": expected,
			"actual":   address,
		})
	}
	return nil
}

// NormalizeAddress validates address and returns it in checksum form.
func NormalizeAddress(address string) (common.Address, error) {
	if err := ValidateAddress(address); err != nil {
		return common.Address{}, err
	}
	return common.HexToAddress(address), nil
}
