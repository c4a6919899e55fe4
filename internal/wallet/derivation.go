package wallet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tyler-smith/go-bip32"

	gwerr "github.com/scifier/blockchain-gateway/pkg/errors"
)

// AddressPath returns the BIP44 path of an external address under prefix,
// e.g. AddressPath("m/44'/0'/0'", 3) == "m/44'/0'/0'/0/3".
func AddressPath(prefix string, index uint32) string {
	return fmt.Sprintf("%s/0/%d", strings.TrimRight(prefix, "/"), index)
}

// ParsePath parses a BIP32 path such as "m/44'/60'/0'/0/0" into child
// indexes. Hardened components may use ' or h.
func ParsePath(path string) ([]uint32, error) {
	parts := strings.Split(strings.TrimSpace(path), "/")
	if len(parts) == 0 || parts[0] != "m" {
		return nil, fmt.Errorf("%w: derivation path must start with m: %q", gwerr.ErrInvalidInput, path)
	}

	indexes := make([]uint32, 0, len(parts)-1)
	for _, part := range parts[1:] {
		hardened := strings.HasSuffix(part, "'") || strings.HasSuffix(part, "h")
		if hardened {
			part = part[:len(part)-1]
		}

		n, err := strconv.ParseUint(part, 10, 32)
		if err != nil || n >= uint64(bip32.FirstHardenedChild) {
			return nil, fmt.Errorf("%w: bad path component %q in %q", gwerr.ErrInvalidInput, part, path)
		}

		index := uint32(n)
		if hardened {
			index += bip32.FirstHardenedChild
		}
		indexes = append(indexes, index)
	}
	return indexes, nil
}

// DerivePrivateKey derives the 32-byte private key at path from a BIP39 seed.
// The caller should zero the returned slice after use.
func DerivePrivateKey(seed []byte, path string) ([]byte, error) {
	indexes, err := ParsePath(path)
	if err != nil {
		return nil, err
	}

	key, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("failed to create master key: %w", err)
	}

	for _, index := range indexes {
		key, err = key.NewChildKey(index)
		if err != nil {
			return nil, fmt.Errorf("failed to derive child %d: %w", index, err)
		}
	}

	privKey := make([]byte, 32)
	copy(privKey[32-len(key.Key):], key.Key)
	return privKey, nil
}

// ZeroBytes overwrites b with zeros.
func ZeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
