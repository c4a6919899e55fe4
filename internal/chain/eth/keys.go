package eth

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/scifier/blockchain-gateway/internal/account"
	"github.com/scifier/blockchain-gateway/internal/chain"
	"github.com/scifier/blockchain-gateway/internal/wallet"
	gwerr "github.com/scifier/blockchain-gateway/pkg/errors"
)

// GenerateKeypair creates a random account.
func GenerateKeypair() (chain.Keypair, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return chain.Keypair{}, fmt.Errorf("generating key: %w", err)
	}
	return keypairFor(key), nil
}

// KeypairFromMnemonic derives the account at m/44'/60'/0'/0/index. The
// path is the same on every network.
func KeypairFromMnemonic(mnemonic, passphrase string, index uint32) (chain.Keypair, error) {
	seed, err := wallet.MnemonicToSeed(mnemonic, passphrase)
	if err != nil {
		return chain.Keypair{}, err
	}
	defer wallet.ZeroBytes(seed)

	path := wallet.AddressPath(chain.ETH.DerivationPath(account.Mainnet), index)
	keyBytes, err := wallet.DerivePrivateKey(seed, path)
	if err != nil {
		return chain.Keypair{}, err
	}
	defer wallet.ZeroBytes(keyBytes)

	key, err := crypto.ToECDSA(keyBytes)
	if err != nil {
		return chain.Keypair{}, fmt.Errorf("%w: %w", gwerr.ErrInvalidKey, err)
	}
	return keypairFor(key), nil
}

func keypairFor(key *ecdsa.PrivateKey) chain.Keypair {
	return chain.Keypair{
		Address:    crypto.PubkeyToAddress(key.PublicKey).Hex(),
		PrivateKey: hexutil.Encode(crypto.FromECDSA(key)),
	}
}

// DecodePrivateKey parses a hex private key of 64 digits, with or without
// a 0x prefix, and returns it with its checksummed address.
func DecodePrivateKey(s string) (*ecdsa.PrivateKey, string, error) {
	s = strings.TrimSpace(s)
	digits := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(digits) != 64 {
		return nil, "", gwerr.WithDetails(gwerr.ErrInvalidKey, map[string]string{
			"reason": "expected 64 hex digits",
		})
	}

	raw, err := hex.DecodeString(digits)
	if err != nil {
		return nil, "", gwerr.WithDetails(gwerr.ErrInvalidKey, map[string]string{
			"reason": "not hex",
		})
	}
	defer wallet.ZeroBytes(raw)

	key, err := crypto.ToECDSA(raw)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", gwerr.ErrInvalidKey, err)
	}
	return key, crypto.PubkeyToAddress(key.PublicKey).Hex(), nil
}
