package cli

import (
	"fmt"

	"github.com/scifier/blockchain-gateway/internal/account"
	"github.com/scifier/blockchain-gateway/internal/chain"
	"github.com/scifier/blockchain-gateway/internal/chain/btc"
	"github.com/scifier/blockchain-gateway/internal/chain/eth"
	gwerr "github.com/scifier/blockchain-gateway/pkg/errors"
)

// Offline key operations. None of these touch the network.

func generateKeypair(id chain.ID, network account.NetworkType) (chain.Keypair, error) {
	switch id {
	case chain.BTC:
		return btc.GenerateKeypair(network)
	case chain.ETH:
		return eth.GenerateKeypair()
	default:
		return chain.Keypair{}, unsupported(id)
	}
}

func keypairFromMnemonic(id chain.ID, mnemonic, passphrase string, network account.NetworkType, index uint32) (chain.Keypair, error) {
	switch id {
	case chain.BTC:
		return btc.KeypairFromMnemonic(mnemonic, passphrase, network, index)
	case chain.ETH:
		return eth.KeypairFromMnemonic(mnemonic, passphrase, index)
	default:
		return chain.Keypair{}, unsupported(id)
	}
}

// addressFromKey returns the address controlled by a private key.
func addressFromKey(id chain.ID, key string, network account.NetworkType) (string, error) {
	switch id {
	case chain.BTC:
		_, address, err := btc.DecodeWIF(key, network)
		return address, err
	case chain.ETH:
		_, address, err := eth.DecodePrivateKey(key)
		return address, err
	default:
		return "", unsupported(id)
	}
}

// validateAddress checks that address is well formed for the chain and,
// for BTC, belongs to network.
func validateAddress(id chain.ID, address string, network account.NetworkType) error {
	switch id {
	case chain.BTC:
		_, err := btc.ValidateAddress(address, network)
		return err
	case chain.ETH:
		return eth.ValidateAddress(address)
	default:
		return unsupported(id)
	}
}

func unsupported(id chain.ID) error {
	return fmt.Errorf("%w: %s", gwerr.ErrUnsupportedChain, id)
}
