package btc

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"

	"github.com/scifier/blockchain-gateway/internal/account"
	"github.com/scifier/blockchain-gateway/internal/chain"
	"github.com/scifier/blockchain-gateway/internal/wallet"
	gwerr "github.com/scifier/blockchain-gateway/pkg/errors"
)

// Params returns the btcd network parameters for a network type.
func Params(network account.NetworkType) *chaincfg.Params {
	if network.IsTestnet() {
		return &chaincfg.TestNet3Params
	}
	return &chaincfg.MainNetParams
}

// GenerateKeypair creates a random key and returns its compressed P2PKH
// address and WIF.
func GenerateKeypair(network account.NetworkType) (chain.Keypair, error) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return chain.Keypair{}, fmt.Errorf("generating key: %w", err)
	}
	return keypairFor(priv, Params(network))
}

// KeypairFromMnemonic derives the keypair at m/44'/coin'/0'/0/index.
func KeypairFromMnemonic(mnemonic, passphrase string, network account.NetworkType, index uint32) (chain.Keypair, error) {
	seed, err := wallet.MnemonicToSeed(mnemonic, passphrase)
	if err != nil {
		return chain.Keypair{}, err
	}
	defer wallet.ZeroBytes(seed)

	path := wallet.AddressPath(chain.BTC.DerivationPath(network), index)
	keyBytes, err := wallet.DerivePrivateKey(seed, path)
	if err != nil {
		return chain.Keypair{}, err
	}
	defer wallet.ZeroBytes(keyBytes)

	priv, _ := btcec.PrivKeyFromBytes(keyBytes)
	return keypairFor(priv, Params(network))
}

func keypairFor(priv *btcec.PrivateKey, params *chaincfg.Params) (chain.Keypair, error) {
	wif, err := btcutil.NewWIF(priv, params, true)
	if err != nil {
		return chain.Keypair{}, fmt.Errorf("encoding WIF: %w", err)
	}
	addr, err := p2pkhAddress(priv.PubKey(), params)
	if err != nil {
		return chain.Keypair{}, err
	}
	return chain.Keypair{Address: addr.EncodeAddress(), PrivateKey: wif.String()}, nil
}

func p2pkhAddress(pub *btcec.PublicKey, params *chaincfg.Params) (*btcutil.AddressPubKeyHash, error) {
	addr, err := btcutil.NewAddressPubKeyHash(btcutil.Hash160(pub.SerializeCompressed()), params)
	if err != nil {
		return nil, fmt.Errorf("creating P2PKH address: %w", err)
	}
	return addr, nil
}

// DecodeWIF decodes a WIF private key and checks it belongs to network.
// The returned address is the P2PKH address of the key.
func DecodeWIF(wifStr string, network account.NetworkType) (*btcutil.WIF, string, error) {
	params := Params(network)
	wif, err := btcutil.DecodeWIF(wifStr)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", gwerr.ErrInvalidKey, err)
	}
	if !wif.IsForNet(params) {
		return nil, "", gwerr.WithDetails(gwerr.ErrInvalidKey, map[string]string{
			"reason":  "key is for a different network",
			"network": network.String(),
		})
	}

	var addr btcutil.Address
	if wif.CompressPubKey {
		addr, err = p2pkhAddress(wif.PrivKey.PubKey(), params)
	} else {
		addr, err = btcutil.NewAddressPubKeyHash(btcutil.Hash160(wif.PrivKey.PubKey().SerializeUncompressed()), params)
	}
	if err != nil {
		return nil, "", err
	}
	return wif, addr.EncodeAddress(), nil
}

// ValidateAddress decodes address and checks it belongs to network.
func ValidateAddress(address string, network account.NetworkType) (btcutil.Address, error) {
	params := Params(network)
	addr, err := btcutil.DecodeAddress(address, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", gwerr.ErrInvalidAddress, address)
	}
	if !addr.IsForNet(params) {
		return nil, gwerr.WithDetails(gwerr.ErrInvalidAddress, map[string]string{
			"address": address,
			"network": network.String(),
		})
	}
	return addr, nil
}

// addressScript returns the locking script paying to address.
func addressScript(address string, network account.NetworkType) ([]byte, error) {
	addr, err := ValidateAddress(address, network)
	if err != nil {
		return nil, err
	}
	script, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", gwerr.ErrInvalidAddress, err)
	}
	return script, nil
}
