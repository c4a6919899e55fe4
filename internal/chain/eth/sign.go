package eth

import (
	"crypto/ecdsa"
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/sha3"

	"github.com/scifier/blockchain-gateway/internal/chain"
	gwerr "github.com/scifier/blockchain-gateway/pkg/errors"
)

// SignTx signs u with key using EIP-155 replay protection. The key must
// belong to the sender.
func SignTx(u *UnsignedTx, key *ecdsa.PrivateKey) (*chain.SignedTx, error) {
	if signer := crypto.PubkeyToAddress(key.PublicKey); signer != u.From {
		return nil, gwerr.WithDetails(gwerr.ErrSigning, map[string]string{
			"reason": "key does not match sender",
			"from":   u.From.Hex(),
			"key":    signer.Hex(),
		})
	}

	signed, err := types.SignTx(u.Transaction(), types.NewEIP155Signer(u.ChainID), key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", gwerr.ErrSigning, err)
	}
	raw, err := signed.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("%w: encoding: %w", gwerr.ErrSigning, err)
	}
	return &chain.SignedTx{Raw: raw, Hash: signed.Hash().Hex()}, nil
}

// RecoverSender returns the checksummed sender of a signed raw transaction.
func RecoverSender(raw []byte) (string, error) {
	_, from, err := decodeSigned(raw)
	if err != nil {
		return "", err
	}
	return from.Hex(), nil
}

func decodeSigned(raw []byte) (*types.Transaction, common.Address, error) {
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return nil, common.Address{}, fmt.Errorf("%w: %w", gwerr.ErrInvalidTransaction, err)
	}
	from, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("%w: %w", gwerr.ErrInvalidTransaction, err)
	}
	return tx, from, nil
}

// HashMessage hashes a message according to EIP-191 personal_sign.
func HashMessage(message []byte) []byte {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write([]byte("\x19Ethereum Signed Message:\n" + strconv.Itoa(len(message))))
	hasher.Write(message)
	return hasher.Sum(nil)
}

// SignMessage returns the 65-byte personal_sign signature of message, with
// the recovery id in the 27/28 form wallets expect.
func SignMessage(message []byte, key *ecdsa.PrivateKey) ([]byte, error) {
	sig, err := crypto.Sign(HashMessage(message), key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", gwerr.ErrSigning, err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

// RecoverMessage returns the checksummed address that produced sig over
// message. Recovery ids 0/1 and 27/28 are both accepted.
func RecoverMessage(message, sig []byte) (string, error) {
	if len(sig) != crypto.SignatureLength {
		return "", gwerr.WithDetails(gwerr.ErrInvalidInput, map[string]string{
			"reason": "signature must be 65 bytes",
		})
	}

	normalized := make([]byte, len(sig))
	copy(normalized, sig)
	if normalized[crypto.RecoveryIDOffset] >= 27 {
		normalized[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(HashMessage(message), normalized)
	if err != nil {
		return "", fmt.Errorf("%w: %w", gwerr.ErrInvalidInput, err)
	}
	return crypto.PubkeyToAddress(*pub).Hex(), nil
}
