// Package chain provides the chain-agnostic interface definitions and common
// utilities shared by the UTXO and account adapters.
package chain

import (
	"context"
	"encoding/hex"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/scifier/blockchain-gateway/internal/account"
)

// ID represents a supported blockchain.
type ID string

// Supported blockchain identifiers.
const (
	BTC ID = "btc"
	ETH ID = "eth"
)

// BIP44 coin types for derivation paths.
const (
	CoinTypeBTC uint32 = 0
	CoinTypeETH uint32 = 60
)

// DerivationPath returns the BIP44 derivation path prefix for a chain.
// Testnet BTC uses coin type 1 as registered in SLIP-44.
func (id ID) DerivationPath(network account.NetworkType) string {
	switch id {
	case BTC:
		if network.IsTestnet() {
			return "m/44'/1'/0'"
		}
		return "m/44'/0'/0'"
	case ETH:
		return "m/44'/60'/0'"
	default:
		return ""
	}
}

// CoinType returns the BIP44 coin type for a chain.
func (id ID) CoinType() uint32 {
	switch id {
	case BTC:
		return CoinTypeBTC
	case ETH:
		return CoinTypeETH
	default:
		return 0
	}
}

// String returns the chain identifier string.
func (id ID) String() string {
	return string(id)
}

// IsValid returns true if the chain ID is a known chain.
func (id ID) IsValid() bool {
	switch id {
	case BTC, ETH:
		return true
	default:
		return false
	}
}

// Protocol returns the protocol name recorded in the account state.
func (id ID) Protocol() string {
	switch id {
	case BTC:
		return "bitcoin"
	case ETH:
		return "ethereum"
	default:
		return ""
	}
}

// Decimals returns the number of decimal places of the chain's base unit.
func (id ID) Decimals() int32 {
	switch id {
	case BTC:
		return 8
	case ETH:
		return 18
	default:
		return 0
	}
}

// DustLimit returns the minimum output value in satoshis for UTXO-based chains.
// ETH uses gas instead of dust limits, so returns 0.
func (id ID) DustLimit() uint64 {
	switch id {
	case BTC:
		return 546
	default:
		return 0
	}
}

// ParseChainID parses a string into a chain ID.
func ParseChainID(s string) (ID, bool) {
	id := ID(s)
	return id, id.IsValid()
}

// AllChains returns all known chain IDs.
func AllChains() []ID {
	return []ID{BTC, ETH}
}

// UnspentOutput is a spendable output reported by the ledger. It is never
// persisted and is only valid for the duration of one selection.
type UnspentOutput struct {
	TxID        string // Previous transaction hash, hex
	OutputIndex uint32 // Index of the output within that transaction
	Value       uint64 // Satoshis
	Script      string // Locking script, hex
}

// Keypair is a freshly generated account. PrivateKey is in the chain's
// canonical text form: WIF for BTC, 0x-prefixed hex for ETH.
type Keypair struct {
	Address    string `json:"address"`
	PrivateKey string `json:"private_key"`
}

// SignedTx is a fully signed transaction ready for broadcast.
type SignedTx struct {
	Raw  []byte
	Hash string
}

// Hex returns the raw transaction hex encoded.
func (s *SignedTx) Hex() string {
	return hex.EncodeToString(s.Raw)
}

// TxStatus is the ledger's view of a transaction at one point in time.
type TxStatus struct {
	Found         bool   // The ledger knows the transaction
	Confirmations uint64 // Blocks on top of (and including) the mining block
	Rejected      bool   // The ledger explicitly rejected it
	Reason        string // Rejection reason, if any
}

// SendRequest contains parameters for building a transaction.
type SendRequest struct {
	From   string   // Sender address, defaults to the connected account
	To     string   // Recipient address
	Amount *big.Int // Value in smallest units
}

// UnsignedTx is a chain-specific transaction awaiting a signature.
type UnsignedTx interface {
	// Chain returns the chain the transaction belongs to.
	Chain() ID
}

// Explorer builds block explorer links.
type Explorer interface {
	TransactionLink(hash string) string
	AddressLink(address string) string
	BlockLink(number uint64) string
}

// UTXOLedger is the ledger access needed by the UTXO adapter.
type UTXOLedger interface {
	// SpendableOutputs lists the unspent outputs of an address.
	SpendableOutputs(ctx context.Context, address string) ([]UnspentOutput, error)

	// RawTransaction returns the serialized previous transaction.
	RawTransaction(ctx context.Context, txID string) ([]byte, error)

	// FeeRate returns the current fee rate in satoshis per byte.
	FeeRate(ctx context.Context) (decimal.Decimal, error)

	// PushTransaction broadcasts a raw transaction and returns its hash.
	PushTransaction(ctx context.Context, raw []byte) (string, error)

	// TransactionStatus reports the confirmation state of a transaction.
	TransactionStatus(ctx context.Context, txID string) (TxStatus, error)

	// Balance returns the confirmed balance of an address in satoshis.
	Balance(ctx context.Context, address string) (*big.Int, error)
}

// CallRequest describes a value transfer for gas estimation.
type CallRequest struct {
	From  string
	To    string
	Value *big.Int
	Gas   uint64 // Upper bound for estimation, 0 for none
}

// Receipt is the mined outcome of an account-chain transaction.
type Receipt struct {
	Status      uint64 // 1 success, 0 reverted
	BlockNumber uint64
	GasUsed     uint64
}

// AccountLedger is the ledger access needed by the account adapter.
type AccountLedger interface {
	Balance(ctx context.Context, address string) (*big.Int, error)
	EstimateGas(ctx context.Context, call CallRequest) (uint64, error)
	GasPrice(ctx context.Context) (*big.Int, error)
	PendingNonce(ctx context.Context, address string) (uint64, error)
	SendTransaction(ctx context.Context, raw []byte) (string, error)

	// Receipt returns the receipt of a mined transaction, or
	// ErrTransactionNotFound while it is pending.
	Receipt(ctx context.Context, hash string) (*Receipt, error)
}

// Network is the uniform adapter surface. The set of implementations is
// closed: btc.Network and eth.Network.
type Network interface {
	// ID returns the chain identifier.
	ID() ID

	// State returns the account/network state of this adapter.
	State() *account.State

	// Explorer returns link builders for the active network.
	Explorer() Explorer

	// GenerateKeypair creates a new random account. It does not connect it.
	GenerateKeypair() (Keypair, error)

	// Connect decodes a private key and makes its address the active account.
	Connect(privateKey string) error

	// Balance returns the balance of address in the smallest unit.
	Balance(ctx context.Context, address string) (*big.Int, error)

	// CreateTransaction builds an unsigned transaction.
	CreateTransaction(ctx context.Context, req SendRequest) (UnsignedTx, error)

	// SignTransaction signs with the connected key.
	SignTransaction(ctx context.Context, tx UnsignedTx) (*SignedTx, error)

	// BroadcastTransaction submits a signed transaction and returns its hash.
	BroadcastTransaction(ctx context.Context, tx *SignedTx) (string, error)

	// TransactionStatus reports the current ledger status of a transaction.
	TransactionStatus(ctx context.Context, hash string) (TxStatus, error)

	// WaitForConfirmation polls until the transaction reaches a terminal state.
	WaitForConfirmation(ctx context.Context, hash string) (ConfirmationState, error)
}
