package eth

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/scifier/blockchain-gateway/internal/account"
	"github.com/scifier/blockchain-gateway/internal/chain"
	"github.com/scifier/blockchain-gateway/internal/metrics"
	gwerr "github.com/scifier/blockchain-gateway/pkg/errors"
)

// Options configures a Network.
type Options struct {
	// ExplorerURL overrides the default explorer base.
	ExplorerURL string
	// ChainID pins the chain id. When nil it follows the current network
	// type of State.
	ChainID *big.Int
	// GasSpeed scales the suggested gas price. Defaults to medium.
	GasSpeed GasSpeed
	// Poller overrides the confirmation poller.
	Poller *chain.Poller
	Logger chain.LogWriter
}

// Network is the Ethereum adapter.
type Network struct {
	state       *account.State
	ledger      chain.AccountLedger
	explorerURL string
	chainID     *big.Int // override, nil follows the network type
	speed       GasSpeed
	nonces      *NonceManager
	poller      *chain.Poller
	key         *ecdsa.PrivateKey
}

// New creates an Ethereum adapter over ledger.
func New(network account.NetworkType, ledger chain.AccountLedger, opts *Options) *Network {
	if opts == nil {
		opts = &Options{}
	}
	n := &Network{
		state:       account.NewState(network, chain.ETH.Protocol()),
		ledger:      ledger,
		explorerURL: opts.ExplorerURL,
		chainID:     opts.ChainID,
		speed:       opts.GasSpeed,
		nonces:      NewNonceManager(),
		poller:      opts.Poller,
	}
	if n.speed == "" {
		n.speed = GasSpeedMedium
	}
	if n.poller == nil {
		n.poller = chain.NewPoller(chain.WithLogger(opts.Logger))
	}
	return n
}

// ID implements chain.Network.
func (n *Network) ID() chain.ID {
	return chain.ETH
}

// State implements chain.Network.
func (n *Network) State() *account.State {
	return n.state
}

// ChainID returns the EIP-155 chain id used for signing.
func (n *Network) ChainID() *big.Int {
	if n.chainID == nil {
		return ChainIDFor(n.state.NetworkType())
	}
	return new(big.Int).Set(n.chainID)
}

// Explorer returns links for the current network.
func (n *Network) Explorer() chain.Explorer {
	base := n.explorerURL
	if base == "" {
		base = chain.DefaultExplorer(chain.ETH, n.state.NetworkType())
	}
	return chain.NewExplorerLinks(base)
}

// GenerateKeypair creates a random account.
func (n *Network) GenerateKeypair() (chain.Keypair, error) {
	return GenerateKeypair()
}

// Connect decodes a hex private key and makes its address the active
// account.
func (n *Network) Connect(privateKey string) error {
	key, address, err := DecodePrivateKey(privateKey)
	if err != nil {
		return err
	}
	n.key = key
	n.state.SetAddress(address)
	return nil
}

// Balance returns the balance in wei. An empty address means the connected
// account.
func (n *Network) Balance(ctx context.Context, address string) (*big.Int, error) {
	address, err := n.resolve(address)
	if err != nil {
		return nil, err
	}
	return n.ledger.Balance(ctx, address)
}

// CreateTransaction assembles a legacy value transfer.
func (n *Network) CreateTransaction(ctx context.Context, req chain.SendRequest) (chain.UnsignedTx, error) {
	from, err := n.resolve(req.From)
	if err != nil {
		return nil, err
	}
	return NewAssembler(n.ledger, n.ChainID(), n.speed, n.nonces).Assemble(ctx, from, req.To, req.Amount)
}

// SignTransaction signs a transfer built by CreateTransaction with the
// connected key.
func (n *Network) SignTransaction(_ context.Context, tx chain.UnsignedTx) (*chain.SignedTx, error) {
	utx, ok := tx.(*UnsignedTx)
	if !ok || utx == nil {
		return nil, fmt.Errorf("%w: not an ethereum transaction", gwerr.ErrInvalidTransaction)
	}
	if n.key == nil {
		return nil, gwerr.ErrNotConnected
	}
	return SignTx(utx, n.key)
}

// BroadcastTransaction submits a signed transaction. Once the node accepts
// it the nonce counts as used for the sender. On failure the local nonce
// tracking of the sender is dropped.
func (n *Network) BroadcastTransaction(ctx context.Context, tx *chain.SignedTx) (string, error) {
	if tx == nil || len(tx.Raw) == 0 {
		return "", fmt.Errorf("%w: empty transaction", gwerr.ErrInvalidTransaction)
	}
	decoded, from, err := decodeSigned(tx.Raw)
	if err != nil {
		return "", err
	}
	hash, err := n.ledger.SendTransaction(ctx, tx.Raw)
	if err != nil {
		n.nonces.Reset(from.Hex())
		return "", err
	}
	n.nonces.Commit(from.Hex(), decoded.Nonce())
	metrics.Global.RecordBroadcast()
	return hash, nil
}

// TransactionStatus maps the receipt to a status: no receipt is not found,
// status 1 is one confirmation and status 0 is a rejection.
func (n *Network) TransactionStatus(ctx context.Context, hash string) (chain.TxStatus, error) {
	r, err := n.ledger.Receipt(ctx, hash)
	if errors.Is(err, gwerr.ErrTransactionNotFound) {
		return chain.TxStatus{}, nil
	}
	if err != nil {
		return chain.TxStatus{}, err
	}
	if r.Status == 0 {
		return chain.TxStatus{
			Found:    true,
			Rejected: true,
			Reason:   fmt.Sprintf("execution reverted in block %d", r.BlockNumber),
		}, nil
	}
	return chain.TxStatus{Found: true, Confirmations: 1}, nil
}

// WaitForConfirmation polls the receipt until it is available, reverted or
// the schedule runs out.
func (n *Network) WaitForConfirmation(ctx context.Context, hash string) (chain.ConfirmationState, error) {
	return n.poller.Wait(ctx, hash, func(ctx context.Context) (chain.TxStatus, error) {
		return n.TransactionStatus(ctx, hash)
	})
}

// SignMessage signs message with the connected key (EIP-191).
func (n *Network) SignMessage(message []byte) ([]byte, error) {
	if n.key == nil {
		return nil, gwerr.ErrNotConnected
	}
	return SignMessage(message, n.key)
}

// RecoverTransaction returns the sender of a signed transaction.
func (n *Network) RecoverTransaction(_ context.Context, tx *chain.SignedTx) ([]string, error) {
	from, err := RecoverSender(tx.Raw)
	if err != nil {
		return nil, err
	}
	return []string{from}, nil
}

// Close releases the ledger connection if it holds one.
func (n *Network) Close() {
	if c, ok := n.ledger.(chain.ClientCloser); ok {
		c.Close()
	}
}

func (n *Network) resolve(address string) (string, error) {
	if address == "" {
		address = n.state.Address()
	}
	if address == "" {
		return "", gwerr.ErrNotConnected
	}
	if err := ValidateAddress(address); err != nil {
		return "", err
	}
	return address, nil
}

var (
	_ chain.Network      = (*Network)(nil)
	_ chain.ClientCloser = (*Network)(nil)
)
