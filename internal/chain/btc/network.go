package btc

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/shopspring/decimal"

	"github.com/scifier/blockchain-gateway/internal/account"
	"github.com/scifier/blockchain-gateway/internal/chain"
	"github.com/scifier/blockchain-gateway/internal/metrics"
	gwerr "github.com/scifier/blockchain-gateway/pkg/errors"
)

// DefaultFeeRate is the fallback rate in satoshis per byte.
const DefaultFeeRate = 10

// Options configures a Network.
type Options struct {
	// Ledger is the chain data source. Defaults to a BlockCypher client.
	Ledger chain.UTXOLedger
	// ExplorerURL overrides the default explorer base.
	ExplorerURL string
	// DefaultFeeRate is used when the ledger cannot report one.
	DefaultFeeRate decimal.Decimal
	// Dust is the change threshold; MinSpend the smallest payment.
	// Both default to the chain dust limit.
	Dust     uint64
	MinSpend uint64
	// Poller overrides the confirmation poller.
	Poller *chain.Poller
	Logger chain.LogWriter
}

// decoder is implemented by ledgers that can decode raw transactions.
type decoder interface {
	DecodeTransaction(ctx context.Context, raw []byte) ([]string, error)
}

// networkSwitcher is implemented by ledgers that can serve another network
// type.
type networkSwitcher interface {
	ForNetwork(network account.NetworkType) chain.UTXOLedger
}

// Network is the Bitcoin adapter.
type Network struct {
	state       *account.State
	mu          sync.Mutex
	ledger      chain.UTXOLedger
	ledgerNet   account.NetworkType
	explorerURL string
	selector    *Selector
	feeRate     decimal.Decimal
	poller      *chain.Poller
	logger      chain.LogWriter
	key         *btcec.PrivateKey
}

// New creates a Bitcoin adapter for network.
func New(network account.NetworkType, opts *Options) *Network {
	if opts == nil {
		opts = &Options{}
	}
	n := &Network{
		state:       account.NewState(network, chain.BTC.Protocol()),
		ledger:      opts.Ledger,
		ledgerNet:   network,
		explorerURL: opts.ExplorerURL,
		selector:    NewSelector(chain.BTC.DustLimit()),
		feeRate:     opts.DefaultFeeRate,
		poller:      opts.Poller,
		logger:      opts.Logger,
	}
	if n.ledger == nil {
		n.ledger = NewClient(network, nil)
	}
	if opts.Dust > 0 {
		n.selector.Dust = opts.Dust
	}
	if opts.MinSpend > 0 {
		n.selector.MinSpend = opts.MinSpend
	}
	if !n.feeRate.IsPositive() {
		n.feeRate = decimal.NewFromInt(DefaultFeeRate)
	}
	if n.poller == nil {
		n.poller = chain.NewPoller(chain.WithLogger(opts.Logger))
	}
	return n
}

// ID implements chain.Network.
func (n *Network) ID() chain.ID {
	return chain.BTC
}

// State implements chain.Network.
func (n *Network) State() *account.State {
	return n.state
}

// Explorer returns links for the current network.
func (n *Network) Explorer() chain.Explorer {
	base := n.explorerURL
	if base == "" {
		base = chain.DefaultExplorer(chain.BTC, n.state.NetworkType())
	}
	return chain.NewExplorerLinks(base)
}

// GenerateKeypair creates a random P2PKH account on the current network.
func (n *Network) GenerateKeypair() (chain.Keypair, error) {
	return GenerateKeypair(n.state.NetworkType())
}

// Connect decodes a WIF and makes its P2PKH address the active account.
func (n *Network) Connect(privateKey string) error {
	wif, address, err := DecodeWIF(privateKey, n.state.NetworkType())
	if err != nil {
		return err
	}
	n.key = wif.PrivKey
	n.state.SetAddress(address)
	return nil
}

// Balance returns the confirmed balance in satoshis. An empty address means
// the connected account.
func (n *Network) Balance(ctx context.Context, address string) (*big.Int, error) {
	address, err := n.resolve(address)
	if err != nil {
		return nil, err
	}
	return n.currentLedger().Balance(ctx, address)
}

// CreateTransaction selects inputs and builds an unsigned PSBT.
func (n *Network) CreateTransaction(ctx context.Context, req chain.SendRequest) (chain.UnsignedTx, error) {
	from, err := n.resolve(req.From)
	if err != nil {
		return nil, err
	}
	a := NewAssembler(n.currentLedger(), n.selector, n.state.NetworkType(), n.feeRate, n.logger)
	return a.Assemble(ctx, from, req.To, req.Amount)
}

// SignTransaction signs a PSBT built by CreateTransaction with the connected
// key.
func (n *Network) SignTransaction(_ context.Context, tx chain.UnsignedTx) (*chain.SignedTx, error) {
	utx, ok := tx.(*UnsignedTx)
	if !ok || utx == nil || utx.Packet == nil {
		return nil, fmt.Errorf("%w: not a bitcoin transaction", gwerr.ErrInvalidTransaction)
	}
	if n.key == nil {
		return nil, gwerr.ErrNotConnected
	}
	return SignPacket(utx.Packet, n.key)
}

// BroadcastTransaction pushes a signed transaction and returns the hash
// reported by the ledger.
func (n *Network) BroadcastTransaction(ctx context.Context, tx *chain.SignedTx) (string, error) {
	if tx == nil || len(tx.Raw) == 0 {
		return "", fmt.Errorf("%w: empty transaction", gwerr.ErrInvalidTransaction)
	}
	hash, err := n.currentLedger().PushTransaction(ctx, tx.Raw)
	if err != nil {
		return "", err
	}
	metrics.Global.RecordBroadcast()
	if tx.Hash != "" && hash != tx.Hash {
		n.debug("ledger reported hash %s for local %s", hash, tx.Hash)
	}
	return hash, nil
}

// TransactionStatus implements chain.Network.
func (n *Network) TransactionStatus(ctx context.Context, hash string) (chain.TxStatus, error) {
	return n.currentLedger().TransactionStatus(ctx, hash)
}

// WaitForConfirmation polls until the transaction has one confirmation, is
// rejected as a double spend, or the schedule runs out.
func (n *Network) WaitForConfirmation(ctx context.Context, hash string) (chain.ConfirmationState, error) {
	return n.poller.Wait(ctx, hash, func(ctx context.Context) (chain.TxStatus, error) {
		return n.currentLedger().TransactionStatus(ctx, hash)
	})
}

// RecoverTransaction returns the distinct input addresses of a signed
// transaction.
func (n *Network) RecoverTransaction(ctx context.Context, tx *chain.SignedTx) ([]string, error) {
	d, ok := n.currentLedger().(decoder)
	if !ok {
		return nil, gwerr.ErrNotSupported
	}
	return d.DecodeTransaction(ctx, tx.Raw)
}

// currentLedger returns the ledger for the current network type, switching
// ledgers that support it after State().SetNetworkType.
func (n *Network) currentLedger() chain.UTXOLedger {
	n.mu.Lock()
	defer n.mu.Unlock()

	network := n.state.NetworkType()
	if network == n.ledgerNet {
		return n.ledger
	}
	if s, ok := n.ledger.(networkSwitcher); ok {
		n.ledger = s.ForNetwork(network)
		n.debug("ledger switched from %s to %s", n.ledgerNet, network)
	}
	n.ledgerNet = network
	return n.ledger
}

func (n *Network) resolve(address string) (string, error) {
	if address == "" {
		address = n.state.Address()
	}
	if address == "" {
		return "", gwerr.ErrNotConnected
	}
	if _, err := ValidateAddress(address, n.state.NetworkType()); err != nil {
		return "", err
	}
	return address, nil
}

func (n *Network) debug(format string, args ...any) {
	if n.logger != nil {
		n.logger.Debug(format, args...)
	}
}

var _ chain.Network = (*Network)(nil)
