package eth

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"golang.org/x/sync/errgroup"

	"github.com/scifier/blockchain-gateway/internal/account"
	"github.com/scifier/blockchain-gateway/internal/chain"
	gwerr "github.com/scifier/blockchain-gateway/pkg/errors"
)

// Chain IDs used when no override is configured. Testnet is the
// Ropsten-compatible id.
const (
	MainnetChainID = 1
	TestnetChainID = 3
)

// ChainIDFor returns the default chain id of a network type.
func ChainIDFor(network account.NetworkType) *big.Int {
	if network.IsTestnet() {
		return big.NewInt(TestnetChainID)
	}
	return big.NewInt(MainnetChainID)
}

// UnsignedTx is a legacy value transfer awaiting a signature.
type UnsignedTx struct {
	From     common.Address
	To       common.Address
	Value    *big.Int
	Gas      uint64
	GasPrice *big.Int
	Nonce    uint64
	ChainID  *big.Int
}

// Chain implements chain.UnsignedTx.
func (*UnsignedTx) Chain() chain.ID {
	return chain.ETH
}

// Fee returns the maximum fee, gas * gasPrice, in wei.
func (u *UnsignedTx) Fee() *big.Int {
	return Fee(u.Gas, u.GasPrice)
}

// Transaction returns the go-ethereum form of u.
func (u *UnsignedTx) Transaction() *types.Transaction {
	to := u.To
	return types.NewTx(&types.LegacyTx{
		Nonce:    u.Nonce,
		GasPrice: u.GasPrice,
		Gas:      u.Gas,
		To:       &to,
		Value:    u.Value,
	})
}

// Assembler builds unsigned transfers from ledger data.
type Assembler struct {
	ledger  chain.AccountLedger
	chainID *big.Int
	speed   GasSpeed
	nonces  *NonceManager
}

// NewAssembler creates an assembler. nonces may be nil to always use the
// node's pending nonce.
func NewAssembler(ledger chain.AccountLedger, chainID *big.Int, speed GasSpeed, nonces *NonceManager) *Assembler {
	return &Assembler{ledger: ledger, chainID: chainID, speed: speed, nonces: nonces}
}

// Assemble checks the sender can cover amount, then gathers gas, gas price
// and nonce concurrently. The first failure cancels the others.
func (a *Assembler) Assemble(ctx context.Context, from, to string, amount *big.Int) (*UnsignedTx, error) {
	if amount == nil || amount.Sign() < 0 {
		return nil, fmt.Errorf("%w: %v", gwerr.ErrInvalidAmount, amount)
	}
	fromAddr, err := NormalizeAddress(from)
	if err != nil {
		return nil, err
	}
	toAddr, err := NormalizeAddress(to)
	if err != nil {
		return nil, err
	}

	balance, err := a.ledger.Balance(ctx, fromAddr.Hex())
	if err != nil {
		return nil, err
	}
	if amount.Cmp(balance) > 0 {
		return nil, gwerr.WithDetails(gwerr.ErrInsufficientFunds, map[string]string{
			"need": amount.String(),
			"have": balance.String(),
		})
	}

	var (
		gas      uint64
		gasPrice *big.Int
		pending  uint64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var gerr error
		gas, gerr = a.ledger.EstimateGas(gctx, chain.CallRequest{
			From:  fromAddr.Hex(),
			To:    toAddr.Hex(),
			Value: amount,
			Gas:   GasEstimateCap,
		})
		return gerr
	})
	g.Go(func() error {
		var perr error
		gasPrice, perr = a.ledger.GasPrice(gctx)
		return perr
	})
	g.Go(func() error {
		var nerr error
		pending, nerr = a.ledger.PendingNonce(gctx, fromAddr.Hex())
		return nerr
	})
	if err = g.Wait(); err != nil {
		return nil, err
	}

	nonce := pending
	if a.nonces != nil {
		nonce = a.nonces.Next(fromAddr.Hex(), pending)
	}

	return &UnsignedTx{
		From:     fromAddr,
		To:       toAddr,
		Value:    new(big.Int).Set(amount),
		Gas:      gas,
		GasPrice: a.speed.Apply(gasPrice),
		Nonce:    nonce,
		ChainID:  new(big.Int).Set(a.chainID),
	}, nil
}
