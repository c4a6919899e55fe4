package btc

import (
	"bytes"
	"context"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/scifier/blockchain-gateway/internal/account"
	"github.com/scifier/blockchain-gateway/internal/chain"
	gwerr "github.com/scifier/blockchain-gateway/pkg/errors"
)

const (
	txVersion = 2

	// maxPrevTxFetches bounds concurrent previous-transaction downloads.
	maxPrevTxFetches = 3
)

// UnsignedTx is a PSBT awaiting signatures together with the selection that
// produced it.
type UnsignedTx struct {
	Packet    *psbt.Packet
	Selection *SelectionResult
	FeeRate   decimal.Decimal
	From      string
	To        string
}

// Chain implements chain.UnsignedTx.
func (*UnsignedTx) Chain() chain.ID {
	return chain.BTC
}

// Fee returns the satoshis the miner receives, including absorbed dust.
func (u *UnsignedTx) Fee() *big.Int {
	return new(big.Int).SetUint64(u.Selection.EffectiveFee())
}

// Base64 returns the PSBT in its standard base64 encoding.
func (u *UnsignedTx) Base64() (string, error) {
	return u.Packet.B64Encode()
}

// Assembler builds unsigned PSBTs from ledger data.
type Assembler struct {
	ledger         chain.UTXOLedger
	selector       *Selector
	network        account.NetworkType
	defaultFeeRate decimal.Decimal
	logger         chain.LogWriter
}

// NewAssembler creates an assembler. defaultFeeRate is used when the ledger
// cannot report a fee rate.
func NewAssembler(ledger chain.UTXOLedger, selector *Selector, network account.NetworkType, defaultFeeRate decimal.Decimal, logger chain.LogWriter) *Assembler {
	return &Assembler{
		ledger:         ledger,
		selector:       selector,
		network:        network,
		defaultFeeRate: defaultFeeRate,
		logger:         logger,
	}
}

// Assemble selects inputs for paying amount satoshis from one address to
// another and returns the unsigned PSBT. The payment is output 0 and change,
// if any, is output 1 back to the sender.
func (a *Assembler) Assemble(ctx context.Context, from, to string, amount *big.Int) (*UnsignedTx, error) {
	if amount == nil || amount.Sign() <= 0 || !amount.IsUint64() {
		return nil, fmt.Errorf("%w: %v", gwerr.ErrInvalidAmount, amount)
	}
	fromScript, err := addressScript(from, a.network)
	if err != nil {
		return nil, err
	}
	toScript, err := addressScript(to, a.network)
	if err != nil {
		return nil, err
	}

	var (
		rate  decimal.Decimal
		utxos []chain.UnspentOutput
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, ferr := a.ledger.FeeRate(gctx)
		if ferr != nil {
			a.errorf("fee rate unavailable, using default %s sat/byte: %v", a.defaultFeeRate, ferr)
			r = a.defaultFeeRate
		}
		rate = r
		return nil
	})
	g.Go(func() error {
		var uerr error
		utxos, uerr = a.ledger.SpendableOutputs(gctx, from)
		return uerr
	})
	if err = g.Wait(); err != nil {
		return nil, err
	}

	selection, err := a.selector.Select(amount.Uint64(), utxos, rate)
	if err != nil {
		return nil, err
	}

	prevTxs, err := a.previousTransactions(ctx, selection.Inputs)
	if err != nil {
		return nil, err
	}

	outpoints := make([]*wire.OutPoint, len(selection.Inputs))
	sequences := make([]uint32, len(selection.Inputs))
	for i, in := range selection.Inputs {
		hash, herr := chainhash.NewHashFromStr(in.TxID)
		if herr != nil {
			return nil, fmt.Errorf("%w: input %s: %w", gwerr.ErrInvalidTransaction, in.TxID, herr)
		}
		outpoints[i] = wire.NewOutPoint(hash, in.OutputIndex)
		sequences[i] = wire.MaxTxInSequenceNum
	}

	outputs := []*wire.TxOut{wire.NewTxOut(int64(selection.Amount), toScript)} //nolint:gosec // G115: Select rejects amounts above btcutil.MaxSatoshi
	if selection.HasChange() {
		outputs = append(outputs, wire.NewTxOut(int64(selection.Change), fromScript)) //nolint:gosec // G115: change is below the input total, itself bounded by Select
	}

	packet, err := psbt.New(outpoints, outputs, txVersion, 0, sequences)
	if err != nil {
		return nil, fmt.Errorf("%w: creating psbt: %w", gwerr.ErrInvalidTransaction, err)
	}

	updater, err := psbt.NewUpdater(packet)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", gwerr.ErrInvalidTransaction, err)
	}
	for i, prev := range prevTxs {
		if err = attachPrevout(updater, i, prev); err != nil {
			return nil, err
		}
	}

	return &UnsignedTx{
		Packet:    packet,
		Selection: selection,
		FeeRate:   rate,
		From:      from,
		To:        to,
	}, nil
}

// prevTx is a decoded previous transaction with the output being spent.
type prevTx struct {
	tx      *wire.MsgTx
	index   uint32
	witness bool
}

func (a *Assembler) previousTransactions(ctx context.Context, inputs []chain.UnspentOutput) ([]prevTx, error) {
	out := make([]prevTx, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxPrevTxFetches)
	for i, in := range inputs {
		g.Go(func() error {
			raw, err := a.ledger.RawTransaction(gctx, in.TxID)
			if err != nil {
				return err
			}
			p, err := decodePrevTx(raw, in)
			if err != nil {
				return err
			}
			out[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func decodePrevTx(raw []byte, in chain.UnspentOutput) (prevTx, error) {
	var tx wire.MsgTx
	if err := tx.Deserialize(bytes.NewReader(raw)); err != nil {
		return prevTx{}, fmt.Errorf("%w: decoding %s: %w", gwerr.ErrInvalidTransaction, in.TxID, err)
	}
	if got := tx.TxHash().String(); got != in.TxID {
		return prevTx{}, gwerr.WithDetails(gwerr.ErrInvalidTransaction, map[string]string{
			"expected": in.TxID,
			"got":      got,
		})
	}
	if int(in.OutputIndex) >= len(tx.TxOut) {
		return prevTx{}, fmt.Errorf("%w: %s has no output %d", gwerr.ErrInvalidTransaction, in.TxID, in.OutputIndex)
	}
	return prevTx{tx: &tx, index: in.OutputIndex, witness: HasWitnessMarker(raw)}, nil
}

// attachPrevout records what input i spends. Segwit previous transactions
// spending to a witness program get a WitnessUtxo; everything else carries
// the full previous transaction.
func attachPrevout(u *psbt.Updater, i int, prev prevTx) error {
	out := prev.tx.TxOut[prev.index]

	var err error
	if prev.witness && txscript.IsWitnessProgram(out.PkScript) {
		err = u.AddInWitnessUtxo(wire.NewTxOut(out.Value, out.PkScript), i)
	} else {
		err = u.AddInNonWitnessUtxo(prev.tx, i)
	}
	if err != nil {
		return fmt.Errorf("%w: input %d: %w", gwerr.ErrInvalidTransaction, i, err)
	}
	return nil
}

// HasWitnessMarker reports whether a serialized transaction uses the
// segregated witness encoding: marker 0x00 and flag 0x01 after the version.
func HasWitnessMarker(raw []byte) bool {
	return len(raw) > 5 && raw[4] == 0x00 && raw[5] == 0x01
}

func (a *Assembler) errorf(format string, args ...any) {
	if a.logger != nil {
		a.logger.Error(format, args...)
	}
}
