package btc

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/scifier/blockchain-gateway/internal/chain"
	gwerr "github.com/scifier/blockchain-gateway/pkg/errors"
)

// SignPacket signs every input of p with key, finalizes it and extracts the
// network transaction. P2PKH and P2WPKH inputs are supported.
func SignPacket(p *psbt.Packet, key *btcec.PrivateKey) (*chain.SignedTx, error) {
	prevOuts, err := spentOutputs(p)
	if err != nil {
		return nil, err
	}

	byOutpoint := make(map[wire.OutPoint]*wire.TxOut, len(prevOuts))
	for i, in := range p.UnsignedTx.TxIn {
		byOutpoint[in.PreviousOutPoint] = prevOuts[i]
	}
	sigHashes := txscript.NewTxSigHashes(p.UnsignedTx, txscript.NewMultiPrevOutFetcher(byOutpoint))

	updater, err := psbt.NewUpdater(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", gwerr.ErrSigning, err)
	}
	pubKey := key.PubKey().SerializeCompressed()

	for i, prevOut := range prevOuts {
		var sig []byte
		switch {
		case txscript.IsPayToWitnessPubKeyHash(prevOut.PkScript):
			sig, err = txscript.RawTxInWitnessSignature(p.UnsignedTx, sigHashes, i,
				prevOut.Value, prevOut.PkScript, txscript.SigHashAll, key)
		case txscript.IsPayToPubKeyHash(prevOut.PkScript):
			sig, err = txscript.RawTxInSignature(p.UnsignedTx, i,
				prevOut.PkScript, txscript.SigHashAll, key)
		default:
			return nil, fmt.Errorf("%w: input %d has an unsupported script", gwerr.ErrSigning, i)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: input %d: %w", gwerr.ErrSigning, i, err)
		}

		outcome, serr := updater.Sign(i, sig, pubKey, nil, nil)
		if serr != nil {
			return nil, fmt.Errorf("%w: input %d: %w", gwerr.ErrSigning, i, serr)
		}
		if outcome == psbt.SignInvalid {
			return nil, fmt.Errorf("%w: input %d rejected the signature", gwerr.ErrSigning, i)
		}
	}

	if err = psbt.MaybeFinalizeAll(p); err != nil {
		return nil, fmt.Errorf("%w: finalizing: %w", gwerr.ErrSigning, err)
	}
	tx, err := psbt.Extract(p)
	if err != nil {
		return nil, fmt.Errorf("%w: extracting: %w", gwerr.ErrSigning, err)
	}

	var buf bytes.Buffer
	if err = tx.Serialize(&buf); err != nil {
		return nil, fmt.Errorf("%w: serializing: %w", gwerr.ErrSigning, err)
	}
	return &chain.SignedTx{Raw: buf.Bytes(), Hash: tx.TxHash().String()}, nil
}

// spentOutputs returns the output spent by each input, from either the
// witness or the full previous transaction.
func spentOutputs(p *psbt.Packet) ([]*wire.TxOut, error) {
	outs := make([]*wire.TxOut, len(p.Inputs))
	for i, in := range p.Inputs {
		switch {
		case in.WitnessUtxo != nil:
			outs[i] = in.WitnessUtxo
		case in.NonWitnessUtxo != nil:
			idx := p.UnsignedTx.TxIn[i].PreviousOutPoint.Index
			if int(idx) >= len(in.NonWitnessUtxo.TxOut) {
				return nil, fmt.Errorf("%w: input %d spends a missing output", gwerr.ErrSigning, i)
			}
			outs[i] = in.NonWitnessUtxo.TxOut[idx]
		default:
			return nil, fmt.Errorf("%w: input %d has no previous output", gwerr.ErrSigning, i)
		}
	}
	return outs, nil
}
