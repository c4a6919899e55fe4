package btc

import (
	"fmt"
	"math"
	"sort"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/shopspring/decimal"

	"github.com/scifier/blockchain-gateway/internal/chain"
	"github.com/scifier/blockchain-gateway/internal/metrics"
	gwerr "github.com/scifier/blockchain-gateway/pkg/errors"
)

// Size model used for fees, in bytes.
const (
	// BaseTxSize models a one-input transaction with one or two outputs.
	BaseTxSize = 225

	// ExtraInputSize is charged for every input beyond the first.
	ExtraInputSize = 179
)

// maxSatoshi bounds every amount, fee and output value the selector accepts.
// Sums of two such values cannot wrap a uint64.
const maxSatoshi = uint64(btcutil.MaxSatoshi)

// Selector picks inputs for a payment using smallest-fit-first, falling back
// to the largest remaining output when nothing fits.
type Selector struct {
	// Dust is the smallest change output worth creating. Smaller change is
	// left to the miner.
	Dust uint64

	// MinSpend is the smallest payment accepted.
	MinSpend uint64
}

// NewSelector returns a selector whose change threshold and minimum spend
// are both dust.
func NewSelector(dust uint64) *Selector {
	return &Selector{Dust: dust, MinSpend: dust}
}

// SelectionResult is the outcome of a successful selection.
type SelectionResult struct {
	Inputs []chain.UnspentOutput // In selection order
	Amount uint64                // Payment value
	Fee    uint64                // Size-based fee
	Change uint64                // 0, or at least the selector's dust
}

// Total returns the sum of the selected inputs.
func (r *SelectionResult) Total() uint64 {
	var sum uint64
	for _, in := range r.Inputs {
		sum += in.Value
	}
	return sum
}

// EffectiveFee returns what the miner actually receives: the size-based fee
// plus any change absorbed as dust.
func (r *SelectionResult) EffectiveFee() uint64 {
	return r.Total() - r.Amount - r.Change
}

// HasChange reports whether a change output will be created.
func (r *SelectionResult) HasChange() bool {
	return r.Change > 0
}

// FeeForRate returns floor(size * rate) in satoshis, saturating at
// math.MaxUint64.
func FeeForRate(size int64, rate decimal.Decimal) uint64 {
	fee := decimal.NewFromInt(size).Mul(rate).Floor()
	if fee.IsNegative() {
		return 0
	}
	if fee.GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return math.MaxUint64
	}
	return uint64(fee.IntPart()) //nolint:gosec // G115: non-negative checked above
}

// Select chooses inputs from candidates to pay amount at rate satoshis per
// byte. The candidate slice is not modified.
func (s *Selector) Select(amount uint64, candidates []chain.UnspentOutput, rate decimal.Decimal) (*SelectionResult, error) {
	result, err := s.selectInputs(amount, candidates, rate)
	var absorbed uint64
	if result != nil {
		absorbed = result.EffectiveFee() - result.Fee
	}
	metrics.Global.RecordSelection(absorbed, err)
	return result, err
}

func (s *Selector) selectInputs(amount uint64, candidates []chain.UnspentOutput, rate decimal.Decimal) (*SelectionResult, error) {
	if len(candidates) == 0 {
		return nil, gwerr.ErrNoUTXOs
	}
	if amount == 0 {
		return nil, fmt.Errorf("%w: amount must be positive", gwerr.ErrInvalidAmount)
	}
	if amount > maxSatoshi {
		return nil, fmt.Errorf("%w: %d exceeds %d satoshis", gwerr.ErrInvalidAmount, amount, maxSatoshi)
	}

	baseFee := FeeForRate(BaseTxSize, rate)
	inputFee := FeeForRate(ExtraInputSize, rate)
	if baseFee > maxSatoshi || inputFee > maxSatoshi {
		return nil, fmt.Errorf("%w: fee rate %s sat/byte is out of range", gwerr.ErrInvalidAmount, rate)
	}
	for _, u := range candidates {
		if u.Value > maxSatoshi {
			return nil, fmt.Errorf("%w: output %s:%d value %d out of range",
				gwerr.ErrInvalidTransaction, u.TxID, u.OutputIndex, u.Value)
		}
	}

	remaining := make([]chain.UnspentOutput, len(candidates))
	copy(remaining, candidates)
	sort.SliceStable(remaining, func(i, j int) bool {
		return remaining[i].Value < remaining[j].Value
	})

	if amount < s.MinSpend {
		return nil, gwerr.WithDetails(gwerr.ErrAmountTooLow, map[string]string{
			"amount":  fmt.Sprintf("%d", amount),
			"minimum": fmt.Sprintf("%d", s.MinSpend),
		})
	}

	var available uint64
	for _, u := range remaining {
		if available > math.MaxUint64-u.Value {
			available = math.MaxUint64
			break
		}
		available += u.Value
	}
	if available < amount+baseFee {
		return nil, insufficient(amount+baseFee, available)
	}

	var (
		selected []chain.UnspentOutput
		sum      uint64
		fee      = baseFee
	)
	for {
		if len(remaining) == 0 {
			return nil, insufficient(amount+fee, sum)
		}

		target := amount + fee
		if i := firstFit(remaining, sum, target); i >= 0 {
			selected = append(selected, remaining[i])
			sum += remaining[i].Value
			break
		}

		largest := remaining[len(remaining)-1]
		remaining = remaining[:len(remaining)-1]
		selected = append(selected, largest)
		sum += largest.Value
		fee += inputFee
		if fee > maxSatoshi {
			return nil, insufficient(amount+fee, sum)
		}
	}

	change := sum - amount - fee
	if change < s.Dust {
		change = 0
	}

	return &SelectionResult{
		Inputs: selected,
		Amount: amount,
		Fee:    fee,
		Change: change,
	}, nil
}

// firstFit returns the index of the smallest output that lifts sum to
// target, or -1. sorted must be ascending.
func firstFit(sorted []chain.UnspentOutput, sum, target uint64) int {
	for i, u := range sorted {
		if sum+u.Value >= target {
			return i
		}
	}
	return -1
}

func insufficient(need, have uint64) error {
	return gwerr.WithDetails(gwerr.ErrInsufficientFunds, map[string]string{
		"need": fmt.Sprintf("%d", need),
		"have": fmt.Sprintf("%d", have),
	})
}
