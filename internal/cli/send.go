//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/scifier/blockchain-gateway/internal/chain"
	gwerr "github.com/scifier/blockchain-gateway/pkg/errors"
)

// sendTimeout bounds the whole send flow including confirmation polling.
const sendTimeout = 5 * time.Minute

var (
	sendTo     string
	sendAmount string
	sendYes    bool
	sendNoWait bool
	sendDryRun bool
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Build, sign, broadcast and track a payment",
	Long: `Send an amount from the private key's address to a recipient.

The transaction is built from the ledger's current state, its fee is shown
for confirmation, and it is signed locally. After broadcast the command polls
the ledger on a growing schedule until the transaction is confirmed, rejected
or the schedule runs out.

The key is read from GATEWAY_PRIVATE_KEY or prompted with hidden input.
Amounts are in the display unit (BTC or ETH).`,
	Example: `  gateway send --chain btc --to mipcBbFg9gMiCh81Kj8tqqdgoZub1ZJRfn --amount 0.0001
  gateway send --chain eth --to 0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359 --amount 0.01 --yes
  gateway send --chain btc --to mipcBbFg9gMiCh81Kj8tqqdgoZub1ZJRfn --amount 0.0001 --dry-run`,
	Args: cobra.NoArgs,
	RunE: runSend,
}

func runSend(cmd *cobra.Command, _ []string) error {
	cc, err := mustCmdContext(cmd)
	if err != nil {
		return err
	}

	to := strings.TrimSpace(sendTo)
	if err := validateAddress(cc.Chain, to, cc.Network); err != nil {
		return err
	}
	amount, err := chain.ParseDecimalAmount(sendAmount, cc.Chain.Decimals())
	if err != nil {
		return gwerr.WithSuggestion(err, fmt.Sprintf("amounts are in %s, e.g. --amount 0.001", strings.ToUpper(cc.Chain.String())))
	}

	key, err := readPrivateKey(cc)
	if err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(cmd, sendTimeout)
	defer cancel()

	network, err := cc.network(ctx)
	if err != nil {
		return err
	}
	defer closeNetwork(network)

	if err := network.Connect(key); err != nil {
		return err
	}
	from := network.State().Address()

	result := SendResult{
		Chain:   cc.Chain,
		Network: cc.Network.String(),
		From:    from,
		To:      to,
		Amount:  newAmount(cc.Chain, amount),
	}

	unsigned, err := network.CreateTransaction(ctx, chain.SendRequest{From: from, To: to, Amount: amount})
	if err != nil {
		return err
	}
	if f, ok := unsigned.(feeReporter); ok {
		fee := newAmount(cc.Chain, f.Fee())
		result.Fee = &fee
	}

	if !sendYes && !sendDryRun && !confirmSend(cc, result) {
		return gwerr.WithSuggestion(gwerr.ErrGeneral, "send cancelled")
	}

	signed, err := network.SignTransaction(ctx, unsigned)
	if err != nil {
		return err
	}
	cc.Log.Debug("signed %s transaction %s (%d bytes)", cc.Chain, signed.Hash, len(signed.Raw))

	if sendDryRun {
		return printDryRun(ctx, cc, network, signed, result)
	}

	hash, err := network.BroadcastTransaction(ctx, signed)
	if err != nil {
		return err
	}
	result.Hash = hash
	result.Link = network.Explorer().TransactionLink(hash)
	result.State = chain.Pending.String()
	cc.Progress.Infof("broadcast %s", hash)
	invalidateBalances(cc, from, to)

	if sendNoWait {
		return cc.Fmt.Print(result)
	}

	cc.Progress.Infof("waiting for confirmation...")
	state, waitErr := network.WaitForConfirmation(ctx, hash)
	result.State = state.String()
	if err := cc.Fmt.Print(result); err != nil {
		return err
	}
	return waitOutcome(cc, state, waitErr)
}

func confirmSend(cc *CommandContext, r SendResult) bool {
	p := cc.Progress
	p.Infof("sending %s from %s to %s", r.Amount.display(r.Chain), r.From, r.To)
	if r.Fee != nil {
		p.Infof("network fee %s", r.Fee.display(r.Chain))
	}
	return promptConfirmFn("Broadcast this transaction?")
}

func printDryRun(ctx context.Context, cc *CommandContext, network chain.Network, signed *chain.SignedTx, r SendResult) error {
	r.Hash = signed.Hash
	r.Raw = signed.Hex()
	r.State = "signed"
	if d, ok := network.(transactionDecoder); ok {
		signers, err := d.RecoverTransaction(ctx, signed)
		switch {
		case err == nil:
			r.Signers = signers
		case errors.Is(err, gwerr.ErrNotSupported):
		default:
			cc.Log.Error("decoding signed transaction: %v", err)
		}
	}
	return cc.Fmt.Print(r)
}

// waitOutcome turns a terminal confirmation state into the command's error.
// A cancelled or exhausted wait is reported but the broadcast still stands.
func waitOutcome(cc *CommandContext, state chain.ConfirmationState, err error) error {
	switch state {
	case chain.Confirmed:
		return nil
	case chain.Exhausted:
		cc.Progress.Warnf("not confirmed yet; check later with 'gateway status'")
		return gwerr.WithSuggestion(err, "the transaction may still confirm")
	default:
		return err
	}
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().StringVar(&sendTo, "to", "", "recipient address")
	sendCmd.Flags().StringVar(&sendAmount, "amount", "", "amount in BTC or ETH")
	sendCmd.Flags().BoolVarP(&sendYes, "yes", "y", false, "skip the confirmation prompt")
	sendCmd.Flags().BoolVar(&sendNoWait, "no-wait", false, "return after broadcast without polling")
	sendCmd.Flags().BoolVar(&sendDryRun, "dry-run", false, "sign but do not broadcast")

	_ = sendCmd.MarkFlagRequired("to")
	_ = sendCmd.MarkFlagRequired("amount")
}
