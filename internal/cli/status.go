//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scifier/blockchain-gateway/internal/chain"
	gwerr "github.com/scifier/blockchain-gateway/pkg/errors"
)

// statusWait polls until a terminal state instead of checking once.
var statusWait bool

var statusCmd = &cobra.Command{
	Use:   "status <hash>",
	Short: "Show the confirmation state of a transaction",
	Long: `Query the ledger for a transaction.

Without --wait the ledger is asked once and the state is pending, confirmed
or rejected. With --wait the command polls on the confirmation schedule
until the transaction is confirmed, rejected or the schedule runs out.`,
	Example: `  gateway status --chain btc 4b6f...e1
  gateway status --chain eth --wait 0x88df...6b`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cc, err := mustCmdContext(cmd)
	if err != nil {
		return err
	}
	hash := strings.TrimSpace(args[0])

	ctx, cancel := contextWithTimeout(cmd, sendTimeout)
	defer cancel()

	network, err := cc.network(ctx)
	if err != nil {
		return err
	}
	defer closeNetwork(network)

	result := StatusResult{
		Chain:   cc.Chain,
		Network: cc.Network.String(),
		Hash:    hash,
		Link:    network.Explorer().TransactionLink(hash),
	}

	if statusWait {
		cc.Progress.Infof("waiting for %s...", hash)
		state, waitErr := network.WaitForConfirmation(ctx, hash)
		result.State = state.String()
		if state == chain.Rejected && waitErr != nil {
			result.Reason = waitErr.Error()
		}
		if err := cc.Fmt.Print(result); err != nil {
			return err
		}
		return waitOutcome(cc, state, waitErr)
	}

	st, err := network.TransactionStatus(ctx, hash)
	switch {
	case errors.Is(err, gwerr.ErrTxRejected):
		st = chain.TxStatus{Found: true, Rejected: true, Reason: err.Error()}
	case err != nil:
		return err
	}

	result.State = stateOf(st).String()
	result.Confirmations = st.Confirmations
	result.Reason = st.Reason
	return cc.Fmt.Print(result)
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVarP(&statusWait, "wait", "w", false, "poll until a terminal state")
}
