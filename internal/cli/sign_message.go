package cli

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	gwerr "github.com/scifier/blockchain-gateway/pkg/errors"
)

var signMessageCmd = &cobra.Command{
	Use:   "sign-message <message>",
	Short: "Sign a message with the private key (Ethereum)",
	Long: `Sign an arbitrary message with the EIP-191 personal message prefix.

The 65-byte signature is printed as 0x-prefixed hex with v in {27, 28}.
Only chains whose adapter signs messages support this command.`,
	Example: `  gateway sign-message --chain eth "hello"`,
	Args:    cobra.ExactArgs(1),
	RunE:    runSignMessage,
}

func runSignMessage(cmd *cobra.Command, args []string) error {
	cc, err := mustCmdContext(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(cmd, balanceTimeout)
	defer cancel()

	network, err := cc.network(ctx)
	if err != nil {
		return err
	}
	defer closeNetwork(network)

	signer, ok := network.(messageSigner)
	if !ok {
		return gwerr.WithSuggestion(
			fmt.Errorf("%w: message signing on %s", gwerr.ErrNotSupported, cc.Chain),
			"use --chain eth",
		)
	}

	key, err := readPrivateKey(cc)
	if err != nil {
		return err
	}
	if err := network.Connect(key); err != nil {
		return err
	}

	sig, err := signer.SignMessage([]byte(args[0]))
	if err != nil {
		return err
	}

	return cc.Fmt.Print(SignatureResult{
		Chain:     cc.Chain,
		Address:   network.State().Address(),
		Message:   args[0],
		Signature: hexutil.Encode(sig),
	})
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(signMessageCmd)
}
