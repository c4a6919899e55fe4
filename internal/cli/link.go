package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	gwerr "github.com/scifier/blockchain-gateway/pkg/errors"
)

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Print block explorer links",
	Long: `Print block explorer links for the selected chain and network.

The explorer base can be overridden per chain in the configuration file.`,
}

var linkTxCmd = &cobra.Command{
	Use:     "tx <hash>",
	Short:   "Link to a transaction",
	Example: `  gateway link tx --chain eth 0x88df...6b`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printLink(cmd, func(cc *CommandContext) (string, error) {
			return explorerFor(cc).TransactionLink(args[0]), nil
		})
	},
}

var linkAddressCmd = &cobra.Command{
	Use:     "address <address>",
	Short:   "Link to an address",
	Example: `  gateway link address --chain btc mipcBbFg9gMiCh81Kj8tqqdgoZub1ZJRfn`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printLink(cmd, func(cc *CommandContext) (string, error) {
			if err := validateAddress(cc.Chain, args[0], cc.Network); err != nil {
				return "", err
			}
			return explorerFor(cc).AddressLink(args[0]), nil
		})
	},
}

var linkBlockCmd = &cobra.Command{
	Use:     "block <number>",
	Short:   "Link to a block by height",
	Example: `  gateway link block --chain btc 2500000`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printLink(cmd, func(cc *CommandContext) (string, error) {
			number, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return "", gwerr.WithDetails(gwerr.ErrInvalidInput, map[string]string{
					"block": args[0],
				})
			}
			return explorerFor(cc).BlockLink(number), nil
		})
	},
}

func printLink(cmd *cobra.Command, build func(*CommandContext) (string, error)) error {
	cc, err := mustCmdContext(cmd)
	if err != nil {
		return err
	}
	link, err := build(cc)
	if err != nil {
		return err
	}
	if cc.Fmt.IsJSON() {
		return cc.Fmt.Print(map[string]string{"link": link})
	}
	return cc.Fmt.Print(link)
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	linkCmd.AddCommand(linkTxCmd)
	linkCmd.AddCommand(linkAddressCmd)
	linkCmd.AddCommand(linkBlockCmd)
	rootCmd.AddCommand(linkCmd)
	enrichParentLong(linkCmd)
}
